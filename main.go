package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/obinna-lab/groupgate/internal/config"
	"github.com/obinna-lab/groupgate/internal/handlers"
	"github.com/obinna-lab/groupgate/internal/membership"
	"github.com/obinna-lab/groupgate/internal/middleware"
	"github.com/obinna-lab/groupgate/internal/payments"
	"github.com/obinna-lab/groupgate/internal/sweeper"
	"github.com/obinna-lab/groupgate/internal/webhook"
	"github.com/obinna-lab/groupgate/store"
	"github.com/obinna-lab/groupgate/types"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgStore, err := store.NewPostgresStore(ctx, os.Getenv("POSTGRES_DSN"))
	if err != nil {
		logger.Fatal("failed to connect to Postgres", zap.Error(err))
	}
	defer pgStore.Close()

	redisHost := envOr("REDIS_HOST", "localhost")
	redisPort := envOr("REDIS_PORT", "6379")
	rdb, err := store.NewRedisClient(
		fmt.Sprintf("%s:%s", redisHost, redisPort),
		os.Getenv("REDIS_PASSWORD"),
		0,
		"groupgate",
	)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer rdb.Close()

	stateStore := store.NewRedisStateStore(rdb, 24)

	httpClient := &http.Client{Timeout: 2 * time.Minute}
	pollTimeout := 50 * time.Second

	b, err := bot.New(
		cfg.BotToken,
		bot.WithHTTPClient(pollTimeout, httpClient),
	)
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}

	gateways := map[types.GatewayName]payments.Gateway{
		types.GatewayPaystack:    payments.NewPaystack(cfg.PaystackSecretKey),
		types.GatewayFlutterwave: payments.NewFlutterwave(cfg.FlutterwaveSecretKey),
	}

	members := membership.NewController(b, cfg.GroupID, logger)
	notifier := membership.NewNotifier(b, logger)

	reconciler := webhook.NewReconciler(
		pgStore,
		pgStore,
		gateways,
		members,
		notifier,
		cfg.Plans,
		cfg.GroupID,
		cfg.InviteTTL,
		logger,
	)
	webhookServer := webhook.NewServer(reconciler, cfg.PaystackSecretKey, cfg.FlutterwaveWebhookHash, logger)
	go func() {
		if err := webhookServer.Start(cfg.WebhookAddr); err != nil {
			logger.Fatal("webhook server failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := webhookServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("webhook server shutdown failed", zap.Error(err))
		}
	}()

	expirySweeper := sweeper.New(pgStore, members, notifier, sweeper.Config{
		Interval: cfg.SweepInterval,
	}, logger)
	expirySweeper.Start()
	defer expirySweeper.Stop()

	flow := handlers.NewFlow(pgStore, pgStore, gateways, cfg, logger)
	h := handlers.NewHandlers(flow, stateStore, cfg, logger)

	middlewares := middleware.New(logger)
	handlerChain := middlewares.PrivateChatOnly(
		middlewares.LogUpdates(
			h.MainHandler,
		),
	)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, handlerChain)

	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, handlerChain)

	logger.Info("bot started")
	b.Start(ctx)
}

func envOr(name, def string) string {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	return v
}
