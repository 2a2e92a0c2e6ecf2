package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/obinna-lab/groupgate/types"
	"go.uber.org/zap"
)

// Server exposes the gateway callback endpoints. Authentication happens on the
// raw body before any JSON is parsed; a bad signature is a hard 405.
type Server struct {
	echo       *echo.Echo
	reconciler *Reconciler
	logger     *zap.Logger

	paystackSecret  string
	flutterwaveHash string
}

func NewServer(reconciler *Reconciler, paystackSecret, flutterwaveHash string, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:            e,
		reconciler:      reconciler,
		logger:          logger,
		paystackSecret:  paystackSecret,
		flutterwaveHash: flutterwaveHash,
	}

	e.GET("/health", s.handleHealth)
	e.POST("/webhook/paystack", s.handlePaystack)
	e.POST("/webhook/flutterwave", s.handleFlutterwave)

	return s
}

func (s *Server) Start(addr string) error {
	s.logger.Info("starting webhook server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying mux for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "healthy"})
}

func (s *Server) handlePaystack(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, "cannot read body")
	}

	signature := c.Request().Header.Get("x-paystack-signature")
	if !VerifyPaystackSignature(s.paystackSecret, body, signature) {
		s.logger.Warn("rejected paystack webhook with bad signature",
			zap.String("remote", c.RealIP()))
		return c.String(http.StatusMethodNotAllowed, "unauthorized")
	}

	ev, err := ParsePaystackEvent(body)
	if err != nil {
		s.logger.Warn("unparseable paystack webhook", zap.Error(err))
		return c.String(http.StatusBadRequest, "bad payload")
	}

	return s.finish(c, types.GatewayPaystack, ev)
}

func (s *Server) handleFlutterwave(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, "cannot read body")
	}

	signature := c.Request().Header.Get("verif-hash")
	if !VerifyFlutterwaveSignature(s.flutterwaveHash, signature) {
		s.logger.Warn("rejected flutterwave webhook with bad signature",
			zap.String("remote", c.RealIP()))
		return c.String(http.StatusMethodNotAllowed, "unauthorized")
	}

	ev, err := ParseFlutterwaveEvent(body)
	if err != nil {
		s.logger.Warn("unparseable flutterwave webhook", zap.Error(err))
		return c.String(http.StatusBadRequest, "bad payload")
	}

	return s.finish(c, types.GatewayFlutterwave, ev)
}

func (s *Server) finish(c echo.Context, provider types.GatewayName, ev Event) error {
	_, err := s.reconciler.Process(c.Request().Context(), provider, ev)
	if err != nil {
		if errors.Is(err, ErrBadPayload) {
			return c.String(http.StatusBadRequest, "bad payload")
		}
		// Internal detail stays internal; the provider only needs to retry.
		s.logger.Error("webhook reconciliation failed",
			zap.String("provider", string(provider)),
			zap.String("reference", ev.Reference),
			zap.Error(err))
		return c.String(http.StatusInternalServerError, "processing failed")
	}
	return c.String(http.StatusOK, "webhook received")
}
