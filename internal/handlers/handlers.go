package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/obinna-lab/groupgate/internal/config"
	"github.com/obinna-lab/groupgate/internal/messages"
	"github.com/obinna-lab/groupgate/types"
	"go.uber.org/zap"
)

type Handlers struct {
	flow   *Flow
	state  types.StateStore
	cfg    *config.Config
	logger *zap.Logger
}

func NewHandlers(flow *Flow, state types.StateStore, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{
		flow:   flow,
		state:  state,
		cfg:    cfg,
		logger: logger,
	}
}

func (h *Handlers) MainHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.HandleCallback(ctx, b, update)
	case update.Message != nil && strings.HasPrefix(update.Message.Text, "/"):
		h.HandleCommand(ctx, b, update)
	case update.Message != nil:
		h.HandleText(ctx, b, update)
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := getChatIDFromUpdate(update)
	if chatID == 0 {
		return
	}

	cmd := strings.SplitN(strings.TrimSpace(update.Message.Text), " ", 2)[0]
	switch cmd {
	case "/start":
		h.sendStartMenu(ctx, b, chatID)
	case "/plans":
		h.sendGatewayMenu(ctx, b, chatID)
	case "/status":
		h.sendSubscriptionStatus(ctx, b, chatID)
	default:
		_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      messages.ErrorUnknownCommand(),
			ParseMode: messages.ParseModeHTML,
		})
	}
}

func (h *Handlers) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := getChatIDFromUpdate(update)
	if chatID == 0 {
		return
	}

	switch strings.TrimSpace(update.Message.Text) {
	case messages.BtnJoinGroup():
		h.sendGatewayMenu(ctx, b, chatID)
	case messages.BtnStatus():
		h.sendSubscriptionStatus(ctx, b, chatID)
	default:
		h.sendStartMenu(ctx, b, chatID)
	}
}

func (h *Handlers) sendStartMenu(ctx context.Context, b *bot.Bot, chatID int64) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      messages.StartWelcome(),
		ParseMode: messages.ParseModeHTML,
		ReplyMarkup: &models.ReplyKeyboardMarkup{
			Keyboard: [][]models.KeyboardButton{
				{{Text: messages.BtnJoinGroup()}},
				{{Text: messages.BtnStatus()}},
			},
			ResizeKeyboard:        true,
			InputFieldPlaceholder: messages.GatewayPlaceholder(),
		},
	})
	if err != nil {
		h.logger.Error("failed to send start menu", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handlers) sendGatewayMenu(ctx context.Context, b *bot.Bot, chatID int64) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      messages.ChooseGateway(),
		ParseMode: messages.ParseModeHTML,
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{
				{{Text: messages.BtnFlutterwave(), CallbackData: "gateway|flutterwave"}},
				{{Text: messages.BtnPaystack(), CallbackData: "gateway|paystack"}},
			},
		},
	})
	if err != nil {
		h.logger.Error("failed to send gateway menu", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handlers) buildPlanKeyboard() models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(h.cfg.Plans))
	for _, name := range config.PlanOrder() {
		plan, ok := h.cfg.Plan(name)
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s: %s", name, messages.PlanAmount(plan.PriceMinor, h.cfg.Currency))
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: label, CallbackData: "plan|" + name},
		})
	}
	return models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (h *Handlers) sendSubscriptionStatus(ctx context.Context, b *bot.Bot, chatID int64) {
	sub, err := h.flow.QueryStatus(ctx, chatID)
	if err != nil {
		h.logger.Error("failed to query subscription status", zap.Int64("chat_id", chatID), zap.Error(err))
		_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      messages.ErrorDefault(),
			ParseMode: messages.ParseModeHTML,
		})
		return
	}

	text := messages.NoActiveSubscription()
	if sub != nil {
		text = messages.SubscriptionStatus(sub.EndDate)
	}
	_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
}

func getChatIDFromUpdate(update *models.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil:
		return update.CallbackQuery.Message.Message.Chat.ID
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID
	default:
		return 0
	}
}
