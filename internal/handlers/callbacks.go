package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/obinna-lab/groupgate/internal/messages"
	"github.com/obinna-lab/groupgate/store"
	"github.com/obinna-lab/groupgate/types"
	"go.uber.org/zap"
)

func (h *Handlers) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	userID := query.From.ID
	chatID := getChatIDFromUpdate(update)
	if chatID == 0 {
		chatID = userID
	}

	_, _ = b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
	})

	action, arg, _ := strings.Cut(query.Data, "|")
	switch action {
	case "gateway":
		h.handleGatewayChoice(ctx, b, update, userID, chatID, arg)
	case "plan":
		h.handlePlanChoice(ctx, b, update, userID, chatID, arg)
	case "cancel":
		h.handleCancel(ctx, b, update, userID, chatID, arg)
	case "renew":
		h.sendGatewayMenu(ctx, b, chatID)
	default:
		h.logger.Warn("unknown callback action", zap.String("data", query.Data))
	}
}

func (h *Handlers) handleGatewayChoice(ctx context.Context, b *bot.Bot, update *models.Update, userID, chatID int64, arg string) {
	gateway := types.GatewayName(arg)
	if gateway != types.GatewayPaystack && gateway != types.GatewayFlutterwave {
		h.logger.Warn("unknown gateway selected", zap.String("gateway", arg))
		return
	}
	if err := h.state.SetGateway(userID, gateway); err != nil {
		h.logger.Error("failed to store gateway choice", zap.Int64("user_id", userID), zap.Error(err))
	}

	h.editOrSend(ctx, b, update, chatID, messages.ChoosePlan(), h.buildPlanKeyboard())
}

func (h *Handlers) handlePlanChoice(ctx context.Context, b *bot.Bot, update *models.Update, userID, chatID int64, planType string) {
	plan, ok := h.cfg.Plan(planType)
	if !ok {
		h.editOrSend(ctx, b, update, chatID, messages.InvalidPlan(), models.InlineKeyboardMarkup{})
		return
	}

	gateway, err := h.state.GetGateway(userID)
	if err != nil {
		gateway = types.GatewayFlutterwave
	}

	h.editOrSend(ctx, b, update, chatID,
		messages.InitiatingPayment(planType, plan.PriceMinor, h.cfg.Currency),
		models.InlineKeyboardMarkup{})

	checkoutURL, ref, err := h.flow.InitiatePayment(ctx, gateway, planType, chatID, usernameFromUpdate(update))
	if err != nil {
		h.logger.Error("payment initiation failed",
			zap.String("gateway", string(gateway)),
			zap.String("plan", planType),
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		h.editOrSend(ctx, b, update, chatID, messages.PaymentInitFailed(), models.InlineKeyboardMarkup{})
		return
	}

	keyboard := models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: messages.BtnPayNow(), URL: checkoutURL}},
			{{Text: messages.BtnCancel(), CallbackData: "cancel|" + ref}},
		},
	}
	h.editOrSend(ctx, b, update, chatID, messages.PaymentLink(planType), keyboard)
}

func (h *Handlers) handleCancel(ctx context.Context, b *bot.Bot, update *models.Update, userID, chatID int64, ref string) {
	if ref == "" {
		h.editOrSend(ctx, b, update, chatID, messages.PaymentCancelFailed(), models.InlineKeyboardMarkup{})
		return
	}

	if err := h.state.ClearGateway(userID); err != nil {
		h.logger.Debug("failed to clear gateway choice", zap.Int64("user_id", userID), zap.Error(err))
	}

	if err := h.flow.Cancel(ctx, ref); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("payment cancellation failed", zap.String("reference", ref), zap.Error(err))
		}
		h.editOrSend(ctx, b, update, chatID, messages.PaymentCancelFailed(), models.InlineKeyboardMarkup{})
		return
	}

	h.logger.Info("payment cancelled", zap.String("reference", ref), zap.Int64("chat_id", chatID))
	h.editOrSend(ctx, b, update, chatID, messages.PaymentCancelled(), models.InlineKeyboardMarkup{})
}

// editOrSend rewrites the message the button lived on, falling back to a new
// message when the original is inaccessible.
func (h *Handlers) editOrSend(ctx context.Context, b *bot.Bot, update *models.Update, chatID int64, text string, keyboard models.InlineKeyboardMarkup) {
	if update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil {
		params := &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: update.CallbackQuery.Message.Message.ID,
			Text:      text,
			ParseMode: messages.ParseModeHTML,
		}
		if len(keyboard.InlineKeyboard) > 0 {
			params.ReplyMarkup = &keyboard
		}
		_, err := b.EditMessageText(ctx, params)
		if err == nil {
			return
		}
		h.logger.Debug("edit failed, sending new message", zap.Error(err))
	}

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	}
	if len(keyboard.InlineKeyboard) > 0 {
		params.ReplyMarkup = &keyboard
	}
	_, _ = b.SendMessage(ctx, params)
}

func usernameFromUpdate(update *models.Update) string {
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	return ""
}
