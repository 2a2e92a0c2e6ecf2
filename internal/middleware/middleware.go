package middleware

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type Middlewares struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Middlewares {
	return &Middlewares{logger: logger}
}

// PrivateChatOnly drops updates that did not originate from a private chat.
// The bot sits in the paid group as an admin; group chatter must never
// trigger the payment conversation.
func (m *Middlewares) PrivateChatOnly(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message != nil && update.Message.Chat.Type != models.ChatTypePrivate {
			return
		}
		if update.CallbackQuery != nil {
			msg := update.CallbackQuery.Message.Message
			if msg != nil && msg.Chat.Type != models.ChatTypePrivate {
				return
			}
		}
		next(ctx, b, update)
	}
}

// LogUpdates records every handled update with enough detail to trace a
// payment conversation end to end.
func (m *Middlewares) LogUpdates(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		switch {
		case update.Message != nil:
			m.logger.Debug("update: message",
				zap.Int64("chat_id", update.Message.Chat.ID),
				zap.String("text", update.Message.Text),
			)
		case update.CallbackQuery != nil:
			m.logger.Debug("update: callback",
				zap.Int64("user_id", update.CallbackQuery.From.ID),
				zap.String("data", update.CallbackQuery.Data),
			)
		}
		next(ctx, b, update)
	}
}
