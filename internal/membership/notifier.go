package membership

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/obinna-lab/groupgate/internal/messages"
	"go.uber.org/zap"
)

// Notifier sends out-of-conversation messages to users: payment confirmations
// with invite links and expiry notices with a renewal entry point.
type Notifier struct {
	bot    *bot.Bot
	logger *zap.Logger
}

func NewNotifier(b *bot.Bot, logger *zap.Logger) *Notifier {
	return &Notifier{bot: b, logger: logger}
}

func (n *Notifier) Notify(ctx context.Context, chatID int64, text string) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
	return err
}

// NotifyRenewal attaches a Renew button so a removed user can start a new
// payment without typing a command.
func (n *Notifier) NotifyRenewal(ctx context.Context, chatID int64, text string) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{
				{{Text: messages.BtnRenew(), CallbackData: "renew"}},
			},
		},
	})
	return err
}
