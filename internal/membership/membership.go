// Package membership wraps the group-admission primitives of the Telegram
// Bot API: single-use invite links, bans on expiry and unbans on renewal.
package membership

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

var ErrMembership = errors.New("membership operation failed")

type Controller struct {
	bot     *bot.Bot
	groupID int64
	logger  *zap.Logger
}

func NewController(b *bot.Bot, groupID int64, logger *zap.Logger) *Controller {
	return &Controller{
		bot:     b,
		groupID: groupID,
		logger:  logger,
	}
}

// IssueInvite creates a time-bounded invite link limited to a single join.
func (c *Controller) IssueInvite(ctx context.Context, ttl time.Duration, maxUses int) (string, error) {
	if maxUses <= 0 {
		maxUses = 1
	}
	link, err := c.bot.CreateChatInviteLink(ctx, &bot.CreateChatInviteLinkParams{
		ChatID:      c.groupID,
		ExpireDate:  int(time.Now().Add(ttl).Unix()),
		MemberLimit: maxUses,
	})
	if err != nil {
		return "", errors.Join(ErrMembership, err)
	}
	return link.InviteLink, nil
}

// Revoke bans the user from the group. RevokeMessages also clears the user's
// recent messages, best effort. A user who already left or was already banned
// is not an error; the sweeper retries revocations.
func (c *Controller) Revoke(ctx context.Context, userID int64) error {
	_, err := c.bot.BanChatMember(ctx, &bot.BanChatMemberParams{
		ChatID:         c.groupID,
		UserID:         userID,
		RevokeMessages: true,
	})
	if err != nil {
		if isAbsentMemberError(err) {
			c.logger.Debug("revoke: user not in group", zap.Int64("user_id", userID))
			return nil
		}
		return errors.Join(ErrMembership, err)
	}
	return nil
}

// Restore lifts a prior expiry ban so a renewed subscriber can use a fresh
// invite link. A user who was never banned is a no-op.
func (c *Controller) Restore(ctx context.Context, userID int64) error {
	_, err := c.bot.UnbanChatMember(ctx, &bot.UnbanChatMemberParams{
		ChatID:       c.groupID,
		UserID:       userID,
		OnlyIfBanned: true,
	})
	if err != nil {
		if isAbsentMemberError(err) {
			return nil
		}
		return errors.Join(ErrMembership, err)
	}
	return nil
}

func isAbsentMemberError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user not found") ||
		strings.Contains(msg, "participant_id_invalid") ||
		strings.Contains(msg, "user_not_participant")
}
