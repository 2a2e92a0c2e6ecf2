// Package sweeper runs the periodic expiry scan: lapsed subscriptions are
// marked inactive, the user is removed from the group and nudged to renew.
package sweeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/obinna-lab/groupgate/internal/messages"
	"github.com/obinna-lab/groupgate/store"
	"github.com/obinna-lab/groupgate/types"
	"go.uber.org/zap"
)

type Memberships interface {
	Revoke(ctx context.Context, userID int64) error
}

type Notifier interface {
	NotifyRenewal(ctx context.Context, chatID int64, text string) error
}

type Sweeper struct {
	subs     types.SubscriptionStore
	members  Memberships
	notifier Notifier
	interval time.Duration
	logger   *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

type Config struct {
	Interval time.Duration
}

func New(subs types.SubscriptionStore, members Memberships, notifier Notifier, cfg Config, logger *zap.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		subs:     subs,
		members:  members,
		notifier: notifier,
		interval: cfg.Interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("expiry sweeper started", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.run()
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Info("expiry sweeper stopped")
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First sweep right away; a restart must not wait a full interval to
	// clean up subscriptions that expired while the process was down.
	s.Sweep(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.ctx)
		}
	}
}

// Sweep runs one expiry pass. A failure on one subscription never aborts the
// rest of the scan, and every step is idempotent so an overlapping or retried
// sweep is harmless.
func (s *Sweeper) Sweep(ctx context.Context) {
	expired, err := s.subs.ListExpired(ctx)
	if err != nil {
		s.logger.Error("failed to list expired subscriptions", zap.Error(err))
		return
	}

	for i := range expired {
		if ctx.Err() != nil {
			return
		}
		s.sweepOne(ctx, &expired[i])
	}
}

func (s *Sweeper) sweepOne(ctx context.Context, sub *types.Subscription) {
	log := s.logger.With(
		zap.Int64("chat_id", sub.ChatID),
		zap.String("reference", sub.PaymentReference),
	)

	// Mark inactive before revoking so a crash between the two leaves a user
	// who is still in the group but no longer billed as active; the reverse
	// would ban a user the store still calls active. ErrNotFound means the
	// row changed since ListExpired, typically a renewal webhook replacing
	// the reference mid-sweep; that user must keep their membership.
	if err := s.subs.SetSubscriptionStatus(ctx, sub.ChatID, sub.PaymentReference, types.SubscriptionInactive); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("subscription already resolved, skipping")
			return
		}
		log.Error("failed to deactivate expired subscription", zap.Error(err))
		return
	}

	if err := s.members.Revoke(ctx, sub.ChatID); err != nil {
		log.Error("failed to remove user from group", zap.Error(err))
	}

	if err := s.notifier.NotifyRenewal(ctx, sub.ChatID, messages.SubscriptionExpired()); err != nil {
		log.Warn("failed to send expiry notification", zap.Error(err))
	}

	log.Info("expired subscription swept", zap.Time("end_date", sub.EndDate))
}
