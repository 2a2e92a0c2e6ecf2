package webhook

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/obinna-lab/groupgate/internal/payments"
	"github.com/obinna-lab/groupgate/store"
	"github.com/obinna-lab/groupgate/types"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*types.PaymentSession
	failSet  bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*types.PaymentSession)}
}

func (f *fakeSessionStore) UpsertPaymentSession(_ context.Context, userID int64, ref string, status types.SessionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[ref] = &types.PaymentSession{
		UserID:    userID,
		Reference: ref,
		Status:    status,
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeSessionStore) SetPaymentSessionStatus(_ context.Context, ref string, status types.SessionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet {
		return errors.New("session store unavailable")
	}
	s, ok := f.sessions[ref]
	if !ok || s.Status.Terminal() {
		return store.ErrNotFound
	}
	s.Status = status
	return nil
}

func (f *fakeSessionStore) GetPaymentSession(_ context.Context, ref string) (*types.PaymentSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[ref]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionStore) status(ref string) types.SessionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[ref]; ok {
		return s.Status
	}
	return ""
}

type fakeSubscriptionStore struct {
	mu         sync.Mutex
	subs       map[int64]types.Subscription
	upserts    int
	failUpsert bool
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{subs: make(map[int64]types.Subscription)}
}

func (f *fakeSubscriptionStore) UpsertSubscription(_ context.Context, sub types.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsert {
		return errors.New("subscription store unavailable")
	}
	f.upserts++
	f.subs[sub.ChatID] = sub
	return nil
}

func (f *fakeSubscriptionStore) GetActiveSubscription(_ context.Context, chatID int64) (*types.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[chatID]
	if !ok || sub.Status != types.SubscriptionActive {
		return nil, store.ErrNotFound
	}
	return &sub, nil
}

func (f *fakeSubscriptionStore) ListExpired(_ context.Context) ([]types.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Subscription
	now := time.Now()
	for _, sub := range f.subs {
		if sub.Status == types.SubscriptionActive && sub.EndDate.Before(now) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionStore) SetSubscriptionStatus(_ context.Context, chatID int64, ref string, status types.SubscriptionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[chatID]
	if !ok || sub.PaymentReference != ref || sub.Status != types.SubscriptionActive {
		return store.ErrNotFound
	}
	sub.Status = status
	f.subs[chatID] = sub
	return nil
}

func (f *fakeSubscriptionStore) RemoveSubscription(_ context.Context, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, chatID)
	return nil
}

func (f *fakeSubscriptionStore) get(chatID int64) (types.Subscription, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[chatID]
	return sub, ok
}

type fakeGateway struct {
	mu           sync.Mutex
	verification payments.Verification
	verifyErr    error
	verifyCalls  int
}

func (f *fakeGateway) Initialize(context.Context, payments.InitRequest) (string, error) {
	return "https://checkout.example/abc", nil
}

func (f *fakeGateway) Verify(context.Context, string) (payments.Verification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if f.verifyErr != nil {
		return payments.Verification{}, f.verifyErr
	}
	return f.verification, nil
}

type fakeMemberships struct {
	mu        sync.Mutex
	invites   int
	restores  []int64
	inviteErr error
}

func (f *fakeMemberships) IssueInvite(context.Context, time.Duration, int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inviteErr != nil {
		return "", f.inviteErr
	}
	f.invites++
	return "https://t.me/+invite", nil
}

func (f *fakeMemberships) Restore(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restores = append(f.restores, userID)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	chats []int64
}

func (f *fakeNotifier) Notify(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, chatID)
	f.sent = append(f.sent, text)
	return nil
}
