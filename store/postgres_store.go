package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/obinna-lab/groupgate/types"
	"github.com/pressly/goose/v3"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

var (
	ErrNotFound   = errors.New("not found")
	ErrConstraint = errors.New("constraint violation")
)

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = buildPostgresDSNFromEnv()
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func buildPostgresDSNFromEnv() string {
	host := strings.TrimSpace(os.Getenv("POSTGRES_HOST"))
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(os.Getenv("POSTGRES_PORT"))
	if port == "" {
		port = "5432"
	}
	db := strings.TrimSpace(os.Getenv("POSTGRES_DB"))
	if db == "" {
		db = "groupgate"
	}
	user := strings.TrimSpace(os.Getenv("POSTGRES_USER"))
	if user == "" {
		user = "groupgate"
	}
	pass := os.Getenv("POSTGRES_PASSWORD")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", urlEscape(user), urlEscape(pass), host, port, db)
}

func urlEscape(s string) string {
	r := strings.NewReplacer(
		"%", "%25",
		":", "%3A",
		"/", "%2F",
		"@", "%40",
		"?", "%3F",
		"#", "%23",
		"[", "%5B",
		"]", "%5D",
	)
	return r.Replace(s)
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func wrapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s", ErrConstraint, pgErr.Message)
	}
	return err
}

func (s *PostgresStore) UpsertPaymentSession(ctx context.Context, userID int64, reference string, status types.SessionStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO payment_sessions (user_id, payment_reference, status)
VALUES ($1, $2, $3)
ON CONFLICT (payment_reference) DO UPDATE SET
  status = EXCLUDED.status;
`, userID, strings.TrimSpace(reference), string(status))
	return wrapPgError(err)
}

// SetPaymentSessionStatus moves an existing session to a new status. Terminal
// statuses are sticky: once a session is success or cancelled the update is a
// no-op and ErrNotFound is returned, same as for an unknown reference.
func (s *PostgresStore) SetPaymentSessionStatus(ctx context.Context, reference string, status types.SessionStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `
UPDATE payment_sessions
SET status = $2
WHERE payment_reference = $1 AND status = 'pending'
`, strings.TrimSpace(reference), string(status))
	if err != nil {
		return wrapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetPaymentSession(ctx context.Context, reference string) (*types.PaymentSession, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var ps types.PaymentSession
	err := s.pool.QueryRow(ctx, `
SELECT id, user_id, payment_reference, status, created_at
FROM payment_sessions
WHERE payment_reference = $1
`, strings.TrimSpace(reference)).Scan(&ps.ID, &ps.UserID, &ps.Reference, &ps.Status, &ps.CreatedAt)
	if err != nil {
		return nil, wrapPgError(err)
	}
	return &ps, nil
}

// UpsertSubscription keeps one row per chat id: a renewal overwrites the
// previous subscription in place and reactivates it.
func (s *PostgresStore) UpsertSubscription(ctx context.Context, sub types.Subscription) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO subscriptions (telegram_chat_id, username, subscription_type, start_date, end_date, payment_reference, group_id, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (telegram_chat_id) DO UPDATE SET
  username = EXCLUDED.username,
  subscription_type = EXCLUDED.subscription_type,
  start_date = EXCLUDED.start_date,
  end_date = EXCLUDED.end_date,
  payment_reference = EXCLUDED.payment_reference,
  group_id = EXCLUDED.group_id,
  status = EXCLUDED.status;
`, sub.ChatID, strings.TrimSpace(sub.Username), strings.TrimSpace(sub.PlanType), sub.StartDate, sub.EndDate, strings.TrimSpace(sub.PaymentReference), sub.GroupID, string(sub.Status))
	return wrapPgError(err)
}

func (s *PostgresStore) GetActiveSubscription(ctx context.Context, chatID int64) (*types.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var sub types.Subscription
	err := s.pool.QueryRow(ctx, `
SELECT telegram_chat_id, username, subscription_type, start_date, end_date, payment_reference, group_id, status
FROM subscriptions
WHERE telegram_chat_id = $1 AND status = 'active'
`, chatID).Scan(&sub.ChatID, &sub.Username, &sub.PlanType, &sub.StartDate, &sub.EndDate, &sub.PaymentReference, &sub.GroupID, &sub.Status)
	if err != nil {
		return nil, wrapPgError(err)
	}
	return &sub, nil
}

func (s *PostgresStore) ListExpired(ctx context.Context) ([]types.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT telegram_chat_id, username, subscription_type, start_date, end_date, payment_reference, group_id, status
FROM subscriptions
WHERE status = 'active' AND end_date < NOW()
`)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer rows.Close()

	var expired []types.Subscription
	for rows.Next() {
		var sub types.Subscription
		if err := rows.Scan(&sub.ChatID, &sub.Username, &sub.PlanType, &sub.StartDate, &sub.EndDate, &sub.PaymentReference, &sub.GroupID, &sub.Status); err != nil {
			return nil, err
		}
		expired = append(expired, sub)
	}
	return expired, rows.Err()
}

// SetSubscriptionStatus transitions the active subscription identified by
// chat id and payment reference. If the row was renewed under a new reference
// or already deactivated, nothing matches and ErrNotFound is returned so the
// caller knows the subscription it saw is gone.
func (s *PostgresStore) SetSubscriptionStatus(ctx context.Context, chatID int64, reference string, status types.SubscriptionStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `
UPDATE subscriptions
SET status = $3
WHERE telegram_chat_id = $1 AND payment_reference = $2 AND status = 'active'
`, chatID, strings.TrimSpace(reference), string(status))
	if err != nil {
		return wrapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RemoveSubscription(ctx context.Context, chatID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
DELETE FROM subscriptions WHERE telegram_chat_id = $1
`, chatID)
	return wrapPgError(err)
}
