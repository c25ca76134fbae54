package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/extramods/modgate-bot/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

var (
	ErrNotFound        = errors.New("not found")
	ErrMinGateChannels = errors.New("gate channel minimum reached")
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
		db = "modgate_bot"
	}
	user := strings.TrimSpace(os.Getenv("POSTGRES_USER"))
	if user == "" {
		user = "modgate_bot"
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

// Users

func (s *PostgresStore) GetOrCreateUser(userID int64, fullName, username string) (*types.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var u types.User
	err := s.pool.QueryRow(ctx, `
INSERT INTO users (user_id, full_name, username)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET
  full_name = EXCLUDED.full_name,
  username = EXCLUDED.username,
  updated_at = NOW()
RETURNING user_id, username, full_name, balance, created_at, updated_at
`, userID, strings.TrimSpace(fullName), strings.TrimSpace(username)).
		Scan(&u.UserID, &u.Username, &u.FullName, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) GetUser(userID int64) (*types.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var u types.User
	err := s.pool.QueryRow(ctx, `
SELECT user_id, username, full_name, balance, created_at, updated_at
FROM users
WHERE user_id = $1
`, userID).Scan(&u.UserID, &u.Username, &u.FullName, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) ListUserIDs() ([]int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, `SELECT user_id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Subscriptions

func (s *PostgresStore) GetActiveSubscription(userID int64) (*types.Subscription, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub, err := scanSubscription(s.pool.QueryRow(ctx, `
SELECT id, user_id, tariff_id, started_at, expires_at, is_active, created_at
FROM subscriptions
WHERE user_id = $1 AND is_active AND expires_at > NOW()
ORDER BY expires_at DESC
LIMIT 1
`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// CreateSubscription appends a ledger row. A purchase while a subscription is
// current stacks onto it: the base is the active row's expires_at. The user
// row is locked for the whole transaction so two concurrent purchases for one
// user serialize instead of both stacking on the same stale expiry. Months in
// the tariff duration are 30-day blocks, not calendar months. The new row's
// started_at is the stacking base, so history shows contiguous coverage
// windows.
func (s *PostgresStore) CreateSubscription(userID int64, tariffID string, duration time.Duration, infinite bool) (*types.Subscription, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sub, err := createSubscriptionTx(ctx, tx, userID, tariffID, duration, infinite)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sub, nil
}

func createSubscriptionTx(ctx context.Context, tx pgx.Tx, userID int64, tariffID string, duration time.Duration, infinite bool) (*types.Subscription, error) {
	// The active-row select below matches nothing for a user with no current
	// subscription, so it alone cannot serialize two first purchases. The
	// user row always exists by this point (GetOrCreateUser runs before any
	// purchase or grant); lock it as the per-user mutex.
	if _, err := tx.Exec(ctx, `SELECT user_id FROM users WHERE user_id = $1 FOR UPDATE`, userID); err != nil {
		return nil, err
	}

	var currentExpires time.Time
	err := tx.QueryRow(ctx, `
SELECT expires_at
FROM subscriptions
WHERE user_id = $1 AND is_active AND expires_at > NOW()
ORDER BY expires_at DESC
LIMIT 1
`, userID).Scan(&currentExpires)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	start, expires := subscriptionWindow(time.Now(), currentExpires, duration, infinite)

	return scanSubscription(tx.QueryRow(ctx, `
INSERT INTO subscriptions (user_id, tariff_id, started_at, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, tariff_id, started_at, expires_at, is_active, created_at
`, userID, strings.TrimSpace(tariffID), start, expires))
}

// subscriptionWindow computes the coverage window for a new ledger row. The
// base is the current active expiry when it is still ahead of now, else now.
// Infinite tariffs pin expires_at to the sentinel regardless of duration.
func subscriptionWindow(now, currentExpires time.Time, duration time.Duration, infinite bool) (start, expires time.Time) {
	start = now.UTC()
	if currentExpires.After(start) {
		start = currentExpires.UTC()
	}
	if infinite {
		return start, types.InfiniteExpiry
	}
	return start, start.Add(duration)
}

func (s *PostgresStore) ListSubscriptions(userID int64) ([]*types.Subscription, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, tariff_id, started_at, expires_at, is_active, created_at
FROM subscriptions
WHERE user_id = $1
ORDER BY started_at DESC
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func (s *PostgresStore) ListExpiringSoon(within time.Duration) ([]*types.Subscription, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cutoff := time.Now().UTC().Add(within)
	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, tariff_id, started_at, expires_at, is_active, created_at
FROM subscriptions
WHERE is_active AND expires_at > NOW() AND expires_at <= $1
`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func (s *PostgresStore) ListExpired() ([]*types.Subscription, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, tariff_id, started_at, expires_at, is_active, created_at
FROM subscriptions
WHERE is_active AND expires_at <= NOW()
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func (s *PostgresStore) DeactivateSubscriptions(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
UPDATE subscriptions
SET is_active = FALSE
WHERE id = ANY($1)
`, ids)
	return err
}

// Payments

func (s *PostgresStore) CreatePayment(userID int64, invoiceID, tariffID string, amountUSD float64) (*types.Payment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var p types.Payment
	err := s.pool.QueryRow(ctx, `
INSERT INTO payments (user_id, invoice_id, tariff_id, amount_usd)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, invoice_id, tariff_id, amount_usd, is_paid, created_at
`, userID, strings.TrimSpace(invoiceID), strings.TrimSpace(tariffID), amountUSD).
		Scan(&p.ID, &p.UserID, &p.InvoiceID, &p.TariffID, &p.AmountUSD, &p.IsPaid, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) GetPaymentByInvoice(invoiceID string) (*types.Payment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var p types.Payment
	err := s.pool.QueryRow(ctx, `
SELECT id, user_id, invoice_id, tariff_id, amount_usd, is_paid, created_at
FROM payments
WHERE invoice_id = $1
`, strings.TrimSpace(invoiceID)).
		Scan(&p.ID, &p.UserID, &p.InvoiceID, &p.TariffID, &p.AmountUSD, &p.IsPaid, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// lockPayment loads the payment row under FOR UPDATE so concurrent polls of
// the same invoice serialize on the settlement decision.
func lockPayment(ctx context.Context, tx pgx.Tx, invoiceID string) (userID int64, already bool, err error) {
	var isPaid bool
	err = tx.QueryRow(ctx, `
SELECT user_id, is_paid
FROM payments
WHERE invoice_id = $1
FOR UPDATE
`, strings.TrimSpace(invoiceID)).Scan(&userID, &isPaid)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, ErrNotFound
	}
	if err != nil {
		return 0, false, err
	}
	return userID, isPaid, nil
}

func markPaid(ctx context.Context, tx pgx.Tx, invoiceID string) error {
	_, err := tx.Exec(ctx, `
UPDATE payments
SET is_paid = TRUE
WHERE invoice_id = $1
`, strings.TrimSpace(invoiceID))
	return err
}

// SettleSubscription flips is_paid and inserts the subscription row in one
// transaction, so a repeated poll can never credit the tariff twice.
func (s *PostgresStore) SettleSubscription(invoiceID string, duration time.Duration, infinite bool) (*types.Subscription, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	userID, already, err := lockPayment(ctx, tx, invoiceID)
	if err != nil {
		return nil, false, err
	}
	if already {
		return nil, true, nil
	}

	var tariffID string
	if err := tx.QueryRow(ctx, `SELECT tariff_id FROM payments WHERE invoice_id = $1`, strings.TrimSpace(invoiceID)).Scan(&tariffID); err != nil {
		return nil, false, err
	}

	sub, err := createSubscriptionTx(ctx, tx, userID, tariffID, duration, infinite)
	if err != nil {
		return nil, false, err
	}
	if err := markPaid(ctx, tx, invoiceID); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return sub, false, nil
}

// SettleTopup credits the user balance and flips is_paid as one transaction.
func (s *PostgresStore) SettleTopup(invoiceID string, creditRub float64) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	userID, already, err := lockPayment(ctx, tx, invoiceID)
	if err != nil {
		return false, err
	}
	if already {
		return true, nil
	}

	_, err = tx.Exec(ctx, `
UPDATE users
SET balance = balance + $2, updated_at = NOW()
WHERE user_id = $1
`, userID, creditRub)
	if err != nil {
		return false, err
	}
	if err := markPaid(ctx, tx, invoiceID); err != nil {
		return false, err
	}
	return false, tx.Commit(ctx)
}

// SettleDelivery flips is_paid with no ledger effect; used for purchases
// whose payoff is delivered in the reply itself.
func (s *PostgresStore) SettleDelivery(invoiceID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, already, err := lockPayment(ctx, tx, invoiceID)
	if err != nil {
		return false, err
	}
	if already {
		return true, nil
	}
	if err := markPaid(ctx, tx, invoiceID); err != nil {
		return false, err
	}
	return false, tx.Commit(ctx)
}

// Gate channels

func (s *PostgresStore) ListGateChannels() ([]*types.GateChannel, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT id, username, title, added_at
FROM gate_channels
ORDER BY added_at
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	channels := make([]*types.GateChannel, 0)
	for rows.Next() {
		var ch types.GateChannel
		if err := rows.Scan(&ch.ID, &ch.Username, &ch.Title, &ch.AddedAt); err != nil {
			return nil, err
		}
		channels = append(channels, &ch)
	}
	return channels, rows.Err()
}

func (s *PostgresStore) AddGateChannel(username, title string) (*types.GateChannel, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var ch types.GateChannel
	err := s.pool.QueryRow(ctx, `
INSERT INTO gate_channels (username, title)
VALUES ($1, $2)
ON CONFLICT (username) DO UPDATE SET title = EXCLUDED.title
RETURNING id, username, title, added_at
`, strings.TrimSpace(username), strings.TrimSpace(title)).
		Scan(&ch.ID, &ch.Username, &ch.Title, &ch.AddedAt)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// RemoveGateChannel refuses to drop the set below minRemaining. Count and
// delete run in one transaction so concurrent removals cannot both slip past
// the check.
func (s *PostgresStore) RemoveGateChannel(id int64, minRemaining int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM gate_channels`).Scan(&count); err != nil {
		return err
	}
	if !gateRemovalAllowed(count, minRemaining) {
		return ErrMinGateChannels
	}

	tag, err := tx.Exec(ctx, `DELETE FROM gate_channels WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// gateRemovalAllowed decides whether deleting one gate channel keeps the set
// at or above the configured minimum.
func gateRemovalAllowed(count, minRemaining int) bool {
	return count > minRemaining
}

func (s *PostgresStore) CountGateChannels() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM gate_channels`).Scan(&count)
	return count, err
}

// SeedGateChannels copies the configured channels into the store on first
// boot only; a non-empty table wins over config.
func (s *PostgresStore) SeedGateChannels(channels []types.GateChannel) error {
	count, err := s.CountGateChannels()
	if err != nil {
		return err
	}
	if count > 0 || len(channels) == 0 {
		return nil
	}
	for _, ch := range channels {
		if _, err := s.AddGateChannel(ch.Username, ch.Title); err != nil {
			return err
		}
	}
	return nil
}

// Mod channels

func (s *PostgresStore) ListModChannels() ([]*types.ModChannel, error) {
	return s.listModChannels(`
SELECT id, username, title, url, is_private, COALESCE(channel_id, 0), added_at
FROM mod_channels
ORDER BY added_at
`)
}

func (s *PostgresStore) ListPrivateModChannels() ([]*types.ModChannel, error) {
	return s.listModChannels(`
SELECT id, username, title, url, is_private, COALESCE(channel_id, 0), added_at
FROM mod_channels
WHERE is_private
ORDER BY added_at
`)
}

func (s *PostgresStore) listModChannels(query string) ([]*types.ModChannel, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	channels := make([]*types.ModChannel, 0)
	for rows.Next() {
		var ch types.ModChannel
		if err := rows.Scan(&ch.ID, &ch.Username, &ch.Title, &ch.URL, &ch.IsPrivate, &ch.ChannelID, &ch.AddedAt); err != nil {
			return nil, err
		}
		channels = append(channels, &ch)
	}
	return channels, rows.Err()
}

func (s *PostgresStore) AddModChannel(ch types.ModChannel) (*types.ModChannel, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var channelID any
	if ch.ChannelID != 0 {
		channelID = ch.ChannelID
	}
	var out types.ModChannel
	err := s.pool.QueryRow(ctx, `
INSERT INTO mod_channels (username, title, url, is_private, channel_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, username, title, url, is_private, COALESCE(channel_id, 0), added_at
`, strings.TrimSpace(ch.Username), strings.TrimSpace(ch.Title), strings.TrimSpace(ch.URL), ch.IsPrivate, channelID).
		Scan(&out.ID, &out.Username, &out.Title, &out.URL, &out.IsPrivate, &out.ChannelID, &out.AddedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PostgresStore) RemoveModChannel(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `DELETE FROM mod_channels WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// helpers

func scanSubscription(row pgx.Row) (*types.Subscription, error) {
	var sub types.Subscription
	err := row.Scan(&sub.ID, &sub.UserID, &sub.TariffID, &sub.StartedAt, &sub.ExpiresAt, &sub.IsActive, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func collectSubscriptions(rows pgx.Rows) ([]*types.Subscription, error) {
	subs := make([]*types.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
