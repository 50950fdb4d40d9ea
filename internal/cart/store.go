package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// DB is the slice of pgxpool.Pool the store needs; the pool is handed in
// explicitly, the store never owns connection state.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists one cart row per user in the carts table. The table is
// provisioned lazily on first use, so every call tolerates the
// "table absent" condition via a retry-once wrapper.
type Store struct{ db DB }

func NewStore(db DB) *Store { return &Store{db: db} }

const createCartsTable = `
	CREATE TABLE IF NOT EXISTS carts (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		cart_data JSONB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)
`

// EnsureTable idempotently creates the carts table and its index. Safe to
// race: a concurrent creator surfaces as a duplicate-object SQLSTATE, which
// is benign here.
func (s *Store) EnsureTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.db.Exec(ctx, createCartsTable); err != nil && !isDuplicate(err) {
		return fmt.Errorf("create carts table: %w", err)
	}
	if _, err := s.db.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_carts_user ON carts(user_id)`); err != nil && !isDuplicate(err) {
		return fmt.Errorf("create carts index: %w", err)
	}
	return nil
}

// withProvision runs fn, and on an undefined-table error provisions the
// carts table and retries fn exactly once.
func (s *Store) withProvision(ctx context.Context, op string, fn func(context.Context) error) error {
	err := fn(ctx)
	if !isUndefinedTable(err) {
		return err
	}
	logrus.Warnf("[cart] carts table missing during %s, provisioning", op)
	if perr := s.EnsureTable(ctx); perr != nil {
		logrus.Errorf("[cart] provisioning carts table: %v", perr)
		return err
	}
	return fn(ctx)
}

// Load returns the stored cart for userID, or nil when there is none.
// Storage failures are logged and reported as absent (fail-soft); the only
// error Load returns is a corrupt stored payload.
func (s *Store) Load(ctx context.Context, userID int64) (*Cart, error) {
	if userID <= 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var raw []byte
	err := s.withProvision(ctx, "load", func(ctx context.Context) error {
		return s.db.QueryRow(ctx, `SELECT cart_data FROM carts WHERE user_id=$1`, userID).Scan(&raw)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logrus.Errorf("[cart] loading cart for user %d: %v", userID, err)
		return nil, nil
	}
	c, err := decode(raw)
	if err != nil {
		logrus.Errorf("[cart] stored cart for user %d: %v", userID, err)
		return nil, err
	}
	return c, nil
}

// Save upserts the cart payload for userID: the row is created if absent,
// otherwise its payload and updated_at are replaced. No-op for a missing
// user or cart. Persistence failures are logged and swallowed; callers get
// no signal, the session copy is what the request continues with.
func (s *Store) Save(ctx context.Context, userID int64, c *Cart) {
	if userID <= 0 || c == nil {
		return
	}
	payload, err := json.Marshal(c)
	if err != nil {
		logrus.Errorf("[cart] encoding cart for user %d: %v", userID, err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = s.withProvision(ctx, "save", func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, `
			INSERT INTO carts (user_id, cart_data, created_at, updated_at)
			VALUES ($1, $2, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			ON CONFLICT (user_id)
			DO UPDATE SET cart_data = EXCLUDED.cart_data, updated_at = CURRENT_TIMESTAMP
		`, userID, payload)
		return err
	})
	if err != nil {
		logrus.Errorf("[cart] saving cart for user %d: %v", userID, err)
	}
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.DuplicateTable, pgerrcode.DuplicateObject, pgerrcode.UniqueViolation:
		return true
	}
	return false
}
