package cart

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDB emulates the slice of postgres the store touches, including the
// undefined-table condition before EnsureTable ran.
type stubDB struct {
	created  bool
	rows     map[int64][]byte
	ddlErr   error // returned for CREATE TABLE
	queryErr error // forced QueryRow error
	execErr  error // forced upsert error
}

func newStubDB() *stubDB { return &stubDB{rows: map[int64][]byte{}} }

func (s *stubDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	switch {
	case strings.Contains(sql, "CREATE TABLE"):
		if s.ddlErr != nil {
			return pgconn.CommandTag{}, s.ddlErr
		}
		s.created = true
		return pgconn.CommandTag{}, nil
	case strings.Contains(sql, "CREATE INDEX"):
		return pgconn.CommandTag{}, nil
	}
	if s.execErr != nil {
		return pgconn.CommandTag{}, s.execErr
	}
	if !s.created {
		return pgconn.CommandTag{}, &pgconn.PgError{Code: pgerrcode.UndefinedTable}
	}
	s.rows[args[0].(int64)] = append([]byte(nil), args[1].([]byte)...)
	return pgconn.CommandTag{}, nil
}

func (s *stubDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.queryErr != nil {
		return stubRow{err: s.queryErr}
	}
	if !s.created {
		return stubRow{err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}}
	}
	raw, ok := s.rows[args[0].(int64)]
	if !ok {
		return stubRow{err: pgx.ErrNoRows}
	}
	return stubRow{data: raw}
}

type stubRow struct {
	err  error
	data []byte
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = append([]byte(nil), r.data...)
	return nil
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	db := newStubDB()
	s := NewStore(db)
	ctx := context.Background()

	// user 42 has no cart row and the table does not exist yet
	first := &Cart{
		Items:      map[string]LineItem{"sku1": {Qty: 2, PriceCents: 500}},
		TotalQty:   2,
		TotalCents: 1000,
	}
	s.Save(ctx, 42, first)
	require.True(t, db.created, "save must provision the carts table")

	got, err := s.Load(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, first, got)

	// second save updates the same row, it does not append
	s.Save(ctx, 42, New())
	got, err = s.Load(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Zero(t, got.TotalQty)
	assert.Zero(t, got.TotalCents)
	assert.Len(t, db.rows, 1)
}

func TestLoadProvisionsMissingTable(t *testing.T) {
	db := newStubDB()
	s := NewStore(db)

	got, err := s.Load(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, db.created, "load must provision the carts table and retry")
}

func TestLoadAbsentOrInvalidUser(t *testing.T) {
	db := newStubDB()
	db.created = true
	s := NewStore(db)

	got, err := s.Load(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.Load(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadFailSoftOnStorageError(t *testing.T) {
	db := newStubDB()
	db.created = true
	db.queryErr = errors.New("connection refused")
	s := NewStore(db)

	got, err := s.Load(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadRejectsCorruptRow(t *testing.T) {
	db := newStubDB()
	db.created = true
	db.rows[42] = []byte(`{"totalQty":1,"totalCents":0}`)
	s := NewStore(db)

	got, err := s.Load(context.Background(), 42)
	require.ErrorIs(t, err, ErrCorrupt)
	assert.Nil(t, got)
}

func TestSaveNoopAndFailSoft(t *testing.T) {
	db := newStubDB()
	db.created = true
	s := NewStore(db)
	ctx := context.Background()

	s.Save(ctx, 0, New())
	s.Save(ctx, 42, nil)
	assert.Empty(t, db.rows)

	db.execErr = errors.New("connection refused")
	s.Save(ctx, 42, New()) // must not panic or propagate
	assert.Empty(t, db.rows)
}

func TestEnsureTableToleratesDuplicateRace(t *testing.T) {
	db := newStubDB()
	db.ddlErr = &pgconn.PgError{Code: pgerrcode.DuplicateTable}
	s := NewStore(db)

	require.NoError(t, s.EnsureTable(context.Background()))
}
