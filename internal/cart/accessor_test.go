package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct {
	values map[string]any
	sets   int
}

func newStubSession() *stubSession { return &stubSession{values: map[string]any{}} }

func (s *stubSession) Get(key string) any { return s.values[key] }

func (s *stubSession) Set(key string, v any) {
	s.values[key] = v
	s.sets++
}

type stubLoader struct {
	c   *Cart
	err error
}

func (s *stubLoader) Load(ctx context.Context, userID int64) (*Cart, error) {
	return s.c, s.err
}

func TestCurrentWithoutSession(t *testing.T) {
	c := Current(context.Background(), &stubLoader{}, nil, 42)
	require.NotNil(t, c)
	assert.NotNil(t, c.Items)
	assert.Zero(t, c.TotalQty)
	assert.Zero(t, c.TotalCents)
}

func TestCurrentAuthenticatedUsesDatabaseCart(t *testing.T) {
	dbCart := New()
	dbCart.AddItem("sku1", 2, 500)
	sess := newStubSession()
	sess.values[SessionKey] = New() // stale session copy

	c := Current(context.Background(), &stubLoader{c: dbCart}, sess, 42)
	assert.Same(t, dbCart, c, "db cart is authoritative")
	assert.Same(t, dbCart, sess.values[SessionKey], "db cart mirrored into the session")
	assert.Equal(t, 1, sess.sets)
}

func TestCurrentAuthenticatedLoadFailureFallsBack(t *testing.T) {
	sess := newStubSession()
	c := Current(context.Background(), &stubLoader{err: errors.New("corrupt")}, sess, 42)
	require.NotNil(t, c)
	assert.NotNil(t, c.Items)
	assert.Equal(t, 1, sess.sets, "defaulted session cart written back")
}

func TestCurrentAuthenticatedEmptyLoadFallsBack(t *testing.T) {
	sess := newStubSession()
	stale := New()
	stale.AddItem("sku9", 1, 100)
	sess.values[SessionKey] = stale

	c := Current(context.Background(), &stubLoader{}, sess, 42)
	assert.Same(t, stale, c, "no db cart: the session cart stands")
	assert.Zero(t, sess.sets)
}

func TestCurrentAnonymousCoercesMalformedSessionCart(t *testing.T) {
	sess := newStubSession()
	sess.values[SessionKey] = map[string]any{
		"items":      map[string]any{},
		"totalQty":   "three",
		"totalCents": 250.0,
	}

	c := Current(context.Background(), &stubLoader{}, sess, 0)
	assert.Zero(t, c.TotalQty, "non-numeric totalQty coerced to 0")
	assert.Equal(t, int64(250), c.TotalCents)
	assert.Equal(t, 1, sess.sets)
	assert.Same(t, c, sess.values[SessionKey], "coerced cart written back")
}
