package cart

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Session is the slice of the request session the accessor needs. Set must
// mark the session mutated so it gets written back at the end of the request.
type Session interface {
	Get(key string) any
	Set(key string, value any)
}

// Loader loads the durable cart for a user.
type Loader interface {
	Load(ctx context.Context, userID int64) (*Cart, error)
}

// Current resolves the cart for a request. Logged-in users (userID > 0) get
// the database cart whenever a load yields one; the session copy then only
// caches that value for the rest of the request. Anonymous visitors, and any
// failed or empty load, fall back to the session cart, defaulting whatever
// is missing or malformed in the slot. The result is always structurally
// valid.
func Current(ctx context.Context, store Loader, sess Session, userID int64) *Cart {
	if sess == nil {
		return New()
	}

	if userID > 0 && store != nil {
		c, err := store.Load(ctx, userID)
		if err != nil {
			logrus.Errorf("[cart] db cart for user %d unusable, falling back to session: %v", userID, err)
		} else if c != nil {
			sess.Set(SessionKey, c)
			return c
		}
	}

	c, mutated := FromSessionValue(sess.Get(SessionKey))
	if mutated {
		sess.Set(SessionKey, c)
	}
	return c
}
