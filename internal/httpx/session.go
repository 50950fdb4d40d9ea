package httpx

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/perfil-ecom/internal/cart"
)

const (
	SessionName = "sk_session"
	UserKey     = "user"

	ctxSessionKey = "httpx.session"
)

// SessionUser mirrors the logged-in user's identity into the session.
type SessionUser struct {
	ID     int64
	Name   string
	Email  string
	Role   string
	Avatar string
}

func init() {
	gob.Register(SessionUser{})
	gob.Register(&cart.Cart{})
	gob.Register(cart.Cart{})
	gob.Register(map[string]any{})
}

// Session wraps the cookie session with dirty tracking so it is written
// back only when something changed during the request. Satisfies
// cart.Session.
type Session struct {
	s     sessions.Session
	dirty bool
}

func (s *Session) Get(key string) any { return s.s.Get(key) }

func (s *Session) Set(key string, v any) {
	s.s.Set(key, v)
	s.dirty = true
}

func (s *Session) Delete(key string) {
	s.s.Delete(key)
	s.dirty = true
}

func (s *Session) Dirty() bool { return s.dirty }

// Sessions returns the middleware chain for cookie-backed sessions: the
// store itself, then the adapter that saves dirty sessions after the
// handlers ran.
func Sessions(secret string) []gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
	})
	return []gin.HandlerFunc{
		sessions.Sessions(SessionName, store),
		func(c *gin.Context) {
			s := &Session{s: sessions.Default(c)}
			c.Set(ctxSessionKey, s)
			c.Next()
			if s.dirty {
				if err := s.s.Save(); err != nil {
					logrus.Warnf("[session] save: %v", err)
				}
			}
		},
	}
}

// GetSession returns the request session, or nil when the session
// middleware is not installed.
func GetSession(c *gin.Context) *Session {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return nil
	}
	return v.(*Session)
}

// CurrentUser returns the session user, if any.
func CurrentUser(c *gin.Context) (SessionUser, bool) {
	s := GetSession(c)
	if s == nil {
		return SessionUser{}, false
	}
	u, ok := s.Get(UserKey).(SessionUser)
	return u, ok
}

func SetUser(s *Session, u SessionUser) { s.Set(UserKey, u) }
