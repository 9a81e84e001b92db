// Package session keeps the browser session of the console: a stable id used
// to key view state and request sequencing, plus one-shot flash messages.
package session

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordertrack/internal/config"
)

const (
	cookieName = "ordertrack-console"
	idKey      = "sid"
	contextKey = "ordertrack.session"
)

// Module provides the session Store.
var Module = fx.Provide(NewStore)

// Store wraps the signed cookie store.
type Store struct {
	cookies *sessions.CookieStore
	logger  *zap.Logger
}

// NewStore builds a cookie backed Store from the web configuration.
func NewStore(cfg config.Config, logger *zap.Logger) *Store {
	cs := sessions.NewCookieStore([]byte(cfg.Web.SessionSecret))
	cs.Options.Path = "/"
	cs.Options.HttpOnly = true
	cs.Options.Secure = cfg.Web.SecureCookies
	cs.Options.SameSite = http.SameSiteLaxMode
	cs.Options.MaxAge = 7 * 24 * 60 * 60
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{cookies: cs, logger: logger}
}

// Middleware makes sure every request carries a session id and exposes it
// through ID.
func (s *Store) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := s.get(c)
			id, _ := sess.Values[idKey].(string)
			if id == "" {
				id = uuid.NewString()
				sess.Values[idKey] = id
				if err := sess.Save(c.Request(), c.Response()); err != nil {
					s.logger.Warn("session save failed", zap.Error(err))
				}
			}
			c.Set(contextKey, id)
			return next(c)
		}
	}
}

// ID returns the session id set by the middleware, or "" outside of it.
func ID(c echo.Context) string {
	id, _ := c.Get(contextKey).(string)
	return id
}

// AddFlash queues a message for the next page render.
func (s *Store) AddFlash(c echo.Context, msg string) {
	sess := s.get(c)
	sess.AddFlash(msg)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		s.logger.Warn("flash save failed", zap.Error(err))
	}
}

// PopFlash returns and clears the queued messages. It must run before the
// response body is written.
func (s *Store) PopFlash(c echo.Context) []string {
	sess := s.get(c)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		s.logger.Warn("flash save failed", zap.Error(err))
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if msg, ok := v.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (s *Store) get(c echo.Context) *sessions.Session {
	// a cookie signed with an old secret yields an error plus a fresh session
	sess, err := s.cookies.Get(c.Request(), cookieName)
	if err != nil {
		s.logger.Debug("session cookie rejected", zap.Error(err))
	}
	return sess
}
