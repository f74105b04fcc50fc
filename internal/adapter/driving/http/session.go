package httphandler

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName is the cookie that carries an unlocked session.
const SessionCookieName = "keycausa_session"

// Sessions tracks tokens issued after a correct security answer. Tokens live
// in memory only, so a restart locks the vault again. A token unused for
// longer than the idle timeout is dropped.
type Sessions struct {
	mu       sync.Mutex
	lastUsed map[string]time.Time
	idle     time.Duration
	now      func() time.Time
}

// NewSessions creates an empty session registry whose sessions expire after
// idle without use.
func NewSessions(idle time.Duration) *Sessions {
	return &Sessions{
		lastUsed: make(map[string]time.Time),
		idle:     idle,
		now:      time.Now,
	}
}

// Issue creates a new session token and sets it as a cookie on w.
func (s *Sessions) Issue(w http.ResponseWriter) string {
	token := uuid.NewString()

	s.mu.Lock()
	now := s.now()
	for t, last := range s.lastUsed {
		if now.Sub(last) > s.idle {
			delete(s.lastUsed, t)
		}
	}
	s.lastUsed[token] = now
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return token
}

// Valid reports whether r carries a live session cookie and, if so, marks
// the session as used.
func (s *Sessions) Valid(r *http.Request) bool {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastUsed[c.Value]
	if !ok {
		return false
	}

	now := s.now()
	if now.Sub(last) > s.idle {
		delete(s.lastUsed, c.Value)
		return false
	}
	s.lastUsed[c.Value] = now
	return true
}

// Revoke ends the session carried by r, if any, and clears the cookie.
func (s *Sessions) Revoke(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		s.mu.Lock()
		delete(s.lastUsed, c.Value)
		s.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
