package client

import (
	"sync"
	"time"

	"github.com/eventify/ticketing/internal/model"
)

// Session is the authenticated user as returned by Login. It is passed to
// every privileged call.
type Session struct {
	UserID  uint64    `json:"userId"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Valid reports whether the session carries a token that has not expired
// at now. A nil session is not valid.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.Expires.IsZero() || now.Before(s.Expires)
}

func (s *Session) IsAdmin() bool { return s != nil && s.Role == model.RoleAdmin }

// SessionStore persists a session between runs. Load returns a nil
// session and no error when nothing is stored.
type SessionStore interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

// Holder owns the current session for an application. Reads see the
// latest Set or Clear.
type Holder struct {
	mu    sync.RWMutex
	cur   *Session
	store SessionStore
}

// NewHolder returns an empty holder. store may be nil.
func NewHolder(store SessionStore) *Holder {
	return &Holder{store: store}
}

// Restore loads the stored session. An expired one is discarded and
// removed from the store.
func (h *Holder) Restore() error {
	if h.store == nil {
		return nil
	}
	s, err := h.store.Load()
	if err != nil {
		return err
	}
	if s != nil && !s.Valid(time.Now()) {
		s = nil
		if err := h.store.Clear(); err != nil {
			return err
		}
	}
	h.mu.Lock()
	h.cur = s
	h.mu.Unlock()
	return nil
}

func (h *Holder) Set(s *Session) error {
	h.mu.Lock()
	h.cur = s
	h.mu.Unlock()
	if h.store != nil {
		return h.store.Save(s)
	}
	return nil
}

// Current returns a copy of the session, or nil when logged out.
func (h *Holder) Current() *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.cur == nil {
		return nil
	}
	s := *h.cur
	return &s
}

// Clear logs out.
func (h *Holder) Clear() error {
	h.mu.Lock()
	h.cur = nil
	h.mu.Unlock()
	if h.store != nil {
		return h.store.Clear()
	}
	return nil
}
