package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"storefront/internal/screen"
)

var (
	ErrNoSession          = errors.New("no active session")
	ErrInvalidCredentials = errors.New("email and password are required")
)

// Session одна навигационная сессия покупателя со своей корзиной
type Session struct {
	ID        string
	Email     string
	Cart      *screen.CartScreen
	CreatedAt time.Time
}

// Registry keeps live sessions. Idle sessions expire after ttl; an expired or
// ended session has its cart screen closed.
type Registry struct {
	cache   *expirable.LRU[string, *Session]
	newCart func() *screen.CartScreen
	log     zerolog.Logger
}

func NewRegistry(size int, ttl time.Duration, newCart func() *screen.CartScreen, log zerolog.Logger) *Registry {
	r := &Registry{newCart: newCart, log: log.With().Str("component", "sessions").Logger()}
	r.cache = expirable.NewLRU[string, *Session](size, func(id string, s *Session) {
		s.Cart.Close()
		r.log.Debug().Str("session", id).Msg("session disposed")
	}, ttl)
	return r
}

// Create opens a session. Credentials are only checked to be non-blank.
func (r *Registry) Create(email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidCredentials
	}
	s := &Session{
		ID:        uuid.NewString(),
		Email:     email,
		Cart:      r.newCart(),
		CreatedAt: time.Now().UTC(),
	}
	r.cache.Add(s.ID, s)
	r.log.Info().Str("session", s.ID).Msg("session started")
	return s, nil
}

// Get returns the session and restarts its idle timer.
func (r *Registry) Get(id string) (*Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	s, ok := r.cache.Get(id)
	if !ok {
		return nil, ErrNoSession
	}
	r.cache.Add(id, s)
	return s, nil
}

func (r *Registry) End(id string) error {
	if !r.cache.Remove(id) {
		return ErrNoSession
	}
	return nil
}

func (r *Registry) Len() int { return r.cache.Len() }

// Close disposes every session.
func (r *Registry) Close() { r.cache.Purge() }
