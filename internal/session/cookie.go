package session

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	cookieName = "storefront-session"
	idKey      = "sid"
)

// Cookies хранит id сессии в подписанной cookie
type Cookies struct {
	store *sessions.CookieStore
}

// NewCookies signs cookies with secret. An empty secret gets a random key, so
// cookies do not survive a restart.
func NewCookies(secret string, ttl time.Duration, secure bool) *Cookies {
	key := []byte(secret)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Cookies{store: store}
}

// ID returns the session id carried by the request.
func (c *Cookies) ID(r *http.Request) (string, error) {
	s, err := c.store.Get(r, cookieName)
	if err != nil {
		return "", ErrNoSession
	}
	id, ok := s.Values[idKey].(string)
	if !ok || id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

func (c *Cookies) Save(w http.ResponseWriter, r *http.Request, id string) error {
	s, _ := c.store.Get(r, cookieName)
	s.Values[idKey] = id
	return s.Save(r, w)
}

func (c *Cookies) Clear(w http.ResponseWriter, r *http.Request) error {
	s, _ := c.store.Get(r, cookieName)
	delete(s.Values, idKey)
	s.Options.MaxAge = -1
	return s.Save(r, w)
}
