package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"soda/internal/session"
)

const (
	transientCookie  = "soda_session"
	rememberedCookie = "soda_remember"

	transientPrefix  = "transient:"
	rememberedPrefix = "remembered:"
)

// cookieScope keeps the value in a session.Store under a random token and
// the token in a cookie. A persistent scope sets MaxAge from the ttl it is
// saved with; a transient one lasts as long as the browser session.
type cookieScope struct {
	w          http.ResponseWriter
	r          *http.Request
	store      session.Store
	name       string
	prefix     string
	persistent bool
	secure     bool
}

func (c *cookieScope) token() (string, bool) {
	ck, err := c.r.Cookie(c.name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(ck.Value); err != nil {
		return "", false
	}
	return ck.Value, true
}

func (c *cookieScope) Load(ctx context.Context) ([]byte, error) {
	tok, ok := c.token()
	if !ok {
		return nil, session.ErrNotFound
	}
	return c.store.Get(ctx, c.prefix+tok)
}

// Save always issues a fresh token so a login never reuses one the browser
// already had.
func (c *cookieScope) Save(ctx context.Context, value []byte, ttl time.Duration) error {
	if old, ok := c.token(); ok {
		_ = c.store.Delete(ctx, c.prefix+old)
	}
	tok := uuid.NewString()
	if err := c.store.Set(ctx, c.prefix+tok, value, ttl); err != nil {
		return err
	}
	ck := c.cookie(tok)
	if c.persistent && ttl > 0 {
		ck.MaxAge = int(ttl / time.Second)
		ck.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(c.w, ck)
	return nil
}

func (c *cookieScope) Clear(ctx context.Context) error {
	tok, ok := c.token()
	if !ok {
		return nil
	}
	err := c.store.Delete(ctx, c.prefix+tok)
	ck := c.cookie("")
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	http.SetCookie(c.w, ck)
	return err
}

func (c *cookieScope) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// scopes binds the two session scopes to the request's cookies.
func (s *Server) scopes(w http.ResponseWriter, r *http.Request) session.Scopes {
	return session.Scopes{
		Transient: &cookieScope{
			w: w, r: r,
			store:  s.transient,
			name:   transientCookie,
			prefix: transientPrefix,
			secure: s.cookieSecure,
		},
		Remembered: &cookieScope{
			w: w, r: r,
			store:      s.remembered,
			name:       rememberedCookie,
			prefix:     rememberedPrefix,
			persistent: true,
			secure:     s.cookieSecure,
		},
	}
}
