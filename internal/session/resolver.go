package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"soda/internal/identity"
	applog "soda/internal/log"
)

// DefaultRememberFor is how long a "remember me" login lasts.
const DefaultRememberFor = 7 * 24 * time.Hour

// Credentials are what a user submits to sign in.
type Credentials struct {
	Username string
	Password string
	Remember bool
}

// Resolver signs identities in and out and reads back the current one.
type Resolver struct {
	registry    *identity.Registry
	rememberFor time.Duration
	now         func() time.Time
	logger      *applog.Logger
}

type Option func(*Resolver)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithRememberFor changes how long remembered logins last.
func WithRememberFor(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.rememberFor = d
		}
	}
}

// WithLogger sets the logger used for swallowed storage problems.
func WithLogger(l *applog.Logger) Option {
	return func(r *Resolver) { r.logger = l.WithComponent(applog.ComponentSession) }
}

// NewResolver creates a resolver over an immutable registry.
func NewResolver(registry *identity.Registry, opts ...Option) *Resolver {
	r := &Resolver{
		registry:    registry,
		rememberFor: DefaultRememberFor,
		now:         time.Now,
		logger:      applog.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RememberFor reports the lifetime of remembered logins.
func (r *Resolver) RememberFor() time.Duration {
	return r.rememberFor
}

// Current returns the signed-in identity. The transient scope wins over the
// remembered one. Unreadable values are purged and expired remembered
// values are purged; neither is ever reported as an error.
func (r *Resolver) Current(ctx context.Context, scopes Scopes) (identity.Identity, bool) {
	if id, ok := r.resolve(ctx, scopes.Transient, "transient"); ok {
		return id, true
	}
	return r.resolve(ctx, scopes.Remembered, "remembered")
}

func (r *Resolver) resolve(ctx context.Context, scope Scope, name string) (identity.Identity, bool) {
	if scope == nil {
		return identity.Identity{}, false
	}
	data, err := scope.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.logger.WarnContext(ctx, "Session scope unreadable", applog.FieldScope, name, applog.FieldError, err)
		}
		return identity.Identity{}, false
	}

	rec, err := decodeRecord(data)
	if err != nil {
		r.logger.WarnContext(ctx, "Discarding malformed session value", applog.FieldScope, name, applog.FieldError, err)
		r.purge(ctx, scope, name)
		return identity.Identity{}, false
	}

	switch rec := rec.(type) {
	case legacyRecord:
		return r.identityFor(rec.profile), true
	case expiringRecord:
		if r.now().After(rec.expiresAt) {
			r.logger.InfoContext(ctx, "Remembered session expired", applog.FieldScope, name)
			r.purge(ctx, scope, name)
			return identity.Identity{}, false
		}
		if rec.profile == nil || rec.profile.Username == "" {
			r.logger.WarnContext(ctx, "Discarding remembered session without a user", applog.FieldScope, name)
			r.purge(ctx, scope, name)
			return identity.Identity{}, false
		}
		return r.identityFor(*rec.profile), true
	}
	return identity.Identity{}, false
}

func (r *Resolver) purge(ctx context.Context, scope Scope, name string) {
	if err := scope.Clear(ctx); err != nil {
		r.logger.WarnContext(ctx, "Failed to purge session scope", applog.FieldScope, name, applog.FieldError, err)
	}
}

// identityFor maps a stored profile back to the registry's entry when the
// user is still registered. Unknown users keep their stored profile.
func (r *Resolver) identityFor(p profile) identity.Identity {
	if id, ok := r.registry.Lookup(p.Username); ok {
		return id.Public()
	}
	id := identity.Identity{Username: p.Username, Role: p.Role, TaxRate: identity.DefaultTaxRate}
	if !id.Role.Valid() {
		id.Role = identity.RoleFull
	}
	if p.TaxRate.Valid {
		id.TaxRate = p.TaxRate.Decimal
	}
	return id
}

// Login checks credentials against the registry. On success the identity is
// written to the transient scope, and also to the remembered scope with an
// expiry when creds.Remember is set. On failure nothing is left written:
// a remembered scope that cannot be saved also clears the transient one.
func (r *Resolver) Login(ctx context.Context, scopes Scopes, creds Credentials) (identity.Identity, error) {
	id, err := r.registry.Authenticate(creds.Username, creds.Password)
	if err != nil {
		return identity.Identity{}, err
	}
	p := profileOf(id)

	data, err := encodeLegacy(p)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("encode session: %w", err)
	}
	if err := scopes.Transient.Save(ctx, data, 0); err != nil {
		return identity.Identity{}, fmt.Errorf("save transient session: %w", err)
	}

	if creds.Remember && scopes.Remembered != nil {
		data, err := encodeExpiring(p, r.now().Add(r.rememberFor))
		if err != nil {
			r.purge(ctx, scopes.Transient, "transient")
			return identity.Identity{}, fmt.Errorf("encode remembered session: %w", err)
		}
		if err := scopes.Remembered.Save(ctx, data, r.rememberFor); err != nil {
			r.purge(ctx, scopes.Transient, "transient")
			return identity.Identity{}, fmt.Errorf("save remembered session: %w", err)
		}
	}

	r.logger.InfoContext(ctx, "User signed in",
		applog.FieldUsername, id.Username,
		applog.FieldRole, string(id.Role),
		"remember", creds.Remember)
	return id.Public(), nil
}

// Logout clears both scopes. Clearing an empty scope is not an error.
func (r *Resolver) Logout(ctx context.Context, scopes Scopes) error {
	var errs []error
	for _, s := range []Scope{scopes.Transient, scopes.Remembered} {
		if s == nil {
			continue
		}
		if err := s.Clear(ctx); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
