// Package session resolves the signed-in identity from two storage scopes:
// a transient one that lives as long as the browser session and a
// remembered one that survives it until an absolute expiry.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores and scopes that hold no value.
var ErrNotFound = errors.New("session: no value")

type (
	// Store is a key/value backend for scopes.
	Store interface {
		Get(ctx context.Context, key string) ([]byte, error)
		// Set stores value. A non-positive ttl uses the store default.
		Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
		Delete(ctx context.Context, key string) error
	}

	// Scope is a single slot holding one serialized value.
	Scope interface {
		Load(ctx context.Context) ([]byte, error)
		Save(ctx context.Context, value []byte, ttl time.Duration) error
		Clear(ctx context.Context) error
	}

	// Scopes pairs the two slots consulted for the current identity.
	Scopes struct {
		Transient  Scope
		Remembered Scope
	}
)

type boundScope struct {
	store Store
	key   string
}

// Bind exposes one key of store as a Scope.
func Bind(store Store, key string) Scope {
	return boundScope{store: store, key: key}
}

func (s boundScope) Load(ctx context.Context) ([]byte, error) {
	return s.store.Get(ctx, s.key)
}

func (s boundScope) Save(ctx context.Context, value []byte, ttl time.Duration) error {
	return s.store.Set(ctx, s.key, value, ttl)
}

func (s boundScope) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.key)
}
