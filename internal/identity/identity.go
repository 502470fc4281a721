// Package identity holds the fixed set of users allowed to sign in.
package identity

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type Role string

const (
	// RoleFull can use the dashboard and the tax calculator.
	RoleFull Role = "full"
	// RoleTaxOnly can only use the tax calculator.
	RoleTaxOnly Role = "taxOnly"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUser      = errors.New("duplicate username")
	ErrInvalidRole        = errors.New("invalid role")
	ErrEmptyUsername      = errors.New("empty username")
)

// DefaultTaxRate applies to profiles that do not carry a rate.
var DefaultTaxRate = decimal.NewFromInt(1)

// Identity is a user's static profile.
type Identity struct {
	Username string          `json:"username"`
	Password string          `json:"password,omitempty"`
	Role     Role            `json:"role"`
	TaxRate  decimal.Decimal `json:"taxRate"`
}

func (r Role) Valid() bool {
	return r == RoleFull || r == RoleTaxOnly
}

// Normalize is the case-insensitive lookup key for a username.
func Normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Public returns the identity without its password.
func (i Identity) Public() Identity {
	i.Password = ""
	return i
}

// Registry is an immutable set of identities keyed by normalized username.
type Registry struct {
	byName map[string]Identity
}

// NewRegistry validates and indexes identities. Usernames must be unique
// after normalization.
func NewRegistry(ids ...Identity) (*Registry, error) {
	r := &Registry{byName: make(map[string]Identity, len(ids))}
	for _, id := range ids {
		key := Normalize(id.Username)
		if key == "" {
			return nil, ErrEmptyUsername
		}
		if !id.Role.Valid() {
			return nil, fmt.Errorf("%w %q for user %s", ErrInvalidRole, id.Role, id.Username)
		}
		if _, dup := r.byName[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, id.Username)
		}
		r.byName[key] = id
	}
	return r, nil
}

// DefaultRegistry holds the single stock user of the application.
func DefaultRegistry() *Registry {
	r, _ := NewRegistry(Identity{
		Username: "Kgranados",
		Password: "SodaGalindo",
		Role:     RoleFull,
		TaxRate:  DefaultTaxRate,
	})
	return r
}

// ParseRegistry reads a JSON list of identities. A missing rate defaults
// to DefaultTaxRate and a missing role to RoleFull.
func ParseRegistry(data []byte) (*Registry, error) {
	var raw []struct {
		Username string              `json:"username"`
		Password string              `json:"password"`
		Role     Role                `json:"role"`
		TaxRate  decimal.NullDecimal `json:"taxRate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse identities: %w", err)
	}
	ids := make([]Identity, 0, len(raw))
	for _, u := range raw {
		id := Identity{Username: u.Username, Password: u.Password, Role: u.Role, TaxRate: DefaultTaxRate}
		if id.Role == "" {
			id.Role = RoleFull
		}
		if u.TaxRate.Valid {
			id.TaxRate = u.TaxRate.Decimal
		}
		ids = append(ids, id)
	}
	return NewRegistry(ids...)
}

// Lookup finds an identity by username, ignoring case and surrounding
// whitespace.
func (r *Registry) Lookup(username string) (Identity, bool) {
	id, ok := r.byName[Normalize(username)]
	return id, ok
}

// Authenticate checks credentials. The password must match exactly. The
// error never says which part was wrong.
func (r *Registry) Authenticate(username, password string) (Identity, error) {
	id, ok := r.Lookup(username)
	if !ok {
		return Identity{}, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(id.Password), []byte(password)) != 1 {
		return Identity{}, ErrInvalidCredentials
	}
	return id, nil
}

// Identities lists every registered identity ordered by username.
func (r *Registry) Identities() []Identity {
	out := make([]Identity, 0, len(r.byName))
	for _, id := range r.byName {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return Normalize(out[i].Username) < Normalize(out[j].Username)
	})
	return out
}
