package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"soda/internal/identity"
)

var errMalformed = errors.New("session: malformed record")

// profile is what a scope stores about an identity. Passwords never leave
// the registry.
type profile struct {
	Username string              `json:"username"`
	Role     identity.Role       `json:"role,omitempty"`
	TaxRate  decimal.NullDecimal `json:"taxRate"`
}

func profileOf(id identity.Identity) profile {
	return profile{
		Username: id.Username,
		Role:     id.Role,
		TaxRate:  decimal.NewNullDecimal(id.TaxRate),
	}
}

// record is a decoded scope value: a legacyRecord or an expiringRecord.
type record interface {
	isRecord()
}

// legacyRecord is a bare profile with no expiry.
type legacyRecord struct {
	profile profile
}

// expiringRecord wraps a profile with an absolute expiry. The profile may
// be missing.
type expiringRecord struct {
	profile   *profile
	expiresAt time.Time
}

func (legacyRecord) isRecord()   {}
func (expiringRecord) isRecord() {}

// wire is the union of both shapes, used only while classifying.
type wire struct {
	profile
	User      *profile `json:"user,omitempty"`
	ExpiresAt float64  `json:"expiresAt,omitempty"`
}

// decodeRecord classifies a stored value. A non-zero expiresAt marks the
// expiring shape. Anything else must be a profile with a username.
func decodeRecord(data []byte) (record, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if w.ExpiresAt != 0 {
		return expiringRecord{
			profile:   w.User,
			expiresAt: time.UnixMilli(int64(w.ExpiresAt)),
		}, nil
	}
	if w.Username == "" {
		return nil, fmt.Errorf("%w: no username", errMalformed)
	}
	return legacyRecord{profile: w.profile}, nil
}

func encodeLegacy(p profile) ([]byte, error) {
	return json.Marshal(p)
}

func encodeExpiring(p profile, expiresAt time.Time) ([]byte, error) {
	return json.Marshal(struct {
		User      profile `json:"user"`
		ExpiresAt int64   `json:"expiresAt"`
	}{User: p, ExpiresAt: expiresAt.UnixMilli()})
}
