// Package tax splits an amount into its tax and base parts for a percentage
// rate. Two modes exist and callers always choose one explicitly.
package tax

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Mode string

const (
	// Forward applies the rate to the amount: the tax is taken out of it.
	Forward Mode = "forward"
	// Inverse treats the amount as already including the tax and backs the
	// base out of it.
	Inverse Mode = "inverse"
)

var (
	ErrInvalidRate = errors.New("invalid tax rate")
	ErrUnknownMode = errors.New("unknown tax mode")
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.RequireFromString("0.5")
)

// Split is the result of a computation. Tax and Base are whole units.
type Split struct {
	Mode   Mode
	Amount decimal.Decimal
	Rate   decimal.Decimal
	Tax    decimal.Decimal
	Base   decimal.Decimal
}

// ParseMode maps a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Forward:
		return Forward, nil
	case Inverse:
		return Inverse, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Compute dispatches to the computation for mode.
func Compute(mode Mode, amount, rate decimal.Decimal) (Split, error) {
	switch mode {
	case Forward:
		return ApplyForward(amount, rate), nil
	case Inverse:
		return ApplyInverse(amount, rate)
	default:
		return Split{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// ApplyForward computes tax = round(amount*rate/100) and base = round(amount-tax).
func ApplyForward(amount, rate decimal.Decimal) Split {
	t := Round(amount.Mul(rate).Div(hundred))
	return Split{
		Mode:   Forward,
		Amount: amount,
		Rate:   rate,
		Tax:    t,
		Base:   Round(amount.Sub(t)),
	}
}

// ApplyInverse computes base = round(amount/(1+rate/100)) and
// tax = round(amount-base). A rate of -100 has no base and fails with
// ErrInvalidRate.
func ApplyInverse(amount, rate decimal.Decimal) (Split, error) {
	divisor := decimal.NewFromInt(1).Add(rate.Div(hundred))
	if divisor.IsZero() {
		return Split{}, fmt.Errorf("%w: %s%%", ErrInvalidRate, rate)
	}
	base := Round(amount.Div(divisor))
	return Split{
		Mode:   Inverse,
		Amount: amount,
		Rate:   rate,
		Tax:    Round(amount.Sub(base)),
		Base:   base,
	}, nil
}

// Round rounds to the nearest whole unit with halves going up, so -2.5
// becomes -2.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// SanitizeInput keeps only the digits of raw user input. Input without any
// digit is zero.
func SanitizeInput(raw string) decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
