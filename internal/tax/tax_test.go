package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestApplyForward(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		rate     string
		wantTax  string
		wantBase string
	}{
		{"one percent", "5500", "1", "55", "5445"},
		{"thirteen percent", "5500", "13", "715", "4785"},
		{"rounds half up", "150", "1", "2", "148"},
		{"zero amount", "0", "13", "0", "0"},
		{"zero rate", "1234", "0", "0", "1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyForward(d(tt.amount), d(tt.rate))
			assert.True(t, got.Tax.Equal(d(tt.wantTax)), "tax = %s", got.Tax)
			assert.True(t, got.Base.Equal(d(tt.wantBase)), "base = %s", got.Base)
			assert.Equal(t, Forward, got.Mode)
		})
	}
}

func TestApplyInverse(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		rate     string
		wantBase string
		wantTax  string
	}{
		{"thirteen percent", "5500", "13", "4867", "633"},
		{"one percent", "5500", "1", "5446", "54"},
		{"zero rate", "800", "0", "800", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyInverse(d(tt.amount), d(tt.rate))
			require.NoError(t, err)
			assert.True(t, got.Base.Equal(d(tt.wantBase)), "base = %s", got.Base)
			assert.True(t, got.Tax.Equal(d(tt.wantTax)), "tax = %s", got.Tax)
		})
	}
}

func TestApplyInverseRejectsMinusHundred(t *testing.T) {
	_, err := ApplyInverse(d("5500"), d("-100"))
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = Compute(Inverse, d("1"), d("-100"))
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestInverseThenForwardRecoversAmount(t *testing.T) {
	one := decimal.NewFromInt(1)
	for _, rate := range []string{"1", "5", "13", "21.5"} {
		for amount := int64(0); amount <= 20000; amount += 137 {
			x := decimal.NewFromInt(amount)
			inv, err := ApplyInverse(x, d(rate))
			require.NoError(t, err)

			// tax applied on top of the recovered base lands back on x
			onTop := ApplyForward(inv.Base, d(rate))
			diff := inv.Base.Add(onTop.Tax).Sub(x).Abs()
			assert.True(t, diff.LessThanOrEqual(one), "rate %s amount %d off by %s", rate, amount, diff)
		}
	}
}

func TestCompute(t *testing.T) {
	got, err := Compute(Forward, d("5500"), d("1"))
	require.NoError(t, err)
	assert.True(t, got.Tax.Equal(d("55")))

	got, err = Compute(Inverse, d("5500"), d("13"))
	require.NoError(t, err)
	assert.True(t, got.Base.Equal(d("4867")))

	_, err = Compute(Mode("sideways"), d("1"), d("1"))
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Inverse ")
	require.NoError(t, err)
	assert.Equal(t, Inverse, m)

	m, err = ParseMode("forward")
	require.NoError(t, err)
	assert.Equal(t, Forward, m)

	_, err = ParseMode("")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestRound(t *testing.T) {
	cases := map[string]string{
		"0.4":  "0",
		"0.5":  "1",
		"2.5":  "3",
		"-2.5": "-2",
		"-2.6": "-3",
		"55":   "55",
	}
	for in, want := range cases {
		assert.True(t, Round(d(in)).Equal(d(want)), "Round(%s) = %s", in, Round(d(in)))
	}
}

func TestSanitizeInput(t *testing.T) {
	cases := map[string]string{
		"":         "0",
		"abc":      "0",
		"5500":     "5500",
		"₡ 5,500":  "5500",
		"12.50":    "1250",
		"-300":     "300",
		" 0042 ":   "42",
	}
	for in, want := range cases {
		assert.True(t, SanitizeInput(in).Equal(d(want)), "SanitizeInput(%q) = %s", in, SanitizeInput(in))
	}
}
