package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Money represents a monetary value with precise decimal arithmetic using big.Rat.
// It stores the value as a rational number (numerator/denominator) to avoid floating-point precision issues.
// Money values are immutable: every operation returns a new instance.
type Money struct {
	rat *big.Rat
}

// NewMoney creates a new Money instance from numerator and denominator.
// Example: NewMoney(2999, 100) represents $29.99
func NewMoney(numerator, denominator int64) (*Money, error) {
	if denominator == 0 {
		return nil, fmt.Errorf("denominator cannot be zero")
	}
	if denominator < 0 {
		return nil, fmt.Errorf("denominator must be positive, got %d", denominator)
	}

	return &Money{rat: big.NewRat(numerator, denominator)}, nil
}

// NewMoneyFromRat creates a new Money instance from a big.Rat.
func NewMoneyFromRat(rat *big.Rat) *Money {
	if rat == nil {
		return Zero()
	}
	return &Money{rat: new(big.Rat).Set(rat)}
}

// ParseMoney parses a decimal string such as "29.99" or a fraction such as "2999/100".
func ParseMoney(s string) (*Money, error) {
	rat, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("invalid money amount %q", s)
	}
	return &Money{rat: rat}, nil
}

// MustParseMoney is ParseMoney for literals known to be valid. It panics otherwise.
func MustParseMoney(s string) *Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount.
func Zero() *Money {
	return &Money{rat: new(big.Rat)}
}

// Rat returns a copy of the underlying rational value.
func (m *Money) Rat() *big.Rat {
	return new(big.Rat).Set(m.rat)
}

// Add adds two Money values and returns a new Money instance.
func (m *Money) Add(other *Money) *Money {
	return &Money{rat: new(big.Rat).Add(m.rat, other.rat)}
}

// Subtract subtracts another Money value from this one and returns a new Money instance.
func (m *Money) Subtract(other *Money) *Money {
	return &Money{rat: new(big.Rat).Sub(m.rat, other.rat)}
}

// MultiplyByRat multiplies this Money value by a rational number and returns a new Money instance.
func (m *Money) MultiplyByRat(rat *big.Rat) *Money {
	return &Money{rat: new(big.Rat).Mul(m.rat, rat)}
}

// ClampNonNegative returns the value, or zero if it is negative.
// The second return value reports whether clamping happened.
func (m *Money) ClampNonNegative() (*Money, bool) {
	if m.rat.Sign() < 0 {
		return Zero(), true
	}
	return m.Copy(), false
}

// IsZero returns true if the money value is zero.
func (m *Money) IsZero() bool {
	return m.rat.Sign() == 0
}

// IsNegative returns true if the money value is negative.
func (m *Money) IsNegative() bool {
	return m.rat.Sign() < 0
}

// IsPositive returns true if the money value is positive.
func (m *Money) IsPositive() bool {
	return m.rat.Sign() > 0
}

// Cmp compares m and other and returns -1, 0 or +1.
func (m *Money) Cmp(other *Money) int {
	return m.rat.Cmp(other.rat)
}

// LessThan returns true if this Money value is less than another.
func (m *Money) LessThan(other *Money) bool {
	return m.rat.Cmp(other.rat) < 0
}

// GreaterThan returns true if this Money value is greater than another.
func (m *Money) GreaterThan(other *Money) bool {
	return m.rat.Cmp(other.rat) > 0
}

// Equals returns true if this Money value equals another.
func (m *Money) Equals(other *Money) bool {
	return m.rat.Cmp(other.rat) == 0
}

// Float64 returns an approximate float64 representation (for display and metrics only).
func (m *Money) Float64() float64 {
	f, _ := m.rat.Float64()
	return f
}

// String returns the value rounded half-up to cents, e.g. "33.00".
func (m *Money) String() string {
	return m.rat.FloatString(2)
}

// Exact returns the shortest decimal rendering (at least two places) that
// represents the value exactly, falling back to six places for repeating fractions.
func (m *Money) Exact() string {
	for prec := 2; prec <= 6; prec++ {
		s := m.rat.FloatString(prec)
		if r, ok := new(big.Rat).SetString(s); ok && r.Cmp(m.rat) == 0 {
			return s
		}
	}
	return m.rat.FloatString(6)
}

// Copy creates a deep copy of this Money instance.
func (m *Money) Copy() *Money {
	return &Money{rat: new(big.Rat).Set(m.rat)}
}

// IsSafeForStorage reports whether numerator and denominator fit in int64 columns.
func (m *Money) IsSafeForStorage() bool {
	return m.rat.Num().IsInt64() && m.rat.Denom().IsInt64()
}

// Numerator returns the numerator of the normalized value.
func (m *Money) Numerator() (int64, error) {
	if !m.rat.Num().IsInt64() {
		return 0, ErrMoneyOverflow
	}
	return m.rat.Num().Int64(), nil
}

// Denominator returns the denominator of the normalized value.
func (m *Money) Denominator() (int64, error) {
	if !m.rat.Denom().IsInt64() {
		return 0, ErrMoneyOverflow
	}
	return m.rat.Denom().Int64(), nil
}

// MarshalJSON renders the amount as an exact decimal string.
func (m *Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Exact())
}

// UnmarshalJSON accepts either a JSON string or number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	m.rat = parsed.rat
	return nil
}

// MaxMoney returns the larger of a and b. A nil argument loses to a non-nil one.
func MaxMoney(a, b *Money) *Money {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return b.Copy()
	case b == nil:
		return a.Copy()
	case a.GreaterThan(b):
		return a.Copy()
	default:
		return b.Copy()
	}
}

// moneyPtrEqual compares optional amounts, treating two nils as equal.
func moneyPtrEqual(a, b *Money) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

// percentOf returns value/100 as a rational.
func percentOf(value *big.Rat) *big.Rat {
	return new(big.Rat).Quo(value, big.NewRat(100, 1))
}
