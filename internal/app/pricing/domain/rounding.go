package domain

import "math/big"

// RoundingType selects how a price is snapped after an action.
type RoundingType string

const (
	RoundingNone    RoundingType = "none"
	RoundingNearest RoundingType = "nearest"
	RoundingUp      RoundingType = "up"
	RoundingDown    RoundingType = "down"
)

// RoundingPolicy is a rounding type plus the currency fraction to round to (e.g. 0.10).
// Unit is ignored when Type is RoundingNone.
type RoundingPolicy struct {
	Type RoundingType
	Unit *Money
}

// NoRounding is the identity policy.
var NoRounding = RoundingPolicy{Type: RoundingNone}

// Validate checks that an enabled policy carries a positive unit.
func (p RoundingPolicy) Validate() error {
	switch p.Type {
	case RoundingNone, "":
		return nil
	case RoundingNearest, RoundingUp, RoundingDown:
		if p.Unit == nil || !p.Unit.IsPositive() {
			return ErrMissingRounding
		}
		return nil
	default:
		return ErrInvalidRule
	}
}

// Round applies policy to price. Negative input is clamped to zero first, so
// the result is never negative. A policy that fails Validate leaves the
// (clamped) price unchanged.
func Round(price *Money, policy RoundingPolicy) *Money {
	clamped, _ := price.ClampNonNegative()
	if policy.Validate() != nil || policy.Type == RoundingNone || policy.Type == "" {
		return clamped
	}

	unit := policy.Unit.rat
	steps := new(big.Rat).Quo(clamped.rat, unit)

	var n *big.Int
	switch policy.Type {
	case RoundingNearest:
		// ties round up
		n = floorRat(new(big.Rat).Add(steps, big.NewRat(1, 2)))
	case RoundingUp:
		n = ceilRat(steps)
	case RoundingDown:
		n = floorRat(steps)
	}

	return &Money{rat: new(big.Rat).Mul(new(big.Rat).SetInt(n), unit)}
}

// floorRat returns ⌊r⌋ for r ≥ 0.
func floorRat(r *big.Rat) *big.Int {
	return new(big.Int).Quo(r.Num(), r.Denom())
}

// ceilRat returns ⌈r⌉ for r ≥ 0.
func ceilRat(r *big.Rat) *big.Int {
	q, m := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
