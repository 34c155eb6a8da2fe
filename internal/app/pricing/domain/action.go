package domain

import (
	"fmt"
	"math/big"
)

// ActionType is the price transformation a rule performs.
type ActionType string

const (
	ActionSetPrice ActionType = "set_price"
	ActionIncrease ActionType = "increase"
	ActionDecrease ActionType = "decrease"
)

// ValueType says whether an action's value is a currency amount or a percentage.
type ValueType string

const (
	ValueFixed      ValueType = "fixed"
	ValuePercentage ValueType = "percentage"
)

// Action is a price transformation. Every combination of Type and ValueType is meaningful.
type Action struct {
	Type      ActionType
	ValueType ValueType
	Value     *big.Rat
}

// Validate checks the action is a known combination with a non-negative value.
func (a Action) Validate() error {
	switch a.Type {
	case ActionSetPrice, ActionIncrease, ActionDecrease:
	default:
		return fmt.Errorf("unknown action %q", a.Type)
	}
	switch a.ValueType {
	case ValueFixed, ValuePercentage:
	default:
		return fmt.Errorf("unknown value type %q", a.ValueType)
	}
	if a.Value == nil || a.Value.Sign() < 0 {
		return ErrNegativeValue
	}
	return nil
}

// ApplyAction computes the price produced by a from current.
// SetPrice with a percentage is a percentage of the current price.
// A result below zero is clamped to zero; clamped reports that it happened.
// An invalid action leaves the price unchanged.
func ApplyAction(current *Money, a Action) (price *Money, clamped bool) {
	if a.Validate() != nil {
		return current.Copy(), false
	}

	var next *Money
	switch a.Type {
	case ActionSetPrice:
		if a.ValueType == ValueFixed {
			next = NewMoneyFromRat(a.Value)
		} else {
			next = current.MultiplyByRat(percentOf(a.Value))
		}

	case ActionIncrease:
		if a.ValueType == ValueFixed {
			next = current.Add(NewMoneyFromRat(a.Value))
		} else {
			factor := new(big.Rat).Add(big.NewRat(1, 1), percentOf(a.Value))
			next = current.MultiplyByRat(factor)
		}

	case ActionDecrease:
		if a.ValueType == ValueFixed {
			next = current.Subtract(NewMoneyFromRat(a.Value))
		} else {
			factor := new(big.Rat).Sub(big.NewRat(1, 1), percentOf(a.Value))
			next = current.MultiplyByRat(factor)
		}
	}

	return next.ClampNonNegative()
}
