package domain

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/civil"
)

// ConditionKind names a condition variant.
type ConditionKind string

const (
	ConditionUnitsAvailable ConditionKind = "units_available"
	ConditionSalesVelocity  ConditionKind = "sales_velocity"
	ConditionDateWindow     ConditionKind = "date_window"
)

// Operator compares a product metric against a rule's threshold.
type Operator string

const (
	OperatorIs             Operator = "is"
	OperatorLessOrEqual    Operator = "less_or_equal"
	OperatorGreaterOrEqual Operator = "greater_or_equal"
)

// Valid reports whether o is one of the known operators.
func (o Operator) Valid() bool {
	switch o {
	case OperatorIs, OperatorLessOrEqual, OperatorGreaterOrEqual:
		return true
	}
	return false
}

// holds applies the operator to the result of a three-way comparison.
func (o Operator) holds(cmp int) bool {
	switch o {
	case OperatorIs:
		return cmp == 0
	case OperatorLessOrEqual:
		return cmp <= 0
	case OperatorGreaterOrEqual:
		return cmp >= 0
	}
	return false
}

// TimeUnit is the period a sales velocity threshold is expressed in.
type TimeUnit string

const (
	TimeUnitDay   TimeUnit = "day"
	TimeUnitWeek  TimeUnit = "week"
	TimeUnitMonth TimeUnit = "month"
)

// Days returns the number of days in the unit, or 0 for an unknown unit.
func (u TimeUnit) Days() int64 {
	switch u {
	case TimeUnitDay:
		return 1
	case TimeUnitWeek:
		return 7
	case TimeUnitMonth:
		return 30
	}
	return 0
}

// Condition is the trigger of a Rule. The set of implementations is closed:
// UnitsAvailable, SalesVelocity, DateWindowIs and DateWindowBetween.
type Condition interface {
	Kind() ConditionKind
	Validate() error
	isCondition()
}

// UnitsAvailable compares on-hand inventory against Value.
type UnitsAvailable struct {
	Operator Operator
	Value    int64
}

func (UnitsAvailable) Kind() ConditionKind { return ConditionUnitsAvailable }
func (UnitsAvailable) isCondition()        {}

func (c UnitsAvailable) Validate() error {
	if !c.Operator.Valid() {
		return fmt.Errorf("unknown operator %q", c.Operator)
	}
	if c.Value < 0 {
		return ErrNegativeValue
	}
	return nil
}

// SalesVelocity compares the daily sales rate against Value per TimeUnit.
type SalesVelocity struct {
	Operator Operator
	Value    *big.Rat
	TimeUnit TimeUnit
}

func (SalesVelocity) Kind() ConditionKind { return ConditionSalesVelocity }
func (SalesVelocity) isCondition()        {}

func (c SalesVelocity) Validate() error {
	if !c.Operator.Valid() {
		return fmt.Errorf("unknown operator %q", c.Operator)
	}
	if c.TimeUnit.Days() == 0 {
		return fmt.Errorf("unknown time unit %q", c.TimeUnit)
	}
	if c.Value == nil || c.Value.Sign() < 0 {
		return ErrNegativeValue
	}
	return nil
}

// PerDay returns the threshold normalized to units per day.
func (c SalesVelocity) PerDay() *big.Rat {
	return new(big.Rat).Quo(c.Value, big.NewRat(c.TimeUnit.Days(), 1))
}

// DateWindowIs holds on a single calendar date.
type DateWindowIs struct {
	Date civil.Date
}

func (DateWindowIs) Kind() ConditionKind { return ConditionDateWindow }
func (DateWindowIs) isCondition()        {}

func (c DateWindowIs) Validate() error {
	if !c.Date.IsValid() {
		return fmt.Errorf("invalid date %s", c.Date)
	}
	return nil
}

// DateWindowBetween holds from Start through End, both inclusive.
type DateWindowBetween struct {
	Start civil.Date
	End   civil.Date
}

func (DateWindowBetween) Kind() ConditionKind { return ConditionDateWindow }
func (DateWindowBetween) isCondition()        {}

func (c DateWindowBetween) Validate() error {
	if !c.Start.IsValid() || !c.End.IsValid() {
		return fmt.Errorf("invalid date window %s..%s", c.Start, c.End)
	}
	if c.End.Before(c.Start) {
		return ErrDateWindowOrder
	}
	return nil
}

// ProductMetrics are the live inputs conditions are evaluated against.
// A nil field means the metric is unknown.
type ProductMetrics struct {
	UnitsAvailable    *int64
	UnitsSoldInWindow *int64
	WindowDays        int64
	AverageUnitRetail *Money
}

// DailySalesRate returns units sold per day, or false when unknown.
func (m *ProductMetrics) DailySalesRate() (*big.Rat, bool) {
	if m == nil || m.UnitsSoldInWindow == nil || m.WindowDays <= 0 {
		return nil, false
	}
	return big.NewRat(*m.UnitsSoldInWindow, m.WindowDays), true
}

// EvaluateCondition decides whether c holds for metrics at asOf.
// Date windows compare calendar days in asOf's location.
// Missing metrics or a malformed condition evaluate to false.
func EvaluateCondition(metrics *ProductMetrics, c Condition, asOf time.Time) bool {
	if c == nil || c.Validate() != nil {
		return false
	}

	switch cond := c.(type) {
	case UnitsAvailable:
		if metrics == nil || metrics.UnitsAvailable == nil {
			return false
		}
		return cond.Operator.holds(compareInt64(*metrics.UnitsAvailable, cond.Value))

	case SalesVelocity:
		rate, ok := metrics.DailySalesRate()
		if !ok {
			return false
		}
		return cond.Operator.holds(rate.Cmp(cond.PerDay()))

	case DateWindowIs:
		return civil.DateOf(asOf) == cond.Date

	case DateWindowBetween:
		today := civil.DateOf(asOf)
		return !today.Before(cond.Start) && !today.After(cond.End)
	}

	return false
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
