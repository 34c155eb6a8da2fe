package domain

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }

func velocityMetrics(perDay int64) *ProductMetrics {
	return &ProductMetrics{UnitsSoldInWindow: int64Ptr(perDay * 28), WindowDays: 28}
}

func TestEvaluateCondition_UnitsAvailable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	metrics := &ProductMetrics{UnitsAvailable: int64Ptr(5)}

	tests := []struct {
		name string
		cond UnitsAvailable
		want bool
	}{
		{"is equal", UnitsAvailable{Operator: OperatorIs, Value: 5}, true},
		{"is different", UnitsAvailable{Operator: OperatorIs, Value: 4}, false},
		{"less or equal boundary", UnitsAvailable{Operator: OperatorLessOrEqual, Value: 5}, true},
		{"less or equal below", UnitsAvailable{Operator: OperatorLessOrEqual, Value: 4}, false},
		{"greater or equal boundary", UnitsAvailable{Operator: OperatorGreaterOrEqual, Value: 5}, true},
		{"greater or equal above", UnitsAvailable{Operator: OperatorGreaterOrEqual, Value: 6}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateCondition(metrics, tt.cond, now))
		})
	}
}

func TestEvaluateCondition_SalesVelocityNormalization(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cond := SalesVelocity{Operator: OperatorGreaterOrEqual, Value: big.NewRat(70, 1), TimeUnit: TimeUnitWeek}

	// 11 units/day = 77/week ≥ 70
	assert.True(t, EvaluateCondition(velocityMetrics(11), cond, now))
	// 9 units/day = 63/week < 70
	assert.False(t, EvaluateCondition(velocityMetrics(9), cond, now))
	// exactly 10/day = 70/week
	assert.True(t, EvaluateCondition(velocityMetrics(10), cond, now))

	t.Run("month is thirty days", func(t *testing.T) {
		monthly := SalesVelocity{Operator: OperatorLessOrEqual, Value: big.NewRat(60, 1), TimeUnit: TimeUnitMonth}
		assert.True(t, EvaluateCondition(velocityMetrics(2), monthly, now))
		assert.False(t, EvaluateCondition(velocityMetrics(3), monthly, now))
	})

	t.Run("day unit", func(t *testing.T) {
		daily := SalesVelocity{Operator: OperatorIs, Value: big.NewRat(4, 1), TimeUnit: TimeUnitDay}
		assert.True(t, EvaluateCondition(velocityMetrics(4), daily, now))
	})
}

func TestEvaluateCondition_MissingMetrics(t *testing.T) {
	now := time.Now()
	units := UnitsAvailable{Operator: OperatorLessOrEqual, Value: 100}
	velocity := SalesVelocity{Operator: OperatorGreaterOrEqual, Value: big.NewRat(0, 1), TimeUnit: TimeUnitDay}

	assert.False(t, EvaluateCondition(nil, units, now))
	assert.False(t, EvaluateCondition(&ProductMetrics{}, units, now))
	assert.False(t, EvaluateCondition(nil, velocity, now))
	assert.False(t, EvaluateCondition(&ProductMetrics{UnitsSoldInWindow: int64Ptr(10)}, velocity, now), "zero window days")
	assert.False(t, EvaluateCondition(&ProductMetrics{}, nil, now))
}

func TestEvaluateCondition_DateWindowInclusive(t *testing.T) {
	cond := DateWindowBetween{
		Start: civil.Date{Year: 2026, Month: time.January, Day: 1},
		End:   civil.Date{Year: 2026, Month: time.January, Day: 5},
	}
	at := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	}

	assert.True(t, EvaluateCondition(nil, cond, at(2026, time.January, 1)))
	assert.True(t, EvaluateCondition(nil, cond, at(2026, time.January, 5)))
	assert.True(t, EvaluateCondition(nil, cond, at(2026, time.January, 3)))
	assert.False(t, EvaluateCondition(nil, cond, at(2025, time.December, 31)))
	assert.False(t, EvaluateCondition(nil, cond, at(2026, time.January, 6)))
}

func TestEvaluateCondition_DateWindowUsesRunTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	cond := DateWindowIs{Date: civil.Date{Year: 2026, Month: time.January, Day: 1}}

	// 03:00 UTC on Jan 2 is still Jan 1 in New York
	utc := time.Date(2026, time.January, 2, 3, 0, 0, 0, time.UTC)
	assert.False(t, EvaluateCondition(nil, cond, utc))
	assert.True(t, EvaluateCondition(nil, cond, utc.In(ny)))
}

func TestCondition_Validate(t *testing.T) {
	assert.Error(t, UnitsAvailable{Operator: "approximately", Value: 1}.Validate())
	assert.ErrorIs(t, UnitsAvailable{Operator: OperatorIs, Value: -1}.Validate(), ErrNegativeValue)
	assert.Error(t, SalesVelocity{Operator: OperatorIs, Value: big.NewRat(1, 1), TimeUnit: "fortnight"}.Validate())
	assert.ErrorIs(t, SalesVelocity{Operator: OperatorIs, Value: big.NewRat(-1, 1), TimeUnit: TimeUnitDay}.Validate(), ErrNegativeValue)
	assert.ErrorIs(t, DateWindowBetween{
		Start: civil.Date{Year: 2026, Month: time.February, Day: 2},
		End:   civil.Date{Year: 2026, Month: time.February, Day: 1},
	}.Validate(), ErrDateWindowOrder)
}
