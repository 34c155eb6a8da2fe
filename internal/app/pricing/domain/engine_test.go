package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var always = UnitsAvailable{Operator: OperatorGreaterOrEqual, Value: 0}

func increasePct(id, pct string) Rule {
	return Rule{
		ID:        id,
		Condition: always,
		Action:    Action{Type: ActionIncrease, ValueType: ValuePercentage, Value: rat(pct)},
		Rounding:  NoRounding,
	}
}

// roundOnly leaves the price as is and snaps it to the nearest unit.
func roundOnly(id, unit string) Rule {
	return Rule{
		ID:        id,
		Condition: always,
		Action:    Action{Type: ActionIncrease, ValueType: ValueFixed, Value: big.NewRat(0, 1)},
		Rounding:  RoundingPolicy{Type: RoundingNearest, Unit: MustParseMoney(unit)},
	}
}

func product(price string) ProductSnapshot {
	return ProductSnapshot{ID: "prod-1", CatalogID: "cat-1", Price: MustParseMoney(price)}
}

func stocked(units int64) *ProductMetrics {
	return &ProductMetrics{UnitsAvailable: &units}
}

func TestRuleEngine_OrderSensitivity(t *testing.T) {
	engine := NewRuleEngine(nil)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	r1 := increasePct("r1", "10")
	r2 := roundOnly("r2", "0.10")

	t.Run("percentage then rounding", func(t *testing.T) {
		// $29.99 → +10% → $32.989 → nearest .10 → $33.00
		res := engine.Evaluate(product("29.99"), stocked(1), RuleSet{ID: "rs", Rules: []Rule{r1, r2}}, now)
		assert.True(t, res.AfterPrice.Equals(MustParseMoney("33.00")), res.AfterPrice.Exact())
		assert.Equal(t, []string{"r1", "r2"}, res.AppliedRuleIDs)
	})

	t.Run("rounding then percentage", func(t *testing.T) {
		// $29.99 → nearest .10 → $30.00 → +10% → $33.00
		res := engine.Evaluate(product("29.99"), stocked(1), RuleSet{ID: "rs", Rules: []Rule{r2, r1}}, now)
		assert.True(t, res.AfterPrice.Equals(MustParseMoney("33.00")), res.AfterPrice.Exact())
		assert.Equal(t, []string{"r2", "r1"}, res.AppliedRuleIDs)
	})

	t.Run("orders diverge when rounding changes the base", func(t *testing.T) {
		// $29.94: +10% = 32.934 → 32.90; rounded first 29.90 → +10% = 32.89
		first := engine.Evaluate(product("29.94"), stocked(1), RuleSet{Rules: []Rule{r1, r2}}, now)
		second := engine.Evaluate(product("29.94"), stocked(1), RuleSet{Rules: []Rule{r2, r1}}, now)
		assert.True(t, first.AfterPrice.Equals(MustParseMoney("32.90")), first.AfterPrice.Exact())
		assert.True(t, second.AfterPrice.Equals(MustParseMoney("32.89")), second.AfterPrice.Exact())
		assert.False(t, first.AfterPrice.Equals(second.AfterPrice))
	})
}

func TestRuleEngine_ClampsDecrease(t *testing.T) {
	engine := NewRuleEngine(nil)
	rs := RuleSet{ID: "rs", Rules: []Rule{{
		ID:        "wipe",
		Condition: always,
		Action:    Action{Type: ActionDecrease, ValueType: ValuePercentage, Value: rat("150")},
		Rounding:  NoRounding,
	}}}

	res := engine.Evaluate(product("10.00"), stocked(1), rs, time.Now())
	assert.True(t, res.AfterPrice.IsZero())
	assert.False(t, res.AfterPrice.IsNegative())
	assert.Equal(t, OutcomeUpdated, res.Outcome)
}

func TestRuleEngine_ClampBeforeNextRule(t *testing.T) {
	engine := NewRuleEngine(nil)
	rs := RuleSet{Rules: []Rule{
		{ID: "minus", Condition: always, Action: Action{Type: ActionDecrease, ValueType: ValueFixed, Value: rat("15")}, Rounding: NoRounding},
		{ID: "plus", Condition: always, Action: Action{Type: ActionIncrease, ValueType: ValueFixed, Value: rat("2")}, Rounding: NoRounding},
	}}

	// 10 - 15 clamps to 0 before +2, so the result is 2 and not -3
	res := engine.Evaluate(product("10"), stocked(1), rs, time.Now())
	assert.True(t, res.AfterPrice.Equals(MustParseMoney("2")), res.AfterPrice.Exact())
}

func TestRuleEngine_SkipsFalseConditions(t *testing.T) {
	engine := NewRuleEngine(nil)
	lowStock := Rule{
		ID:        "low-stock",
		Condition: UnitsAvailable{Operator: OperatorLessOrEqual, Value: 5},
		Action:    Action{Type: ActionIncrease, ValueType: ValueFixed, Value: rat("5")},
		Rounding:  RoundingPolicy{Type: RoundingUp, Unit: MustParseMoney("1")},
	}
	rs := RuleSet{ID: "rs", Rules: []Rule{lowStock}}

	t.Run("condition false skips action and rounding", func(t *testing.T) {
		res := engine.Evaluate(product("19.49"), stocked(50), rs, time.Now())
		assert.Equal(t, "19.49", res.AfterPrice.Exact())
		assert.Empty(t, res.AppliedRuleIDs)
		assert.Equal(t, OutcomeUnchanged, res.Outcome)
	})

	t.Run("missing metrics skip the rule", func(t *testing.T) {
		res := engine.Evaluate(product("19.49"), nil, rs, time.Now())
		assert.Equal(t, "19.49", res.AfterPrice.Exact())
		assert.Empty(t, res.AppliedRuleIDs)
	})

	t.Run("condition true applies", func(t *testing.T) {
		res := engine.Evaluate(product("19.49"), stocked(3), rs, time.Now())
		assert.Equal(t, "25.00", res.AfterPrice.String())
		assert.Equal(t, []string{"low-stock"}, res.AppliedRuleIDs)
	})
}

func TestRuleEngine_ScheduleNotActive(t *testing.T) {
	engine := NewRuleEngine(nil)
	today := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	rs := RuleSet{
		ID:       "rs",
		Rules:    []Rule{increasePct("r1", "10")},
		Schedule: &Schedule{Start: tomorrow},
	}

	res := engine.Evaluate(product("29.99"), stocked(1), rs, today)
	assert.True(t, res.AfterPrice.Equals(res.BeforePrice))
	assert.Empty(t, res.AppliedRuleIDs)
	assert.Equal(t, OutcomeUnchanged, res.Outcome)

	res = engine.Evaluate(product("29.99"), stocked(1), rs, tomorrow)
	assert.Equal(t, []string{"r1"}, res.AppliedRuleIDs)
}

func TestRuleEngine_MissingPrice(t *testing.T) {
	engine := NewRuleEngine(nil)
	res := engine.Evaluate(ProductSnapshot{ID: "p"}, nil, RuleSet{Rules: []Rule{increasePct("r1", "10")}}, time.Now())
	require.Error(t, res.Error)
	assert.ErrorIs(t, res.Error, ErrMissingPrice)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestRuleEngine_DoesNotMutateInput(t *testing.T) {
	engine := NewRuleEngine(nil)
	p := product("29.99")
	_ = engine.Evaluate(p, stocked(1), RuleSet{Rules: []Rule{increasePct("r1", "10")}}, time.Now())
	assert.Equal(t, "29.99", p.Price.Exact())
}

func TestNextCompareAt(t *testing.T) {
	m := MustParseMoney

	t.Run("markdown records the pre-run price", func(t *testing.T) {
		got := NextCompareAt(m("40"), m("30"), nil)
		require.NotNil(t, got)
		assert.Equal(t, "40.00", got.String())
	})

	t.Run("markdown keeps a higher existing compare-at", func(t *testing.T) {
		got := NextCompareAt(m("40"), m("30"), m("50"))
		assert.Equal(t, "50.00", got.String())
	})

	t.Run("price back at compare-at clears it", func(t *testing.T) {
		assert.Nil(t, NextCompareAt(m("30"), m("50"), m("50")))
	})

	t.Run("increase below compare-at keeps it", func(t *testing.T) {
		got := NextCompareAt(m("30"), m("35"), m("50"))
		assert.Equal(t, "50.00", got.String())
	})
}

func TestRuleEngine_CompareAtOnMarkdown(t *testing.T) {
	engine := NewRuleEngine(nil)
	rs := RuleSet{Rules: []Rule{{
		ID:        "markdown",
		Condition: always,
		Action:    Action{Type: ActionDecrease, ValueType: ValuePercentage, Value: rat("20")},
		Rounding:  RoundingPolicy{Type: RoundingDown, Unit: MustParseMoney("0.01")},
	}}}

	res := engine.Evaluate(product("50"), stocked(1), rs, time.Now())
	assert.Equal(t, "40.00", res.AfterPrice.String())
	require.NotNil(t, res.AfterCompareAt)
	assert.Equal(t, "50.00", res.AfterCompareAt.String())
	assert.Nil(t, res.BeforeCompareAt)
}
