package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rat(s string) *big.Rat {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		panic("bad rat " + s)
	}
	return r
}

func TestApplyAction(t *testing.T) {
	tests := []struct {
		name        string
		current     string
		action      Action
		want        string
		wantClamped bool
	}{
		{"set fixed", "29.99", Action{ActionSetPrice, ValueFixed, rat("24.50")}, "24.50", false},
		{"set percentage of current", "80", Action{ActionSetPrice, ValuePercentage, rat("75")}, "60", false},
		{"increase fixed", "10", Action{ActionIncrease, ValueFixed, rat("2.5")}, "12.50", false},
		{"increase percentage", "29.99", Action{ActionIncrease, ValuePercentage, rat("10")}, "32.989", false},
		{"decrease fixed", "10", Action{ActionDecrease, ValueFixed, rat("3")}, "7", false},
		{"decrease fixed below zero clamps", "10", Action{ActionDecrease, ValueFixed, rat("12")}, "0", true},
		{"decrease percentage", "200", Action{ActionDecrease, ValuePercentage, rat("12.5")}, "175", false},
		{"decrease 150 percent clamps", "10.00", Action{ActionDecrease, ValuePercentage, rat("150")}, "0", true},
		{"decrease exactly 100 percent", "10.00", Action{ActionDecrease, ValuePercentage, rat("100")}, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := ApplyAction(MustParseMoney(tt.current), tt.action)
			assert.True(t, got.Equals(MustParseMoney(tt.want)), "got %s want %s", got.Exact(), tt.want)
			assert.Equal(t, tt.wantClamped, clamped)
			assert.False(t, got.IsNegative())
		})
	}
}

func TestApplyAction_InvalidLeavesPrice(t *testing.T) {
	got, clamped := ApplyAction(MustParseMoney("10"), Action{Type: "double", ValueType: ValueFixed, Value: rat("1")})
	assert.False(t, clamped)
	assert.Equal(t, "10.00", got.String())

	got, _ = ApplyAction(MustParseMoney("10"), Action{Type: ActionIncrease, ValueType: ValueFixed, Value: rat("-1")})
	assert.Equal(t, "10.00", got.String())
}

func TestAction_Validate(t *testing.T) {
	assert.NoError(t, Action{ActionIncrease, ValuePercentage, rat("0")}.Validate())
	assert.ErrorIs(t, Action{ActionIncrease, ValuePercentage, rat("-5")}.Validate(), ErrNegativeValue)
	assert.ErrorIs(t, Action{ActionIncrease, ValuePercentage, nil}.Validate(), ErrNegativeValue)
	assert.Error(t, Action{ActionIncrease, "ratio", rat("1")}.Validate())
}
