package domain

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("valid money creation", func(t *testing.T) {
		m, err := NewMoney(2999, 100)
		require.NoError(t, err)
		num, err := m.Numerator()
		require.NoError(t, err)
		denom, err := m.Denominator()
		require.NoError(t, err)
		assert.Equal(t, int64(2999), num)
		assert.Equal(t, int64(100), denom)
	})

	t.Run("zero denominator returns error", func(t *testing.T) {
		_, err := NewMoney(100, 0)
		assert.Error(t, err)
	})

	t.Run("negative denominator returns error", func(t *testing.T) {
		_, err := NewMoney(100, -1)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "positive")
	})

	t.Run("negative numerator allowed", func(t *testing.T) {
		m, err := NewMoney(-100, 1)
		require.NoError(t, err)
		assert.True(t, m.IsNegative())
	})

	t.Run("reduces to lowest terms", func(t *testing.T) {
		m, err := NewMoney(200, 2)
		require.NoError(t, err)
		num, _ := m.Numerator()
		denom, _ := m.Denominator()
		assert.Equal(t, int64(100), num)
		assert.Equal(t, int64(1), denom)
	})
}

func TestParseMoney(t *testing.T) {
	m, err := ParseMoney("29.99")
	require.NoError(t, err)
	assert.Equal(t, "29.99", m.String())

	m, err = ParseMoney("2999/100")
	require.NoError(t, err)
	assert.Equal(t, "29.99", m.String())

	_, err = ParseMoney("twelve")
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustParseMoney("100")
	b := MustParseMoney("30.50")

	assert.Equal(t, "130.50", a.Add(b).String())
	assert.Equal(t, "69.50", a.Subtract(b).String())
	assert.Equal(t, "12.50", a.MultiplyByRat(big.NewRat(1, 8)).String())
}

func TestMoney_Precision(t *testing.T) {
	// $29.99 * 1.10 must be exactly 32.989, not a float approximation
	price := MustParseMoney("29.99")
	result := price.MultiplyByRat(big.NewRat(11, 10))

	assert.True(t, result.Equals(MustParseMoney("32.989")))
	assert.Equal(t, "32.989", result.Exact())
	assert.Equal(t, "32.99", result.String())
}

func TestMoney_ClampNonNegative(t *testing.T) {
	clamped, did := MustParseMoney("-5").ClampNonNegative()
	assert.True(t, did)
	assert.True(t, clamped.IsZero())

	same, did := MustParseMoney("5").ClampNonNegative()
	assert.False(t, did)
	assert.Equal(t, "5.00", same.String())
}

func TestMoney_Comparisons(t *testing.T) {
	m1 := MustParseMoney("100")
	m2 := MustParseMoney("50")
	m3 := MustParseMoney("100.00")

	assert.True(t, m1.GreaterThan(m2))
	assert.True(t, m2.LessThan(m1))
	assert.True(t, m1.Equals(m3))
	assert.Equal(t, 0, m1.Cmp(m3))
}

func TestMaxMoney(t *testing.T) {
	assert.Nil(t, MaxMoney(nil, nil))
	assert.Equal(t, "10.00", MaxMoney(nil, MustParseMoney("10")).String())
	assert.Equal(t, "12.00", MaxMoney(MustParseMoney("12"), MustParseMoney("10")).String())
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(MustParseMoney("32.989"))
	require.NoError(t, err)
	assert.JSONEq(t, `"32.989"`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`12.5`), &m))
	assert.Equal(t, "12.50", m.String())
}

func TestMoney_IsSafeForStorage(t *testing.T) {
	huge := NewMoneyFromRat(new(big.Rat).SetInt(new(big.Int).Lsh(big.NewInt(1), 80)))
	assert.False(t, huge.IsSafeForStorage())

	_, err := huge.Numerator()
	assert.ErrorIs(t, err, ErrMoneyOverflow)
}
