// Package repo implements the pricing contracts on Cloud Spanner.
//
// Repositories follow the golden mutation pattern: write paths build
// *spanner.Mutation values that a committer.CommitPlan applies atomically.
package repo

import (
	"fmt"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// moneyCols splits m into its lowest-terms numerator/denominator columns.
func moneyCols(m *domain.Money) (int64, int64, error) {
	num, err := m.Numerator()
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", m.Exact(), err)
	}
	den, err := m.Denominator()
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", m.Exact(), err)
	}
	return num, den, nil
}

// nullMoneyCols is moneyCols for nullable columns; nil maps to NULL.
func nullMoneyCols(m *domain.Money) (spanner.NullInt64, spanner.NullInt64, error) {
	if m == nil {
		return spanner.NullInt64{}, spanner.NullInt64{}, nil
	}
	num, den, err := moneyCols(m)
	if err != nil {
		return spanner.NullInt64{}, spanner.NullInt64{}, err
	}
	return spanner.NullInt64{Int64: num, Valid: true}, spanner.NullInt64{Int64: den, Valid: true}, nil
}

// nullMoney reads a nullable numerator/denominator pair.
func nullMoney(num, den spanner.NullInt64) (*domain.Money, error) {
	if !num.Valid || !den.Valid {
		return nil, nil
	}
	return domain.NewMoney(num.Int64, den.Int64)
}

func nullString(s string) spanner.NullString {
	return spanner.NullString{StringVal: s, Valid: s != ""}
}
