package contracts

import (
	"context"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// RuleSetStore holds authored rule sets.
type RuleSetStore interface {
	// ActiveRuleSets returns the catalog's enabled rule sets created at or
	// before asOf, in evaluation order (see domain.SortRuleSets).
	// Schedules are not applied here; the engine gates on them.
	ActiveRuleSets(ctx context.Context, catalogID string, asOf time.Time) ([]domain.RuleSet, error)

	// GetRuleSet returns a rule set by id or domain.ErrRuleSetNotFound.
	GetRuleSet(ctx context.Context, ruleSetID string) (*domain.RuleSet, error)

	// Save validates and upserts a rule set.
	Save(ctx context.Context, rs domain.RuleSet) error
}
