package domain

import (
	"errors"
	"fmt"
)

// Domain errors as sentinel values
var (
	// Rule authoring errors (wrapped by ValidationError)
	ErrInvalidRule     = errors.New("invalid rule")
	ErrInvalidRuleSet  = errors.New("invalid rule set")
	ErrInvalidSchedule = errors.New("schedule end must not be before start")
	ErrMissingRounding = errors.New("rounding unit must be positive when rounding is enabled")
	ErrNegativeValue   = errors.New("value must not be negative")
	ErrDateWindowOrder = errors.New("date window start must not be after end")

	// Evaluation errors
	ErrMetricsUnavailable = errors.New("product metrics unavailable")
	ErrMissingPrice       = errors.New("product has no current price")
	ErrMoneyOverflow      = errors.New("money value exceeds storage capacity")

	// Batch errors
	ErrCatalogUnavailable  = errors.New("catalog unavailable")
	ErrPersistence         = errors.New("price persistence failed")
	ErrRunAlreadyCompleted = errors.New("evaluation run already completed")
	ErrRunInProgress       = errors.New("evaluation run already in progress")
	ErrRunNotFound         = errors.New("evaluation run not found")
	ErrLeaseLost           = errors.New("evaluation run lease lost")
	ErrRuleSetNotFound     = errors.New("rule set not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrVersionConflict     = errors.New("product was modified concurrently")
)

// ValidationError describes a malformed Rule or RuleSet.
type ValidationError struct {
	RuleSetID string
	RuleID    string
	Field     string
	Err       error
}

func (e *ValidationError) Error() string {
	switch {
	case e.RuleID != "":
		return fmt.Sprintf("rule %q: %s: %v", e.RuleID, e.Field, e.Err)
	case e.RuleSetID != "":
		return fmt.Sprintf("rule set %q: %s: %v", e.RuleSetID, e.Field, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is makes every ValidationError match ErrInvalidRuleSet, and rule-level ones ErrInvalidRule.
func (e *ValidationError) Is(target error) bool {
	if target == ErrInvalidRuleSet {
		return true
	}
	return target == ErrInvalidRule && e.RuleID != ""
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
