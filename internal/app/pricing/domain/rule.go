package domain

import (
	"fmt"
	"slices"
	"time"
)

// Rule is one conditional price-adjustment step.
type Rule struct {
	ID        string
	Condition Condition
	Action    Action
	Rounding  RoundingPolicy
}

// Validate checks the rule's condition, action and rounding.
func (r Rule) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "id", Err: fmt.Errorf("rule id is required")}
	}
	if r.Condition == nil {
		return &ValidationError{RuleID: r.ID, Field: "condition", Err: fmt.Errorf("condition is required")}
	}
	if err := r.Condition.Validate(); err != nil {
		return &ValidationError{RuleID: r.ID, Field: "condition", Err: err}
	}
	if err := r.Action.Validate(); err != nil {
		return &ValidationError{RuleID: r.ID, Field: "action", Err: err}
	}
	if err := r.Rounding.Validate(); err != nil {
		return &ValidationError{RuleID: r.ID, Field: "rounding", Err: err}
	}
	return nil
}

// RuleSet is an ordered sequence of Rules scoped to a product selection.
// Order is significant: each rule consumes the previous rule's output price.
//
// A RuleSet targets the products listed in ProductIDs plus, when Selector is
// set, every product the selector expression matches.
type RuleSet struct {
	ID         string
	CatalogID  string
	Name       string
	Priority   int
	ProductIDs []string
	Selector   string
	Rules      []Rule
	Schedule   *Schedule
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateBounds performs the checks the engine needs to compute safely:
// every rule validates and the schedule is ordered. Drafts in preview only
// need to pass this.
func (rs RuleSet) ValidateBounds() error {
	if err := rs.Schedule.Validate(); err != nil {
		return &ValidationError{RuleSetID: rs.ID, Field: "schedule", Err: err}
	}
	for _, rule := range rs.Rules {
		if err := rule.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate performs the full validation required before a rule set is stored.
func (rs RuleSet) Validate() error {
	if rs.ID == "" {
		return &ValidationError{Field: "id", Err: fmt.Errorf("rule set id is required")}
	}
	if rs.CatalogID == "" {
		return &ValidationError{RuleSetID: rs.ID, Field: "catalog_id", Err: fmt.Errorf("catalog id is required")}
	}
	if len(rs.ProductIDs) == 0 && rs.Selector == "" {
		return &ValidationError{RuleSetID: rs.ID, Field: "scope", Err: fmt.Errorf("product ids or selector required")}
	}
	seen := make(map[string]bool, len(rs.Rules))
	for _, rule := range rs.Rules {
		if seen[rule.ID] {
			return &ValidationError{RuleSetID: rs.ID, RuleID: rule.ID, Field: "id", Err: fmt.Errorf("duplicate rule id")}
		}
		seen[rule.ID] = true
	}
	return rs.ValidateBounds()
}

// TargetsProduct reports whether productID is listed explicitly.
func (rs RuleSet) TargetsProduct(productID string) bool {
	return slices.Contains(rs.ProductIDs, productID)
}

// SortRuleSets orders rule sets by descending priority, then ascending id.
func SortRuleSets(sets []RuleSet) {
	slices.SortStableFunc(sets, func(a, b RuleSet) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
