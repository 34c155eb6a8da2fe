package domain

import "time"

// Schedule is the optional active window of a RuleSet.
// A zero Start or End leaves that side of the window open.
type Schedule struct {
	Start time.Time
	End   time.Time
}

// Validate checks start ≤ end when both are set.
func (s *Schedule) Validate() error {
	if s == nil || s.Start.IsZero() || s.End.IsZero() {
		return nil
	}
	if s.End.Before(s.Start) {
		return ErrInvalidSchedule
	}
	return nil
}

// IsActive reports whether asOf falls within the window.
// The window is INCLUSIVE on both ends; a nil schedule is always active.
func (s *Schedule) IsActive(asOf time.Time) bool {
	if s == nil {
		return true
	}
	if !s.Start.IsZero() && asOf.Before(s.Start) {
		return false
	}
	if !s.End.IsZero() && asOf.After(s.End) {
		return false
	}
	return true
}
