package testutil

import (
	"time"

	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
)

// NewYork is the default run timezone.
var NewYork = mustLoad("America/New_York")

// Noon returns 12:00 New York time on the given day of June 2026.
func Noon(day int) time.Time {
	return time.Date(2026, 6, day, 12, 0, 0, 0, NewYork)
}

// NewMockClock creates a mock clock at noon on June 1 2026, New York time.
func NewMockClock() *clock.MockClock {
	return clock.NewMockClock(Noon(1))
}

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}
