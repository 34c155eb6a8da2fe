package evaluate_catalog

import (
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// Run statuses reported to a Recorder.
const (
	RunCompleted = "completed"
	RunSkipped   = "skipped"
	RunAborted   = "aborted"
)

// Recorder observes runs for metrics.
type Recorder interface {
	ProductEvaluated(catalogID string, outcome domain.Outcome, d time.Duration)
	RunFinished(catalogID, status string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ProductEvaluated(string, domain.Outcome, time.Duration) {}
func (nopRecorder) RunFinished(string, string, time.Duration)              {}
