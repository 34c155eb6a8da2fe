// Package scheduler fires the daily catalog evaluation.
//
// Each configured catalog is evaluated once per day at a fixed local time of
// day. On start, a catalog whose run instant has already passed today is
// evaluated immediately; the run log makes that a no-op when the day's run
// already completed.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/evaluate_catalog"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
)

// Runner executes one catalog run.
type Runner interface {
	Execute(ctx context.Context, req *evaluate_catalog.Request) (*domain.EvaluationRun, error)
}

// TimeOfDay is a wall-clock time in the scheduler's location.
type TimeOfDay struct {
	Hour, Minute, Second int
}

// ParseTimeOfDay parses "HH:MM:SS" (or "HH:MM").
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q, want HH:MM:SS", s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// On returns the instant t falls on for the calendar day of day in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, 0, loc)
}

// NextRun returns the first run instant strictly after now.
func NextRun(now time.Time, at TimeOfDay, loc *time.Location) time.Time {
	today := at.On(now, loc)
	if today.After(now) {
		return today
	}
	local := now.In(loc)
	return at.On(time.Date(local.Year(), local.Month(), local.Day()+1, 12, 0, 0, 0, loc), loc)
}

// Config controls when and what the scheduler runs.
type Config struct {
	CatalogIDs []string
	TimeOfDay  TimeOfDay
	Location   *time.Location
}

// Scheduler drives daily runs. A catalog is either idle or running; a
// second run for a running catalog is rejected rather than queued.
type Scheduler struct {
	runner Runner
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running map[string]bool
}

// New creates a Scheduler. A nil location means America/New_York.
func New(runner Runner, clk clock.Clock, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if cfg.Location == nil {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			return nil, fmt.Errorf("load default timezone: %w", err)
		}
		cfg.Location = loc
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:  runner,
		clock:   clk,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "scheduler")),
		running: make(map[string]bool),
	}, nil
}

// Run blocks until ctx is done, firing every catalog at each daily instant.
func (s *Scheduler) Run(ctx context.Context) error {
	now := s.clock.Now()
	if !now.Before(s.cfg.TimeOfDay.On(now, s.cfg.Location)) {
		s.logger.Info("catching up on today's run")
		s.fireAll(ctx)
	}

	for {
		now = s.clock.Now()
		next := NextRun(now, s.cfg.TimeOfDay, s.cfg.Location)
		s.logger.Info("next evaluation scheduled", slog.Time("at", next))

		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(next.Sub(now)):
			s.fireAll(ctx)
		}
	}
}

// Trigger runs catalogID now, as of the current time in the scheduler's
// location. It shares the daily run's idempotence: a completed day returns
// domain.ErrRunAlreadyCompleted.
func (s *Scheduler) Trigger(ctx context.Context, catalogID string) (*domain.EvaluationRun, error) {
	if !s.begin(catalogID) {
		return nil, domain.ErrRunInProgress
	}
	defer s.end(catalogID)

	return s.runner.Execute(ctx, &evaluate_catalog.Request{
		CatalogID: catalogID,
		AsOf:      s.clock.Now().In(s.cfg.Location),
	})
}

// Running reports whether catalogID has a run in flight on this instance.
func (s *Scheduler) Running(catalogID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[catalogID]
}

func (s *Scheduler) fireAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, id := range s.cfg.CatalogIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Trigger(ctx, id)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrRunAlreadyCompleted), errors.Is(err, domain.ErrRunInProgress):
				s.logger.Info("evaluation skipped", slog.String("catalog_id", id), slog.Any("reason", err))
			default:
				s.logger.Error("evaluation failed", slog.String("catalog_id", id), slog.Any("error", err))
			}
		}()
	}
	wg.Wait()
}

func (s *Scheduler) begin(catalogID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[catalogID] {
		return false
	}
	s.running[catalogID] = true
	return true
}

func (s *Scheduler) end(catalogID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, catalogID)
}
