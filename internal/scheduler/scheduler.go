package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RefreshFunc runs one refresh cycle
type RefreshFunc func(ctx context.Context) error

// Scheduler triggers refresh cycles on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	refresh RefreshFunc
	timeout time.Duration
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler running refresh on spec. Each run is bounded by timeout.
func New(spec string, refresh RefreshFunc, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if refresh == nil {
		return nil, fmt.Errorf("a refresh function must be provided")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		// Skip a tick while the previous run is still going
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		refresh: refresh,
		timeout: timeout,
		logger:  logger.With("component", "scheduler"),
		ctx:     ctx,
		cancel:  cancel,
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid refresh schedule '%s': %w", spec, err)
	}

	return s, nil
}

// Start begins running scheduled refreshes in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduled refresh started", "next", s.Next())
}

// Stop cancels a running refresh and waits for it to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// Next returns the time of the next scheduled run
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.refresh(ctx); err != nil {
		s.logger.Error("scheduled refresh failed", "error", err)
		return
	}
	s.logger.Info("scheduled refresh finished")
}
