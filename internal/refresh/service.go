package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethanbaker/countries/internal/events"
	"github.com/ethanbaker/countries/internal/feeds"
	"github.com/ethanbaker/countries/pkg/country"
	"github.com/google/uuid"
)

const defaultSideTaskTimeout = 30 * time.Second

// SummaryGenerator renders the summary artifact from committed state
type SummaryGenerator interface {
	Generate(ctx context.Context) error
}

// Recorder receives refresh metrics
type Recorder interface {
	RecordRefresh(outcome string, duration time.Duration)
	RecordCountries(total int64)
	RecordSummaryFailure()
	RecordEventFailure()
}

// Options contains the collaborators of the refresh service
type Options struct {
	Countries  feeds.CountrySource
	Rates      feeds.RateSource
	Store      country.Store
	Reconciler *country.Reconciler

	// Optional
	Summary         SummaryGenerator
	Publisher       events.Publisher
	Metrics         Recorder
	Logger          *slog.Logger
	Now             func() time.Time
	SideTaskTimeout time.Duration
}

// Result is returned by a committed refresh
type Result struct {
	RunID           string    `json:"run_id"`
	TotalCountries  int64     `json:"total_countries"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
}

// Service runs refresh cycles: fetch both feeds, reconcile, commit, then
// start the best-effort side tasks
type Service struct {
	opts   Options
	logger *slog.Logger

	// Serializes refresh cycles in this process
	mutex  sync.Mutex
	closed bool

	// Side tasks run detached from the caller and report here
	sideTasks sync.WaitGroup
	errCh     chan error
	drained   chan struct{}
	closeOnce sync.Once
}

// NewService validates the options and starts the side task error logger
func NewService(opts Options) (*Service, error) {
	if opts.Countries == nil || opts.Rates == nil {
		return nil, fmt.Errorf("both feeds must be provided")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("a valid store must be provided")
	}
	if opts.Reconciler == nil {
		opts.Reconciler = country.NewReconciler(nil)
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SideTaskTimeout <= 0 {
		opts.SideTaskTimeout = defaultSideTaskTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		opts:    opts,
		logger:  logger.With("component", "refresh"),
		errCh:   make(chan error, 16),
		drained: make(chan struct{}),
	}

	go s.logSideTaskErrors()

	return s, nil
}

// Refresh runs one refresh cycle. No store write happens unless both feeds
// succeed, and the summary and event tasks only start after the commit.
func (s *Service) Refresh(ctx context.Context) (*Result, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, &Error{Kind: ErrInternal, Err: errors.New("refresh service is closed")}
	}

	runID := uuid.NewString()
	start := s.opts.Now()
	logger := s.logger.With("run_id", runID)

	result, err := s.run(ctx, runID)
	duration := s.opts.Now().Sub(start)

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordRefresh(outcome(err), duration)
	}

	if err != nil {
		logger.Error("refresh failed", "error", err, "duration", duration)
		return nil, err
	}

	logger.Info("refresh committed", "total_countries", result.TotalCountries, "duration", duration)

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordCountries(result.TotalCountries)
	}
	s.startSideTasks(result, duration)

	return result, nil
}

func (s *Service) run(ctx context.Context, runID string) (*Result, error) {
	sources, rates, err := feeds.FetchAll(ctx, s.opts.Countries, s.opts.Rates)
	if err != nil {
		return nil, classifyFetchError(err)
	}

	records := s.opts.Reconciler.ReconcileAll(sources, rates)

	refreshedAt := s.opts.Now().UTC()
	total, err := s.opts.Store.UpsertAll(ctx, records, refreshedAt)
	if err != nil {
		return nil, &Error{Kind: ErrPersistence, Err: err}
	}

	return &Result{
		RunID:           runID,
		TotalCountries:  total,
		LastRefreshedAt: refreshedAt,
	}, nil
}

// classifyFetchError maps a feed failure onto the refresh error kinds
func classifyFetchError(err error) error {
	var srcErr *feeds.SourceError
	if !errors.As(err, &srcErr) {
		return &Error{Kind: ErrInternal, Err: err}
	}

	if !srcErr.Unavailable() {
		return &Error{Kind: ErrInternal, Source: string(srcErr.Source), Detail: srcErr.Error(), Err: err}
	}

	return &Error{
		Kind:   ErrExternalSourceUnavailable,
		Source: string(srcErr.Source),
		Detail: srcErr.Error(),
		Err:    err,
	}
}

// startSideTasks renders the summary and publishes the refresh event without
// blocking the caller. Failures are only reported through the error channel.
func (s *Service) startSideTasks(result *Result, duration time.Duration) {
	if s.opts.Summary != nil {
		s.sideTasks.Add(1)
		go func() {
			defer s.sideTasks.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.opts.SideTaskTimeout)
			defer cancel()

			if err := s.opts.Summary.Generate(ctx); err != nil {
				if s.opts.Metrics != nil {
					s.opts.Metrics.RecordSummaryFailure()
				}
				s.errCh <- fmt.Errorf("summary image for run %s: %w", result.RunID, err)
			}
		}()
	}

	s.sideTasks.Add(1)
	go func() {
		defer s.sideTasks.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.SideTaskTimeout)
		defer cancel()

		err := s.opts.Publisher.PublishRefresh(ctx, events.RefreshCompleted{
			Type:           events.RefreshCompletedType,
			RunID:          result.RunID,
			TotalCountries: result.TotalCountries,
			RefreshedAt:    result.LastRefreshedAt,
			DurationMs:     duration.Milliseconds(),
		})
		if err != nil {
			if s.opts.Metrics != nil {
				s.opts.Metrics.RecordEventFailure()
			}
			s.errCh <- fmt.Errorf("refresh event for run %s: %w", result.RunID, err)
		}
	}()
}

func (s *Service) logSideTaskErrors() {
	defer close(s.drained)

	for err := range s.errCh {
		s.logger.Warn("refresh side task failed", "error", err)
	}
}

// Wait blocks until every side task started so far has finished
func (s *Service) Wait() {
	s.sideTasks.Wait()
}

// Close waits for side tasks and stops the error logger
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		s.closed = true
		s.sideTasks.Wait()
		close(s.errCh)
		<-s.drained
	})
}
