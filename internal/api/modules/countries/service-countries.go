package countries_module

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethanbaker/countries/internal/refresh"
	"github.com/ethanbaker/countries/pkg/country"
)

// Refresher runs a refresh cycle
type Refresher interface {
	Refresh(ctx context.Context) (*refresh.Result, error)
}

// ImageSource loads the cached summary image
type ImageSource interface {
	Load() ([]byte, error)
}

// DeleteRecorder receives delete metrics
type DeleteRecorder interface {
	RecordDelete(found bool)
	RecordCountries(total int64)
}

// Options contains the dependencies of the countries module
type Options struct {
	Store     country.Store
	Refresher Refresher
	Images    ImageSource
	Metrics   DeleteRecorder
	Logger    *slog.Logger
}

// CountriesService backs the countries routes
type CountriesService struct {
	store     country.Store
	refresher Refresher
	images    ImageSource
	metrics   DeleteRecorder
	logger    *slog.Logger
}

var countriesService *CountriesService

/** ---- INIT ---- */

// Init creates the countries service used by the handlers
func Init(opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("a valid store must be provided")
	}
	if opts.Refresher == nil {
		return fmt.Errorf("a valid refresher must be provided")
	}
	if opts.Images == nil {
		return fmt.Errorf("a valid image source must be provided")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	countriesService = &CountriesService{
		store:     opts.Store,
		refresher: opts.Refresher,
		images:    opts.Images,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "countries"),
	}
	return nil
}

/** ---- OPERATIONS ---- */

// Delete removes a country and reports whether it existed
func (s *CountriesService) Delete(ctx context.Context, name string) (bool, error) {
	found, err := s.store.DeleteByName(ctx, name)
	if err != nil {
		return false, err
	}

	if s.metrics != nil {
		s.metrics.RecordDelete(found)
		if found {
			if total, err := s.store.Count(ctx); err == nil {
				s.metrics.RecordCountries(total)
			}
		}
	}

	if found {
		s.logger.Info("country deleted", "name", name)
	}
	return found, nil
}
