package country

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ethanbaker/countries/pkg/country"
)

// InMemoryStore provides an in-memory implementation of country.Store for
// local runs and testing
type InMemoryStore struct {
	countries map[string]*country.Record
	status    country.Status
	mutex     sync.RWMutex
}

var _ country.Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new in-memory country store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		countries: make(map[string]*country.Record),
		mutex:     sync.RWMutex{},
	}
}

// UpsertAll replaces every given country and updates the status row under one lock
func (s *InMemoryStore) UpsertAll(ctx context.Context, records []*country.Record, refreshedAt time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, record := range records {
		// Store a copy to avoid shared references
		stored := record.Clone()
		stored.LastRefreshedAt = refreshedAt
		s.countries[record.Name] = stored
	}

	refreshed := refreshedAt
	s.status = country.Status{
		TotalCountries:  int64(len(s.countries)),
		LastRefreshedAt: &refreshed,
	}

	return s.status.TotalCountries, nil
}

// Count returns the number of stored countries
func (s *InMemoryStore) Count(ctx context.Context) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return int64(len(s.countries)), nil
}

// GetByName retrieves a country by name, ignoring case
func (s *InMemoryStore) GetByName(ctx context.Context, name string) (*country.Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	key, ok := s.findKey(name)
	if !ok {
		return nil, country.ErrNotFound
	}

	// Return a copy to avoid external mutations
	return s.countries[key].Clone(), nil
}

// QueryAll lists countries matching the filter in the requested order
func (s *InMemoryStore) QueryAll(ctx context.Context, filter country.Filter, order country.SortOrder) ([]*country.Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records := make([]*country.Record, 0, len(s.countries))
	for _, record := range s.countries {
		if filter.Region != "" && (record.Region == nil || *record.Region != filter.Region) {
			continue
		}
		if filter.CurrencyCode != "" && (record.CurrencyCode == nil || *record.CurrencyCode != filter.CurrencyCode) {
			continue
		}
		records = append(records, record.Clone())
	}

	slices.SortFunc(records, func(a, b *country.Record) int {
		switch order {
		case country.SortByGDPAsc:
			if c := compareGDP(a, b); c != 0 {
				return c
			}
		case country.SortByGDPDesc:
			if c := compareGDP(b, a); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Name, b.Name)
	})

	return records, nil
}

// TopByGDP returns up to n countries with a known estimate, largest first
func (s *InMemoryStore) TopByGDP(ctx context.Context, n int) ([]*country.Record, error) {
	all, err := s.QueryAll(ctx, country.Filter{}, country.SortByGDPDesc)
	if err != nil {
		return nil, err
	}

	// A negative limit means no limit, as with the SQL store
	if n < 0 {
		n = len(all)
	}

	top := make([]*country.Record, 0, n)
	for _, record := range all {
		if len(top) == n {
			break
		}
		if record.EstimatedGDP != nil {
			top = append(top, record)
		}
	}
	return top, nil
}

// DeleteByName removes a country by name, ignoring case, and recounts the status row
func (s *InMemoryStore) DeleteByName(ctx context.Context, name string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key, ok := s.findKey(name)
	if !ok {
		return false, nil
	}

	delete(s.countries, key)
	s.status.TotalCountries = int64(len(s.countries))
	return true, nil
}

// GetStatus returns a copy of the aggregate status row
func (s *InMemoryStore) GetStatus(ctx context.Context) (*country.Status, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	status := s.status
	if status.LastRefreshedAt != nil {
		refreshed := *status.LastRefreshedAt
		status.LastRefreshedAt = &refreshed
	}
	return &status, nil
}

// SetStatus overwrites the total count, and the refresh time when one is given
func (s *InMemoryStore) SetStatus(ctx context.Context, total int64, refreshedAt *time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.status.TotalCountries = total
	if refreshedAt != nil {
		refreshed := *refreshedAt
		s.status.LastRefreshedAt = &refreshed
	}
	return nil
}

// Close is a no-op for the in-memory store
func (s *InMemoryStore) Close() error {
	return nil
}

// findKey returns the stored key matching name case-insensitively. When more
// than one key matches, the lexically smallest wins.
func (s *InMemoryStore) findKey(name string) (string, bool) {
	if _, ok := s.countries[name]; ok {
		return name, true
	}

	found := ""
	for key := range s.countries {
		if strings.EqualFold(key, name) && (found == "" || key < found) {
			found = key
		}
	}
	return found, found != ""
}

// compareGDP orders unknown estimates before known ones, like SQL does for NULL
func compareGDP(a, b *country.Record) int {
	switch {
	case a.EstimatedGDP == nil && b.EstimatedGDP == nil:
		return 0
	case a.EstimatedGDP == nil:
		return -1
	case b.EstimatedGDP == nil:
		return 1
	default:
		return cmp.Compare(*a.EstimatedGDP, *b.EstimatedGDP)
	}
}
