package refresh

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethanbaker/countries/internal/events"
	"github.com/ethanbaker/countries/internal/feeds"
	country_store "github.com/ethanbaker/countries/internal/stores/country"
	"github.com/ethanbaker/countries/pkg/country"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCountries struct {
	countries []country.SourceCountry
	err       error
}

func (s stubCountries) Fetch(ctx context.Context) ([]country.SourceCountry, error) {
	return s.countries, s.err
}

type stubRates struct {
	rates country.RateTable
	err   error
}

func (s stubRates) Fetch(ctx context.Context) (country.RateTable, error) {
	return s.rates, s.err
}

// failingStore fails every upsert
type failingStore struct {
	*country_store.InMemoryStore
}

func (f failingStore) UpsertAll(ctx context.Context, records []*country.Record, refreshedAt time.Time) (int64, error) {
	return 0, errors.New("deadlock found when trying to get lock")
}

type fakeSummary struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSummary) Generate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeSummary) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.RefreshCompleted
	err    error
}

func (f *fakePublisher) PublishRefresh(ctx context.Context, event events.RefreshCompleted) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakePublisher) Close() error {
	return nil
}

type fakeRecorder struct {
	mu              sync.Mutex
	outcomes        []string
	countries       int64
	summaryFailures int
	eventFailures   int
}

func (f *fakeRecorder) RecordRefresh(outcome string, duration time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
}

func (f *fakeRecorder) RecordCountries(total int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countries = total
}

func (f *fakeRecorder) RecordSummaryFailure() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryFailures++
}

func (f *fakeRecorder) RecordEventFailure() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventFailures++
}

func newService(t *testing.T, opts Options) *Service {
	t.Helper()

	service, err := NewService(opts)
	require.NoError(t, err)
	t.Cleanup(service.Close)

	return service
}

// seed writes a known state so failed refreshes can be compared against it
func seed(t *testing.T, store country.Store) (*country.Status, time.Time) {
	t.Helper()

	refreshedAt := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	_, err := store.UpsertAll(context.Background(), []*country.Record{
		{Name: "Existing", Population: 42},
	}, refreshedAt)
	require.NoError(t, err)

	status, err := store.GetStatus(context.Background())
	require.NoError(t, err)
	return status, refreshedAt
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(Options{})
	assert.Error(t, err)

	_, err = NewService(Options{Countries: stubCountries{}, Rates: stubRates{}})
	assert.Error(t, err)
}

// Test a country without currencies is stored with a zero estimate
func TestRefresh_NoCurrencyScenario(t *testing.T) {
	ctx := context.Background()
	store := country_store.NewInMemoryStore()
	recorder := &fakeRecorder{}

	service := newService(t, Options{
		Countries: stubCountries{countries: []country.SourceCountry{{Name: "Testland", Population: 1000}}},
		Rates:     stubRates{rates: country.RateTable{}},
		Store:     store,
		Metrics:   recorder,
	})

	result, err := service.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalCountries)
	assert.NotEmpty(t, result.RunID)

	record, err := store.GetByName(ctx, "Testland")
	require.NoError(t, err)
	require.NotNil(t, record.EstimatedGDP)
	assert.Equal(t, 0.0, *record.EstimatedGDP)
	assert.Nil(t, record.CurrencyCode)
	assert.Nil(t, record.ExchangeRate)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.TotalCountries)
	require.NotNil(t, status.LastRefreshedAt)
	assert.True(t, result.LastRefreshedAt.Equal(*status.LastRefreshedAt))

	assert.Equal(t, []string{"success"}, recorder.outcomes)
	assert.Equal(t, int64(1), recorder.countries)
}

// Test a resolvable currency produces an estimate within bounds
func TestRefresh_ResolvedCurrencyScenario(t *testing.T) {
	ctx := context.Background()
	store := country_store.NewInMemoryStore()

	service := newService(t, Options{
		Countries: stubCountries{countries: []country.SourceCountry{
			{Name: "A", Population: 100, Currencies: []country.Currency{{Code: "XYZ"}}},
		}},
		Rates: stubRates{rates: country.RateTable{"XYZ": 2}},
		Store: store,
	})

	for i := 0; i < 20; i++ {
		_, err := service.Refresh(ctx)
		require.NoError(t, err)

		record, err := store.GetByName(ctx, "A")
		require.NoError(t, err)
		require.NotNil(t, record.EstimatedGDP)
		assert.GreaterOrEqual(t, *record.EstimatedGDP, 50000.0)
		assert.Less(t, *record.EstimatedGDP, 100000.0)
		assert.Equal(t, "XYZ", *record.CurrencyCode)
		assert.Equal(t, 2.0, *record.ExchangeRate)
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// Test the full pipeline against SQLite with a fixed multiplier
func TestRefresh_SQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := country_store.NewSQLiteStore(t.TempDir() + "/countries.db")
	require.NoError(t, err)
	defer store.Close()

	service := newService(t, Options{
		Countries: stubCountries{countries: []country.SourceCountry{
			{Name: "Nigeria", Capital: "Abuja", Region: "Africa", Population: 1000, Currencies: []country.Currency{{Code: "NGN"}}},
			{Name: "Nowhere", Population: 5, Currencies: []country.Currency{{Code: "QQQ"}}},
			{Name: "Testland", Population: 1000},
		}},
		Rates:      stubRates{rates: country.RateTable{"NGN": 1600}},
		Store:      store,
		Reconciler: country.NewReconciler(func() float64 { return 1600 }),
	})

	result, err := service.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.TotalCountries)

	nigeria, err := store.GetByName(ctx, "nigeria")
	require.NoError(t, err)
	require.NotNil(t, nigeria.EstimatedGDP)
	assert.InDelta(t, 1000.0, *nigeria.EstimatedGDP, 0.01)

	nowhere, err := store.GetByName(ctx, "Nowhere")
	require.NoError(t, err)
	assert.Equal(t, "QQQ", *nowhere.CurrencyCode)
	assert.Nil(t, nowhere.EstimatedGDP)
	assert.Nil(t, nowhere.ExchangeRate)
}

// Test a rate feed timeout aborts before any write
func TestRefresh_RateTimeout(t *testing.T) {
	ctx := context.Background()
	store := country_store.NewInMemoryStore()
	before, refreshedAt := seed(t, store)

	countryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"A","population":100,"currencies":[{"code":"XYZ"}]}]`))
	}))
	defer countryServer.Close()

	release := make(chan struct{})
	rateServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer rateServer.Close()
	defer close(release)

	summary := &fakeSummary{}
	recorder := &fakeRecorder{}
	service := newService(t, Options{
		Countries: feeds.NewCountryFeed(countryServer.URL, time.Second),
		Rates:     feeds.NewRateFeed(rateServer.URL, 50*time.Millisecond),
		Store:     store,
		Summary:   summary,
		Metrics:   recorder,
	})

	result, err := service.Refresh(ctx)
	assert.Nil(t, result)
	require.ErrorIs(t, err, ErrExternalSourceUnavailable)

	var refreshErr *Error
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, string(feeds.SourceRates), refreshErr.Source)
	assert.Contains(t, refreshErr.Detail, "timed out")

	// Nothing changed
	_, err = store.GetByName(ctx, "A")
	assert.ErrorIs(t, err, country.ErrNotFound)

	after, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.TotalCountries, after.TotalCountries)
	require.NotNil(t, after.LastRefreshedAt)
	assert.True(t, refreshedAt.Equal(*after.LastRefreshedAt))

	service.Wait()
	assert.Equal(t, 0, summary.Calls())
	assert.Equal(t, []string{"external_source_unavailable"}, recorder.outcomes)
}

// Test an empty country payload is rejected without touching the stored state
func TestRefresh_NullCountryPayload(t *testing.T) {
	ctx := context.Background()
	store := country_store.NewInMemoryStore()
	before, refreshedAt := seed(t, store)

	countryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	}))
	defer countryServer.Close()

	summary := &fakeSummary{}
	publisher := &fakePublisher{}
	service := newService(t, Options{
		Countries: feeds.NewCountryFeed(countryServer.URL, time.Second),
		Rates:     stubRates{rates: country.RateTable{"USD": 1}},
		Store:     store,
		Summary:   summary,
		Publisher: publisher,
	})

	result, err := service.Refresh(ctx)
	assert.Nil(t, result)
	require.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, ErrExternalSourceUnavailable)

	after, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.TotalCountries, after.TotalCountries)
	require.NotNil(t, after.LastRefreshedAt)
	assert.True(t, refreshedAt.Equal(*after.LastRefreshedAt))

	_, err = store.GetByName(ctx, "Existing")
	assert.NoError(t, err)

	service.Wait()
	assert.Equal(t, 0, summary.Calls())
	assert.Empty(t, publisher.events)
}

// Test failures of either feed are classified
func TestRefresh_FeedFailures(t *testing.T) {
	tests := []struct {
		name      string
		countries stubCountries
		rates     stubRates
		kind      error
	}{
		{
			name:      "country feed status",
			countries: stubCountries{err: &feeds.SourceError{Source: feeds.SourceCountries, Kind: feeds.KindStatus, StatusCode: 500}},
			rates:     stubRates{rates: country.RateTable{}},
			kind:      ErrExternalSourceUnavailable,
		},
		{
			name:      "rate feed transport after country success",
			countries: stubCountries{countries: []country.SourceCountry{{Name: "A"}}},
			rates:     stubRates{err: &feeds.SourceError{Source: feeds.SourceRates, Kind: feeds.KindTransport, Err: errors.New("connection refused")}},
			kind:      ErrExternalSourceUnavailable,
		},
		{
			name:      "malformed payload",
			countries: stubCountries{err: &feeds.SourceError{Source: feeds.SourceCountries, Kind: feeds.KindDecode, Err: errors.New("unexpected token")}},
			rates:     stubRates{rates: country.RateTable{}},
			kind:      ErrInternal,
		},
		{
			name:      "unclassified error",
			countries: stubCountries{err: errors.New("boom")},
			rates:     stubRates{rates: country.RateTable{}},
			kind:      ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := country_store.NewInMemoryStore()
			before, _ := seed(t, store)

			service := newService(t, Options{Countries: tt.countries, Rates: tt.rates, Store: store})

			_, err := service.Refresh(context.Background())
			assert.ErrorIs(t, err, tt.kind)

			after, err := store.GetStatus(context.Background())
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

// Test commit failures surface as persistence errors without side tasks
func TestRefresh_PersistenceFailure(t *testing.T) {
	summary := &fakeSummary{}
	publisher := &fakePublisher{}

	service := newService(t, Options{
		Countries: stubCountries{countries: []country.SourceCountry{{Name: "A"}}},
		Rates:     stubRates{rates: country.RateTable{}},
		Store:     failingStore{country_store.NewInMemoryStore()},
		Summary:   summary,
		Publisher: publisher,
	})

	_, err := service.Refresh(context.Background())
	require.ErrorIs(t, err, ErrPersistence)
	assert.ErrorContains(t, err, "deadlock")

	service.Wait()
	assert.Equal(t, 0, summary.Calls())
	assert.Empty(t, publisher.events)
}

// Test side task failures never change the refresh result
func TestRefresh_SideTaskFailures(t *testing.T) {
	summary := &fakeSummary{err: errors.New("disk full")}
	publisher := &fakePublisher{err: errors.New("broker down")}
	recorder := &fakeRecorder{}

	service := newService(t, Options{
		Countries: stubCountries{countries: []country.SourceCountry{{Name: "A"}, {Name: "B"}}},
		Rates:     stubRates{rates: country.RateTable{}},
		Store:     country_store.NewInMemoryStore(),
		Summary:   summary,
		Publisher: publisher,
		Metrics:   recorder,
	})

	result, err := service.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalCountries)

	service.Wait()
	assert.Equal(t, 1, summary.Calls())
	require.Len(t, publisher.events, 1)
	assert.Equal(t, result.RunID, publisher.events[0].RunID)
	assert.Equal(t, int64(2), publisher.events[0].TotalCountries)
	assert.Equal(t, 1, recorder.summaryFailures)
	assert.Equal(t, 1, recorder.eventFailures)
}

func TestRefresh_AfterClose(t *testing.T) {
	service, err := NewService(Options{
		Countries: stubCountries{},
		Rates:     stubRates{rates: country.RateTable{}},
		Store:     country_store.NewInMemoryStore(),
	})
	require.NoError(t, err)

	service.Close()
	service.Close()

	_, err = service.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrInternal)
}
