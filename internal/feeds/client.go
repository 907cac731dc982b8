package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethanbaker/countries/pkg/country"
)

// Observer is notified of every feed call and its outcome
type Observer interface {
	ObserveFetch(source string, outcome string, duration time.Duration)
}

// Option configures a feed client
type Option func(*client)

// WithObserver reports each fetch to the given observer
func WithObserver(observer Observer) Option {
	return func(c *client) {
		c.observer = observer
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

type client struct {
	source     Source
	url        string
	httpClient *http.Client
	observer   Observer
}

func newClient(source Source, url string, timeout time.Duration, opts ...Option) client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := client{
		source:     source,
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// getJSON performs a single GET and decodes the body into out. No retries.
func (c *client) getJSON(ctx context.Context, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			outcome := "success"
			var srcErr *SourceError
			if errors.As(err, &srcErr) {
				outcome = string(srcErr.Kind)
			}
			c.observer.ObserveFetch(string(c.source), outcome, time.Since(start))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return &SourceError{Source: c.source, Kind: KindTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(c.source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &SourceError{Source: c.source, Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(c.source, fmt.Errorf("failed to read response body: %w", err))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &SourceError{Source: c.source, Kind: KindDecode, Err: err}
	}

	return nil
}

// CountryFeed fetches country metadata
type CountryFeed struct {
	client
}

// NewCountryFeed creates a country feed client
func NewCountryFeed(url string, timeout time.Duration, opts ...Option) *CountryFeed {
	return &CountryFeed{client: newClient(SourceCountries, url, timeout, opts...)}
}

// Fetch returns the full country list
func (f *CountryFeed) Fetch(ctx context.Context) ([]country.SourceCountry, error) {
	var countries []country.SourceCountry
	if err := f.getJSON(ctx, &countries); err != nil {
		return nil, err
	}

	if countries == nil {
		return nil, &SourceError{Source: SourceCountries, Kind: KindDecode, Err: errors.New("payload has no countries")}
	}
	for i, c := range countries {
		if strings.TrimSpace(c.Name) == "" {
			return nil, &SourceError{Source: SourceCountries, Kind: KindDecode, Err: fmt.Errorf("country at index %d has no name", i)}
		}
	}

	return countries, nil
}

// RateFeed fetches the USD exchange rate table
type RateFeed struct {
	client
}

// ratesResponse is the payload of the rate feed
type ratesResponse struct {
	Result    string             `json:"result"`
	ErrorType string             `json:"error-type"`
	Rates     map[string]float64 `json:"rates"`
}

// NewRateFeed creates a rate feed client
func NewRateFeed(url string, timeout time.Duration, opts ...Option) *RateFeed {
	return &RateFeed{client: newClient(SourceRates, url, timeout, opts...)}
}

// Fetch returns the rate table keyed by currency code
func (f *RateFeed) Fetch(ctx context.Context) (country.RateTable, error) {
	var payload ratesResponse
	if err := f.getJSON(ctx, &payload); err != nil {
		return nil, err
	}

	if payload.Result != "" && payload.Result != "success" {
		reason := payload.ErrorType
		if reason == "" {
			reason = payload.Result
		}
		return nil, &SourceError{Source: SourceRates, Kind: KindStatus, Err: fmt.Errorf("result %q", reason)}
	}

	if payload.Rates == nil {
		return nil, &SourceError{Source: SourceRates, Kind: KindDecode, Err: errors.New("payload has no rates")}
	}

	return country.RateTable(payload.Rates), nil
}
