package country

import "time"

// Record represents the latest known state of one country
type Record struct {
	Name            string    `json:"name"`
	Capital         *string   `json:"capital"`
	Region          *string   `json:"region"`
	Population      int64     `json:"population"`
	CurrencyCode    *string   `json:"currency_code"`
	ExchangeRate    *float64  `json:"exchange_rate"`
	EstimatedGDP    *float64  `json:"estimated_gdp"`
	FlagURL         *string   `json:"flag_url"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	out := *r
	out.Capital = clonePtr(r.Capital)
	out.Region = clonePtr(r.Region)
	out.CurrencyCode = clonePtr(r.CurrencyCode)
	out.ExchangeRate = clonePtr(r.ExchangeRate)
	out.EstimatedGDP = clonePtr(r.EstimatedGDP)
	out.FlagURL = clonePtr(r.FlagURL)
	return &out
}

// Status is the aggregate row kept in lockstep with the country table
type Status struct {
	TotalCountries  int64      `json:"total_countries"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

// Currency is a single currency entry as declared by the country feed
type Currency struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// SourceCountry is one entry of the country feed before reconciliation
type SourceCountry struct {
	Name       string     `json:"name"`
	Capital    string     `json:"capital"`
	Region     string     `json:"region"`
	Population int64      `json:"population"`
	Flag       string     `json:"flag"`
	Currencies []Currency `json:"currencies"`
}

// RateTable maps a currency code to its rate against 1 USD
type RateTable map[string]float64

// Filter narrows a country listing. Empty fields match everything.
type Filter struct {
	Region       string
	CurrencyCode string
}

// SortOrder selects the ordering of a country listing
type SortOrder string

const (
	SortByName    SortOrder = ""
	SortByGDPAsc  SortOrder = "gdp_asc"
	SortByGDPDesc SortOrder = "gdp_desc"
)

// ParseSortOrder maps a query value onto a SortOrder, defaulting to name order
func ParseSortOrder(value string) SortOrder {
	switch SortOrder(value) {
	case SortByGDPAsc:
		return SortByGDPAsc
	case SortByGDPDesc:
		return SortByGDPDesc
	default:
		return SortByName
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
