package feeds

import (
	"context"

	"github.com/ethanbaker/countries/pkg/country"
	"golang.org/x/sync/errgroup"
)

// CountrySource provides the country list
type CountrySource interface {
	Fetch(ctx context.Context) ([]country.SourceCountry, error)
}

// RateSource provides the exchange rate table
type RateSource interface {
	Fetch(ctx context.Context) (country.RateTable, error)
}

// FetchAll calls both feeds concurrently. The first failure cancels the other
// call and is returned as is.
func FetchAll(ctx context.Context, countries CountrySource, rates RateSource) ([]country.SourceCountry, country.RateTable, error) {
	var (
		countryList []country.SourceCountry
		rateTable   country.RateTable
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		countryList, err = countries.Fetch(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		rateTable, err = rates.Fetch(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return countryList, rateTable, nil
}
