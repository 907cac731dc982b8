package country

import (
	"math/rand/v2"
	"strings"
)

const (
	MinGDPMultiplier = 1000.0
	MaxGDPMultiplier = 2000.0
)

// Multiplier returns a value in [MinGDPMultiplier, MaxGDPMultiplier)
type Multiplier func() float64

// RandomMultiplier draws a fresh uniform multiplier on every call
func RandomMultiplier() float64 {
	return MinGDPMultiplier + rand.Float64()*(MaxGDPMultiplier-MinGDPMultiplier)
}

// Reconciler joins country metadata with the rate table
type Reconciler struct {
	multiplier Multiplier
}

// NewReconciler creates a reconciler. A nil multiplier uses RandomMultiplier.
func NewReconciler(multiplier Multiplier) *Reconciler {
	if multiplier == nil {
		multiplier = RandomMultiplier
	}
	return &Reconciler{multiplier: multiplier}
}

// ReconcileAll produces one candidate record per source country, in order
func (r *Reconciler) ReconcileAll(countries []SourceCountry, rates RateTable) []*Record {
	records := make([]*Record, 0, len(countries))
	for i := range countries {
		records = append(records, r.Reconcile(&countries[i], rates))
	}
	return records
}

// Reconcile builds a single candidate record. Missing data never fails; it is
// absorbed into null fields or the zero estimate for currency-less countries.
func (r *Reconciler) Reconcile(src *SourceCountry, rates RateTable) *Record {
	record := &Record{
		Name:       src.Name,
		Capital:    optional(src.Capital),
		Region:     optional(src.Region),
		Population: src.Population,
		FlagURL:    optional(src.Flag),
	}

	// No currency declared at all
	if len(src.Currencies) == 0 {
		zero := 0.0
		record.EstimatedGDP = &zero
		return record
	}

	code := strings.TrimSpace(src.Currencies[0].Code)
	if code == "" {
		return record
	}
	record.CurrencyCode = &code

	rate, ok := rates[code]
	if !ok || rate <= 0 {
		return record
	}

	gdp := float64(src.Population) * r.multiplier() / rate
	record.ExchangeRate = &rate
	record.EstimatedGDP = &gdp
	return record
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
