package render

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	country_store "github.com/ethanbaker/countries/internal/stores/country"
	"github.com/ethanbaker/countries/pkg/country"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gdp(v float64) *float64 {
	return &v
}

func TestFormatAmount(t *testing.T) {
	tests := map[float64]string{
		0:           "0",
		999:         "999",
		1234567.891: "1,234,567.89",
		1500.5:      "1,500.5",
	}

	for value, expected := range tests {
		assert.Equal(t, expected, FormatAmount(value), "value %f", value)
	}
}

func TestRenderer_Render(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	refreshed := time.Date(2025, 10, 22, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		status *country.Status
		top    []*country.Record
	}{
		{name: "never refreshed", status: &country.Status{}},
		{name: "nil status"},
		{
			name:   "with countries",
			status: &country.Status{TotalCountries: 250, LastRefreshedAt: &refreshed},
			top: []*country.Record{
				{Name: "China", EstimatedGDP: gdp(2543000000000)},
				{Name: "India", EstimatedGDP: gdp(2100000000000.25)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := renderer.Render(tt.status, tt.top)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, Width, img.Bounds().Dx())
			assert.Equal(t, Height, img.Bounds().Dy())
		})
	}
}

func TestCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	cache := NewCache(dir)

	// Missing image is a normal condition
	_, err := cache.Load()
	assert.ErrorIs(t, err, ErrNotGenerated)

	require.NoError(t, cache.Save([]byte("first")))
	require.NoError(t, cache.Save([]byte("second")))

	data, err := cache.Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
	assert.Equal(t, filepath.Join(dir, SummaryFile), cache.Path())

	// No temporary files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	store := country_store.NewInMemoryStore()
	_, err := store.UpsertAll(ctx, []*country.Record{
		{Name: "A", Population: 100, EstimatedGDP: gdp(75000)},
		{Name: "B", Population: 10},
	}, time.Now().UTC())
	require.NoError(t, err)

	renderer, err := NewRenderer()
	require.NoError(t, err)
	cache := NewCache(t.TempDir())

	require.NoError(t, NewGenerator(store, renderer, cache).Generate(ctx))

	data, err := cache.Load()
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}
