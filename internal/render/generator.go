package render

import (
	"context"
	"fmt"

	"github.com/ethanbaker/countries/pkg/country"
)

// Generator renders the summary from the store and writes it to the cache
type Generator struct {
	store    country.Store
	renderer *Renderer
	cache    *Cache
}

// NewGenerator creates a summary generator
func NewGenerator(store country.Store, renderer *Renderer, cache *Cache) *Generator {
	return &Generator{
		store:    store,
		renderer: renderer,
		cache:    cache,
	}
}

// Generate reads the committed state and replaces the cached summary image
func (g *Generator) Generate(ctx context.Context) error {
	status, err := g.store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to load status: %w", err)
	}

	top, err := g.store.TopByGDP(ctx, TopN)
	if err != nil {
		return fmt.Errorf("failed to load top countries: %w", err)
	}

	data, err := g.renderer.Render(status, top)
	if err != nil {
		return err
	}

	return g.cache.Save(data)
}
