package country

import (
	"context"
	"time"
)

// Store defines the interface for country storage operations
type Store interface {
	// UpsertAll writes every record and the status row in one atomic unit and
	// returns the live country count after the write
	UpsertAll(ctx context.Context, records []*Record, refreshedAt time.Time) (int64, error)

	Count(ctx context.Context) (int64, error)
	GetByName(ctx context.Context, name string) (*Record, error)
	QueryAll(ctx context.Context, filter Filter, order SortOrder) ([]*Record, error)

	// TopByGDP returns up to n records with a known estimate, largest first
	TopByGDP(ctx context.Context, n int) ([]*Record, error)

	// DeleteByName removes a country and recounts the status row. It reports
	// false when no country matched.
	DeleteByName(ctx context.Context, name string) (bool, error)

	GetStatus(ctx context.Context) (*Status, error)
	SetStatus(ctx context.Context, total int64, refreshedAt *time.Time) error

	Close() error
}
