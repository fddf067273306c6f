package ports

import (
	"context"
	"time"

	"indicatorEngine/internal/domain"
)

// KlineRepository stores price history locally so computations can run
// when the provider is unavailable.
type KlineRepository interface {
	// SaveKlines upserts klines keyed by (symbol, interval, open time).
	SaveKlines(ctx context.Context, klines []*domain.Kline) error
	// FindKlines returns stored klines with open time in [start, end], ascending.
	// Returns an empty slice (not an error) when nothing is stored.
	FindKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error)
	// LatestOpenTime returns the newest stored open time, or ErrNotFound.
	LatestOpenTime(ctx context.Context, symbol, interval string) (time.Time, error)
}

// ResultCache stores encoded computation results.
type ResultCache interface {
	// Get returns the cached bytes for key, or ErrNotFound on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
