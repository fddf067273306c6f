package ports

import (
	"context"
	"time"

	"indicatorEngine/internal/domain"
)

// PriceHistoryFetcher retrieves historical OHLCV rows from a market data provider.
// Implementations must return klines ordered by OpenTime ascending and wrap
// provider failures with ErrProvider.
type PriceHistoryFetcher interface {
	// FetchPriceHistory returns every kline whose open time falls in [start, end].
	FetchPriceHistory(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error)
}

// MarketDataClient is the subset of exchange functionality used by the service and tools.
type MarketDataClient interface {
	PriceHistoryFetcher

	// Ping checks the connectivity to the provider API.
	Ping(ctx context.Context) error

	// GetServerTime retrieves the current server time from the provider.
	GetServerTime(ctx context.Context) (time.Time, error)

	// GetKlines retrieves the most recent klines for the given symbol.
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error)
}
