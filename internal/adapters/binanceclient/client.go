package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	// maxLimit is the largest page the klines endpoint serves.
	maxLimit = 1500
)

var _ ports.MarketDataClient = (*Client)(nil)

// Client implements ports.MarketDataClient using the go-binance futures API.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	maxPages      int
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	// BaseURL overrides the production/testnet endpoint when set.
	BaseURL string
	Logger  ports.Logger
	// MaxPages bounds the requests one range fetch may issue. Defaults to 100.
	MaxPages int
}

// New creates a new Binance client adapter. Market data endpoints are
// public, so API keys are optional.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance market data client configured", map[string]interface{}{"baseURL": client.BaseURL})

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 100
	}
	return &Client{futuresClient: client, logger: cfg.Logger, maxPages: maxPages}, nil
}

// handleError translates Binance errors into standardized ports errors.
// Every returned error wraps ports.ErrProvider.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var mapped error
	var apiErr *common.APIError
	switch {
	case errors.As(err, &apiErr):
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message
		switch apiErr.Code {
		case -1003: // Too many requests
			mapped = ports.ErrRateLimited
		case -1021: // Timestamp outside of the recvWindow
			mapped = ports.ErrTimeout
		case -1022, -2014, -2015: // Bad signature or API key
			mapped = ports.ErrAuthenticationFailed
		case -1121: // Invalid symbol
			mapped = ports.ErrUnknownSymbol
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1125, -1127, -1128, -1130:
			mapped = ports.ErrInvalidRequest
		default:
			mapped = ports.ErrUnknown
		}
	case errors.Is(err, context.DeadlineExceeded):
		mapped = ports.ErrTimeout
	case errors.Is(err, context.Canceled):
		mapped = ports.ErrContextCanceled
	case strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"),
		strings.Contains(err.Error(), "no such host"):
		mapped = ports.ErrProviderUnavailable
	default:
		mapped = ports.ErrUnknown
	}

	c.logger.Error(ctx, err, operation+" failed", fields)
	return fmt.Errorf("%s failed: %w: %w: %w", operation, ports.ErrProvider, mapped, err)
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.futuresClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, err, "Ping")
	}
	c.logger.Debug(ctx, "Ping successful")
	return nil
}

// GetServerTime retrieves the current server time from the exchange.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	serverTimeMs, err := c.futuresClient.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, c.handleError(ctx, err, "GetServerTime")
	}
	return time.UnixMilli(serverTimeMs).UTC(), nil
}

// GetKlines retrieves the most recent klines for a symbol.
func (c *Client) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	op := "GetKlines"
	binanceKlines, err := c.futuresClient.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	domainKlines := make([]*domain.Kline, 0, len(binanceKlines))
	for _, bk := range binanceKlines {
		dk, err := translateBinanceKline(bk, symbol, interval)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("failed to translate kline: %w", err), op)
		}
		domainKlines = append(domainKlines, dk)
	}
	return domainKlines, nil
}

// GetKlinesRange fetches all klines for a symbol/interval between start and
// end, paging through the endpoint. A range that needs more than MaxPages
// pages fails with ports.ErrInvalidRequest rather than returning a
// truncated history.
func (c *Client) GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error) {
	op := "GetKlinesRange"
	var allKlines []*domain.Kline
	from := start
	complete := false

	for page := 0; page < c.maxPages; page++ {
		klines, err := c.futuresClient.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			complete = true
			break
		}
		for _, bk := range klines {
			dk, err := translateBinanceKline(bk, symbol, interval)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate kline range: %w", err), op)
			}
			// pages may overlap on the boundary kline
			if n := len(allKlines); n > 0 && !dk.OpenTime.After(allKlines[n-1].OpenTime) {
				continue
			}
			allKlines = append(allKlines, dk)
		}
		from = time.UnixMilli(klines[len(klines)-1].CloseTime + 1)
		if from.After(end) || len(klines) < maxLimit {
			complete = true
			break
		}
	}
	if !complete {
		c.logger.Warn(ctx, op+" exceeded page budget", map[string]interface{}{
			"symbol": symbol, "interval": interval, "pages": c.maxPages, "fetched": len(allKlines),
		})
		return nil, fmt.Errorf("%s failed: %w: %w: range %s..%s at %s needs more than %d pages",
			op, ports.ErrProvider, ports.ErrInvalidRequest,
			start.Format(time.RFC3339), end.Format(time.RFC3339), interval, c.maxPages)
	}

	c.logger.Debug(ctx, op+" completed", map[string]interface{}{
		"symbol": symbol, "interval": interval, "count": len(allKlines),
	})
	return allKlines, nil
}

// FetchPriceHistory implements ports.PriceHistoryFetcher.
func (c *Client) FetchPriceHistory(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error) {
	if !ValidInterval(interval) {
		return nil, fmt.Errorf("FetchPriceHistory failed: %w: %w: unsupported interval %q", ports.ErrProvider, ports.ErrInvalidRequest, interval)
	}
	return c.GetKlinesRange(ctx, strings.ToUpper(symbol), interval, start, end)
}

// ValidInterval reports whether the futures API serves the interval as
// spelled.
func ValidInterval(interval string) bool {
	canonical, ok := domain.NormalizeInterval(interval)
	return ok && canonical == interval
}

func translateBinanceKline(bk *futures.Kline, symbol, interval string) (*domain.Kline, error) {
	if bk == nil {
		return nil, errors.New("received nil historical kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	return &domain.Kline{
		OpenTime:  time.UnixMilli(bk.OpenTime).UTC(),
		CloseTime: time.UnixMilli(bk.CloseTime).UTC(),
		Symbol:    symbol,
		Interval:  interval,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
		IsFinal:   true,
	}, nil
}
