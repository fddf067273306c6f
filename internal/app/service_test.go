package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicatorEngine/internal/adapters/cache"
	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/indicatorconfig"
	"indicatorEngine/internal/indicators"
	"indicatorEngine/internal/ports"
)

// Mock implementations
type mockLogger struct {
	mu       sync.Mutex
	infoMsgs []string
	warnMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.warnMsgs...)
}

type mockFetcher struct {
	rows     int
	err      error
	errFor   map[string]error
	delay    time.Duration
	calls    int32
	inFlight int32
	peak     int32
}

func (m *mockFetcher) FetchPriceHistory(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error) {
	atomic.AddInt32(&m.calls, 1)
	cur := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&m.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&m.peak, peak, cur) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if err := m.errFor[symbol]; err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	return dailyKlines(symbol, interval, start, m.rows), nil
}

type mockRepository struct {
	mu     sync.Mutex
	saved  []*domain.Kline
	stored []*domain.Kline
	err    error
}

func (m *mockRepository) SaveKlines(ctx context.Context, klines []*domain.Kline) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, klines...)
	return nil
}

func (m *mockRepository) FindKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error) {
	return m.stored, m.err
}

func (m *mockRepository) LatestOpenTime(ctx context.Context, symbol, interval string) (time.Time, error) {
	return time.Time{}, ports.ErrNotFound
}

func dailyKlines(symbol, interval string, start time.Time, n int) []*domain.Kline {
	out := make([]*domain.Kline, n)
	for i := range out {
		c := 50 + 2*math.Sin(float64(i)/4) + 0.05*float64(i)
		open := start.Add(time.Duration(i) * 24 * time.Hour)
		out[i] = &domain.Kline{
			OpenTime:  open,
			CloseTime: open.Add(24*time.Hour - time.Millisecond),
			Symbol:    symbol,
			Interval:  interval,
			Open:      c - 0.3,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000 + float64(i),
			IsFinal:   true,
		}
	}
	return out
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func minimalConfig() *indicatorconfig.Config {
	cfg := indicatorconfig.FromPreset(indicatorconfig.PresetMinimal)
	return &cfg
}

func newTestService(t *testing.T, fetcher ports.PriceHistoryFetcher, repo ports.KlineRepository, c ports.ResultCache) (*IndicatorService, *mockLogger) {
	t.Helper()
	logger := &mockLogger{}
	cfg := Config{
		Fetcher: fetcher,
		Logger:  logger,
		Workers: 2,
		Now:     func() time.Time { return fixedNow },
	}
	if repo != nil {
		cfg.Repository = repo
	}
	if c != nil {
		cfg.Cache = c
	}
	svc, err := NewIndicatorService(cfg)
	require.NoError(t, err)
	return svc, logger
}

func TestNewIndicatorService_RequiresDependencies(t *testing.T) {
	_, err := NewIndicatorService(Config{Logger: &mockLogger{}})
	assert.Error(t, err)
	_, err = NewIndicatorService(Config{Fetcher: &mockFetcher{}})
	assert.Error(t, err)
}

func TestAnalyze_ComputesAndPersists(t *testing.T) {
	fetcher := &mockFetcher{rows: 60}
	repo := &mockRepository{}
	svc, _ := newTestService(t, fetcher, repo, nil)

	a, err := svc.Analyze(context.Background(), Request{Symbol: " btcusdt ", Config: minimalConfig()})
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", a.Symbol)
	assert.Equal(t, "1d", a.Interval)
	assert.Equal(t, "1y", a.Period)
	assert.Equal(t, fixedNow.AddDate(0, 0, -365), a.Start)
	assert.Equal(t, fixedNow, a.End)
	assert.Equal(t, 60, a.Rows)
	assert.Equal(t, SourceProvider, a.Source)
	assert.Equal(t, []string{"atr", "rsi", "sma_20", "sma_50"}, a.Result.Keys())
	assert.Len(t, repo.saved, 60)
}

func TestAnalyze_LogsSkips(t *testing.T) {
	svc, logger := newTestService(t, &mockFetcher{rows: 30}, nil, nil)

	a, err := svc.Analyze(context.Background(), Request{Symbol: "ETHUSDT", Config: minimalConfig()})
	require.NoError(t, err)

	skip, ok := a.Result.Skipped("sma_50")
	require.True(t, ok)
	assert.Equal(t, "insufficient_data", string(skip.Reason))
	assert.Contains(t, logger.warnings(), "Indicator skipped")
}

func TestAnalyze_ServesFromCache(t *testing.T) {
	fetcher := &mockFetcher{rows: 80}
	svc, _ := newTestService(t, fetcher, nil, cache.NewMemoryCache(10))
	req := Request{Symbol: "BTCUSDT", Period: "6mo", Interval: "1d", Config: minimalConfig()}

	first, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))
	assert.Equal(t, SourceProvider, first.Source)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Result.Keys(), second.Result.Keys())
	assert.Equal(t, indicators.KindRSI, second.Result.Outputs["rsi"].Kind)
	assert.Equal(t, first.Rows, second.Rows)

	// a different configuration is a different cache entry
	other := indicatorconfig.FromPreset(indicatorconfig.PresetMeanReversion)
	req.Config = &other
	third, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, SourceProvider, third.Source)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetcher.calls))
}

func TestAnalyze_NormalizesIntervalBeforeCacheLookup(t *testing.T) {
	fetcher := &mockFetcher{rows: 80}
	svc, _ := newTestService(t, fetcher, nil, cache.NewMemoryCache(10))

	first, err := svc.Analyze(context.Background(), Request{Symbol: "BTCUSDT", Interval: "1d", Config: minimalConfig()})
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), Request{Symbol: "btcusdt", Interval: " 1D ", Config: minimalConfig()})
	require.NoError(t, err)

	assert.Equal(t, "1d", second.Interval)
	assert.Equal(t, SourceProvider, first.Source)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls))

	month, err := svc.Analyze(context.Background(), Request{Symbol: "BTCUSDT", Interval: "1M", Config: minimalConfig()})
	require.NoError(t, err)
	assert.Equal(t, "1M", month.Interval)
}

func TestAnalyze_FallsBackToRepository(t *testing.T) {
	stored := dailyKlines("BTCUSDT", "1d", fixedNow.AddDate(0, 0, -60), 60)
	repo := &mockRepository{stored: stored}
	fetcher := &mockFetcher{err: fmt.Errorf("GetKlinesRange failed: %w: %w", ports.ErrProvider, ports.ErrProviderUnavailable)}
	svc, logger := newTestService(t, fetcher, repo, nil)

	a, err := svc.Analyze(context.Background(), Request{Symbol: "BTCUSDT", Config: minimalConfig()})
	require.NoError(t, err)
	assert.Equal(t, SourceRepository, a.Source)
	assert.Equal(t, 60, a.Rows)
	assert.Contains(t, logger.warnings(), "Provider unavailable, using stored price history")
}

func TestAnalyze_Errors(t *testing.T) {
	badRSI := indicatorconfig.Default().With(indicatorconfig.WithRSI(0))
	tests := []struct {
		name    string
		fetcher *mockFetcher
		repo    *mockRepository
		req     Request
		wantErr error
	}{
		{
			name:    "empty symbol",
			fetcher: &mockFetcher{rows: 10},
			req:     Request{Symbol: "  ", Config: minimalConfig()},
			wantErr: ports.ErrInvalidRequest,
		},
		{
			name:    "nil config",
			fetcher: &mockFetcher{rows: 10},
			req:     Request{Symbol: "BTCUSDT"},
			wantErr: ports.ErrInvalidRequest,
		},
		{
			name:    "invalid parameter",
			fetcher: &mockFetcher{rows: 10},
			req:     Request{Symbol: "BTCUSDT", Config: &badRSI},
			wantErr: ports.ErrInvalidParameter,
		},
		{
			name:    "provider failure without repository",
			fetcher: &mockFetcher{err: errors.New("boom")},
			req:     Request{Symbol: "BTCUSDT", Config: minimalConfig()},
			wantErr: ports.ErrProvider,
		},
		{
			name:    "provider failure with empty repository",
			fetcher: &mockFetcher{err: errors.New("boom")},
			repo:    &mockRepository{},
			req:     Request{Symbol: "BTCUSDT", Config: minimalConfig()},
			wantErr: ports.ErrProvider,
		},
		{
			name:    "unknown symbol is not retried from storage",
			fetcher: &mockFetcher{err: fmt.Errorf("%w: %w", ports.ErrProvider, ports.ErrUnknownSymbol)},
			repo:    &mockRepository{stored: dailyKlines("NOPE", "1d", fixedNow, 5)},
			req:     Request{Symbol: "NOPE", Config: minimalConfig()},
			wantErr: ports.ErrUnknownSymbol,
		},
		{
			name:    "unsupported interval",
			fetcher: &mockFetcher{rows: 10},
			req:     Request{Symbol: "BTCUSDT", Interval: "7h", Config: minimalConfig()},
			wantErr: ports.ErrInvalidRequest,
		},
		{
			name:    "no history",
			fetcher: &mockFetcher{rows: 0},
			req:     Request{Symbol: "BTCUSDT", Config: minimalConfig()},
			wantErr: ports.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var repo ports.KlineRepository
			if tt.repo != nil {
				repo = tt.repo
			}
			svc, _ := newTestService(t, tt.fetcher, repo, nil)
			a, err := svc.Analyze(context.Background(), tt.req)
			assert.Nil(t, a)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestAnalyze_CanceledContext(t *testing.T) {
	fetcher := &mockFetcher{rows: 10}
	svc, _ := newTestService(t, fetcher, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, Request{Symbol: "BTCUSDT", Config: minimalConfig()})
	assert.True(t, errors.Is(err, ports.ErrContextCanceled))
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetcher.calls))
}

func TestAnalyzeMany(t *testing.T) {
	fetcher := &mockFetcher{
		rows:   40,
		delay:  10 * time.Millisecond,
		errFor: map[string]error{"BAD": errors.New("boom")},
	}
	svc, _ := newTestService(t, fetcher, nil, nil)

	symbols := []string{"AAA", "BAD", "CCC", "DDD", "EEE"}
	reqs := make([]Request, len(symbols))
	for i, sym := range symbols {
		reqs[i] = Request{Symbol: sym, Config: minimalConfig()}
	}

	outcomes := svc.AnalyzeMany(context.Background(), reqs)
	require.Len(t, outcomes, len(reqs))
	for i, o := range outcomes {
		assert.Equal(t, symbols[i], o.Request.Symbol)
		if symbols[i] == "BAD" {
			assert.True(t, errors.Is(o.Err, ports.ErrProvider))
			assert.Nil(t, o.Analysis)
			continue
		}
		require.NoError(t, o.Err)
		assert.Equal(t, symbols[i], o.Analysis.Symbol)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&fetcher.peak), int32(2))
	assert.Equal(t, int32(len(reqs)), atomic.LoadInt32(&fetcher.calls))
}

func TestAnalyzeMany_CanceledContext(t *testing.T) {
	svc, _ := newTestService(t, &mockFetcher{rows: 10}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := svc.AnalyzeMany(ctx, []Request{
		{Symbol: "AAA", Config: minimalConfig()},
		{Symbol: "BBB", Config: minimalConfig()},
	})
	for _, o := range outcomes {
		assert.True(t, errors.Is(o.Err, ports.ErrContextCanceled))
	}
}

func TestResolvePeriod(t *testing.T) {
	tests := []struct {
		period string
		want   string
		days   int
	}{
		{"1d", "1d", 1},
		{"5d", "5d", 5},
		{"1MO", "1mo", 30},
		{"3mo", "3mo", 90},
		{"6mo", "6mo", 180},
		{"1y", "1y", 365},
		{"2y", "2y", 730},
		{"5y", "5y", 1825},
		{"10y", "1y", 365},
		{"", "1y", 365},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePeriod(tt.period))
			start, end := ResolvePeriod(tt.period, fixedNow)
			assert.Equal(t, fixedNow, end)
			assert.Equal(t, fixedNow.AddDate(0, 0, -tt.days), start)
		})
	}
}
