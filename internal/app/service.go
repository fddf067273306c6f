package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/engine"
	"indicatorEngine/internal/indicatorconfig"
	"indicatorEngine/internal/ports"
)

const (
	defaultCacheTTL = 15 * time.Minute
	defaultInterval = "1d"
	defaultWorkers  = 4
)

// Source names where the price history of an analysis came from.
const (
	SourceProvider   = "provider"
	SourceRepository = "repository"
	SourceCache      = "cache"
)

// Metrics receives service level measurements.
type Metrics interface {
	RecordRequest(outcome string)
	RecordCacheLookup(hit bool)
	RecordFetch(source string, elapsed time.Duration, rows int, err error)
}

type nopMetrics struct{}

func (nopMetrics) RecordRequest(string)                          {}
func (nopMetrics) RecordCacheLookup(bool)                        {}
func (nopMetrics) RecordFetch(string, time.Duration, int, error) {}

// Request asks for the indicators of one symbol over a lookback period.
type Request struct {
	Symbol   string
	Period   string
	Interval string
	Config   *indicatorconfig.Config
}

// Analysis is the outcome of one Request.
type Analysis struct {
	Symbol   string         `json:"symbol"`
	Interval string         `json:"interval"`
	Period   string         `json:"period"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Rows     int            `json:"rows"`
	Source   string         `json:"source"`
	Result   *engine.Result `json:"result"`
}

// Config wires the service dependencies. Repository, Cache, Metrics and
// Engine are optional.
type Config struct {
	Fetcher         ports.PriceHistoryFetcher
	Repository      ports.KlineRepository
	Cache           ports.ResultCache
	Logger          ports.Logger
	Metrics         Metrics
	Engine          *engine.Engine
	CacheTTL        time.Duration
	Workers         int
	DefaultInterval string
	DefaultPeriod   string
	Now             func() time.Time
}

// IndicatorService fetches price history and computes indicators on it.
type IndicatorService struct {
	fetcher  ports.PriceHistoryFetcher
	repo     ports.KlineRepository
	cache    ports.ResultCache
	logger   ports.Logger
	metrics  Metrics
	engine   *engine.Engine
	cacheTTL time.Duration
	workers  int
	interval string
	period   string
	now      func() time.Time
}

// NewIndicatorService creates a new application service instance.
func NewIndicatorService(cfg Config) (*IndicatorService, error) {
	if cfg.Fetcher == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for IndicatorService")
	}

	s := &IndicatorService{
		fetcher:  cfg.Fetcher,
		repo:     cfg.Repository,
		cache:    cfg.Cache,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		engine:   cfg.Engine,
		cacheTTL: cfg.CacheTTL,
		workers:  cfg.Workers,
		interval: cfg.DefaultInterval,
		period:   NormalizePeriod(cfg.DefaultPeriod),
		now:      cfg.Now,
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.engine == nil {
		s.engine = engine.New()
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = defaultCacheTTL
	}
	if s.workers <= 0 {
		s.workers = defaultWorkers
	}
	if s.interval == "" {
		s.interval = defaultInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// CacheKey returns the result cache key of a normalized request.
func CacheKey(req Request) string {
	return fmt.Sprintf("indicators:%s:%s:%s:%s", req.Symbol, req.Interval, req.Period, req.Config.CacheKey())
}

func (s *IndicatorService) normalize(req Request) (Request, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		return req, fmt.Errorf("%w: symbol is required", ports.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Interval) == "" {
		req.Interval = s.interval
	}
	interval, ok := domain.NormalizeInterval(req.Interval)
	if !ok {
		return req, fmt.Errorf("%w: unsupported interval %q", ports.ErrInvalidRequest, req.Interval)
	}
	req.Interval = interval
	if strings.TrimSpace(req.Period) == "" {
		req.Period = s.period
	}
	req.Period = NormalizePeriod(req.Period)
	if req.Config == nil {
		return req, fmt.Errorf("%w: indicator configuration is required", ports.ErrInvalidRequest)
	}
	if err := req.Config.Validate(); err != nil {
		return req, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	return req, nil
}

// Analyze computes the configured indicators for one symbol.
func (s *IndicatorService) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	op := "Analyze"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ports.ErrContextCanceled, err)
	}
	req, err := s.normalize(req)
	if err != nil {
		s.metrics.RecordRequest("invalid")
		return nil, err
	}

	key := CacheKey(req)
	if a, ok := s.lookup(ctx, key); ok {
		s.metrics.RecordRequest("cached")
		return a, nil
	}

	start, end := ResolvePeriod(req.Period, s.now())
	klines, source, err := s.load(ctx, req, start, end)
	if err != nil {
		s.metrics.RecordRequest("error")
		return nil, err
	}
	if len(klines) == 0 {
		s.metrics.RecordRequest("error")
		return nil, fmt.Errorf("%s: %w: no price history for %s (%s, %s)", op, ports.ErrNotFound, req.Symbol, req.Interval, req.Period)
	}

	series, err := domain.NewSeries(klines)
	if err != nil {
		s.metrics.RecordRequest("error")
		return nil, fmt.Errorf("%s: %w: %w", op, ports.ErrInvalidRequest, err)
	}
	series.Symbol, series.Interval = req.Symbol, req.Interval

	result, err := s.engine.Compute(series, req.Config)
	if err != nil {
		s.metrics.RecordRequest("error")
		return nil, fmt.Errorf("%s: %w: %w", op, ports.ErrInvalidRequest, err)
	}
	for _, skip := range result.Skips {
		s.logger.Warn(ctx, "Indicator skipped", map[string]interface{}{
			"symbol": req.Symbol, "key": skip.Key, "reason": string(skip.Reason), "detail": skip.Detail,
		})
	}

	a := &Analysis{
		Symbol:   req.Symbol,
		Interval: req.Interval,
		Period:   req.Period,
		Start:    start,
		End:      end,
		Rows:     series.Len(),
		Source:   source,
		Result:   result,
	}
	s.store(ctx, key, a)
	s.metrics.RecordRequest("ok")
	s.logger.Info(ctx, "Indicators computed", map[string]interface{}{
		"symbol": req.Symbol, "interval": req.Interval, "period": req.Period,
		"rows": a.Rows, "outputs": result.Len(), "skipped": len(result.Skips), "source": source,
	})
	return a, nil
}

// load fetches price history from the provider and persists it. When the
// provider fails the stored history for the same window is used instead.
func (s *IndicatorService) load(ctx context.Context, req Request, start, end time.Time) ([]*domain.Kline, string, error) {
	began := time.Now()
	klines, err := s.fetcher.FetchPriceHistory(ctx, req.Symbol, req.Interval, start, end)
	s.metrics.RecordFetch(SourceProvider, time.Since(began), len(klines), err)
	if err == nil {
		if s.repo != nil && len(klines) > 0 {
			if saveErr := s.repo.SaveKlines(ctx, klines); saveErr != nil {
				s.logger.Warn(ctx, "Failed to persist price history", map[string]interface{}{
					"symbol": req.Symbol, "error": saveErr.Error(),
				})
			}
		}
		return klines, SourceProvider, nil
	}

	providerErr := err
	if !errors.Is(providerErr, ports.ErrProvider) {
		providerErr = fmt.Errorf("%w: %w", ports.ErrProvider, err)
	}
	if s.repo == nil || errors.Is(err, ports.ErrInvalidRequest) || errors.Is(err, ports.ErrUnknownSymbol) {
		return nil, "", providerErr
	}

	began = time.Now()
	stored, repoErr := s.repo.FindKlines(ctx, req.Symbol, req.Interval, start, end)
	s.metrics.RecordFetch(SourceRepository, time.Since(began), len(stored), repoErr)
	if repoErr != nil || len(stored) == 0 {
		return nil, "", providerErr
	}
	s.logger.Warn(ctx, "Provider unavailable, using stored price history", map[string]interface{}{
		"symbol": req.Symbol, "rows": len(stored), "error": err.Error(),
	})
	return stored, SourceRepository, nil
}

func (s *IndicatorService) lookup(ctx context.Context, key string) (*Analysis, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			s.logger.Warn(ctx, "Result cache lookup failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		s.metrics.RecordCacheLookup(false)
		return nil, false
	}
	var a Analysis
	if err := json.Unmarshal(data, &a); err != nil || a.Result == nil {
		s.logger.Warn(ctx, "Discarding undecodable cache entry", map[string]interface{}{"key": key})
		s.metrics.RecordCacheLookup(false)
		return nil, false
	}
	s.metrics.RecordCacheLookup(true)
	a.Source = SourceCache
	return &a, true
}

func (s *IndicatorService) store(ctx context.Context, key string, a *Analysis) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to encode analysis for cache", map[string]interface{}{"key": key})
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn(ctx, "Result cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// Outcome is the per-request result of AnalyzeMany.
type Outcome struct {
	Request  Request
	Analysis *Analysis
	Err      error
}

// AnalyzeMany runs several requests on a bounded worker pool. Outcomes are
// returned in request order; one failure never cancels its siblings.
// Requests not yet started when ctx is done fail with ErrContextCanceled.
func (s *IndicatorService) AnalyzeMany(ctx context.Context, reqs []Request) []Outcome {
	out := make([]Outcome, len(reqs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := min(s.workers, len(reqs))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				a, err := s.Analyze(ctx, reqs[i])
				out[i] = Outcome{Request: reqs[i], Analysis: a, Err: err}
			}
		}()
	}

	i := 0
dispatch:
	for ; i < len(reqs); i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	for ; i < len(reqs); i++ {
		out[i] = Outcome{Request: reqs[i], Err: fmt.Errorf("AnalyzeMany: %w: %v", ports.ErrContextCanceled, ctx.Err())}
	}
	return out
}
