package httpapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/labstack/echo/v4"

	"indicatorEngine/internal/app"
	"indicatorEngine/internal/indicatorconfig"
	"indicatorEngine/internal/ports"
)

// Analyzer runs indicator analyses.
type Analyzer interface {
	Analyze(ctx context.Context, req app.Request) (*app.Analysis, error)
}

// Handler serves the indicator API.
type Handler struct {
	analyzer      Analyzer
	logger        ports.Logger
	defaultConfig indicatorconfig.Config
}

// NewHandler creates a Handler. defaultConfig is used by GET requests that
// name no preset.
func NewHandler(analyzer Analyzer, logger ports.Logger, defaultConfig indicatorconfig.Config) *Handler {
	return &Handler{analyzer: analyzer, logger: logger, defaultConfig: defaultConfig}
}

// RegisterRoutes mounts the API routes on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api/v1")
	g.GET("/presets", h.Presets)
	g.GET("/indicators/:symbol", h.GetIndicators)
	g.POST("/indicators/:symbol", h.PostIndicators)
}

type analyzeQuery struct {
	Period   string `query:"period"`
	Interval string `query:"interval"`
	Preset   string `query:"preset"`
}

// PresetInfo describes one named configuration.
type PresetInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Indicators  []string `json:"indicators"`
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return SuccessResponse(c, map[string]string{"status": "ok"})
}

// Presets lists the named configurations.
func (h *Handler) Presets(c echo.Context) error {
	names := indicatorconfig.PresetNames()
	out := make([]PresetInfo, 0, len(names))
	for _, name := range names {
		cfg := indicatorconfig.FromPreset(name)
		out = append(out, PresetInfo{
			Name:        name,
			Description: indicatorconfig.PresetDescription(name),
			Indicators:  cfg.Keys(),
		})
	}
	return SuccessResponse(c, out)
}

// GetIndicators analyzes a symbol with a preset or the server default.
func (h *Handler) GetIndicators(c echo.Context) error {
	var q analyzeQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return ErrorResponse(c, fmt.Errorf("%w: %v", ports.ErrInvalidRequest, err))
	}

	cfg := h.defaultConfig.Clone()
	if q.Preset != "" {
		var ok bool
		if cfg, ok = indicatorconfig.LookupPreset(q.Preset); !ok {
			return ErrorResponse(c, fmt.Errorf("%w: unknown preset %q", ports.ErrInvalidRequest, q.Preset))
		}
	}
	return h.analyze(c, q, &cfg)
}

// PostIndicators analyzes a symbol with the configuration in the body.
// Fields left out of the body keep their defaults; a "preset" query
// parameter selects the base the body is applied on.
func (h *Handler) PostIndicators(c echo.Context) error {
	var q analyzeQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return ErrorResponse(c, fmt.Errorf("%w: %v", ports.ErrInvalidRequest, err))
	}

	cfg := indicatorconfig.Default()
	if q.Preset != "" {
		var ok bool
		if cfg, ok = indicatorconfig.LookupPreset(q.Preset); !ok {
			return ErrorResponse(c, fmt.Errorf("%w: unknown preset %q", ports.ErrInvalidRequest, q.Preset))
		}
	}
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return ErrorResponse(c, fmt.Errorf("%w: decoding configuration: %v", ports.ErrInvalidRequest, err))
	}
	if err := cfg.Validate(); err != nil {
		return ErrorResponse(c, err)
	}
	return h.analyze(c, q, &cfg)
}

func (h *Handler) analyze(c echo.Context, q analyzeQuery, cfg *indicatorconfig.Config) error {
	ctx := c.Request().Context()
	a, err := h.analyzer.Analyze(ctx, app.Request{
		Symbol:   c.Param("symbol"),
		Period:   q.Period,
		Interval: q.Interval,
		Config:   cfg,
	})
	if err != nil {
		h.logger.Error(ctx, err, "Indicator analysis failed", map[string]interface{}{"symbol": c.Param("symbol")})
		return ErrorResponse(c, err)
	}
	return SuccessResponse(c, a)
}
