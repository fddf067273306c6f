// Package engine turns a price series and an indicator configuration into
// a keyed set of indicator outputs. It checks per-indicator preconditions,
// resolves dependencies between families, and isolates failures so one
// indicator never blocks the others.
package engine

import (
	"errors"
	"fmt"
	"time"

	"indicatorEngine/internal/domain"
	"indicatorEngine/internal/indicatorconfig"
	"indicatorEngine/internal/indicators"
	"indicatorEngine/internal/ports"
)

// ErrNilConfig is the only error Compute returns.
var ErrNilConfig = errors.New("engine: nil indicator configuration")

// Observer receives per-pass measurements.
type Observer interface {
	ObservePass(elapsed time.Duration, computed, skipped int)
	ObserveSkip(skip Skip)
}

// Engine runs computation passes. The zero value is ready to use.
// An Engine holds no per-pass state and is safe for concurrent use.
type Engine struct {
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver attaches an observer that is notified after every pass.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute runs one pass with a default Engine.
func Compute(s *domain.Series, cfg *indicatorconfig.Config) (*Result, error) {
	var e Engine
	return e.Compute(s, cfg)
}

// task is one output key to produce.
type task struct {
	key    string
	kind   indicators.Kind
	params indicators.Params
}

// Compute evaluates every active indicator of cfg over s. Indicators whose
// preconditions fail or whose computation errors are reported in
// Result.Skips. An empty series yields an empty result.
func (e *Engine) Compute(s *domain.Series, cfg *indicatorconfig.Config) (*Result, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	start := time.Now()
	res := newResult()
	if s.Len() == 0 {
		return res, nil
	}

	p := newPass(s)
	for _, t := range plan(cfg) {
		frame, skip := p.run(t)
		if skip != nil {
			res.Skips = append(res.Skips, *skip)
			continue
		}
		res.Outputs[t.key] = frame
	}

	if e.observer != nil {
		for _, sk := range res.Skips {
			e.observer.ObserveSkip(sk)
		}
		e.observer.ObservePass(time.Since(start), len(res.Outputs), len(res.Skips))
	}
	return res, nil
}

// plan expands the active indicators into tasks in evaluation order.
// SMA and EMA yield one task per distinct period.
func plan(cfg *indicatorconfig.Config) []task {
	active := make(map[indicators.Kind]indicators.Params)
	for _, a := range cfg.ActiveIndicators() {
		active[a.Kind] = a.Params
	}

	var tasks []task
	for _, k := range evaluationOrder {
		params, ok := active[k]
		if !ok {
			continue
		}
		if pp, multi := params.(indicators.PeriodsParams); multi {
			seen := make(map[int]bool, len(pp.Periods))
			for _, period := range pp.Periods {
				if seen[period] {
					continue
				}
				seen[period] = true
				tasks = append(tasks, task{
					key:    fmt.Sprintf("%s_%d", k, period),
					kind:   k,
					params: indicators.WindowParams{Window: period},
				})
			}
			continue
		}
		tasks = append(tasks, task{key: k.String(), kind: k, params: params})
	}
	return tasks
}

// pass holds the state of one Compute call.
type pass struct {
	series *domain.Series
	memo   map[node]memoEntry
	// evaluations counts how often each dependency node was computed.
	evaluations map[node]int
}

func newPass(s *domain.Series) *pass {
	return &pass{
		series:      s,
		memo:        make(map[node]memoEntry),
		evaluations: make(map[node]int),
	}
}

// run checks preconditions and computes one task, converting errors and
// panics into a Skip.
func (p *pass) run(t task) (frame *indicators.Frame, skip *Skip) {
	if reason, detail, ok := p.precondition(t); !ok {
		return nil, &Skip{Key: t.key, Kind: t.kind, Reason: reason, Detail: detail}
	}

	defer func() {
		if r := recover(); r != nil {
			frame = nil
			skip = &Skip{Key: t.key, Kind: t.kind, Reason: ReasonComputationFailed, Detail: fmt.Sprint(r)}
		}
	}()

	frame, err := dispatch[t.kind](p, t.params)
	if err != nil {
		return nil, &Skip{Key: t.key, Kind: t.kind, Reason: classify(err), Detail: err.Error()}
	}
	return frame, nil
}

func (p *pass) precondition(t task) (SkipReason, string, bool) {
	if t.kind.RequiresVolume() && !p.series.HasVolume() {
		return ReasonMissingVolume, fmt.Sprintf("%s requires a volume column", t.kind), false
	}
	need, err := indicators.MinLength(t.kind, t.params)
	if err != nil {
		return ReasonInvalidParameter, err.Error(), false
	}
	if have := p.series.Len(); have < need {
		return ReasonInsufficientData, fmt.Sprintf("need %d rows, have %d", need, have), false
	}
	return "", "", true
}

func classify(err error) SkipReason {
	switch {
	case errors.Is(err, ports.ErrInvalidParameter):
		return ReasonInvalidParameter
	case errors.Is(err, ports.ErrInsufficientData):
		return ReasonInsufficientData
	}
	return ReasonComputationFailed
}

// memoize computes n at most once per pass.
func (p *pass) memoize(n node, compute func() (*indicators.Frame, error)) (*indicators.Frame, error) {
	if e, ok := p.memo[n]; ok {
		return e.frame, e.err
	}
	p.evaluations[n]++
	f, err := compute()
	p.memo[n] = memoEntry{frame: f, err: err}
	return f, err
}

func (p *pass) atr(window int) (*indicators.Frame, error) {
	return p.memoize(node{indicators.KindATR, window}, func() (*indicators.Frame, error) {
		return indicators.ATR(p.series, window)
	})
}

func (p *pass) dmi(window int) (*indicators.Frame, error) {
	return p.memoize(node{indicators.KindDMI, window}, func() (*indicators.Frame, error) {
		atr, err := p.atr(window)
		if err != nil {
			return nil, fmt.Errorf("atr dependency: %w", err)
		}
		return indicators.DMI(p.series, window, atr.Column("atr"))
	})
}
