package engine

import (
	"encoding/json"
	"sort"
	"strings"

	"indicatorEngine/internal/indicators"
)

// SkipReason classifies why an active indicator produced no output.
type SkipReason string

const (
	ReasonInsufficientData  SkipReason = "insufficient_data"
	ReasonMissingVolume     SkipReason = "missing_volume"
	ReasonInvalidParameter  SkipReason = "invalid_parameter"
	ReasonComputationFailed SkipReason = "computation_failed"
)

// Skip records an active indicator that was left out of the result.
type Skip struct {
	Key    string          `json:"key"`
	Kind   indicators.Kind `json:"-"`
	Reason SkipReason      `json:"reason"`
	Detail string          `json:"detail"`
}

// Result maps output keys to indicator frames and lists what was skipped.
type Result struct {
	Outputs map[string]*indicators.Frame `json:"outputs"`
	Skips   []Skip                       `json:"skips,omitempty"`
}

func newResult() *Result {
	return &Result{Outputs: make(map[string]*indicators.Frame)}
}

// Keys returns the output keys in sorted order.
func (r *Result) Keys() []string {
	keys := make([]string, 0, len(r.Outputs))
	for k := range r.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the frame stored under key.
func (r *Result) Get(key string) (*indicators.Frame, bool) {
	f, ok := r.Outputs[key]
	return f, ok
}

// Skipped returns the skip diagnostic for key, if any.
func (r *Result) Skipped(key string) (Skip, bool) {
	for _, s := range r.Skips {
		if s.Key == key {
			return s, true
		}
	}
	return Skip{}, false
}

// Len returns the number of computed outputs.
func (r *Result) Len() int { return len(r.Outputs) }

// UnmarshalJSON decodes a result and restores the family of every output
// and skip from its key.
func (r *Result) UnmarshalJSON(data []byte) error {
	type plain Result
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Outputs == nil {
		p.Outputs = make(map[string]*indicators.Frame)
	}
	for key, f := range p.Outputs {
		if k, ok := KindOfKey(key); ok && f != nil {
			f.Kind = k
		}
	}
	for i := range p.Skips {
		if k, ok := KindOfKey(p.Skips[i].Key); ok {
			p.Skips[i].Kind = k
		}
	}
	*r = Result(p)
	return nil
}

// KindOfKey maps an output key such as "rsi" or "sma_20" to its family.
func KindOfKey(key string) (indicators.Kind, bool) {
	if k, err := indicators.ParseKind(key); err == nil {
		return k, true
	}
	if i := strings.LastIndexByte(key, '_'); i > 0 {
		if k, err := indicators.ParseKind(key[:i]); err == nil {
			return k, true
		}
	}
	return 0, false
}
