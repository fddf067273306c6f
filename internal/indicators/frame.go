package indicators

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"time"
)

// Column is one numeric output series. NaN marks positions where the
// indicator is undefined and is encoded as null in JSON.
type Column []float64

// MarshalJSON encodes NaN and infinities as null.
func (c Column) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes null entries back to NaN.
func (c *Column) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Column, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	*c = out
	return nil
}

// Last returns the final defined value and whether one exists.
func (c Column) Last() (float64, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if !math.IsNaN(c[i]) {
			return c[i], true
		}
	}
	return math.NaN(), false
}

// NamedColumn pairs a column with its output name.
type NamedColumn struct {
	Name   string `json:"name"`
	Values Column `json:"values"`
}

// Frame is the output of one indicator: ordered named columns sharing a
// row count. Index is the series time axis for time-aligned outputs and nil
// for volume profiles.
type Frame struct {
	Kind    Kind          `json:"-"`
	Index   []time.Time   `json:"index,omitempty"`
	Columns []NamedColumn `json:"columns"`
}

// newFrame copies index so a frame never shares storage with its input.
func newFrame(k Kind, index []time.Time) *Frame {
	return &Frame{Kind: k, Index: slices.Clone(index)}
}

func (f *Frame) add(name string, values []float64) *Frame {
	f.Columns = append(f.Columns, NamedColumn{Name: name, Values: values})
	return f
}

// Column returns the named column, or nil when it does not exist.
func (f *Frame) Column(name string) Column {
	if f == nil {
		return nil
	}
	for _, c := range f.Columns {
		if c.Name == name {
			return c.Values
		}
	}
	return nil
}

// Names lists column names in output order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the row count.
func (f *Frame) Len() int {
	if f == nil || len(f.Columns) == 0 {
		return len(f.index())
	}
	return len(f.Columns[0].Values)
}

func (f *Frame) index() []time.Time {
	if f == nil {
		return nil
	}
	return f.Index
}
