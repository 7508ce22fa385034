// Package dataset defines the auction training schema, the rows a dataset
// source yields, and the records callers send for inference.
package dataset

import (
	"context"
	"math"

	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

// NumericField is a numeric input column. Integer fields are rounded whenever
// the engine synthesizes values for them (surfaces and optimizer trials).
type NumericField struct {
	Name    string `json:"name" yaml:"name"`
	Integer bool   `json:"integer,omitempty" yaml:"integer,omitempty"`
}

// Schema is the fixed feature layout of one dataset.
type Schema struct {
	Numeric     []NumericField `json:"numeric" yaml:"numeric"`
	Categorical []string       `json:"categorical" yaml:"categorical"`
	Target      string         `json:"target" yaml:"target"`
	// Companion names an optional 0/1 target fitted as a probability model.
	Companion string `json:"companion,omitempty" yaml:"companion,omitempty"`
}

// DiamondAuction returns the built-in diamond-auction schema.
func DiamondAuction() Schema {
	return Schema{
		Numeric: []NumericField{
			{Name: "carat"},
			{Name: "viewings", Integer: true},
			{Name: "price_index"},
		},
		Categorical: []string{"color", "clarity"},
		Target:      "final_price",
		Companion:   "sold",
	}
}

// HasCompanion reports whether the schema declares a probability target.
func (s Schema) HasCompanion() bool {
	return s.Companion != ""
}

// NumericNames returns numeric field names in schema order.
func (s Schema) NumericNames() []string {
	names := make([]string, len(s.Numeric))
	for i, f := range s.Numeric {
		names[i] = f.Name
	}
	return names
}

// NumericField looks up a numeric field by name.
func (s Schema) NumericField(name string) (NumericField, bool) {
	for _, f := range s.Numeric {
		if f.Name == name {
			return f, true
		}
	}
	return NumericField{}, false
}

// IsCategorical reports whether name is a declared categorical field.
func (s Schema) IsCategorical(name string) bool {
	for _, c := range s.Categorical {
		if c == name {
			return true
		}
	}
	return false
}

// Validate checks that the schema is usable: at least one feature, a target,
// and no name declared twice.
func (s Schema) Validate() error {
	if len(s.Numeric)+len(s.Categorical) == 0 {
		return errors.NewValidationError("schema", "no feature fields declared", 0)
	}
	if s.Target == "" {
		return errors.NewValidationError("schema.target", "target field is required", "")
	}
	seen := map[string]bool{s.Target: true}
	if s.HasCompanion() {
		if seen[s.Companion] {
			return errors.NewValidationError("schema.companion", "duplicate field name", s.Companion)
		}
		seen[s.Companion] = true
	}
	for _, name := range append(s.NumericNames(), s.Categorical...) {
		if name == "" {
			return errors.NewValidationError("schema", "empty field name", name)
		}
		if seen[name] {
			return errors.NewValidationError("schema", "duplicate field name", name)
		}
		seen[name] = true
	}
	return nil
}

// Row is one training observation. Rows are never mutated after loading.
type Row struct {
	Numeric     map[string]float64 `json:"numeric"`
	Categorical map[string]string  `json:"categorical"`
	Target      float64            `json:"target"`
	Companion   float64            `json:"companion,omitempty"`
}

// Record returns the feature part of the row.
func (r Row) Record() Record {
	return Record{Numeric: r.Numeric, Categorical: r.Categorical}
}

// Record is an inference input: feature values without targets.
type Record struct {
	Numeric     map[string]float64 `json:"numeric"`
	Categorical map[string]string  `json:"categorical"`
}

// Clone returns a deep copy so callers can vary one field without aliasing.
func (r Record) Clone() Record {
	out := Record{
		Numeric:     make(map[string]float64, len(r.Numeric)),
		Categorical: make(map[string]string, len(r.Categorical)),
	}
	for k, v := range r.Numeric {
		out.Numeric[k] = v
	}
	for k, v := range r.Categorical {
		out.Categorical[k] = v
	}
	return out
}

// Source supplies the ordered training rows of a dataset. Implementations
// return errors.ErrDatasetNotFound (possibly wrapped) for unknown IDs.
type Source interface {
	Rows(ctx context.Context, datasetID string) ([]Row, error)
}

// CheckRow returns a non-empty reason when the row fails data-quality checks:
// a missing or non-finite numeric value, an empty categorical value, or a
// non-finite target.
func (s Schema) CheckRow(r Row) string {
	for _, f := range s.Numeric {
		v, ok := r.Numeric[f.Name]
		if !ok {
			return "missing numeric value for " + f.Name
		}
		if !errors.IsFinite(v) {
			return "non-finite numeric value for " + f.Name
		}
	}
	for _, c := range s.Categorical {
		if r.Categorical[c] == "" {
			return "empty categorical value for " + c
		}
	}
	if !errors.IsFinite(r.Target) {
		return "non-finite target"
	}
	if s.HasCompanion() && !errors.IsFinite(r.Companion) {
		return "non-finite companion target"
	}
	return ""
}

// FilterValid drops rows failing CheckRow and emits one DataQualityWarning
// per distinct reason. The input slice is not modified.
func FilterValid(s Schema, rows []Row, stage string) []Row {
	valid := make([]Row, 0, len(rows))
	dropped := map[string]int{}
	var reasons []string
	for _, r := range rows {
		if reason := s.CheckRow(r); reason != "" {
			if dropped[reason] == 0 {
				reasons = append(reasons, reason)
			}
			dropped[reason]++
			continue
		}
		valid = append(valid, r)
	}
	for _, reason := range reasons {
		errors.Warn(errors.NewDataQualityWarning(stage, dropped[reason], len(rows), reason))
	}
	return valid
}

// Range is the observed [Min, Max] of a numeric field.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Mid returns the midpoint of the range.
func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

// Ranges computes per-numeric-field ranges over rows. Rows are assumed valid.
func Ranges(s Schema, rows []Row) map[string]Range {
	out := make(map[string]Range, len(s.Numeric))
	for _, f := range s.Numeric {
		rg := Range{Min: math.Inf(1), Max: math.Inf(-1)}
		for _, r := range rows {
			v := r.Numeric[f.Name]
			rg.Min = math.Min(rg.Min, v)
			rg.Max = math.Max(rg.Max, v)
		}
		if len(rows) == 0 {
			rg = Range{}
		}
		out[f.Name] = rg
	}
	return out
}
