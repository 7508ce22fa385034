package dataset

import (
	"math"

	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

// Outcome is what a trained artifact predicts for one record.
type Outcome struct {
	Value       float64
	Probability float64
	// HasProbability is false when the schema has no companion target.
	HasProbability bool
}

// PredictFunc predicts a batch of records in order.
type PredictFunc func(records []Record) ([]Outcome, error)

// Domain is the trained feature space that surfaces and optimizer trials are
// drawn from.
type Domain struct {
	Schema Schema
	Ranges map[string]Range
	// Modes holds the most frequent training level of each categorical field.
	Modes map[string]string
	// Vocabulary holds the sorted training levels of each categorical field.
	Vocabulary     map[string][]string
	HasProbability bool
}

// Value rounds v when field is an integer field.
func (d Domain) Value(field string, v float64) float64 {
	if f, ok := d.Schema.NumericField(field); ok && f.Integer {
		return math.Round(v)
	}
	return v
}

// CheckFixed rejects fixed categorical levels for fields the schema does not
// declare as categorical.
func (d Domain) CheckFixed(op string, fixed map[string]string) error {
	for name := range fixed {
		if !d.Schema.IsCategorical(name) {
			return errors.NewSchemaError(op, name, "not a categorical field")
		}
	}
	return nil
}

// BaseRecord holds every numeric field at its range midpoint and every
// categorical field at the fixed level, falling back to the training mode.
func (d Domain) BaseRecord(fixed map[string]string) (Record, error) {
	if err := d.CheckFixed("Domain.BaseRecord", fixed); err != nil {
		return Record{}, err
	}
	r := Record{
		Numeric:     make(map[string]float64, len(d.Schema.Numeric)),
		Categorical: make(map[string]string, len(d.Schema.Categorical)),
	}
	for _, f := range d.Schema.Numeric {
		rg, ok := d.Ranges[f.Name]
		if !ok {
			return Record{}, errors.NewSchemaError("Domain.BaseRecord", f.Name, "no trained range")
		}
		r.Numeric[f.Name] = d.Value(f.Name, rg.Mid())
	}
	for _, c := range d.Schema.Categorical {
		if level := fixed[c]; level != "" {
			r.Categorical[c] = level
		} else {
			r.Categorical[c] = d.Modes[c]
		}
	}
	return r, nil
}
