// Package surface evaluates a trained model over a grid of two numeric features.
package surface

import (
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

// Resolution band applied when the caller does not configure one.
const (
	MinResolution = 10
	MaxResolution = 50
)

// Metric selects what each grid cell holds.
type Metric string

const (
	// MetricValue is the raw value prediction.
	MetricValue Metric = "value"
	// MetricProbability is the companion probability prediction.
	MetricProbability Metric = "probability"
	// MetricExpectedValue is value × probability.
	MetricExpectedValue Metric = "expected_value"
)

// ParseMetric accepts the canonical names plus the display names used by the
// dashboard ("Final Price", "Sale Probability", "Expected Revenue").
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "value", "final price", "price":
		return MetricValue, nil
	case "probability", "sale probability":
		return MetricProbability, nil
	case "expected_value", "expected revenue", "expected value":
		return MetricExpectedValue, nil
	default:
		return "", errors.NewValidationError("metric", "unknown surface metric", s)
	}
}

func (m Metric) needsProbability() bool {
	return m == MetricProbability || m == MetricExpectedValue
}

// Request describes one surface.
type Request struct {
	VarX       string            `json:"var_x" binding:"required"`
	VarY       string            `json:"var_y" binding:"required"`
	Metric     Metric            `json:"metric"`
	Resolution int               `json:"resolution"`
	Fixed      map[string]string `json:"fixed_categoricals,omitempty"`
}

// Limits is the resolution band. Zero fields fall back to the package defaults.
type Limits struct {
	MinResolution int
	MaxResolution int
}

// Grid holds three resolution × resolution arrays with X[i][j] = xs[j] and
// Y[i][j] = ys[i]: rows run along VarY, columns along VarX.
// Axis values of integer fields are rounded, so neighbouring columns or rows
// may repeat a value on narrow ranges.
type Grid struct {
	VarX   string      `json:"var_x"`
	VarY   string      `json:"var_y"`
	Metric Metric      `json:"metric"`
	X      [][]float64 `json:"x"`
	Y      [][]float64 `json:"y"`
	Z      [][]float64 `json:"z"`
}

// Resolution returns the side length of the grid.
func (g *Grid) Resolution() int {
	return len(g.X)
}

// ClampResolution forces n into [lo, hi].
func ClampResolution(n int, limits Limits) int {
	lo, hi := limits.MinResolution, limits.MaxResolution
	if lo <= 0 {
		lo = MinResolution
	}
	if hi <= 0 {
		hi = MaxResolution
	}
	return errors.ClipInt(n, lo, hi)
}

// Generate predicts every cell of the grid in one batch.
//
// Numeric features other than VarX and VarY sit at their range midpoint,
// categorical features at the requested level or the training mode.
func Generate(req Request, domain dataset.Domain, limits Limits, predict dataset.PredictFunc) (*Grid, error) {
	if err := validate(req, domain); err != nil {
		return nil, err
	}
	metric := req.Metric
	if metric == "" {
		metric = MetricValue
	}
	if metric.needsProbability() && !domain.HasProbability {
		return nil, errors.NewValidationError("metric", "requires a probability model", string(metric))
	}

	n := ClampResolution(req.Resolution, limits)
	rx, ry := domain.Ranges[req.VarX], domain.Ranges[req.VarY]
	xs := axis(domain, req.VarX, n, rx)
	ys := axis(domain, req.VarY, n, ry)

	base, err := domain.BaseRecord(req.Fixed)
	if err != nil {
		return nil, err
	}

	records := make([]dataset.Record, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r := base.Clone()
			r.Numeric[req.VarX] = xs[j]
			r.Numeric[req.VarY] = ys[i]
			records = append(records, r)
		}
	}

	outcomes, err := predict(records)
	if err != nil {
		return nil, err
	}
	if len(outcomes) != len(records) {
		return nil, errors.NewDimensionError("surface.Generate", len(records), len(outcomes), 0)
	}

	grid := &Grid{
		VarX:   req.VarX,
		VarY:   req.VarY,
		Metric: metric,
		X:      make([][]float64, n),
		Y:      make([][]float64, n),
		Z:      make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		grid.X[i] = make([]float64, n)
		grid.Y[i] = make([]float64, n)
		grid.Z[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			grid.X[i][j] = xs[j]
			grid.Y[i][j] = ys[i]
			grid.Z[i][j] = metricValue(metric, outcomes[i*n+j])
		}
	}
	return grid, nil
}

// axis spaces n points over the range. Integer fields are rounded here so the
// grid reports the values the model was actually evaluated at.
func axis(domain dataset.Domain, field string, n int, rg dataset.Range) []float64 {
	xs := floats.Span(make([]float64, n), rg.Min, rg.Max)
	for i, v := range xs {
		xs[i] = domain.Value(field, v)
	}
	return xs
}

func metricValue(m Metric, o dataset.Outcome) float64 {
	switch m {
	case MetricProbability:
		return o.Probability
	case MetricExpectedValue:
		return o.Value * o.Probability
	default:
		return o.Value
	}
}

func validate(req Request, domain dataset.Domain) error {
	for _, name := range []string{req.VarX, req.VarY} {
		if _, ok := domain.Schema.NumericField(name); !ok {
			return errors.NewSchemaError("surface.Generate", name, "not a numeric feature")
		}
	}
	if req.VarX == req.VarY {
		return errors.NewValidationError("var_y", "must differ from var_x", req.VarY)
	}
	switch req.Metric {
	case "", MetricValue, MetricProbability, MetricExpectedValue:
		return nil
	default:
		return errors.NewValidationError("metric", "unknown surface metric", string(req.Metric))
	}
}
