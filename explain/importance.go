// Package explain attributes model predictions to encoded features.
package explain

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/auctionml/core/model"
	"github.com/YuminosukeSato/auctionml/metrics"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

// InterceptName is excluded from every importance map.
const InterceptName = "intercept"

// DefaultMaxSamples caps the rows used by permutation importance.
const DefaultMaxSamples = 2000

// ImportanceMap maps a feature name to a non-negative weight. Weights sum to 1,
// or are all zero when no feature carries signal.
type ImportanceMap map[string]float64

// Ranked returns feature names ordered by descending weight, ties by name.
func (m ImportanceMap) Ranked() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if m[names[i]] != m[names[j]] {
			return m[names[i]] > m[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// Normalize divides every weight by the total. An all-zero input stays all zero.
func Normalize(raw map[string]float64) ImportanceMap {
	total := 0.0
	for _, v := range raw {
		total += v
	}
	out := make(ImportanceMap, len(raw))
	for k, v := range raw {
		if total > 0 {
			out[k] = v / total
		} else {
			out[k] = 0
		}
	}
	return out
}

// Linear weights each feature by the magnitude of its coefficient.
func Linear(names []string, coefficients []float64) (ImportanceMap, error) {
	if len(names) != len(coefficients) {
		return nil, errors.NewDimensionError("explain.Linear", len(coefficients), len(names), 1)
	}
	raw := make(map[string]float64, len(names))
	for i, name := range names {
		if name == InterceptName {
			continue
		}
		raw[name] = math.Abs(coefficients[i])
	}
	return Normalize(raw), nil
}

// PermutationOptions bounds and seeds permutation importance.
type PermutationOptions struct {
	// MaxSamples caps the rows scored; zero means DefaultMaxSamples.
	MaxSamples int
	// Rand drives row sampling and column shuffles. Required.
	Rand *rand.Rand
}

// Permutation measures how much the model's MSE rises when one column is
// shuffled across the sampled rows. Each column is permuted independently
// against the same baseline; negative changes count as zero.
func Permutation(p model.Predictor, X mat.Matrix, y []float64, names []string, opts PermutationOptions) (ImportanceMap, error) {
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.NewModelError("explain.Permutation", "empty data", errors.ErrEmptyData)
	}
	if len(y) != rows {
		return nil, errors.NewDimensionError("explain.Permutation", rows, len(y), 0)
	}
	if len(names) != cols {
		return nil, errors.NewDimensionError("explain.Permutation", cols, len(names), 1)
	}
	if opts.Rand == nil {
		return nil, errors.NewValueError("explain.Permutation", "a random source is required")
	}
	maxSamples := opts.MaxSamples
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}

	picked := make([]int, rows)
	for i := range picked {
		picked[i] = i
	}
	if rows > maxSamples {
		picked = opts.Rand.Perm(rows)[:maxSamples]
	}

	n := len(picked)
	sample := mat.NewDense(n, cols, nil)
	target := make([]float64, n)
	for i, idx := range picked {
		for j := 0; j < cols; j++ {
			sample.Set(i, j, X.At(idx, j))
		}
		target[i] = y[idx]
	}

	baseline, err := scoreMSE(p, sample, target)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]float64, cols)
	column := make([]float64, n)
	for j, name := range names {
		if name == InterceptName {
			continue
		}
		mat.Col(column, j, sample)
		shuffled := make([]float64, n)
		copy(shuffled, column)
		fisherYates(shuffled, opts.Rand)
		sample.SetCol(j, shuffled)

		mse, err := scoreMSE(p, sample, target)
		sample.SetCol(j, column)
		if err != nil {
			return nil, err
		}
		raw[name] = math.Max(0, mse-baseline)
	}
	return Normalize(raw), nil
}

func fisherYates(values []float64, rng *rand.Rand) {
	for i := len(values) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		values[i], values[j] = values[j], values[i]
	}
}

func scoreMSE(p model.Predictor, X mat.Matrix, y []float64) (float64, error) {
	pred, err := model.PredictVector(p, X)
	if err != nil {
		return 0, err
	}
	return metrics.MeanSquaredError(y, pred)
}

// FieldMapper exposes which raw field produced each encoded column.
type FieldMapper interface {
	FeatureNames() []string
	SourceFields() []string
}

// Aggregate sums encoded-column weights into their raw fields, folding the
// one-hot columns of a categorical field into a single entry.
func Aggregate(m ImportanceMap, mapper FieldMapper) ImportanceMap {
	names := mapper.FeatureNames()
	fields := mapper.SourceFields()
	out := make(ImportanceMap)
	for i, name := range names {
		if fields[i] == "" {
			continue
		}
		out[fields[i]] += m[name]
	}
	return out
}
