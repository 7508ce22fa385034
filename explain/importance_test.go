package explain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

func sum(m ImportanceMap) float64 {
	total := 0.0
	for _, v := range m {
		total += v
	}
	return total
}

// linearPredictor predicts X·w.
type linearPredictor struct{ w []float64 }

func (l linearPredictor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		s := 0.0
		for j := 0; j < c; j++ {
			s += X.At(i, j) * l.w[j]
		}
		out.Set(i, 0, s)
	}
	return out, nil
}

func TestLinearImportance(t *testing.T) {
	names := []string{"intercept", "carat", "viewings", "color=G"}
	m, err := Linear(names, []float64{1000, 3, -1, 0})
	require.NoError(t, err)

	assert.NotContains(t, m, "intercept")
	assert.InDelta(t, 1, sum(m), 1e-12)
	assert.InDelta(t, 0.75, m["carat"], 1e-12)
	assert.InDelta(t, 0.25, m["viewings"], 1e-12)
	assert.Equal(t, []string{"carat", "viewings", "color=G"}, m.Ranked())

	zero, err := Linear(names, []float64{5, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sum(zero))
	assert.Len(t, zero, 3)

	_, err = Linear(names, []float64{1})
	assert.Error(t, err)
}

func permutationData(n int) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewPCG(1, 2))
	X := mat.NewDense(n, 4, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b, noise := rng.Float64(), rng.Float64(), rng.Float64()
		X.SetRow(i, []float64{1, a, b, noise})
		y[i] = 10*a + 2*b
	}
	return X, y
}

func TestPermutationImportance(t *testing.T) {
	X, y := permutationData(300)
	names := []string{"intercept", "a", "b", "noise"}
	model := linearPredictor{w: []float64{0, 10, 2, 0}}

	m, err := Permutation(model, X, y, names, PermutationOptions{Rand: rand.New(rand.NewPCG(42, 0))})
	require.NoError(t, err)

	assert.NotContains(t, m, "intercept")
	assert.InDelta(t, 1, sum(m), 1e-9)
	assert.Equal(t, 0.0, m["noise"])
	assert.Greater(t, m["a"], m["b"])
	for _, v := range m {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestPermutationDeterministicAndCapped(t *testing.T) {
	X, y := permutationData(500)
	names := []string{"intercept", "a", "b", "noise"}
	model := linearPredictor{w: []float64{0, 10, 2, 0}}

	run := func() ImportanceMap {
		m, err := Permutation(model, X, y, names, PermutationOptions{
			MaxSamples: 100,
			Rand:       rand.New(rand.NewPCG(9, 9)),
		})
		require.NoError(t, err)
		return m
	}
	assert.Equal(t, run(), run())
}

func TestPermutationAllZero(t *testing.T) {
	X, y := permutationData(50)
	names := []string{"intercept", "a", "b", "noise"}
	constant := linearPredictor{w: []float64{3, 0, 0, 0}}

	m, err := Permutation(constant, X, y, names, PermutationOptions{Rand: rand.New(rand.NewPCG(1, 1))})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sum(m))
	assert.Len(t, m, 3)
}

func TestPermutationValidation(t *testing.T) {
	X, y := permutationData(10)
	model := linearPredictor{w: []float64{0, 1, 1, 1}}

	_, err := Permutation(model, X, y, []string{"a"}, PermutationOptions{Rand: rand.New(rand.NewPCG(1, 1))})
	var dErr *errors.DimensionError
	assert.True(t, errors.As(err, &dErr))

	_, err = Permutation(model, X, y, []string{"intercept", "a", "b", "noise"}, PermutationOptions{})
	var vErr *errors.ValueError
	assert.True(t, errors.As(err, &vErr))
}

type fakeMapper struct{}

func (fakeMapper) FeatureNames() []string {
	return []string{"intercept", "carat", "color=D", "color=G"}
}

func (fakeMapper) SourceFields() []string {
	return []string{"", "carat", "color", "color"}
}

func TestAggregate(t *testing.T) {
	m := ImportanceMap{"carat": 0.5, "color=D": 0.2, "color=G": 0.3}
	agg := Aggregate(m, fakeMapper{})
	assert.Equal(t, ImportanceMap{"carat": 0.5, "color": 0.5}, agg)
	assert.InDelta(t, 1, sum(agg), 1e-12)
}
