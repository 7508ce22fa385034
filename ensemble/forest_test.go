package ensemble

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/auctionml/core/model"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

// stepData has an intercept column, an informative column and a noise column.
func stepData() (*mat.Dense, *mat.Dense) {
	n := 60
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		X.SetRow(i, []float64{1, x, float64(i % 7)})
		if x < 0.5 {
			y.Set(i, 0, 100)
		} else {
			y.Set(i, 0, 200)
		}
	}
	return X, y
}

var _ model.Regressor = (*Forest)(nil)

func TestForestLearnsStepFunction(t *testing.T) {
	X, y := stepData()
	f := NewForest(WithNEstimators(25), WithSeed(7))
	require.NoError(t, f.Fit(X, y))
	require.Len(t, f.Trees, 25)

	queries := mat.NewDense(2, 3, []float64{
		1, 0.1, 3,
		1, 0.9, 3,
	})
	pred, err := model.PredictVector(f, queries)
	require.NoError(t, err)
	assert.InDelta(t, 100, pred[0], 10)
	assert.InDelta(t, 200, pred[1], 10)
}

func TestForestReproducibleForSeed(t *testing.T) {
	X, y := stepData()

	a := NewForest(WithNEstimators(10), WithSeed(3), WithMaxFeatures(2))
	b := NewForest(WithNEstimators(10), WithSeed(3), WithMaxFeatures(2))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	pa, err := model.PredictVector(a, X)
	require.NoError(t, err)
	pb, err := model.PredictVector(b, X)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
	assert.Equal(t, a.Trees, b.Trees)
}

func TestForestConstantTargetIsSingleLeaf(t *testing.T) {
	X, _ := stepData()
	y := mat.NewDense(60, 1, nil)
	for i := 0; i < 60; i++ {
		y.Set(i, 0, 5000)
	}

	f := NewForest(WithNEstimators(3))
	require.NoError(t, f.Fit(X, y))
	for _, tree := range f.Trees {
		assert.Len(t, tree.Nodes, 1)
		assert.Equal(t, 5000.0, tree.Nodes[0].Value)
	}
}

func TestForestMaxDepthAndMinLeaf(t *testing.T) {
	X, y := stepData()
	f := NewForest(WithNEstimators(5), WithMaxDepth(2), WithMinSamplesLeaf(5))
	require.NoError(t, f.Fit(X, y))

	for _, tree := range f.Trees {
		assert.LessOrEqual(t, tree.Depth(), 2)
		for _, n := range tree.Nodes {
			if n.IsLeaf() {
				assert.GreaterOrEqual(t, n.Samples, 5)
			}
		}
	}
}

func TestForestErrors(t *testing.T) {
	X, y := stepData()

	_, err := NewForest().Predict(X)
	var nfErr *errors.NotFittedError
	assert.True(t, errors.As(err, &nfErr))

	err = NewForest(WithNEstimators(0)).Fit(X, y)
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))

	err = NewForest().Fit(X, mat.NewDense(3, 1, nil))
	var dErr *errors.DimensionError
	assert.True(t, errors.As(err, &dErr))

	f := NewForest(WithNEstimators(2))
	require.NoError(t, f.Fit(X, y))
	_, err = f.Predict(mat.NewDense(1, 2, nil))
	assert.True(t, errors.As(err, &dErr))
}

func TestForestGobRoundTrip(t *testing.T) {
	X, y := stepData()
	f := NewForest(WithNEstimators(4))
	require.NoError(t, f.Fit(X, y))

	var buf bytes.Buffer
	require.NoError(t, model.SaveModelToWriter(f, &buf))
	var loaded Forest
	require.NoError(t, model.LoadModelFromReader(&loaded, &buf))

	want, err := model.PredictVector(f, X)
	require.NoError(t, err)
	got, err := model.PredictVector(&loaded, X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
