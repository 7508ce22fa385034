package model

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type constantModel struct {
	BaseEstimator
	Value float64
}

func (c *constantModel) Fit(X, y mat.Matrix) error {
	r, cols := X.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		sum += y.At(i, 0)
	}
	c.Value = sum / float64(r)
	c.SetFitted(cols)
	return nil
}

func (c *constantModel) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, c.Value)
	}
	return out, nil
}

var _ Regressor = (*constantModel)(nil)

func TestBaseEstimatorLifecycle(t *testing.T) {
	var e BaseEstimator
	assert.False(t, e.IsFitted())

	e.SetFitted(4)
	assert.True(t, e.IsFitted())
	assert.Equal(t, 4, e.NFeatures)

	e.Reset()
	assert.False(t, e.IsFitted())
	assert.Zero(t, e.NFeatures)
}

func TestPredictVector(t *testing.T) {
	m := &constantModel{}
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(3, 1, []float64{1, 2, 6})
	require.NoError(t, m.Fit(X, y))

	got, err := PredictVector(m, X)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3, 3}, got)
}

func TestModelWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights ModelWeights
		wantErr bool
	}{
		{
			name: "valid",
			weights: ModelWeights{
				ModelType: "Ridge", Version: "1.0", IsFitted: true,
				Coefficients: []float64{1, 2}, Features: []string{"intercept", "carat"},
			},
		},
		{name: "missing type", weights: ModelWeights{Version: "1.0"}, wantErr: true},
		{name: "missing version", weights: ModelWeights{ModelType: "Ridge"}, wantErr: true},
		{
			name:    "fitted without coefficients",
			weights: ModelWeights{ModelType: "Ridge", Version: "1.0", IsFitted: true},
			wantErr: true,
		},
		{
			name: "feature length mismatch",
			weights: ModelWeights{
				ModelType: "Ridge", Version: "1.0", IsFitted: true,
				Coefficients: []float64{1, 2}, Features: []string{"intercept"},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestModelWeightsJSONAndClone(t *testing.T) {
	w := &ModelWeights{
		ModelType:       "Ridge",
		Version:         "1.0",
		IsFitted:        true,
		Coefficients:    []float64{0.5, 1.5},
		Features:        []string{"intercept", "carat"},
		Hyperparameters: map[string]interface{}{"lambda": 0.01},
	}
	data, err := w.ToJSON()
	require.NoError(t, err)

	var decoded ModelWeights
	require.NoError(t, decoded.FromJSON(data))
	assert.Equal(t, w.Coefficients, decoded.Coefficients)
	assert.Equal(t, w.Features, decoded.Features)

	clone := w.Clone()
	clone.Coefficients[0] = 99
	assert.Equal(t, 0.5, w.Coefficients[0])
}

func TestSaveAndLoadModel(t *testing.T) {
	m := &constantModel{Value: 42}
	m.SetFitted(3)

	var buf bytes.Buffer
	require.NoError(t, SaveModelToWriter(m, &buf))

	var loaded constantModel
	require.NoError(t, LoadModelFromReader(&loaded, &buf))
	assert.Equal(t, 42.0, loaded.Value)
	assert.True(t, loaded.IsFitted())

	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, SaveModel(m, path))
	var fromFile constantModel
	require.NoError(t, LoadModel(&fromFile, path))
	assert.Equal(t, 3, fromFile.NFeatures)

	assert.Error(t, LoadModel(&fromFile, filepath.Join(t.TempDir(), "missing.gob")))
}
