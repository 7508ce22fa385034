// Package model provides the estimator contracts shared by the linear and
// ensemble model families, plus weight export and persistence helpers.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Regressor is the capability every value or probability model offers to the engine.
// The engine never needs to know whether it holds a ridge or a forest.
type Regressor interface {
	Fitter
	Predictor
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// PredictVector runs p on X and flattens the (n × 1) result into a slice.
func PredictVector(p Predictor, X mat.Matrix) ([]float64, error) {
	out, err := p.Predict(X)
	if err != nil {
		return nil, err
	}
	r, _ := out.Dims()
	values := make([]float64, r)
	for i := 0; i < r; i++ {
		values[i] = out.At(i, 0)
	}
	return values, nil
}
