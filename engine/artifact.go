package engine

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/auctionml/core/model"
	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/preprocessing"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/uncertainty"
)

// FittedModel pairs a trained regressor with its training residual spread.
type FittedModel struct {
	Kind        ModelKind
	Model       model.Regressor
	Residual    uncertainty.Summary
	ResidualStd float64
}

// Coefficients returns the ridge coefficients of a linear model.
func (m *FittedModel) Coefficients() ([]float64, bool) {
	lm, ok := m.Model.(model.LinearModel)
	if !ok {
		return nil, false
	}
	return lm.Coefficients(), true
}

// Evaluation scores the value model (and the probability model when present)
// on held-out rows, or on the training rows when no hold-out was possible.
type Evaluation struct {
	R2        float64  `json:"r2"`
	MAE       float64  `json:"mae"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	TrainRows int      `json:"train_rows"`
	TestRows  int      `json:"test_rows"`
	HoldOut   bool     `json:"hold_out"`
}

// Artifact is everything trained for one (dataset, kind) pair. It is never
// mutated after Train returns, so any number of readers may share it.
type Artifact struct {
	DatasetID   string
	Kind        ModelKind
	Rows        []dataset.Row
	Encoder     *preprocessing.Encoder
	Value       FittedModel
	Probability *FittedModel
	Ranges      map[string]dataset.Range
	Evaluation  Evaluation
	TrainedAt   time.Time

	// encoded training matrix and both targets, kept for permutation importance
	trainX    *mat.Dense
	trainY    []float64
	trainProb []float64
}

// Domain describes the feature space surfaces and optimizer trials draw from.
func (a *Artifact) Domain() dataset.Domain {
	modes := make(map[string]string, len(a.Encoder.Categorical))
	vocab := make(map[string][]string, len(a.Encoder.Categorical))
	for _, c := range a.Encoder.Categorical {
		modes[c.Name] = c.Mode
		vocab[c.Name] = c.Levels
	}
	return dataset.Domain{
		Schema:         a.Encoder.Schema,
		Ranges:         a.Ranges,
		Modes:          modes,
		Vocabulary:     vocab,
		HasProbability: a.Probability != nil,
	}
}

// Predict encodes records once and runs both models. Probabilities are
// clipped to [0, 1] since the companion model is a regressor on a 0/1 target.
func (a *Artifact) Predict(records []dataset.Record) ([]dataset.Outcome, error) {
	X, err := a.Encoder.EncodeRecords(records)
	if err != nil {
		return nil, err
	}
	values, err := model.PredictVector(a.Value.Model, X)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("Artifact.Predict", values); err != nil {
		return nil, err
	}

	out := make([]dataset.Outcome, len(records))
	for i, v := range values {
		out[i].Value = v
	}
	if a.Probability == nil {
		return out, nil
	}

	probs, err := model.PredictVector(a.Probability.Model, X)
	if err != nil {
		return nil, err
	}
	for i, p := range probs {
		out[i].Probability = errors.ClipValue(p, 0, 1)
		out[i].HasProbability = true
	}
	return out, nil
}
