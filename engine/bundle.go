package engine

import (
	"encoding/gob"
	"time"

	"github.com/YuminosukeSato/auctionml/core/model"
	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/ensemble"
	"github.com/YuminosukeSato/auctionml/linear"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/preprocessing"
)

func init() {
	// FittedModel.Model is an interface, so gob needs the concrete types.
	gob.Register(&linear.Ridge{})
	gob.Register(&ensemble.Forest{})
}

// Bundle is the portable form of an artifact: the encoder, both fitted models
// and the feature ranges. Training rows and the encoded training matrix are
// not included, so a loaded artifact answers Predict but not permutation
// importance.
type Bundle struct {
	DatasetID   string
	Kind        ModelKind
	Encoder     *preprocessing.Encoder
	Value       FittedModel
	Probability *FittedModel
	Ranges      map[string]dataset.Range
	Evaluation  Evaluation
	TrainedAt   time.Time
}

// NewBundle captures a trained artifact.
func NewBundle(a *Artifact) *Bundle {
	return &Bundle{
		DatasetID:   a.DatasetID,
		Kind:        a.Kind,
		Encoder:     a.Encoder,
		Value:       a.Value,
		Probability: a.Probability,
		Ranges:      a.Ranges,
		Evaluation:  a.Evaluation,
		TrainedAt:   a.TrainedAt,
	}
}

// Artifact rebuilds a prediction-ready artifact.
func (b *Bundle) Artifact() (*Artifact, error) {
	if b.Encoder == nil {
		return nil, errors.NewModelError("Bundle.Artifact", "bundle has no encoder", nil)
	}
	if b.Value.Model == nil {
		return nil, errors.NewModelError("Bundle.Artifact", "bundle has no value model", nil)
	}
	if b.Probability != nil && b.Probability.Model == nil {
		return nil, errors.NewModelError("Bundle.Artifact", "bundle has an empty probability model", nil)
	}
	return &Artifact{
		DatasetID:   b.DatasetID,
		Kind:        b.Kind,
		Encoder:     b.Encoder,
		Value:       b.Value,
		Probability: b.Probability,
		Ranges:      b.Ranges,
		Evaluation:  b.Evaluation,
		TrainedAt:   b.TrainedAt,
	}, nil
}

// SaveBundle writes the artifact to path as gob.
func SaveBundle(a *Artifact, path string) error {
	return model.SaveModel(NewBundle(a), path)
}

// LoadBundle reads a gob bundle written by SaveBundle.
func LoadBundle(path string) (*Artifact, error) {
	var b Bundle
	if err := model.LoadModel(&b, path); err != nil {
		return nil, err
	}
	return b.Artifact()
}
