package engine

import (
	"strings"

	"github.com/YuminosukeSato/auctionml/core/model"
	"github.com/YuminosukeSato/auctionml/ensemble"
	"github.com/YuminosukeSato/auctionml/linear"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

// ModelKind names one of the two supported model families.
type ModelKind string

const (
	// Linear is ridge regression over the encoded features.
	Linear ModelKind = "linear"
	// Ensemble is the bagged regression forest.
	Ensemble ModelKind = "ensemble"
)

// ParseModelKind accepts canonical names and the aliases used by clients.
// Anything else is a ValidationError; there is no default kind.
func ParseModelKind(s string) (ModelKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "ridge", "linear regression":
		return Linear, nil
	case "ensemble", "random_forest", "random forest", "forest", "bagging":
		return Ensemble, nil
	default:
		return "", errors.NewValidationError("model_kind", "unknown model kind", s)
	}
}

// Target selects which fitted model a query explains.
type Target string

const (
	// TargetValue is the final-price model.
	TargetValue Target = "value"
	// TargetProbability is the companion sale-probability model.
	TargetProbability Target = "probability"
)

// ParseTarget accepts "value" and "probability"; an empty string means value.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "value", "price":
		return TargetValue, nil
	case "probability", "sale", "sold":
		return TargetProbability, nil
	default:
		return "", errors.NewValidationError("target", "unknown target", s)
	}
}

// newRegressor builds an unfitted model of the given kind. The seed offset
// keeps the value and probability forests on different random streams.
func newRegressor(kind ModelKind, cfg Config, seedOffset uint64) (model.Regressor, error) {
	switch kind {
	case Linear:
		return linear.NewRidge(linear.WithLambda(cfg.RidgeLambda)), nil
	case Ensemble:
		return ensemble.NewForest(
			ensemble.WithNEstimators(cfg.Trees),
			ensemble.WithMaxDepth(cfg.MaxDepth),
			ensemble.WithMinSamplesLeaf(cfg.MinSamplesLeaf),
			ensemble.WithMaxFeatures(cfg.MaxFeatures),
			ensemble.WithSeed(cfg.Seed+seedOffset),
		), nil
	default:
		return nil, errors.NewValidationError("model_kind", "unknown model kind", string(kind))
	}
}
