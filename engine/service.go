package engine

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/YuminosukeSato/auctionml/core/model"
	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/explain"
	"github.com/YuminosukeSato/auctionml/linear"
	"github.com/YuminosukeSato/auctionml/optimize"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/pkg/log"
	"github.com/YuminosukeSato/auctionml/surface"
	"github.com/YuminosukeSato/auctionml/uncertainty"
)

// Prediction is the answer to a single-record query.
type Prediction struct {
	Value       float64  `json:"value"`
	Lower       float64  `json:"lower"`
	Upper       float64  `json:"upper"`
	Confidence  float64  `json:"confidence"`
	Probability *float64 `json:"probability,omitempty"`
	// RecommendedReserve is value × (0.8 + 0.2 × probability).
	RecommendedReserve *float64 `json:"recommended_reserve,omitempty"`
}

// RandSource returns the random source for one call. stream separates the
// importance and optimizer draws.
type RandSource func(stream uint64) *rand.Rand

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRandSource replaces the per-call seeded sources, mainly for tests.
func WithRandSource(src RandSource) ServiceOption {
	return func(s *Service) {
		s.randSource = src
	}
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(l log.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// Service answers queries from cached artifacts. Every method is a pure
// function of its inputs and the artifact, so repeated calls agree.
type Service struct {
	store      *Store
	cfg        Config
	logger     log.Logger
	randSource RandSource
}

// NewService wraps a store.
func NewService(store *Store, cfg Config, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		cfg:    cfg,
		logger: log.GetLoggerWithName("engine.service"),
	}
	s.randSource = func(stream uint64) *rand.Rand {
		return rand.New(rand.NewPCG(s.cfg.Seed, stream))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the engine configuration the service was built with.
func (s *Service) Config() Config {
	return s.cfg
}

func observe(op string, start time.Time, err error) {
	queryDuration.WithLabelValues(op, statusLabel(err)).Observe(time.Since(start).Seconds())
}

// Predict returns the value estimate with its interval and, when the schema
// has a companion target, the probability and a recommended reserve.
func (s *Service) Predict(ctx context.Context, datasetID string, kind ModelKind, record dataset.Record) (pred Prediction, err error) {
	start := time.Now()
	defer func() { observe(log.OperationPredict, start, err) }()

	art, err := s.store.Get(ctx, datasetID, kind)
	if err != nil {
		return Prediction{}, err
	}
	return art.PredictInterval(record, s.cfg.Confidence)
}

// PredictInterval predicts one record and wraps the value in a residual
// interval at the given confidence.
func (a *Artifact) PredictInterval(record dataset.Record, confidence float64) (Prediction, error) {
	out, err := a.Predict([]dataset.Record{record})
	if err != nil {
		return Prediction{}, err
	}
	o := out[0]

	iv, err := uncertainty.NewInterval(o.Value, a.Value.ResidualStd, confidence)
	if err != nil {
		return Prediction{}, err
	}
	pred := Prediction{
		Value:      iv.Point,
		Lower:      iv.Lower,
		Upper:      iv.Upper,
		Confidence: confidence,
	}
	if o.HasProbability {
		p := o.Probability
		reserve := o.Value * (0.8 + 0.2*p)
		pred.Probability = &p
		pred.RecommendedReserve = &reserve
	}
	return pred, nil
}

// Importance ranks encoded features for the value or the probability model.
// Linear models use normalized absolute coefficients; ensembles use
// permutation importance on the training matrix. With aggregate set, one-hot
// columns fold into their categorical field.
func (s *Service) Importance(ctx context.Context, datasetID string, kind ModelKind, target Target, aggregate bool) (imp explain.ImportanceMap, err error) {
	start := time.Now()
	defer func() { observe(log.OperationImportance, start, err) }()

	art, err := s.store.Get(ctx, datasetID, kind)
	if err != nil {
		return nil, err
	}
	fm, y := &art.Value, art.trainY
	switch target {
	case TargetValue:
	case TargetProbability:
		if art.Probability == nil {
			return nil, errors.NewValidationError("target", "dataset has no probability model", string(target))
		}
		fm, y = art.Probability, art.trainProb
	default:
		return nil, errors.NewValidationError("target", "unknown target", string(target))
	}
	names := art.Encoder.FeatureNames()

	if coef, ok := fm.Coefficients(); ok {
		imp, err = explain.Linear(names, coef)
	} else {
		if art.trainX == nil {
			return nil, errors.NewModelError("Service.Importance", "artifact has no training matrix", nil)
		}
		imp, err = explain.Permutation(fm.Model, art.trainX, y, names, explain.PermutationOptions{
			MaxSamples: s.cfg.ImportanceSamples,
			Rand:       s.randSource(streamImportance),
		})
	}
	if err != nil {
		return nil, err
	}
	if aggregate {
		imp = explain.Aggregate(imp, art.Encoder)
	}
	return imp, nil
}

// Surface evaluates a metric over a grid of two numeric features.
func (s *Service) Surface(ctx context.Context, datasetID string, kind ModelKind, req surface.Request) (grid *surface.Grid, err error) {
	start := time.Now()
	defer func() { observe(log.OperationSurface, start, err) }()

	art, err := s.store.Get(ctx, datasetID, kind)
	if err != nil {
		return nil, err
	}
	return surface.Generate(req, art.Domain(), s.cfg.Surface, art.Predict)
}

// Optimize searches the feature space by random sampling. An infeasible
// search is a successful call with Result.Feasible false.
func (s *Service) Optimize(ctx context.Context, datasetID string, kind ModelKind, req optimize.Request) (res optimize.Result, err error) {
	start := time.Now()
	defer func() { observe(log.OperationOptimize, start, err) }()

	art, err := s.store.Get(ctx, datasetID, kind)
	if err != nil {
		return optimize.Result{}, err
	}
	res, err = optimize.Run(req, art.Domain(), s.cfg.Optimizer, art.Predict, s.randSource(streamOptimize))
	if err != nil {
		return optimize.Result{}, err
	}
	if !res.Feasible {
		s.logger.Info("Optimization infeasible",
			log.DatasetIDKey, datasetID,
			log.ModelKindKey, string(kind),
			log.ObjectiveKey, string(res.Objective),
			log.TrialsKey, res.Evaluated,
		)
	}
	return res, nil
}

// Evaluate returns the hold-out scores recorded at training time.
func (s *Service) Evaluate(ctx context.Context, datasetID string, kind ModelKind) (ev Evaluation, err error) {
	start := time.Now()
	defer func() { observe("evaluate", start, err) }()

	art, err := s.store.Get(ctx, datasetID, kind)
	if err != nil {
		return Evaluation{}, err
	}
	return art.Evaluation, nil
}

// Weights exports the ridge coefficients of a linear artifact, keyed by
// encoded feature name.
func (s *Service) Weights(ctx context.Context, datasetID string) (*model.ModelWeights, error) {
	art, err := s.store.Get(ctx, datasetID, Linear)
	if err != nil {
		return nil, err
	}
	ridge, ok := art.Value.Model.(*linear.Ridge)
	if !ok {
		return nil, errors.NewModelError("Service.Weights", "value model is not ridge", nil)
	}
	w, err := ridge.ExportWeights(art.Encoder.FeatureNames())
	if err != nil {
		return nil, err
	}
	w.Metadata = map[string]interface{}{
		"dataset_id":    datasetID,
		"train_rows":    art.Evaluation.TrainRows,
		"residual_std":  art.Value.ResidualStd,
		"trained_at":    art.TrainedAt.UTC().Format(time.RFC3339),
		"schema_target": art.Encoder.Schema.Target,
	}
	return w, nil
}

// Artifact exposes the cached artifact, training it when needed.
func (s *Service) Artifact(ctx context.Context, datasetID string, kind ModelKind) (*Artifact, error) {
	return s.store.Get(ctx, datasetID, kind)
}

// Invalidate forces the next query of the dataset to retrain.
func (s *Service) Invalidate(datasetID string) {
	s.store.Invalidate(datasetID)
}
