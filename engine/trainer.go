package engine

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/auctionml/core/model"
	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/metrics"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/pkg/log"
	"github.com/YuminosukeSato/auctionml/preprocessing"
	"github.com/YuminosukeSato/auctionml/uncertainty"
)

// Stream identifiers for the PCG sources derived from Config.Seed.
const (
	streamSplit uint64 = iota + 1
	streamImportance
	streamOptimize
)

// Trainer builds artifacts for one schema.
type Trainer struct {
	schema dataset.Schema
	cfg    Config
	logger log.Logger
}

// NewTrainer creates a trainer.
func NewTrainer(schema dataset.Schema, cfg Config) *Trainer {
	return &Trainer{
		schema: schema,
		cfg:    cfg,
		logger: log.GetLoggerWithName("engine.trainer"),
	}
}

// Train validates rows, fits the encoder and the model(s) and evaluates them.
// Rows failing data-quality checks are dropped with a warning.
func (t *Trainer) Train(ctx context.Context, datasetID string, kind ModelKind, rows []dataset.Row) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "training cancelled")
	}
	if _, err := ParseModelKind(string(kind)); err != nil {
		return nil, err
	}

	logger := t.logger.With(log.DatasetIDKey, datasetID, log.ModelKindKey, string(kind))
	start := time.Now()

	valid := dataset.FilterValid(t.schema, rows, "training")
	if len(valid) == 0 {
		return nil, errors.NewModelError("Trainer.Train", "no valid rows", errors.ErrEmptyData)
	}
	if dropped := len(rows) - len(valid); dropped > 0 {
		logger.Warn("Dropped invalid rows", log.DroppedKey, dropped, log.SamplesKey, len(rows))
	}

	train, test := t.split(valid)
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, len(train),
		"test_samples", len(test),
	)

	// the vocabulary covers held-out levels so evaluation never hits UnknownReject
	enc, err := preprocessing.Fit(t.schema, train,
		preprocessing.WithUnknownCategoryPolicy(t.cfg.UnknownCategory),
		preprocessing.WithVocabularyFrom(test),
	)
	if err != nil {
		return nil, err
	}
	X, err := enc.EncodeRows(train)
	if err != nil {
		return nil, err
	}
	yValue, yProb := targets(train)

	art := &Artifact{
		DatasetID: datasetID,
		Kind:      kind,
		Rows:      valid,
		Encoder:   enc,
		Ranges:    dataset.Ranges(t.schema, valid),
		trainX:    X,
		trainY:    yValue,
		trainProb: yProb,
	}

	var probability FittedModel
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fm, err := t.fit(gctx, kind, X, yValue, 0)
		if err != nil {
			return errors.Wrap(err, "value model")
		}
		art.Value = fm
		return nil
	})
	if t.schema.HasCompanion() {
		g.Go(func() error {
			fm, err := t.fit(gctx, kind, X, yProb, 1)
			if err != nil {
				return errors.Wrap(err, "probability model")
			}
			probability = fm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("Training failed", err, log.ErrorTypeKey, log.ErrorType(err))
		return nil, err
	}
	if t.schema.HasCompanion() {
		art.Probability = &probability
	}

	evalRows := test
	if len(evalRows) == 0 {
		evalRows = train
	}
	art.Evaluation, err = evaluate(art, evalRows)
	if err != nil {
		return nil, err
	}
	art.Evaluation.TrainRows = len(train)
	art.Evaluation.TestRows = len(test)
	art.Evaluation.HoldOut = len(test) > 0
	art.TrainedAt = time.Now()

	logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseValidation,
		log.R2ScoreKey, art.Evaluation.R2,
		log.MAEKey, art.Evaluation.MAE,
		log.ResidualStdKey, art.Value.ResidualStd,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return art, nil
}

// split holds out a seeded TestFraction of rows when enough remain to train.
func (t *Trainer) split(rows []dataset.Row) (train, test []dataset.Row) {
	n := len(rows)
	nTest := int(math.Round(t.cfg.TestFraction * float64(n)))
	if t.cfg.TestFraction <= 0 || nTest < 1 || n-nTest < 2 {
		return rows, nil
	}
	rng := rand.New(rand.NewPCG(t.cfg.Seed, streamSplit))
	perm := rng.Perm(n)
	test = make([]dataset.Row, 0, nTest)
	train = make([]dataset.Row, 0, n-nTest)
	for i, idx := range perm {
		if i < nTest {
			test = append(test, rows[idx])
		} else {
			train = append(train, rows[idx])
		}
	}
	return train, test
}

func (t *Trainer) fit(ctx context.Context, kind ModelKind, X *mat.Dense, y []float64, seedOffset uint64) (FittedModel, error) {
	if err := ctx.Err(); err != nil {
		return FittedModel{}, err
	}
	reg, err := newRegressor(kind, t.cfg, seedOffset)
	if err != nil {
		return FittedModel{}, err
	}
	if pg, ok := reg.(model.ParameterGetter); ok {
		t.logger.Debug("Fitting model", log.ModelKindKey, string(kind), "params", pg.GetParams(), log.RandomSeedKey, t.cfg.Seed+seedOffset)
	}
	err = errors.SafeExecute("engine.fit", func() error {
		return reg.Fit(X, mat.NewDense(len(y), 1, y))
	})
	if err != nil {
		return FittedModel{}, err
	}
	pred, err := model.PredictVector(reg, X)
	if err != nil {
		return FittedModel{}, err
	}
	summary, err := uncertainty.Residuals(y, pred)
	if err != nil {
		return FittedModel{}, err
	}
	return FittedModel{Kind: kind, Model: reg, Residual: summary, ResidualStd: summary.Std}, nil
}

func targets(rows []dataset.Row) (value, prob []float64) {
	value = make([]float64, len(rows))
	prob = make([]float64, len(rows))
	for i, r := range rows {
		value[i] = r.Target
		prob[i] = r.Companion
	}
	return value, prob
}

func evaluate(art *Artifact, rows []dataset.Row) (Evaluation, error) {
	records := make([]dataset.Record, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	outcomes, err := art.Predict(records)
	if err != nil {
		return Evaluation{}, err
	}
	yValue, yProb := targets(rows)
	pred := make([]float64, len(outcomes))
	prob := make([]float64, len(outcomes))
	for i, o := range outcomes {
		pred[i] = o.Value
		prob[i] = o.Probability
	}

	score, err := metrics.R2AndMAE(yValue, pred)
	if err != nil {
		return Evaluation{}, err
	}
	ev := Evaluation{R2: score.R2, MAE: score.MAE}
	if art.Probability != nil {
		acc, err := metrics.Accuracy(yProb, prob, 0.5)
		if err != nil {
			return Evaluation{}, err
		}
		ev.Accuracy = &acc
	}
	return ev, nil
}
