// Package ensemble implements a bagged regression forest that satisfies the
// same Fit/Predict contract as the ridge model.
package ensemble

import (
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/auctionml/core/model"
	"github.com/YuminosukeSato/auctionml/core/parallel"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/pkg/log"
)

// Forest is a bagged ensemble of CART regression trees.
//
// Each tree is grown on a bootstrap sample drawn from its own random source,
// seeded from Seed and the tree index, so a fit is reproducible regardless of
// how trees are scheduled across cores.
type Forest struct {
	model.BaseEstimator

	NEstimators    int
	MaxDepth       int
	MinSamplesLeaf int
	MaxFeatures    int
	Seed           uint64

	Trees []Tree

	logger log.Logger
}

// NewForest creates an unfitted forest.
func NewForest(opts ...Option) *Forest {
	f := &Forest{
		NEstimators:    DefaultNEstimators,
		MinSamplesLeaf: DefaultMinSamplesLeaf,
		Seed:           DefaultSeed,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Forest) log() log.Logger {
	if f.logger == nil {
		f.logger = log.GetLoggerWithName("ensemble").With(log.ModelNameKey, "Forest")
	}
	return f.logger
}

func (f *Forest) validate() error {
	if f.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", f.NEstimators)
	}
	if f.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", f.MinSamplesLeaf)
	}
	if f.MaxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be >= 0", f.MaxDepth)
	}
	if f.MaxFeatures < 0 {
		return errors.NewValidationError("max_features", "must be >= 0", f.MaxFeatures)
	}
	return nil
}

// Fit grows NEstimators trees in parallel.
func (f *Forest) Fit(X, y mat.Matrix) error {
	if err := f.validate(); err != nil {
		return err
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("Forest.Fit", "empty data", errors.ErrEmptyData)
	}
	ry, cy := y.Dims()
	if ry != rows {
		return errors.NewDimensionError("Forest.Fit", rows, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("Forest.Fit", "y must be a column vector")
	}

	start := time.Now()
	f.log().Debug("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		"n_estimators", f.NEstimators,
		log.RandomSeedKey, int64(f.Seed),
	)

	data := denseRows(X)
	target := make([]float64, rows)
	for i := range target {
		target[i] = y.At(i, 0)
	}

	trees := make([]Tree, f.NEstimators)
	parallel.Parallelize(f.NEstimators, func(startTree, endTree int) {
		for t := startTree; t < endTree; t++ {
			rng := rand.New(rand.NewPCG(f.Seed, uint64(t)))
			sample := make([]int, rows)
			for i := range sample {
				sample[i] = rng.IntN(rows)
			}
			b := &treeBuilder{
				X:              data,
				y:              target,
				maxDepth:       f.MaxDepth,
				minSamplesLeaf: f.MinSamplesLeaf,
				maxFeatures:    f.MaxFeatures,
				rng:            rng,
			}
			trees[t] = b.build(sample)
		}
	})

	f.Trees = trees
	f.SetFitted(cols)

	f.log().Debug("Training completed",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict returns the mean tree prediction for each row as an (n × 1) matrix.
func (f *Forest) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("Forest", "Predict")
	}
	rows, cols := X.Dims()
	if cols != f.NFeatures {
		return nil, errors.NewDimensionError("Forest.Predict", f.NFeatures, cols, 1)
	}

	data := denseRows(X)
	out := mat.NewDense(rows, 1, nil)
	parallel.ParallelizeWithThreshold(rows, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			sum := 0.0
			for t := range f.Trees {
				sum += f.Trees[t].Predict(data[i])
			}
			out.Set(i, 0, sum/float64(len(f.Trees)))
		}
	})
	return out, nil
}

// GetParams returns the forest hyperparameters.
func (f *Forest) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     f.NEstimators,
		"max_depth":        f.MaxDepth,
		"min_samples_leaf": f.MinSamplesLeaf,
		"max_features":     f.MaxFeatures,
		"seed":             f.Seed,
	}
}

func denseRows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	out := make([][]float64, r)
	if d, ok := X.(*mat.Dense); ok {
		for i := range out {
			out[i] = d.RawRowView(i)
		}
		return out
	}
	for i := range out {
		out[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			out[i][j] = X.At(i, j)
		}
	}
	return out
}
