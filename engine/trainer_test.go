package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/preprocessing"
)

func TestTrainLinearFitsSyntheticAuction(t *testing.T) {
	rows := auctionRows(200, 7)
	trainer := NewTrainer(dataset.DiamondAuction(), testConfig())

	art, err := trainer.Train(context.Background(), "lots", Linear, rows)
	require.NoError(t, err)

	assert.Equal(t, "lots", art.DatasetID)
	assert.Len(t, art.Rows, 200)
	assert.True(t, art.Evaluation.HoldOut)
	assert.Equal(t, 40, art.Evaluation.TestRows)
	assert.Equal(t, 160, art.Evaluation.TrainRows)
	assert.Greater(t, art.Evaluation.R2, 0.95)
	require.NotNil(t, art.Evaluation.Accuracy)
	assert.GreaterOrEqual(t, *art.Evaluation.Accuracy, 0.0)
	assert.LessOrEqual(t, *art.Evaluation.Accuracy, 1.0)

	require.NotNil(t, art.Probability)
	assert.GreaterOrEqual(t, art.Value.ResidualStd, 0.0)
	coef, ok := art.Value.Coefficients()
	require.True(t, ok)
	assert.Len(t, coef, art.Encoder.Width())

	rg := art.Ranges["carat"]
	assert.GreaterOrEqual(t, rg.Min, 0.3)
	assert.LessOrEqual(t, rg.Max, 2.5)
}

func TestTrainDropsInvalidRows(t *testing.T) {
	rows := auctionRows(50, 8)
	rows[0].Numeric["carat"] = math.NaN()
	rows[1].Categorical["color"] = ""
	trainer := NewTrainer(dataset.DiamondAuction(), testConfig())

	art, err := trainer.Train(context.Background(), "lots", Linear, rows)
	require.NoError(t, err)
	assert.Len(t, art.Rows, 48)
}

func TestTrainRejectsEmptyInput(t *testing.T) {
	trainer := NewTrainer(dataset.DiamondAuction(), testConfig())

	_, err := trainer.Train(context.Background(), "lots", Linear, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestTrainRejectsUnknownKind(t *testing.T) {
	trainer := NewTrainer(dataset.DiamondAuction(), testConfig())

	_, err := trainer.Train(context.Background(), "lots", ModelKind("svm"), auctionRows(10, 1))
	require.Error(t, err)
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	trainer := NewTrainer(dataset.DiamondAuction(), testConfig())

	_, err := trainer.Train(ctx, "lots", Linear, auctionRows(10, 1))
	assert.Error(t, err)
}

func TestTrainWithoutHoldOut(t *testing.T) {
	trainer := NewTrainer(dataset.DiamondAuction(), testConfig())

	art, err := trainer.Train(context.Background(), "lots", Linear, auctionRows(2, 5))
	require.NoError(t, err)
	assert.False(t, art.Evaluation.HoldOut)
	assert.Equal(t, 2, art.Evaluation.TrainRows)
	assert.Zero(t, art.Evaluation.TestRows)
}

func TestTrainRejectPolicyWithHeldOutOnlyLevel(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		cfg := testConfig()
		cfg.Seed = seed
		cfg.UnknownCategory = preprocessing.UnknownReject
		trainer := NewTrainer(dataset.DiamondAuction(), cfg)

		rows := auctionRows(60, seed)
		// the split depends only on the seed and row count, and rows share
		// their maps, so this puts the only "Z" lot into the hold-out
		_, test := trainer.split(rows)
		require.NotEmpty(t, test)
		test[0].Categorical["color"] = "Z"

		art, err := trainer.Train(context.Background(), "lots", Linear, rows)
		require.NoError(t, err, "seed %d", seed)
		assert.True(t, art.Evaluation.HoldOut)
		levels, _ := art.Encoder.Vocabulary("color")
		assert.Contains(t, levels, "Z")

		// a level seen nowhere is still rejected
		unseen := rows[0].Record().Clone()
		unseen.Categorical["color"] = "Q"
		_, err = art.Predict([]dataset.Record{unseen})
		var sErr *errors.SchemaError
		assert.True(t, errors.As(err, &sErr))
	}
}

func TestTrainSplitIsSeeded(t *testing.T) {
	rows := auctionRows(100, 9)
	trainer := NewTrainer(dataset.DiamondAuction(), testConfig())

	trainA, testA := trainer.split(rows)
	trainB, testB := trainer.split(rows)
	assert.Equal(t, testA, testB)
	assert.Equal(t, trainA, trainB)
	assert.Len(t, testA, 20)
}

func TestTrainEnsembleIsReproducible(t *testing.T) {
	rows := auctionRows(120, 10)
	trainer := NewTrainer(dataset.DiamondAuction(), testConfig())
	ctx := context.Background()

	a, err := trainer.Train(ctx, "lots", Ensemble, rows)
	require.NoError(t, err)
	b, err := trainer.Train(ctx, "lots", Ensemble, rows)
	require.NoError(t, err)

	queries := []dataset.Record{rows[0].Record(), rows[1].Record()}
	outA, err := a.Predict(queries)
	require.NoError(t, err)
	outB, err := b.Predict(queries)
	require.NoError(t, err)
	assert.Equal(t, outA, outB)
	assert.Greater(t, a.Evaluation.R2, 0.7)

	_, ok := a.Value.Coefficients()
	assert.False(t, ok)
}

func TestArtifactPredictClipsProbability(t *testing.T) {
	trainer := NewTrainer(dataset.DiamondAuction(), testConfig())
	art, err := trainer.Train(context.Background(), "lots", Linear, auctionRows(100, 11))
	require.NoError(t, err)

	extreme := dataset.Record{
		Numeric:     map[string]float64{"carat": 1, "viewings": 5000, "price_index": 1},
		Categorical: map[string]string{"color": "G", "clarity": "VS1"},
	}
	out, err := art.Predict([]dataset.Record{extreme})
	require.NoError(t, err)
	require.True(t, out[0].HasProbability)
	assert.Equal(t, 1.0, out[0].Probability)
}
