package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

func TestBundleRoundTrip(t *testing.T) {
	rows := auctionRows(80, 21)
	trainer := NewTrainer(dataset.DiamondAuction(), testConfig())

	for _, kind := range []ModelKind{Linear, Ensemble} {
		t.Run(string(kind), func(t *testing.T) {
			art, err := trainer.Train(context.Background(), "lots", kind, rows)
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "model.gob")
			require.NoError(t, SaveBundle(art, path))
			loaded, err := LoadBundle(path)
			require.NoError(t, err)

			assert.Equal(t, kind, loaded.Kind)
			assert.Equal(t, art.Evaluation, loaded.Evaluation)
			assert.Equal(t, art.Encoder.FeatureNames(), loaded.Encoder.FeatureNames())
			require.NotNil(t, loaded.Probability)

			records := []dataset.Record{rows[0].Record(), rows[1].Record()}
			want, err := art.Predict(records)
			require.NoError(t, err)
			got, err := loaded.Predict(records)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			p, err := loaded.PredictInterval(records[0], 0.8)
			require.NoError(t, err)
			assert.Less(t, p.Lower, p.Upper)
		})
	}
}

func TestBundleArtifactRequiresModels(t *testing.T) {
	_, err := (&Bundle{}).Artifact()
	var mErr *errors.ModelError
	assert.True(t, errors.As(err, &mErr))
}
