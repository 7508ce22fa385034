package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/preprocessing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	ec, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, 0.01, ec.RidgeLambda)
	assert.Equal(t, 100, ec.Trees)
	assert.Equal(t, uint64(42), ec.Seed)
	assert.Equal(t, 0.8, ec.Confidence)
	assert.Equal(t, 10, ec.Surface.MinResolution)
	assert.Equal(t, 5000, ec.Optimizer.MaxSamples)
	assert.Equal(t, "final_price", cfg.Schema().Target)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  addr: "127.0.0.1:9000"
  log_level: debug
model:
  trees: 300
  unknown_category: Reject
analysis:
  confidence: 0.95
`))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 300, cfg.Model.Trees)
	assert.Equal(t, 0.01, cfg.Model.RidgeLambda)

	ec, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, preprocessing.UnknownReject, ec.UnknownCategory)
	assert.Equal(t, 0.95, ec.Confidence)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative lambda", "model:\n  ridge_lambda: -1\n"},
		{"confidence one", "analysis:\n  confidence: 1\n"},
		{"bad policy", "model:\n  unknown_category: guess\n"},
		{"bad level", "server:\n  log_level: trace\n"},
		{"inverted resolution", "analysis:\n  surface_min_resolution: 40\n  surface_max_resolution: 20\n"},
		{"no data location", "data:\n  dir: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			var verr *errors.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestParseCustomSchema(t *testing.T) {
	cfg, err := Parse([]byte(`
data:
  dir: lots
  schema:
    numeric:
      - name: carat
      - name: depth
    categorical: [cut]
    target: price
`))
	require.NoError(t, err)
	schema := cfg.Schema()
	assert.Equal(t, []string{"carat", "depth"}, schema.NumericNames())
	assert.False(t, schema.HasCompanion())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auctionml.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  gcs_bucket: lots\n  dir: \"\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "lots", cfg.Data.GCSBucket)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
