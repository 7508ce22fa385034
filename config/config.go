// Package config loads the auctionml YAML configuration and turns it into the
// engine settings. Unset keys keep their defaults.
package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/engine"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/preprocessing"
)

// Config is the root of the YAML document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Model    ModelConfig    `yaml:"model"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// ServerConfig configures the HTTP server and logging.
type ServerConfig struct {
	Addr     string `yaml:"addr" validate:"required,hostname_port"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// DataConfig locates dataset CSV files. A GCS bucket takes precedence over Dir.
type DataConfig struct {
	Dir             string `yaml:"dir" validate:"required_without=GCSBucket"`
	GCSBucket       string `yaml:"gcs_bucket"`
	GCSPrefix       string `yaml:"gcs_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
	// Schema overrides the built-in diamond auction schema.
	Schema *dataset.Schema `yaml:"schema,omitempty"`
}

// ModelConfig holds training parameters.
type ModelConfig struct {
	RidgeLambda     float64 `yaml:"ridge_lambda" validate:"gte=0"`
	Trees           int     `yaml:"trees" validate:"gte=1,lte=5000"`
	MaxDepth        int     `yaml:"max_depth" validate:"gte=0"`
	MinSamplesLeaf  int     `yaml:"min_samples_leaf" validate:"gte=1"`
	MaxFeatures     int     `yaml:"max_features" validate:"gte=0"`
	TestFraction    float64 `yaml:"test_fraction" validate:"gte=0,lt=1"`
	Seed            uint64  `yaml:"seed"`
	UnknownCategory string  `yaml:"unknown_category" validate:"oneof=ignore reject"`
}

// AnalysisConfig holds query-time limits.
type AnalysisConfig struct {
	Confidence           float64 `yaml:"confidence" validate:"gt=0,lt=1"`
	ImportanceSamples    int     `yaml:"importance_samples" validate:"gte=1"`
	SurfaceMinResolution int     `yaml:"surface_min_resolution" validate:"gte=2"`
	SurfaceMaxResolution int     `yaml:"surface_max_resolution" validate:"gtefield=SurfaceMinResolution"`
	OptimizerMinSamples  int     `yaml:"optimizer_min_samples" validate:"gte=1"`
	OptimizerMaxSamples  int     `yaml:"optimizer_max_samples" validate:"gtefield=OptimizerMinSamples"`
}

var validate = validator.New()

// Default returns the configuration used when no file is given.
func Default() Config {
	ec := engine.DefaultConfig()
	return Config{
		Server: ServerConfig{Addr: ":8080", LogLevel: "info"},
		Data:   DataConfig{Dir: "data"},
		Model: ModelConfig{
			RidgeLambda:     ec.RidgeLambda,
			Trees:           ec.Trees,
			MaxDepth:        ec.MaxDepth,
			MinSamplesLeaf:  ec.MinSamplesLeaf,
			MaxFeatures:     ec.MaxFeatures,
			TestFraction:    ec.TestFraction,
			Seed:            ec.Seed,
			UnknownCategory: ec.UnknownCategory.String(),
		},
		Analysis: AnalysisConfig{
			Confidence:           ec.Confidence,
			ImportanceSamples:    ec.ImportanceSamples,
			SurfaceMinResolution: ec.Surface.MinResolution,
			SurfaceMaxResolution: ec.Surface.MaxResolution,
			OptimizerMinSamples:  ec.Optimizer.MinSamples,
			OptimizerMaxSamples:  ec.Optimizer.MaxSamples,
		},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	cfg.Model.UnknownCategory = strings.ToLower(strings.TrimSpace(cfg.Model.UnknownCategory))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and the optional schema override.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewValidationError(fe.Namespace(), "failed '"+fe.Tag()+"' constraint", fe.Value())
		}
		return errors.Wrap(err, "validate config")
	}
	if c.Data.Schema != nil {
		return c.Data.Schema.Validate()
	}
	return nil
}

// Schema returns the configured schema, or the diamond auction schema.
func (c Config) Schema() dataset.Schema {
	if c.Data.Schema != nil {
		return *c.Data.Schema
	}
	return dataset.DiamondAuction()
}

// Engine converts the model and analysis sections into engine settings.
func (c Config) Engine() (engine.Config, error) {
	policy, err := preprocessing.ParseUnknownCategoryPolicy(c.Model.UnknownCategory)
	if err != nil {
		return engine.Config{}, err
	}
	ec := engine.DefaultConfig()
	ec.RidgeLambda = c.Model.RidgeLambda
	ec.Trees = c.Model.Trees
	ec.MaxDepth = c.Model.MaxDepth
	ec.MinSamplesLeaf = c.Model.MinSamplesLeaf
	ec.MaxFeatures = c.Model.MaxFeatures
	ec.TestFraction = c.Model.TestFraction
	ec.Seed = c.Model.Seed
	ec.UnknownCategory = policy
	ec.Confidence = c.Analysis.Confidence
	ec.ImportanceSamples = c.Analysis.ImportanceSamples
	ec.Surface.MinResolution = c.Analysis.SurfaceMinResolution
	ec.Surface.MaxResolution = c.Analysis.SurfaceMaxResolution
	ec.Optimizer.MinSamples = c.Analysis.OptimizerMinSamples
	ec.Optimizer.MaxSamples = c.Analysis.OptimizerMaxSamples
	return ec, nil
}
