package engine

import (
	"github.com/YuminosukeSato/auctionml/ensemble"
	"github.com/YuminosukeSato/auctionml/explain"
	"github.com/YuminosukeSato/auctionml/linear"
	"github.com/YuminosukeSato/auctionml/optimize"
	"github.com/YuminosukeSato/auctionml/preprocessing"
	"github.com/YuminosukeSato/auctionml/surface"
	"github.com/YuminosukeSato/auctionml/uncertainty"
)

// Config holds the modeling and analysis knobs of the engine.
type Config struct {
	RidgeLambda    float64
	Trees          int
	MaxDepth       int
	MinSamplesLeaf int
	MaxFeatures    int
	// TestFraction of valid rows is held out for evaluation when the split
	// leaves at least one test row and two training rows.
	TestFraction    float64
	Seed            uint64
	UnknownCategory preprocessing.UnknownCategoryPolicy

	Confidence        float64
	ImportanceSamples int
	Surface           surface.Limits
	Optimizer         optimize.Limits
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		RidgeLambda:       linear.DefaultLambda,
		Trees:             ensemble.DefaultNEstimators,
		MinSamplesLeaf:    ensemble.DefaultMinSamplesLeaf,
		TestFraction:      0.2,
		Seed:              ensemble.DefaultSeed,
		UnknownCategory:   preprocessing.UnknownIgnore,
		Confidence:        uncertainty.DefaultConfidence,
		ImportanceSamples: explain.DefaultMaxSamples,
		Surface:           surface.Limits{MinResolution: surface.MinResolution, MaxResolution: surface.MaxResolution},
		Optimizer:         optimize.Limits{MinSamples: optimize.MinSamples, MaxSamples: optimize.MaxSamples},
	}
}
