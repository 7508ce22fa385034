package ensemble

import "github.com/YuminosukeSato/auctionml/pkg/log"

// Default hyperparameters.
const (
	DefaultNEstimators    = 100
	DefaultMinSamplesLeaf = 1
	DefaultSeed           = 42
)

// Option configures a Forest.
type Option func(*Forest)

// WithNEstimators sets the number of bagged trees.
func WithNEstimators(n int) Option {
	return func(f *Forest) {
		f.NEstimators = n
	}
}

// WithMaxDepth limits tree depth. Zero means unlimited.
func WithMaxDepth(depth int) Option {
	return func(f *Forest) {
		f.MaxDepth = depth
	}
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(f *Forest) {
		f.MinSamplesLeaf = n
	}
}

// WithMaxFeatures sets how many features each split considers.
// Zero or a value at least the feature count means all features.
func WithMaxFeatures(n int) Option {
	return func(f *Forest) {
		f.MaxFeatures = n
	}
}

// WithSeed sets the seed from which every tree derives its random source.
func WithSeed(seed uint64) Option {
	return func(f *Forest) {
		f.Seed = seed
	}
}

// WithLogger replaces the component logger.
func WithLogger(logger log.Logger) Option {
	return func(f *Forest) {
		f.logger = logger
	}
}
