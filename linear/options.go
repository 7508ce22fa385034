package linear

import "github.com/YuminosukeSato/auctionml/pkg/log"

// DefaultLambda is the ridge penalty used when none is configured.
const DefaultLambda = 1e-2

// Option is a function that configures Ridge
type Option func(*Ridge)

// WithLambda sets the L2 penalty. Negative values are rejected at Fit time.
func WithLambda(lambda float64) Option {
	return func(r *Ridge) {
		r.Lambda = lambda
	}
}

// WithLogger replaces the component logger
func WithLogger(logger log.Logger) Option {
	return func(r *Ridge) {
		r.logger = logger
	}
}
