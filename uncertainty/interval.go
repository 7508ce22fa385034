// Package uncertainty turns training residuals into symmetric prediction intervals.
//
// The interval is homoscedastic: one residual standard deviation, estimated on
// the training rows, is applied to every prediction regardless of its inputs.
package uncertainty

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

// DefaultConfidence is the two-sided confidence used when none is configured.
const DefaultConfidence = 0.8

// Summary holds the mean and population standard deviation of residuals.
type Summary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Interval is a symmetric band around a point estimate.
type Interval struct {
	Point float64 `json:"point"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Residuals summarizes y − yHat.
func Residuals(y, yHat []float64) (Summary, error) {
	if len(y) == 0 {
		return Summary{}, errors.NewValueError("Residuals", "empty vector")
	}
	if len(yHat) != len(y) {
		return Summary{}, errors.NewDimensionError("Residuals", len(y), len(yHat), 0)
	}
	res := make([]float64, len(y))
	for i := range y {
		res[i] = y[i] - yHat[i]
	}
	mean, std := stat.PopMeanStdDev(res, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return Summary{Mean: mean, Std: std}, nil
}

// ZScore returns the standard normal quantile for a two-sided confidence level.
// ZScore(0.8) ≈ 1.2816.
func ZScore(confidence float64) (float64, error) {
	if !(confidence > 0 && confidence < 1) {
		return 0, errors.NewValueError("ZScore", "confidence must be in (0, 1)")
	}
	return distuv.UnitNormal.Quantile(0.5 + confidence/2), nil
}

// NewInterval returns point ± z·residualStd for the given confidence.
func NewInterval(point, residualStd, confidence float64) (Interval, error) {
	if residualStd < 0 || math.IsNaN(residualStd) {
		return Interval{}, errors.NewValueError("NewInterval", "residual std must be >= 0")
	}
	z, err := ZScore(confidence)
	if err != nil {
		return Interval{}, err
	}
	half := z * residualStd
	return Interval{Point: point, Lower: point - half, Upper: point + half}, nil
}
