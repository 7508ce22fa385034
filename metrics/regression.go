// Package metrics scores regression and probability predictions.
package metrics

import (
	"math"

	"github.com/YuminosukeSato/auctionml/pkg/errors"
)

// RegressionScore は R² と MAE の組
type RegressionScore struct {
	R2  float64 `json:"r2"`
	MAE float64 `json:"mae"`
}

func checkLengths(op string, yTrue, yPred []float64) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if len(yPred) != len(yTrue) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}

// R2AndMAE は決定係数と平均絶対誤差を同時に計算する
// yTrue が定数（全変動が0）の場合、R² はゼロ除算を避けて 0 を返す
func R2AndMAE(yTrue, yPred []float64) (RegressionScore, error) {
	if err := checkLengths("R2AndMAE", yTrue, yPred); err != nil {
		return RegressionScore{}, err
	}
	n := float64(len(yTrue))

	var yMean float64
	for _, v := range yTrue {
		yMean += v
	}
	yMean /= n

	var tss, rss, abs float64
	for i, v := range yTrue {
		diff := v - yPred[i]
		tss += (v - yMean) * (v - yMean)
		rss += diff * diff
		abs += math.Abs(diff)
	}

	score := RegressionScore{MAE: abs / n}
	if tss != 0 {
		score.R2 = 1 - rss/tss
	}
	return score, nil
}

// Accuracy は予測確率を threshold で二値化し、正解（≥0.5 を 1 とみなす）との一致率を返す
func Accuracy(yTrue, yProb []float64, threshold float64) (float64, error) {
	if err := checkLengths("Accuracy", yTrue, yProb); err != nil {
		return 0, err
	}
	correct := 0
	for i, v := range yTrue {
		truth := v >= 0.5
		pred := yProb[i] >= threshold
		if truth == pred {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// MeanSquaredError はスライス上の平均二乗誤差を計算する
func MeanSquaredError(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths("MeanSquaredError", yTrue, yPred); err != nil {
		return 0, err
	}
	var sum float64
	for i, v := range yTrue {
		diff := v - yPred[i]
		sum += diff * diff
	}
	return sum / float64(len(yTrue)), nil
}
