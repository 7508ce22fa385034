package linear

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/auctionml/core/model"
	"github.com/YuminosukeSato/auctionml/core/parallel"
	"github.com/YuminosukeSato/auctionml/linalg"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/pkg/log"
)

// ModelType は ModelWeights に記録されるモデル種別
const ModelType = "Ridge"

// FitRidge は ‖y − Xβ‖² + λ‖β‖² を閉形式で最小化する係数を返す
//
// 正規方程式 (XᵗX + λI)β = Xᵗy を組み立て、linalg.Solve で解く。
// 切片列はエンコーダが X に含めるため、切片も他の列と同様に正則化される。
// 同じ X, y, λ に対して結果は決定的。
func FitRidge(X mat.Matrix, y mat.Vector, lambda float64) ([]float64, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("FitRidge", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != r {
		return nil, errors.NewDimensionError("FitRidge", r, y.Len(), 0)
	}
	if lambda < 0 || math.IsNaN(lambda) {
		return nil, errors.NewValidationError("lambda", "must be >= 0", lambda)
	}

	XT := linalg.Transpose(X)
	XTX, err := linalg.Mul(XT, X)
	if err != nil {
		return nil, err
	}
	for i := 0; i < c; i++ {
		XTX.Set(i, i, XTX.At(i, i)+lambda)
	}

	XTy, err := linalg.MulVec(XT, y)
	if err != nil {
		return nil, err
	}

	beta, err := linalg.Solve(XTX, XTy)
	if err != nil {
		return nil, errors.NewModelError("FitRidge", "solve failed", err)
	}
	coef := make([]float64, c)
	copy(coef, beta.RawVector().Data)
	if err := errors.CheckNumericalStability("FitRidge", coef); err != nil {
		return nil, err
	}
	return coef, nil
}

// Ridge はエンコード済み特徴行列上のリッジ回帰モデル
type Ridge struct {
	model.BaseEstimator
	Lambda float64   // L2 正則化係数
	Coef   []float64 // 切片列を含む係数

	logger log.Logger
}

// NewRidge は新しいリッジ回帰モデルを作成する
//
// 使用例:
//
//	r := linear.NewRidge(linear.WithLambda(0.1))
//	err := r.Fit(X, y)
//	yPred, err := r.Predict(X)
func NewRidge(opts ...Option) *Ridge {
	r := &Ridge{Lambda: DefaultLambda}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Ridge) log() log.Logger {
	if r.logger == nil {
		r.logger = log.GetLoggerWithName("linear").With(log.ModelNameKey, ModelType)
	}
	return r.logger
}

// Fit はモデルを訓練データで学習させる
func (r *Ridge) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	ry, cy := y.Dims()
	if ry != rows {
		return errors.NewDimensionError("Ridge.Fit", rows, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("Ridge.Fit", "y must be a column vector")
	}

	start := time.Now()
	r.log().Debug("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.RegularizationKey, r.Lambda,
	)

	yVec := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	coef, err := FitRidge(X, yVec, r.Lambda)
	if err != nil {
		r.log().Error("Training failed", err, log.OperationKey, log.OperationFit, log.ErrorTypeKey, log.ErrorType(err))
		return err
	}

	r.Coef = coef
	r.SetFitted(cols)

	r.log().Debug("Training completed",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		"coef_norm", floats.Norm(coef, 2),
	)
	return nil
}

// Predict は Xβ を (n × 1) の行列で返す
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("Ridge", "Predict")
	}
	rows, cols := X.Dims()
	if cols != r.NFeatures {
		return nil, errors.NewDimensionError("Ridge.Predict", r.NFeatures, cols, 1)
	}

	predictions := mat.NewDense(rows, 1, nil)
	parallel.ParallelizeWithThreshold(rows, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			sum := 0.0
			for j := 0; j < cols; j++ {
				sum += X.At(i, j) * r.Coef[j]
			}
			predictions.Set(i, 0, sum)
		}
	})
	return predictions, nil
}

// Coefficients は学習された係数のコピーを返す
func (r *Ridge) Coefficients() []float64 {
	if r.Coef == nil {
		return nil
	}
	out := make([]float64, len(r.Coef))
	copy(out, r.Coef)
	return out
}

// GetParams はハイパーパラメータを返す
func (r *Ridge) GetParams() map[string]interface{} {
	return map[string]interface{}{"lambda": r.Lambda}
}

// ExportWeights は係数を特徴量名と対にして ModelWeights に書き出す
func (r *Ridge) ExportWeights(features []string) (*model.ModelWeights, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("Ridge", "ExportWeights")
	}
	if len(features) != len(r.Coef) {
		return nil, errors.NewDimensionError("Ridge.ExportWeights", len(r.Coef), len(features), 1)
	}
	w := &model.ModelWeights{
		ModelType:       ModelType,
		Version:         "1.0",
		Coefficients:    r.Coefficients(),
		Features:        append([]string(nil), features...),
		Hyperparameters: r.GetParams(),
		IsFitted:        true,
	}
	return w, w.Validate()
}

// ImportWeights は ExportWeights の出力からモデルを復元する
func (r *Ridge) ImportWeights(w *model.ModelWeights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ModelType != ModelType {
		return errors.NewValidationError("model_type", "expected "+ModelType, w.ModelType)
	}
	if lambda, ok := w.Hyperparameters["lambda"].(float64); ok {
		r.Lambda = lambda
	}
	r.Coef = append([]float64(nil), w.Coefficients...)
	r.SetFitted(len(r.Coef))
	return nil
}
