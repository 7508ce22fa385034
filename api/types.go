package api

import (
	"github.com/YuminosukeSato/auctionml/engine"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// PredictRequest is the body of POST /v1/datasets/:id/predict.
type PredictRequest struct {
	Model       string             `json:"model" binding:"required"`
	Numeric     map[string]float64 `json:"numeric" binding:"required"`
	Categorical map[string]string  `json:"categorical" binding:"required"`
}

// PredictResponse wraps a prediction with its identifiers.
type PredictResponse struct {
	PredictionID string           `json:"predictionId"`
	DatasetID    string           `json:"datasetId"`
	Model        engine.ModelKind `json:"model"`
	engine.Prediction
}

// FeatureWeight is one entry of a ranked importance list.
type FeatureWeight struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// ImportanceResponse lists feature weights, highest first.
type ImportanceResponse struct {
	DatasetID  string           `json:"datasetId"`
	Model      engine.ModelKind `json:"model"`
	Target     engine.Target    `json:"target"`
	Aggregated bool             `json:"aggregated"`
	Features   []FeatureWeight  `json:"features"`
}

// SurfaceRequest is the body of POST /v1/datasets/:id/surface.
type SurfaceRequest struct {
	Model      string            `json:"model" binding:"required"`
	VarX       string            `json:"var_x" binding:"required"`
	VarY       string            `json:"var_y" binding:"required"`
	Metric     string            `json:"metric"`
	Resolution int               `json:"resolution" binding:"gte=0"`
	Fixed      map[string]string `json:"fixed_categoricals"`
}

// OptimizeRequest is the body of POST /v1/datasets/:id/optimize.
type OptimizeRequest struct {
	Model             string            `json:"model" binding:"required"`
	Objective         string            `json:"objective" binding:"required"`
	NSamples          int               `json:"n_samples" binding:"gte=0"`
	Fixed             map[string]string `json:"fixed_categoricals"`
	MinProbability    float64           `json:"min_probability" binding:"gte=0"`
	TargetValue       *float64          `json:"target_value"`
	TargetProbability *float64          `json:"target_probability" binding:"omitempty,gte=0,lte=1"`
	ValueWeight       float64           `json:"value_weight" binding:"gte=0"`
	ProbabilityWeight float64           `json:"probability_weight" binding:"gte=0"`
}

// EvaluationResponse reports hold-out scores.
type EvaluationResponse struct {
	DatasetID string           `json:"datasetId"`
	Model     engine.ModelKind `json:"model"`
	engine.Evaluation
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
