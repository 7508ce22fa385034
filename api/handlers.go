package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/YuminosukeSato/auctionml/dataset"
	"github.com/YuminosukeSato/auctionml/engine"
	"github.com/YuminosukeSato/auctionml/optimize"
	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/pkg/log"
	"github.com/YuminosukeSato/auctionml/surface"
)

// Handlers serves the engine over HTTP.
type Handlers struct {
	svc    *engine.Service
	logger log.Logger
}

// NewHandlers creates handlers for svc.
func NewHandlers(svc *engine.Service) *Handlers {
	return &Handlers{svc: svc, logger: log.GetLoggerWithName("api")}
}

// writeError maps input errors to 400, unknown datasets to 404 and anything
// else to 500.
func (h *Handlers) writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.IsInputError(err):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, errors.ErrDatasetNotFound):
		status, code = http.StatusNotFound, "DATASET_NOT_FOUND"
	}
	logger := h.logger.With(log.RequestIDKey, requestID(c), log.DatasetIDKey, c.Param("id"))
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", err, log.ErrorTypeKey, log.ErrorType(err))
	} else {
		logger.Warn("Request rejected", "status", status, log.ErrAttrKey, err.Error())
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func (h *Handlers) bindError(c *gin.Context, err error) {
	h.logger.Warn("Invalid request body", log.RequestIDKey, requestID(c), log.ErrAttrKey, err.Error())
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
}

func modelFromQuery(c *gin.Context) (engine.ModelKind, error) {
	return engine.ParseModelKind(c.Query("model"))
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// HandlePredict handles POST /v1/datasets/:id/predict.
func (h *Handlers) HandlePredict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	kind, err := engine.ParseModelKind(req.Model)
	if err != nil {
		h.writeError(c, err)
		return
	}
	id := c.Param("id")
	pred, err := h.svc.Predict(c.Request.Context(), id, kind, dataset.Record{
		Numeric:     req.Numeric,
		Categorical: req.Categorical,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PredictResponse{
		PredictionID: uuid.NewString(),
		DatasetID:    id,
		Model:        kind,
		Prediction:   pred,
	})
}

// HandleImportance handles GET /v1/datasets/:id/importance?model=&target=&aggregate=.
func (h *Handlers) HandleImportance(c *gin.Context) {
	kind, err := modelFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	target, err := engine.ParseTarget(c.Query("target"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	aggregate := c.Query("aggregate") == "true"
	id := c.Param("id")
	imp, err := h.svc.Importance(c.Request.Context(), id, kind, target, aggregate)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := ImportanceResponse{DatasetID: id, Model: kind, Target: target, Aggregated: aggregate}
	for _, name := range imp.Ranked() {
		resp.Features = append(resp.Features, FeatureWeight{Feature: name, Weight: imp[name]})
	}
	c.JSON(http.StatusOK, resp)
}

// HandleSurface handles POST /v1/datasets/:id/surface.
func (h *Handlers) HandleSurface(c *gin.Context) {
	var req SurfaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	kind, err := engine.ParseModelKind(req.Model)
	if err != nil {
		h.writeError(c, err)
		return
	}
	metric := surface.MetricValue
	if req.Metric != "" {
		if metric, err = surface.ParseMetric(req.Metric); err != nil {
			h.writeError(c, err)
			return
		}
	}
	grid, err := h.svc.Surface(c.Request.Context(), c.Param("id"), kind, surface.Request{
		VarX:       req.VarX,
		VarY:       req.VarY,
		Metric:     metric,
		Resolution: req.Resolution,
		Fixed:      req.Fixed,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

// HandleOptimize handles POST /v1/datasets/:id/optimize. An infeasible
// search is a 200 with feasible set to false.
func (h *Handlers) HandleOptimize(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	kind, err := engine.ParseModelKind(req.Model)
	if err != nil {
		h.writeError(c, err)
		return
	}
	objective, err := optimize.ParseObjective(req.Objective)
	if err != nil {
		h.writeError(c, err)
		return
	}
	res, err := h.svc.Optimize(c.Request.Context(), c.Param("id"), kind, optimize.Request{
		Objective:         objective,
		NSamples:          req.NSamples,
		Fixed:             req.Fixed,
		MinProbability:    req.MinProbability,
		TargetValue:       req.TargetValue,
		TargetProbability: req.TargetProbability,
		ValueWeight:       req.ValueWeight,
		ProbabilityWeight: req.ProbabilityWeight,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleEvaluation handles GET /v1/datasets/:id/evaluation?model=.
func (h *Handlers) HandleEvaluation(c *gin.Context) {
	kind, err := modelFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	id := c.Param("id")
	ev, err := h.svc.Evaluate(c.Request.Context(), id, kind)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, EvaluationResponse{DatasetID: id, Model: kind, Evaluation: ev})
}

// HandleInvalidate handles DELETE /v1/datasets/:id/models.
func (h *Handlers) HandleInvalidate(c *gin.Context) {
	h.svc.Invalidate(c.Param("id"))
	c.Status(http.StatusNoContent)
}
