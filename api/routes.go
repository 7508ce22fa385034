// Package api exposes the prediction engine over HTTP with gin.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YuminosukeSato/auctionml/engine"
	"github.com/YuminosukeSato/auctionml/pkg/log"
)

// RegisterRoutes mounts the dataset endpoints on rg.
//
//	v1 := router.Group("/v1")
//	api.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	datasets := rg.Group("/datasets/:id")
	{
		datasets.POST("/predict", h.HandlePredict)
		datasets.GET("/importance", h.HandleImportance)
		datasets.POST("/surface", h.HandleSurface)
		datasets.POST("/optimize", h.HandleOptimize)
		datasets.GET("/evaluation", h.HandleEvaluation)
		datasets.DELETE("/models", h.HandleInvalidate)
	}
}

// NewRouter builds the full router: health, Prometheus metrics and /v1.
func NewRouter(svc *engine.Service) *gin.Engine {
	logger := log.GetLoggerWithName("api")
	router := gin.New()
	router.Use(requestContext(logger), recovery(logger))

	h := NewHandlers(svc)
	router.GET("/health", h.HandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	RegisterRoutes(router.Group("/v1"), h)
	return router
}
