package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/YuminosukeSato/auctionml/pkg/errors"
	"github.com/YuminosukeSato/auctionml/pkg/log"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDCtxKey = "request_id"
)

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "auctionml_http_requests_total",
	Help: "HTTP requests by route, method and status code",
}, []string{"route", "method", "code"})

func requestID(c *gin.Context) string {
	return c.GetString(requestIDCtxKey)
}

// requestContext assigns a request ID, logs the request and counts it.
func requestContext(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDCtxKey, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		logger.Debug("Request served",
			log.RequestIDKey, id,
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
}

// recovery turns handler panics into a 500 with a PanicError logged.
func recovery(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := serve(c); err != nil {
			logger.Error("Handler panicked", err, log.RequestIDKey, requestID(c), log.ErrorTypeKey, log.ErrorType(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "INTERNAL"})
		}
	}
}

func serve(c *gin.Context) (err error) {
	defer errors.Recover(&err, "api "+c.Request.Method+" "+c.FullPath())
	c.Next()
	return nil
}
