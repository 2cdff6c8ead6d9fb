package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bioclass-api/internal/service"
)

// unmatchedRoute is the path label for requests that matched no route.
const unmatchedRoute = "unmatched"

// httpObserver is the slice of MetricsService the HTTP middleware needs.
type httpObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// Metrics records one observation per request labelled by route template
// (for example /api/v1/enrollments/:id), method and status.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return observe(metricsSvc)
}

func observe(observer httpObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		observer.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
