// Package httpapi implements the five-route HTTP surface of spec.md §4.4,
// grounded on the teacher's app/providers/router_service_provider.go
// (cors + route registration) and app/http/controllers/*.go
// (ShouldBindJSON → validate → gin.H JSON response shape).
package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mohdas1am/maas/internal/allocator"
	"github.com/mohdas1am/maas/internal/logging"
	"github.com/mohdas1am/maas/internal/stats"
)

// Server bundles the dependencies the HTTP handlers need.
type Server struct {
	Alloc     *allocator.Allocator
	Requests  *stats.RequestCounter
	Log       *logging.Logger
	Version   string
	StartedAt time.Time
}

// NewRouter builds the gin engine with all five routes registered, plus a
// request-counting middleware backing maas_request_count.
func NewRouter(s *Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.countRequests())

	// Permissive CORS on the read-only telemetry routes only, so a
	// browser-based dashboard can scrape /stats and /metrics directly —
	// mirroring the teacher's router-level cors.New(...) but scoped down
	// from "the whole API" to the two routes that have a legitimate
	// browser consumer.
	telemetry := router.Group("/")
	telemetry.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Accept"},
	}))
	telemetry.GET("/stats", s.handleStats)
	telemetry.GET("/metrics", s.handleMetrics)

	router.GET("/health", s.handleHealth)
	router.POST("/allocate", s.handleAllocate)
	router.DELETE("/allocate/:id", s.handleDeallocate)

	return router
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.Requests.Inc()
		c.Next()
		if s.Log != nil && c.Writer.Status() >= 400 {
			s.Log.Warn("request failed", map[string]interface{}{
				"method": c.Request.Method, "path": c.Request.URL.Path, "status": c.Writer.Status(),
			})
		}
	}
}
