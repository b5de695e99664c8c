package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohdas1am/maas/internal/errs"
	"github.com/mohdas1am/maas/internal/stats"
	"github.com/mohdas1am/maas/internal/wire"
)

// Version is the MAS protocol/build version reported on /health.
const Version = "1.0.0"

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.Alloc.Snapshot()
	c.JSON(http.StatusOK, wire.HealthResponse{
		Status:    "healthy",
		Version:   s.Version,
		Timestamp: time.Now().Unix(),
		Memory: wire.MemorySummary{
			TotalAllocatedBytes: snap.TotalAllocatedBytes,
			MaxPoolBytes:        snap.MaxPoolBytes,
			UtilizationPercent:  percent(snap.TotalAllocatedBytes, snap.MaxPoolBytes),
		},
		BackendConnection: &wire.BackendConnection{
			Status:            "connected",
			ActiveAllocations: snap.ActiveAllocations,
		},
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, stats.JSON(s.Alloc.Snapshot()))
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.String(http.StatusOK, stats.MetricsText(s.Alloc.Snapshot(), s.Requests.Load()))
}

func (s *Server) handleAllocate(c *gin.Context) {
	var req wire.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errs.New(errs.KindInvalidRequest, "request body must be valid JSON with an integer size_bytes field"))
		return
	}

	if err := validateAllocateInput(AllocateInput{SizeBytes: req.SizeBytes}); err != nil {
		s.writeError(c, errs.New(errs.KindInvalidRequest, "size_bytes must be non-negative"))
		return
	}

	result, err := s.Alloc.Allocate(req.SizeBytes)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, wire.AllocateResponse{
		ID:              result.ID,
		SizeBytes:       result.RequestedBytes,
		ActualSizeBytes: result.ActualBytes,
		SizeMB:          float64(result.RequestedBytes) / (1 << 20),
		AgeSeconds:      0,
	})
}

func (s *Server) handleDeallocate(c *gin.Context) {
	id := c.Param("id")
	if err := s.Alloc.Deallocate(id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// writeError maps a classified error to its HTTP status and JSON body. Any
// error that didn't originate from allocator/validation is an internal
// error — the request is rejected without having mutated any state
// (spec.md §7).
func (s *Server) writeError(c *gin.Context, err error) {
	kind := errs.KindInternalError
	if classified, ok := errs.As(err); ok {
		kind = classified.Kind()
	}
	c.JSON(errs.HTTPStatus(kind), wire.ErrorResponse{Error: err.Error(), Kind: kind.String()})
}

func percent(used, max int64) float64 {
	if max <= 0 {
		return 0
	}
	return float64(used) / float64(max) * 100
}
