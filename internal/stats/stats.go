// Package stats derives the two telemetry representations spec.md §4.3
// requires — JSON stats and Prometheus-exposition text — from a single
// allocator.Snapshot, so both views are guaranteed consistent with each
// other and never exceed max_pool_bytes or go negative.
package stats

import (
	"sync/atomic"

	"github.com/mohdas1am/maas/internal/allocator"
	"github.com/mohdas1am/maas/internal/wire"
)

// RequestCounter is a process-wide monotonic counter of HTTP requests
// served, exposed as maas_request_count. It is independent of the
// allocator mutex since it counts all traffic, not just allocate/free.
type RequestCounter struct {
	count int64
}

// Inc increments the counter by one.
func (c *RequestCounter) Inc() {
	atomic.AddInt64(&c.count, 1)
}

// Load returns the current count.
func (c *RequestCounter) Load() int64 {
	return atomic.LoadInt64(&c.count)
}

func utilizationPercent(used, max int64) float64 {
	if max <= 0 {
		return 0
	}
	return float64(used) / float64(max) * 100
}

// JSON builds the GET /stats response body from a Snapshot.
func JSON(snap allocator.Snapshot) wire.StatsResponse {
	pools := make([]wire.PoolStat, len(snap.Classes))
	for i, c := range snap.Classes {
		pools[i] = wire.PoolStat{
			SlabSize:           c.Width,
			TotalSlabs:         c.TotalSlabs,
			FreeSlabs:          c.FreeSlabs,
			InUseSlabs:         c.InUseSlabs,
			UtilizationPercent: utilizationPercent(c.InUseSlabs*c.Width, c.TotalSlabs*c.Width),
		}
	}

	return wire.StatsResponse{
		ActiveAllocations:   snap.ActiveAllocations,
		TotalAllocations:    snap.TotalAllocations,
		TotalAllocatedBytes: snap.TotalAllocatedBytes,
		TotalInUseBytes:     snap.TotalInUseBytes,
		MaxPoolSize:         snap.MaxPoolBytes,
		UtilizationPercent:  utilizationPercent(snap.TotalAllocatedBytes, snap.MaxPoolBytes),
		PoolStats:           pools,
	}
}
