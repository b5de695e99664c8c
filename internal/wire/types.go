// Package wire holds the JSON request/response shapes shared by the server's
// HTTP handlers and the client's transport, per spec.md §6.
package wire

// AllocateRequest is the POST /allocate request body.
type AllocateRequest struct {
	SizeBytes int64 `json:"size_bytes" binding:"gte=0"`
}

// AllocateResponse is the POST /allocate response body.
type AllocateResponse struct {
	ID              string  `json:"id"`
	SizeBytes       int64   `json:"size_bytes"`
	ActualSizeBytes int64   `json:"actual_size_bytes"`
	SizeMB          float64 `json:"size_mb"`
	AgeSeconds      int64   `json:"age_seconds"`
}

// ErrorResponse is the body returned on any non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// BackendConnection is the optional block on HealthResponse describing the
// server's own view of its readiness, populated per SPEC_FULL.md §12.
type BackendConnection struct {
	Status           string `json:"status"`
	ActiveAllocations int64  `json:"active_allocations"`
}

// MemorySummary is the memory block on HealthResponse.
type MemorySummary struct {
	TotalAllocatedBytes int64   `json:"total_allocated_bytes"`
	MaxPoolBytes        int64   `json:"max_pool_size"`
	UtilizationPercent  float64 `json:"utilization_percent"`
}

// HealthResponse is the GET /health response body.
type HealthResponse struct {
	Status            string             `json:"status"`
	Version           string             `json:"version"`
	Timestamp         int64              `json:"timestamp"`
	Memory            MemorySummary      `json:"memory"`
	BackendConnection *BackendConnection `json:"backend_connection,omitempty"`
}

// PoolStat is one entry of StatsResponse.PoolStats.
type PoolStat struct {
	SlabSize           int64   `json:"slab_size"`
	TotalSlabs         int64   `json:"total_slabs"`
	FreeSlabs          int64   `json:"free_slabs"`
	InUseSlabs         int64   `json:"in_use_slabs"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// StatsResponse is the GET /stats response body.
type StatsResponse struct {
	ActiveAllocations   int64      `json:"active_allocations"`
	TotalAllocations    int64      `json:"total_allocations"`
	TotalAllocatedBytes int64      `json:"total_allocated_bytes"`
	TotalInUseBytes     int64      `json:"total_in_use_bytes"`
	MaxPoolSize         int64      `json:"max_pool_size"`
	UtilizationPercent  float64    `json:"utilization_percent"`
	PoolStats           []PoolStat `json:"pool_stats"`
}
