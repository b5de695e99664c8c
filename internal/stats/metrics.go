package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mohdas1am/maas/internal/allocator"
)

// MetricsText renders the Prometheus-exposition-format text of spec.md
// §4.3/§6. Exact metric names are part of the external contract and must
// not change: maas_active_allocations, maas_allocation_size_bytes,
// maas_pool_size_bytes{size="..."}, maas_utilization_percent,
// maas_request_count, maas_slab_reuse_total.
//
// No pack repo vendors github.com/prometheus/client_golang (it appears in
// no example's go.mod), so this formatter is hand-written fmt-based rather
// than built atop an unseen metrics library — see DESIGN.md.
func MetricsText(snap allocator.Snapshot, requestCount int64) string {
	var b strings.Builder

	writeGauge := func(name, help string, value interface{}) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s gauge\n%s %v\n", name, help, name, name, value)
	}
	writeCounter := func(name, help string, value interface{}) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s counter\n%s %v\n", name, help, name, name, value)
	}

	writeGauge("maas_active_allocations", "Number of allocations currently outstanding.", snap.ActiveAllocations)
	writeGauge("maas_allocation_size_bytes", "Total bytes currently held across outstanding allocations.", snap.TotalInUseBytes)
	writeGauge("maas_utilization_percent", "Percentage of the pool byte ceiling currently allocated.", utilizationPercent(snap.TotalAllocatedBytes, snap.MaxPoolBytes))
	writeCounter("maas_request_count", "Total HTTP requests served.", requestCount)
	writeCounter("maas_slab_reuse_total", "Total number of allocations satisfied by reusing a freed slab.", snap.SlabReuseTotal)

	fmt.Fprintf(&b, "# HELP maas_pool_size_bytes Total bytes held by each size class (in-use + free).\n# TYPE maas_pool_size_bytes gauge\n")
	for _, c := range snap.Classes {
		fmt.Fprintf(&b, "maas_pool_size_bytes{size=\"%s\"} %d\n", strconv.FormatInt(c.Width, 10), c.TotalSlabs*c.Width)
	}

	return b.String()
}
