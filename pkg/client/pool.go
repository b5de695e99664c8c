package client

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mohdas1am/maas/internal/config"
	"github.com/mohdas1am/maas/internal/errs"
	"github.com/mohdas1am/maas/internal/idgen"
	"github.com/mohdas1am/maas/internal/logging"
)

// Config is the client configuration surface of spec.md §6.
type Config = config.Client

// Stats is the pool manager's aggregate view of its own behavior,
// exposed for the consumer to surface alongside the server's own
// telemetry.
type Stats struct {
	RemoteAllocations   int64
	LocalAllocations    int64
	FallbackCount       int64
	RemoteEnabled       bool
	ConsecutiveFailures int64
	LastProbeUnix       int64
}

// PoolManager is the consumer-facing allocator capability of spec.md §4.5
// / design note 9: a single allocate/free pair that transparently picks
// remote or local, so callers never know which backend served them.
type PoolManager struct {
	cfg       Config
	transport *Transport
	registry  *registry
	health    *HealthMonitor
	log       *logging.Logger

	fallbackEnabled atomic.Bool
	remoteAllocations atomic.Int64
	localAllocations  atomic.Int64
	fallbackCount     atomic.Int64
}

// NewPoolManager builds a PoolManager against cfg, starting its
// background health monitor immediately.
func NewPoolManager(ctx context.Context, cfg Config, log *logging.Logger) *PoolManager {
	if log == nil {
		log = logging.New("maas-client")
	}
	transport := NewTransport(cfg.URL, cfg.Timeout)
	health := NewHealthMonitor(transport, cfg.HealthInterval, log)
	health.Start(ctx)

	p := &PoolManager{
		cfg:       cfg,
		transport: transport,
		registry:  newRegistry(),
		health:    health,
		log:       log,
	}
	p.fallbackEnabled.Store(cfg.FallbackEnabled)
	return p
}

// AllocateBytes implements spec.md §4.5's decision rule: attempt remote
// allocation when the health monitor currently reports Connected; on any
// transport failure, fall back to a local buffer if configured to do so,
// otherwise propagate the failure.
func (p *PoolManager) AllocateBytes(ctx context.Context, n int64) ([]byte, error) {
	if n <= 0 {
		return nil, errs.New(errs.KindInvalidRequest, "size must be a positive integer")
	}

	if p.health.State() != Connected {
		return p.allocateLocalOrFail(n, nil)
	}

	resp, err := p.transport.Allocate(ctx, n)
	if err == nil {
		p.health.MarkRequestSuccess()
		p.remoteAllocations.Add(1)
		buf := make([]byte, resp.ActualSizeBytes)
		p.registry.record(buf, resp.ID, resp.ActualSizeBytes)
		return buf[:n], nil
	}

	if classified, ok := errs.As(err); ok && classified.Kind() == errs.KindDecodeFailure {
		// DecodeFailure indicates protocol skew, not transport
		// trouble — no fallback, per spec.md §7.
		return nil, err
	}

	p.health.MarkRequestFailure()
	p.fallbackCount.Add(1)
	p.log.Warn("remote allocate failed, falling back to local memory", map[string]interface{}{"error": err.Error()})
	return p.allocateLocalOrFail(n, err)
}

// allocateLocalOrFail applies the fallback gate unconditionally: whether
// the caller skipped a live remote attempt because the monitor already
// reports Disconnected, or just watched one fail, a disabled fallback
// always propagates the remote error rather than silently serving local
// memory forever (spec.md §7 "otherwise propagated"). lastErr is nil when
// no remote attempt was made this call (state was already Disconnected).
func (p *PoolManager) allocateLocalOrFail(n int64, lastErr error) ([]byte, error) {
	if !p.fallbackEnabled.Load() {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, errs.New(errs.KindTransportFailure, "remote allocation unavailable and fallback is disabled")
	}
	p.localAllocations.Add(1)
	return make([]byte, n), nil
}

// Free implements spec.md §4.5's free procedure: look up the buffer's
// base address; if found, it was a remote allocation — DELETE it. If
// absent, it was local and there is nothing to do.
func (p *PoolManager) Free(ctx context.Context, buf []byte) error {
	e, ok := p.registry.lookup(buf)
	if !ok {
		return nil
	}

	if err := p.transport.Deallocate(ctx, e.ID); err != nil {
		p.health.MarkRequestFailure()
		return err
	}
	p.registry.remove(buf)
	p.health.MarkRequestSuccess()
	return nil
}

// Cleanup implements spec.md §3/§4.5's shutdown procedure: snapshot the
// registry, release the critical section, then issue best-effort DELETEs
// for every outstanding identifier, fanned out concurrently. The first
// error is returned but every DELETE is attempted regardless.
func (p *PoolManager) Cleanup(ctx context.Context) error {
	ids := p.registry.snapshotIDs()
	if len(ids) == 0 {
		return nil
	}

	// A plain Group rather than errgroup.WithContext: one failed DELETE
	// must not cancel the others.
	var g errgroup.Group
	gctx := context.WithoutCancel(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return p.transport.Deallocate(gctx, id)
		})
	}
	return g.Wait()
}

// Stats returns the pool manager's current counters.
func (p *PoolManager) Stats() Stats {
	return Stats{
		RemoteAllocations:   p.remoteAllocations.Load(),
		LocalAllocations:    p.localAllocations.Load(),
		FallbackCount:       p.fallbackCount.Load(),
		RemoteEnabled:       p.health.State() == Connected,
		ConsecutiveFailures: p.health.ConsecutiveFailures(),
		LastProbeUnix:       p.health.LastProbeUnix(),
	}
}

// Close stops the background health monitor. Call Cleanup first if
// outstanding remote allocations should be released.
func (p *PoolManager) Close() {
	p.health.Stop()
}

// LocalSentinelID is the empty identifier spec.md §4.5 defines for local
// allocations.
const LocalSentinelID = idgen.Empty
