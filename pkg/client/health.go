package client

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mohdas1am/maas/internal/logging"
)

// ConnectionState is the two-state machine of spec.md §4.6.
type ConnectionState int32

const (
	// Disconnected: probe failure or request transport failure while Connected.
	Disconnected ConnectionState = iota
	// Connected: successful probe or successful allocate.
	Connected
)

func (s ConnectionState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// HealthMonitor runs the background probe loop of spec.md §4.6: on a
// fixed interval, GET /health; flip the remote-enabled flag on state
// change and log it. It shares only the atomic remote-enabled flag with
// the request path — never a lock — so probing never serializes against
// allocation traffic (spec.md §5, §9 "Health-monitor / request
// concurrency").
//
// The ticker/select/ctx.Done loop shape is adapted from the teacher's
// app/core/queue/queue_worker.go Start loop (there polling SQS; here
// polling /health) — the AWS SQS backing itself is not carried over, only
// the loop shape (see DESIGN.md).
type HealthMonitor struct {
	transport *Transport
	interval  time.Duration
	log       *logging.Logger

	state             atomic.Int32
	consecutiveFailures atomic.Int64
	lastProbeUnix     atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHealthMonitor builds a monitor, starting Connected (see below).
func NewHealthMonitor(transport *Transport, interval time.Duration, log *logging.Logger) *HealthMonitor {
	m := &HealthMonitor{transport: transport, interval: interval, log: log, done: make(chan struct{})}
	// The remote-enabled flag starts Connected: spec.md §4.5 sets it
	// "initially from configuration" (a URL was configured, so remote
	// use is assumed viable until a probe or request proves otherwise).
	m.state.Store(int32(Connected))
	return m
}

// State returns the monitor's current view of connectivity. Reads are
// lock-free and may be briefly stale, which spec.md §5 accepts ("a stray
// attempt will fail and fall back").
func (m *HealthMonitor) State() ConnectionState {
	return ConnectionState(m.state.Load())
}

// MarkRequestFailure flips the state to Disconnected immediately, with no
// hysteresis, per spec.md §4.6's state table ("Request-driven failures
// flip the flag immediately").
func (m *HealthMonitor) MarkRequestFailure() {
	if m.state.Swap(int32(Disconnected)) == int32(Connected) {
		m.log.Warn("remote allocation disabled after a request failure", nil)
	}
}

// MarkRequestSuccess flips the state to Connected, matching the "enter on
// successful allocate" transition in spec.md §4.6's table.
func (m *HealthMonitor) MarkRequestSuccess() {
	m.state.Store(int32(Connected))
}

// Start launches the background probe loop. Cancel ctx or call Stop to
// end it.
func (m *HealthMonitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.probe(ctx)
			}
		}
	}()
}

func (m *HealthMonitor) probe(ctx context.Context) {
	_, err := m.transport.Health(ctx)
	m.lastProbeUnix.Store(time.Now().Unix())

	if err != nil {
		m.consecutiveFailures.Add(1)
		if m.state.Swap(int32(Disconnected)) == int32(Connected) {
			m.log.Warn("health probe failed, remote allocation disabled", map[string]interface{}{"error": err.Error()})
		}
		return
	}

	m.consecutiveFailures.Store(0)
	if m.state.Swap(int32(Connected)) == int32(Disconnected) {
		m.log.Info("health probe succeeded, remote allocation re-enabled", nil)
	}
}

// Stop ends the probe loop and waits for it to exit.
func (m *HealthMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}

// ConsecutiveFailures returns the number of consecutive failed probes.
func (m *HealthMonitor) ConsecutiveFailures() int64 {
	return m.consecutiveFailures.Load()
}

// LastProbeUnix returns the Unix timestamp of the most recent background
// probe, or 0 if none has run yet.
func (m *HealthMonitor) LastProbeUnix() int64 {
	return m.lastProbeUnix.Load()
}
