package client_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mohdas1am/maas/internal/allocator"
	"github.com/mohdas1am/maas/internal/httpapi"
	"github.com/mohdas1am/maas/internal/slab"
	"github.com/mohdas1am/maas/internal/stats"
	"github.com/mohdas1am/maas/pkg/client"
)

func newTestServer(t *testing.T) (*httptest.Server, *allocator.Allocator) {
	t.Helper()
	set, err := slab.NewSet([]int64{1024, 4096, 65536}, 1<<20, 0)
	require.NoError(t, err)
	alloc := allocator.New(set, nil)

	router := httpapi.NewRouter(&httpapi.Server{
		Alloc:     alloc,
		Requests:  &stats.RequestCounter{},
		Version:   httpapi.Version,
		StartedAt: time.Now(),
	})
	return httptest.NewServer(router), alloc
}

func TestAllocateBytesRemoteRoundTrip(t *testing.T) {
	server, alloc := newTestServer(t)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool := client.NewPoolManager(ctx, client.Config{
		URL:             server.URL,
		Timeout:         2 * time.Second,
		FallbackEnabled: true,
		HealthInterval:  time.Hour,
	}, nil)
	defer pool.Close()

	buf, err := pool.AllocateBytes(ctx, 500)
	require.NoError(t, err)
	require.Len(t, buf, 500)
	require.Equal(t, int64(1), alloc.Snapshot().ActiveAllocations)
	require.Equal(t, int64(1), pool.Stats().RemoteAllocations)

	require.NoError(t, pool.Free(ctx, buf))
	require.Equal(t, int64(0), alloc.Snapshot().ActiveAllocations)
}

func TestAllocateBytesFallsBackWhenServerUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool := client.NewPoolManager(ctx, client.Config{
		URL:             "http://127.0.0.1:1",
		Timeout:         200 * time.Millisecond,
		FallbackEnabled: true,
		HealthInterval:  time.Hour,
	}, nil)
	defer pool.Close()

	buf, err := pool.AllocateBytes(ctx, 1024)
	require.NoError(t, err)
	require.Len(t, buf, 1024)

	s := pool.Stats()
	require.Equal(t, int64(1), s.LocalAllocations)
	require.Equal(t, int64(1), s.FallbackCount)
	require.False(t, s.RemoteEnabled)
}

func TestAllocateBytesPropagatesFailureWhenFallbackDisabled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool := client.NewPoolManager(ctx, client.Config{
		URL:             "http://127.0.0.1:1",
		Timeout:         200 * time.Millisecond,
		FallbackEnabled: false,
		HealthInterval:  time.Hour,
	}, nil)
	defer pool.Close()

	_, err := pool.AllocateBytes(ctx, 1024)
	require.Error(t, err)
	require.Equal(t, int64(0), pool.Stats().LocalAllocations)
	require.False(t, pool.Stats().RemoteEnabled)

	// A second call with the monitor already Disconnected must still
	// propagate rather than silently serving local memory forever.
	_, err = pool.AllocateBytes(ctx, 1024)
	require.Error(t, err)
	require.Equal(t, int64(0), pool.Stats().LocalAllocations)
}

func TestFreeOfLocalBufferIsNoOp(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool := client.NewPoolManager(ctx, client.Config{
		URL:             "http://127.0.0.1:1",
		Timeout:         200 * time.Millisecond,
		FallbackEnabled: true,
		HealthInterval:  time.Hour,
	}, nil)
	defer pool.Close()

	buf, err := pool.AllocateBytes(ctx, 128)
	require.NoError(t, err)
	require.NoError(t, pool.Free(ctx, buf))
}

func TestCleanupIssuesBestEffortDeletes(t *testing.T) {
	server, alloc := newTestServer(t)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool := client.NewPoolManager(ctx, client.Config{
		URL:             server.URL,
		Timeout:         2 * time.Second,
		FallbackEnabled: true,
		HealthInterval:  time.Hour,
	}, nil)
	defer pool.Close()

	_, err := pool.AllocateBytes(ctx, 256)
	require.NoError(t, err)
	_, err = pool.AllocateBytes(ctx, 4096)
	require.NoError(t, err)
	require.Equal(t, int64(2), alloc.Snapshot().ActiveAllocations)

	require.NoError(t, pool.Cleanup(ctx))
	require.Equal(t, int64(0), alloc.Snapshot().ActiveAllocations)
}
