package allocator_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mohdas1am/maas/internal/allocator"
	"github.com/mohdas1am/maas/internal/errs"
	"github.com/mohdas1am/maas/internal/slab"
)

func newAllocator(t *testing.T) *allocator.Allocator {
	t.Helper()
	set, err := slab.NewSet([]int64{1024, 4096, 65536}, 1<<20, 0)
	require.NoError(t, err)
	return allocator.New(set, nil)
}

func TestAllocateRoutesToSmallestFittingClass(t *testing.T) {
	a := newAllocator(t)

	r1, err := a.Allocate(500)
	require.NoError(t, err)
	require.Equal(t, int64(1024), r1.ActualBytes)

	snap := a.Snapshot()
	require.Equal(t, int64(1), snap.ActiveAllocations)
}

func TestAllocateZeroBytesIsInvalidRequest(t *testing.T) {
	a := newAllocator(t)
	_, err := a.Allocate(0)
	classified, ok := errs.As(err)
	require.True(t, ok)
	require.Equal(t, errs.KindInvalidRequest, classified.Kind())
}

func TestAllocateTooLarge(t *testing.T) {
	a := newAllocator(t)
	_, err := a.Allocate(70000)
	classified, ok := errs.As(err)
	require.True(t, ok)
	require.Equal(t, errs.KindRequestTooLarge, classified.Kind())
}

func TestDeallocateUnknownID(t *testing.T) {
	a := newAllocator(t)
	err := a.Deallocate("does-not-exist")
	classified, ok := errs.As(err)
	require.True(t, ok)
	require.Equal(t, errs.KindUnknownAllocation, classified.Kind())
}

func TestRoundTripRestoresCountersExceptTotalAllocations(t *testing.T) {
	a := newAllocator(t)

	before := a.Snapshot()
	result, err := a.Allocate(800)
	require.NoError(t, err)
	require.NoError(t, a.Deallocate(result.ID))
	after := a.Snapshot()

	require.Equal(t, before.ActiveAllocations, after.ActiveAllocations)
	require.Equal(t, before.TotalInUseBytes, after.TotalInUseBytes)
	require.Equal(t, before.TotalAllocations+1, after.TotalAllocations)
	require.Equal(t, before.SlabReuseTotal, after.SlabReuseTotal) // first allocation in class: no reuse
}

func TestFreeThenReallocateReusesSlab(t *testing.T) {
	a := newAllocator(t)

	first, err := a.Allocate(500)
	require.NoError(t, err)
	require.NoError(t, a.Deallocate(first.ID))

	before := a.Snapshot().SlabReuseTotal
	second, err := a.Allocate(800)
	require.NoError(t, err)
	require.Equal(t, first.ActualBytes, second.ActualBytes)
	require.Equal(t, before+1, a.Snapshot().SlabReuseTotal)
}

func TestPoolExhaustionScenario(t *testing.T) {
	// Spec scenario 4: max_pool=1,048,576, classes=[1024,4096,65536]. After
	// a 500-byte and a 4096-byte allocation, 17 sequential 65536-byte
	// requests: first 15 succeed, the 16th fails with PoolExhausted.
	a := newAllocator(t)
	_, err := a.Allocate(500)
	require.NoError(t, err)
	_, err = a.Allocate(4096)
	require.NoError(t, err)

	successes := 0
	var lastErr error
	for i := 0; i < 17; i++ {
		_, err := a.Allocate(65536)
		if err != nil {
			lastErr = err
			continue
		}
		successes++
	}

	require.Equal(t, 15, successes)
	classified, ok := errs.As(lastErr)
	require.True(t, ok)
	require.Equal(t, errs.KindPoolExhausted, classified.Kind())

	snap := a.Snapshot()
	require.LessOrEqual(t, snap.TotalAllocatedBytes, snap.MaxPoolBytes)
}

func TestConcurrentAllocationsNeverExceedCeiling(t *testing.T) {
	a := newAllocator(t)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.Allocate(65536)
		}()
	}
	wg.Wait()

	snap := a.Snapshot()
	require.LessOrEqual(t, snap.TotalAllocatedBytes, snap.MaxPoolBytes)
	require.Equal(t, int(snap.ActiveAllocations), a.RegistrySize())

	var inUseFromClasses int64
	for _, c := range snap.Classes {
		inUseFromClasses += c.InUseSlabs * c.Width
	}
	require.Equal(t, snap.TotalInUseBytes, inUseFromClasses)
}
