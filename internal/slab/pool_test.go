package slab_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mohdas1am/maas/internal/slab"
)

func newTestSet(t *testing.T) *slab.Set {
	t.Helper()
	set, err := slab.NewSet([]int64{1024, 4096, 65536}, 1<<20, 0)
	require.NoError(t, err)
	return set
}

func TestRouteClassSmallestFit(t *testing.T) {
	set := newTestSet(t)

	cases := []struct {
		n     int64
		width int64
	}{
		{1, 1024},
		{500, 1024},
		{1024, 1024}, // exact match routes to that class, not the next larger
		{1025, 4096},
		{65536, 65536},
	}
	for _, c := range cases {
		class, err := set.RouteClass(c.n)
		require.NoError(t, err)
		require.Equal(t, c.width, set.Width(class))
	}
}

func TestRouteClassTooLarge(t *testing.T) {
	set := newTestSet(t)
	_, err := set.RouteClass(70000)
	require.ErrorIs(t, err, slab.ErrNoClassFits)
}

func TestAcquireReleaseReuse(t *testing.T) {
	set := newTestSet(t)
	class, err := set.RouteClass(500)
	require.NoError(t, err)

	s1, reused, err := set.Acquire(class)
	require.NoError(t, err)
	require.False(t, reused)

	set.Release(s1)
	total, free, inUse := set.ClassCounts(class)
	require.Equal(t, int64(1), total)
	require.Equal(t, int64(1), free)
	require.Equal(t, int64(0), inUse)

	s2, reused, err := set.Acquire(class)
	require.NoError(t, err)
	require.True(t, reused)
	require.Same(t, s1, s2)

	total, free, inUse = set.ClassCounts(class)
	require.Equal(t, int64(1), total) // total_count is non-decreasing and doesn't grow on reuse
	require.Equal(t, int64(0), free)
	require.Equal(t, int64(1), inUse)
}

func TestReleaseZeroesSlab(t *testing.T) {
	set := newTestSet(t)
	class, err := set.RouteClass(10)
	require.NoError(t, err)

	s, _, err := set.Acquire(class)
	require.NoError(t, err)
	for i := range s.Buffer {
		s.Buffer[i] = 0xFF
	}

	set.Release(s)
	for _, b := range s.Buffer {
		require.Zero(t, b)
	}
}

func TestCeilingEnforcedUnderConcurrency(t *testing.T) {
	// max=1,048,576 with classes 1024/4096/65536: 15 x 65536 + 1024 + 4096
	// = 988,160 <= ceiling, so priming two smaller allocations then firing
	// 17 concurrent 65536-byte requests leaves exactly 15 succeeding
	// (spec.md §8 scenario 4).
	set := newTestSet(t)

	c1024, _ := set.RouteClass(500)
	c4096, _ := set.RouteClass(4096)
	_, _, err := set.Acquire(c1024)
	require.NoError(t, err)
	_, _, err = set.Acquire(c4096)
	require.NoError(t, err)

	class65536, err := set.RouteClass(65536)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes, failures int

	for i := 0; i < 17; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := set.Acquire(class65536)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
			} else {
				successes++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 15, successes)
	require.Equal(t, 2, failures)
	require.LessOrEqual(t, set.TotalBytes(), set.MaxPoolBytes())
}

func TestNewSetRejectsDuplicateAndInvalidWidths(t *testing.T) {
	_, err := slab.NewSet([]int64{1024, 1024}, 1<<20, 0)
	require.Error(t, err)

	_, err = slab.NewSet([]int64{0}, 1<<20, 0)
	require.Error(t, err)

	_, err = slab.NewSet(nil, 1<<20, 0)
	require.Error(t, err)
}

func TestNewSetPreallocatesInitialSlabsPerClass(t *testing.T) {
	set, err := slab.NewSet([]int64{1024, 4096}, 1<<20, 3)
	require.NoError(t, err)

	for _, class := range []int{0, 1} {
		total, free, inUse := set.ClassCounts(class)
		require.Equal(t, int64(3), total)
		require.Equal(t, int64(3), free)
		require.Equal(t, int64(0), inUse)
	}

	// Acquiring up to the preallocated count must reuse, not mint fresh slabs.
	s, reused, err := set.Acquire(0)
	require.NoError(t, err)
	require.True(t, reused)
	require.Zero(t, s.Buffer[0])

	require.Equal(t, int64(3*1024+3*4096), set.TotalBytes())
}

func TestNewSetRejectsPreallocationOverCeiling(t *testing.T) {
	_, err := slab.NewSet([]int64{1024, 4096}, 4096, 2)
	require.Error(t, err)
}
