package lapper

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iv(start, stop uint32, val int32) Interval[uint32] {
	return Interval[uint32]{Start: start, Stop: stop, Val: val}
}

func TestNew_Empty(t *testing.T) {
	l, err := New[uint32](nil)
	require.ErrorIs(t, err, ErrNoIntervals)
	assert.Nil(t, l, "no partial index on error")
}

func TestNew_SortsAndDerives(t *testing.T) {
	l, err := New([]Interval[uint32]{
		iv(30, 40, 3),
		iv(10, 20, 1),
		iv(10, 15, 0),
		iv(50, 90, 4),
		iv(15, 25, 2),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, l.Len())
	assert.Equal(t, []uint32{10, 10, 15, 30, 50}, l.Starts(), "sorted by (start, stop)")
	assert.Equal(t, []uint32{15, 20, 25, 40, 90}, l.Stops(), "same permutation as starts")
	assert.Equal(t, []int32{0, 1, 2, 3, 4}, l.Vals())
	assert.Equal(t, []uint32{15, 20, 25, 40, 90}, l.StopsSorted())
	assert.Equal(t, uint32(40), l.MaxLen())
}

func TestNew_StopsSortedIndependent(t *testing.T) {
	// Nested intervals break the positional relationship between starts
	// and stops: the sorted stops must reorder on their own.
	l, err := New([]Interval[uint32]{
		iv(0, 100, 0),
		iv(10, 20, 1),
		iv(30, 40, 2),
	})
	require.NoError(t, err)

	assert.Equal(t, []uint32{100, 20, 40}, l.Stops())
	assert.Equal(t, []uint32{20, 40, 100}, l.StopsSorted())
}

func TestCount_Scenarios(t *testing.T) {
	t.Run("three disjoint", func(t *testing.T) {
		l, err := New([]Interval[uint32]{iv(5, 10, 0), iv(15, 20, 0), iv(25, 30, 0)})
		require.NoError(t, err)

		assert.Equal(t, 1, l.Count(7, 8))
		assert.Equal(t, 0, l.Count(11, 14))
		assert.Equal(t, 3, l.Count(0, 35))
	})

	t.Run("touching pair", func(t *testing.T) {
		l, err := New([]Interval[uint32]{iv(5, 10, 0), iv(10, 15, 0)})
		require.NoError(t, err)

		assert.Equal(t, 0, l.Count(0, 5), "query touching the first interval")
		assert.Equal(t, 1, l.Count(5, 10))
		assert.Equal(t, 1, l.Count(10, 15))
		assert.Equal(t, 2, l.Count(8, 12), "spans the shared boundary")
	})

	t.Run("zero-length interval", func(t *testing.T) {
		l, err := New([]Interval[uint32]{iv(5, 5, 0)})
		require.NoError(t, err)

		// An empty query at the same coordinate classifies the empty
		// interval as both before and after; the count must clamp at
		// zero and agree with Find and the overlap predicate.
		assert.Equal(t, 0, l.Count(5, 5))
		assert.Empty(t, l.Find(5, 5, nil))
		assert.False(t, iv(5, 5, 0).Overlap(5, 5))

		assert.Equal(t, 1, l.Count(4, 6), "a spanning query still sees the empty interval")
		assert.Len(t, l.Find(4, 6, nil), 1)
	})

	t.Run("zero-length among regular intervals", func(t *testing.T) {
		l, err := New([]Interval[uint32]{iv(5, 5, 0), iv(5, 9, 1), iv(1, 5, 2)})
		require.NoError(t, err)

		assert.Equal(t, 0, l.Count(5, 5), "empty query touches but overlaps nothing")
		assert.Empty(t, l.Find(5, 5, nil))
		assert.Equal(t, 3, l.Count(4, 6))
		assert.Len(t, l.Find(4, 6, nil), 3)
	})

	t.Run("single interval", func(t *testing.T) {
		l, err := New([]Interval[uint32]{iv(10, 20, 42)})
		require.NoError(t, err)

		assert.Equal(t, 1, l.Count(10, 20), "exact match")
		assert.Equal(t, 0, l.Count(20, 30), "touching is excluded")
		assert.Equal(t, 0, l.Count(0, 10), "touching from the left is excluded")
		assert.Equal(t, 1, l.Count(19, 21))
	})
}

func TestFind_Scenarios(t *testing.T) {
	l, err := New([]Interval[uint32]{
		iv(10, 20, 1), iv(15, 25, 2), iv(30, 40, 3), iv(35, 45, 4), iv(50, 60, 5),
	})
	require.NoError(t, err)

	got := l.Find(12, 18, nil)
	require.Len(t, got, 2)
	assert.Equal(t, int32(1), got[0].Val)
	assert.Equal(t, int32(2), got[1].Val)

	assert.Empty(t, l.Find(25, 30, nil), "gap between intervals")
	assert.Len(t, l.Find(0, 100, nil), 5)

	// Appending to a caller-owned slice preserves its prefix.
	dst := []Interval[uint32]{iv(0, 1, -1)}
	dst = l.Find(51, 52, dst)
	require.Len(t, dst, 2)
	assert.Equal(t, int32(-1), dst[0].Val)
	assert.Equal(t, int32(5), dst[1].Val)
}

func TestFind_MaxLenFloor(t *testing.T) {
	// One long interval forces the search floor far left; the stop check
	// must still reject the short intervals that end before the query.
	l, err := New([]Interval[uint32]{
		iv(0, 5, 0), iv(1, 2, 1), iv(2, 3, 2), iv(0, 1000, 3), iv(900, 910, 4),
	})
	require.NoError(t, err)

	got := l.Find(905, 906, nil)
	require.Len(t, got, 2)
	assert.Equal(t, int32(3), got[0].Val)
	assert.Equal(t, int32(4), got[1].Val)
}

func TestFind_SaturatesNearZero(t *testing.T) {
	l, err := New([]Interval[uint32]{iv(0, 50, 0), iv(2, 4, 1)})
	require.NoError(t, err)

	// qstart < maxLen: the floor subtraction must clamp at zero, not wrap.
	got := l.Find(1, 3, nil)
	require.Len(t, got, 2)
	assert.Equal(t, 2, l.Count(1, 3))
}

func countByScan(ivs []Interval[uint32], qstart, qstop uint32) int {
	n := 0
	for _, x := range ivs {
		if x.Overlap(qstart, qstop) {
			n++
		}
	}
	return n
}

func TestCount_MatchesExhaustiveScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(400)
		ivs := make([]Interval[uint32], n)
		for i := range ivs {
			ivs[i] = randomInterval(rng, 1000)
		}
		// New sorts ivs in place; keep an unsorted copy for the scan to
		// show the result is permutation-independent.
		scan := make([]Interval[uint32], n)
		copy(scan, ivs)

		l, err := New(ivs)
		require.NoError(t, err)

		for q := 0; q < 100; q++ {
			qstart := uint32(rng.Intn(1100))
			qstop := qstart + uint32(rng.Intn(50))
			want := countByScan(scan, qstart, qstop)
			require.Equal(t, want, l.Count(qstart, qstop),
				"trial %d query [%d,%d)", trial, qstart, qstop)
			require.Equal(t, want, len(l.Find(qstart, qstop, nil)),
				"find/count disagree on [%d,%d)", qstart, qstop)
		}
	}
}

func TestQueries_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ivs := make([]Interval[uint32], 100)
	for i := range ivs {
		ivs[i] = randomInterval(rng, 500)
	}
	l, err := New(ivs)
	require.NoError(t, err)

	first := l.Find(100, 200, nil)
	count := l.Count(100, 200)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, l.Find(100, 200, nil))
		assert.Equal(t, count, l.Count(100, 200))
	}
}

func TestQueries_Concurrent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ivs := make([]Interval[uint32], 500)
	for i := range ivs {
		ivs[i] = randomInterval(rng, 2000)
	}
	scan := make([]Interval[uint32], len(ivs))
	copy(scan, ivs)

	l, err := New(ivs)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			local := rand.New(rand.NewSource(seed))
			dst := make([]Interval[uint32], 0, 32)
			for q := 0; q < 500; q++ {
				qstart := uint32(local.Intn(2100))
				qstop := qstart + uint32(local.Intn(40))
				want := countByScan(scan, qstart, qstop)
				if got := l.Count(qstart, qstop); got != want {
					t.Errorf("count [%d,%d) = %d, want %d", qstart, qstop, got, want)
					return
				}
				dst = l.Find(qstart, qstop, dst[:0])
				if len(dst) != want {
					t.Errorf("find [%d,%d) returned %d, want %d", qstart, qstop, len(dst), want)
					return
				}
			}
		}(int64(w))
	}
	wg.Wait()
}

func TestView_MatchesOwningIndex(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ivs := make([]Interval[uint32], 200)
	for i := range ivs {
		ivs[i] = randomInterval(rng, 800)
	}
	l, err := New(ivs)
	require.NoError(t, err)

	v := View(l.Starts(), l.Stops(), l.Vals(), l.StopsSorted(), l.MaxLen())

	for q := 0; q < 200; q++ {
		qstart := uint32(rng.Intn(900))
		qstop := qstart + uint32(rng.Intn(30))
		assert.Equal(t, l.Count(qstart, qstop), v.Count(qstart, qstop))
		assert.Equal(t, l.Find(qstart, qstop, nil), v.Find(qstart, qstop, nil))
	}
}

func TestLapper_GenericCoordinateWidths(t *testing.T) {
	l16, err := New([]Interval[uint16]{
		{Start: 5, Stop: 10}, {Start: 15, Stop: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, l16.Count(7, 8))

	l64, err := New([]Interval[uint64]{
		{Start: 5, Stop: 10}, {Start: 15, Stop: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, l64.Count(7, 8))
}

func BenchmarkCount(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	ivs := make([]Interval[uint32], 1<<17)
	for i := range ivs {
		ivs[i] = randomInterval(rng, 1<<20)
	}
	l, err := New(ivs)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	var sink int
	for i := 0; i < b.N; i++ {
		q := uint32(i) % (1 << 20)
		sink += l.Count(q, q+100)
	}
	_ = sink
}

func BenchmarkFind(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	ivs := make([]Interval[uint32], 1<<17)
	for i := range ivs {
		ivs[i] = randomInterval(rng, 1<<20)
	}
	l, err := New(ivs)
	if err != nil {
		b.Fatal(err)
	}

	dst := make([]Interval[uint32], 0, 64)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q := uint32(i) % (1 << 20)
		dst = l.Find(q, q+100, dst[:0])
	}
	_ = dst
}
