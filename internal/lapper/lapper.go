package lapper

import (
	"errors"
	"sort"

	"golang.org/x/exp/constraints"

	"github.com/inodb/vibe-lapper/internal/search"
)

// ErrNoIntervals is returned by New when the input collection is empty.
var ErrNoIntervals = errors.New("lapper: no intervals")

// Lapper is the interval index: four parallel sequences in
// structure-of-arrays form, built once and immutable afterwards.
//
// starts, stops and vals share one permutation, sorted by (start, stop);
// stopsSorted is an independent ascending sort of the stop coordinates
// with no positional relationship to the other three — Count needs stop
// values ordered by their own magnitude. maxLen bounds how far before a
// query an interval can start and still reach it.
//
// Once built, Find and Count are safe to call from any number of
// goroutines as long as each caller supplies its own destination slice.
type Lapper[T constraints.Unsigned] struct {
	starts      []T
	stops       []T
	vals        []int32
	stopsSorted []T
	maxLen      T
}

// New builds an owning index from ivs, which is sorted in place and must
// not be mutated afterwards. An empty input returns ErrNoIntervals and no
// partial index.
func New[T constraints.Unsigned](ivs []Interval[T]) (*Lapper[T], error) {
	if len(ivs) == 0 {
		return nil, ErrNoIntervals
	}

	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Less(ivs[j]) })

	n := len(ivs)
	l := &Lapper[T]{
		starts:      make([]T, n),
		stops:       make([]T, n),
		vals:        make([]int32, n),
		stopsSorted: make([]T, n),
	}
	for i, iv := range ivs {
		l.starts[i] = iv.Start
		l.stops[i] = iv.Stop
		l.vals[i] = iv.Val
		if length := iv.Stop - iv.Start; length > l.maxLen {
			l.maxLen = length
		}
	}

	copy(l.stopsSorted, l.stops)
	sort.Slice(l.stopsSorted, func(i, j int) bool {
		return l.stopsSorted[i] < l.stopsSorted[j]
	})

	return l, nil
}

// View wraps caller-provided buffers without copying or taking ownership.
// The buffers must satisfy the same invariants New establishes: starts,
// stops and vals in one (start, stop)-sorted permutation, stopsSorted an
// independent ascending sort of stops, and maxLen the largest stop-start
// length. Views are cheap by-value constructions; the device dispatch path
// builds one per logical thread over shared read-only buffers.
func View[T constraints.Unsigned](starts, stops []T, vals []int32, stopsSorted []T, maxLen T) Lapper[T] {
	return Lapper[T]{
		starts:      starts,
		stops:       stops,
		vals:        vals,
		stopsSorted: stopsSorted,
		maxLen:      maxLen,
	}
}

// Len returns the number of indexed intervals.
func (l *Lapper[T]) Len() int { return len(l.starts) }

// MaxLen returns the length of the longest indexed interval.
func (l *Lapper[T]) MaxLen() T { return l.maxLen }

// Starts exposes the start coordinates in index order. Read-only.
func (l *Lapper[T]) Starts() []T { return l.starts }

// Stops exposes the stop coordinates in index order. Read-only.
func (l *Lapper[T]) Stops() []T { return l.stops }

// Vals exposes the payloads in index order. Read-only.
func (l *Lapper[T]) Vals() []int32 { return l.vals }

// StopsSorted exposes the independently sorted stop coordinates. Read-only.
func (l *Lapper[T]) StopsSorted() []T { return l.stopsSorted }

// Find appends every indexed interval overlapping [qstart, qstop) to dst
// and returns the extended slice. Matches are appended in (start, stop)
// order. The search floor is the first interval that could possibly reach
// the query: nothing starting more than maxLen before qstart can, so the
// floor is lower_bound(starts, qstart-maxLen) with the subtraction
// saturating at zero. The forward scan ends at the first start >= qstop.
func (l *Lapper[T]) Find(qstart, qstop T, dst []Interval[T]) []Interval[T] {
	i := search.LowerBound(l.starts, satSub(qstart, l.maxLen))
	for ; i < len(l.starts); i++ {
		if l.starts[i] >= qstop {
			break
		}
		if l.stops[i] > qstart {
			dst = append(dst, Interval[T]{Start: l.starts[i], Stop: l.stops[i], Val: l.vals[i]})
		}
	}
	return dst
}

// Count returns the number of indexed intervals overlapping
// [qstart, qstop) in O(log n) without touching the intervals themselves.
//
// Two lower-bound probes classify every interval as entirely before,
// entirely after, or overlapping: stops sorted by magnitude give the
// "ends at or before qstart" population, and starts give the "begins at
// or after qstop" population. The +1 against qstart compensates for the
// half-open convention — an interval whose stop equals qstart only
// touches the query and belongs to the excluded-before population.
func (l *Lapper[T]) Count(qstart, qstop T) int {
	n := len(l.starts)
	first := search.LowerBound(l.stopsSorted, satAdd(qstart, 1))
	last := search.LowerBound(l.starts, qstop)
	if last < first {
		// A zero-length interval meeting an empty query at the same
		// coordinate lands in both excluded populations; the overlap
		// predicate rejects it, so the count clamps at zero.
		return 0
	}
	return n - first - (n - last)
}
