// Package lapper provides an immutable interval-overlap index over
// half-open [start, stop) ranges. Queries resolve through binary search:
// enumeration is O(log n + k) and counting is O(log n) via two
// lower-bound probes (the BITS scheme), with no per-query allocation.
package lapper

import "golang.org/x/exp/constraints"

// Interval is a half-open [Start, Stop) range carrying an opaque payload.
// Ordering and equality are defined on (Start, Stop) only; Val never
// participates in comparisons.
type Interval[T constraints.Unsigned] struct {
	Start T
	Stop  T
	Val   int32
}

// Overlap reports whether the interval overlaps the half-open query
// [start, stop). Both inequalities are strict, so ranges that merely touch
// at a boundary do not overlap.
func (iv Interval[T]) Overlap(start, stop T) bool {
	return iv.Start < stop && iv.Stop > start
}

// Less orders intervals lexicographically by (Start, Stop).
func (iv Interval[T]) Less(other Interval[T]) bool {
	if iv.Start != other.Start {
		return iv.Start < other.Start
	}
	return iv.Stop < other.Stop
}

// satSub returns a - b, clamped to zero instead of wrapping below the
// unsigned range.
func satSub[T constraints.Unsigned](a, b T) T {
	if b > a {
		return 0
	}
	return a - b
}

// satAdd returns a + b, clamped to the type's maximum instead of wrapping.
func satAdd[T constraints.Unsigned](a, b T) T {
	sum := a + b
	if sum < a {
		return ^T(0)
	}
	return sum
}
