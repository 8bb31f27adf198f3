// Package search provides the binary-search primitives the interval index
// is built on. Every variant implements the same lower_bound contract and
// all of them agree bit-for-bit on every input.
package search

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// LowerBound returns the left-most index in xs whose element is >= target,
// or len(xs) if no element qualifies. xs must be sorted ascending.
//
// This is the production variant: the empty slice, a first element already
// >= target, and a last element < target are each resolved in O(1); the
// remaining cases run a branchless shrinking-window loop.
func LowerBound[T constraints.Integer](xs []T, target T) int {
	n := len(xs)
	if n == 0 || xs[0] >= target {
		return 0
	}
	if xs[n-1] < target {
		return n
	}

	// The answer is now guaranteed to lie in [1, n-1]. Each iteration
	// halves the window with an arithmetic select instead of a branch.
	cursor := 0
	for length := n; length > 1; {
		half := length >> 1
		cursor += half * btoi(xs[cursor+half-1] < target)
		length -= half
	}
	return cursor
}

// LowerBoundNaive is the classic shrink-the-interval binary search, kept as
// the reference implementation the optimized variants are checked against.
func LowerBoundNaive[T constraints.Integer](xs []T, target T) int {
	if len(xs) == 0 || xs[0] >= target {
		return 0
	}

	low, high := 0, len(xs)
	for high-low > 1 {
		mid := (high + low) / 2
		if xs[mid] < target {
			low = mid
		} else {
			high = mid
		}
	}
	return high
}

// LowerBoundOffset searches with a descending power-of-two step sequence:
// the offset cursor starts past the end and moves backward whenever the
// probed element is still >= target. The fixed step schedule trades the
// classic midpoint recomputation for better branch predictability.
func LowerBoundOffset[T constraints.Integer](xs []T, target T) int {
	n := len(xs)
	if n == 0 {
		return 0
	}

	offset := n
	for step := floorPow2(n); step > 0; step >>= 1 {
		if offset >= step && xs[offset-step] >= target {
			offset -= step
		}
	}
	return offset
}

// LowerBoundBranchless is the shrinking-window search without the fast
// paths: every probe and the final fix-up are arithmetic selects, so the
// hot loop carries no data-dependent branch.
func LowerBoundBranchless[T constraints.Integer](xs []T, target T) int {
	length := len(xs)
	if length == 0 {
		return 0
	}

	cursor := 0
	for length > 1 {
		half := length >> 1
		cursor += half * btoi(xs[cursor+half-1] < target)
		length -= half
	}
	return cursor + btoi(xs[cursor] < target)
}

// UpperBound returns the left-most index in xs whose element is strictly
// greater than key, or len(xs) if no element qualifies.
func UpperBound[T constraints.Integer](xs []T, key T) int {
	low, high := 0, len(xs)
	for low < high {
		mid := int(uint(low+high) >> 1)
		if xs[mid] <= key {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low
}

// floorPow2 returns the largest power of two <= n, or 0 for n <= 0.
func floorPow2(n int) int {
	if n <= 0 {
		return 0
	}
	return 1 << (bits.Len(uint(n)) - 1)
}

// btoi converts a bool to exactly 0 or 1. The offset arithmetic in the
// branchless variants depends on the select evaluating to nothing else.
func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
