// Package eytzinger rearranges a sorted sequence into breadth-first binary
// tree order. Search walks the implicit tree top-down, touching one cache
// line per level instead of the strided probes of a classic binary search,
// and runs a fixed number of iterations so the loop shape is identical for
// every target.
package eytzinger

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Index holds a sorted sequence in breadth-first order. layout and lookup
// are 1-indexed with length n+1: node k's children live at 2k and 2k+1,
// and slot 0 carries a sentinel equal to the type's minimum value that is
// never a valid match. lookup[k] is the position the element at layout[k]
// occupied in the original sorted sequence.
type Index[T constraints.Unsigned] struct {
	layout []T
	lookup []int
	n      int
	iters  int
}

// New builds the breadth-first layout of sorted, which must already be
// ascending. Building is an iterative in-order traversal of the implicit
// tree rooted at node 1: elements are assigned in ascending order while
// the destination nodes follow breadth-first positions. The traversal uses
// an explicit stack with entries tagged by sign (positive: descend into
// node k, negative: emplace node k) so the auxiliary space is bounded and
// no recursion depth limit applies. An empty input yields an empty index.
func New[T constraints.Unsigned](sorted []T) *Index[T] {
	n := len(sorted)
	ix := &Index[T]{n: n}
	if n == 0 {
		return ix
	}

	ix.layout = make([]T, n+1)
	ix.lookup = make([]int, n+1)

	stack := make([]int, 0, 2*bits.Len(uint(n))+2)
	stack = append(stack, 1)
	next := 0
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if k < 0 {
			k = -k
			ix.layout[k] = sorted[next]
			ix.lookup[k] = next
			next++
			continue
		}
		if k > n {
			continue
		}
		// Popped in reverse: left child, emplace, right child.
		stack = append(stack, 2*k+1, -k, 2*k)
	}

	ix.iters = bits.Len(uint(n+1)) - 1
	return ix
}

// Len returns the number of stored elements.
func (x *Index[T]) Len() int { return x.n }

// Search returns the Eytzinger-space node index of the left-most element
// >= target. The descent runs exactly floor(log2(n+1)) iterations plus one
// predicated step, so its shape does not depend on the data; the result is
// recovered by stripping the trailing bits that encoded "went right"
// moves.
//
// The returned index is in Eytzinger space and may be out of the valid
// [1, n] node range: 0 means every element is < target, and an index > n
// is reachable when target equals the sentinel minimum. Callers must
// bounds-check before dereferencing; see Rank for the translation back to
// sorted order. This out-of-range behavior is contractual — the BITS
// arithmetic in the interval index relies on it.
func (x *Index[T]) Search(target T) int {
	if x.n == 0 {
		return 0
	}

	k := 1
	for i := 0; i < x.iters; i++ {
		k = 2*k + btoi(x.layout[k] < target)
	}

	// One predicated step covers the ragged last level: compare against
	// the real node if it exists, else against the sentinel.
	probe := 0
	if k <= x.n {
		probe = k
	}
	k = 2*k + btoi(x.layout[probe] < target)

	k >>= uint(bits.TrailingZeros(^uint(k)) + 1)
	return k
}

// Rank returns the number of stored elements strictly less than target,
// i.e. the lower-bound insertion point in the original sorted order. It
// performs the bounds-check and lookup translation that Search leaves to
// the caller.
func (x *Index[T]) Rank(target T) int {
	k := x.Search(target)
	switch {
	case k == 0:
		return x.n
	case k > x.n:
		// Only reachable when target equals the sentinel minimum: the
		// ghost-node probe goes left only when layout[0] < target is
		// false, and with unsigned coordinates the sentinel 0 is below
		// every positive target. Every element qualifies, so the
		// insertion point is 0.
		return 0
	default:
		return x.lookup[k]
	}
}

// Value returns the element stored at Eytzinger node k, or the sentinel
// minimum when k lies outside the layout.
func (x *Index[T]) Value(k int) T {
	if k < 0 || k >= len(x.layout) {
		var zero T
		return zero
	}
	return x.layout[k]
}

// Lookup translates Eytzinger node k back to its original sorted-array
// position. k must be a valid node index in [1, n].
func (x *Index[T]) Lookup(k int) int { return x.lookup[k] }

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
