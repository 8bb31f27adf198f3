// Package dispatch runs interval queries one-per-logical-thread against an
// index backed by device-resident buffers, SIMT style. The kernel bodies
// are free functions taking buffer views plus a thread index, so the exact
// code that runs across a grid can be exercised on a single thread in
// tests. Device mode fixes coordinates to the packed uint32 wire layout.
package dispatch

import (
	"fmt"

	"github.com/inodb/vibe-lapper/internal/device"
	"github.com/inodb/vibe-lapper/internal/lapper"
)

// Buffers is the set of device-resident arrays backing an index view:
// the four parallel sequences plus the longest-interval bound. Kernels
// only ever read them.
type Buffers struct {
	Starts      []uint32
	Stops       []uint32
	Vals        []int32
	StopsSorted []uint32
	MaxLen      uint32
}

// Upload performs device-backed construction: it builds an owning index on
// the host (whose buffers double as the staging regions), allocates the
// four device regions, transfers, and returns the buffer set non-owning
// views are bound to. Allocation and transfer failures come back wrapped;
// nothing is retried.
func Upload(ivs []lapper.Interval[uint32], mem device.Mem) (Buffers, error) {
	host, err := lapper.New(ivs)
	if err != nil {
		return Buffers{}, fmt.Errorf("build host index: %w", err)
	}

	n := host.Len()
	b := Buffers{MaxLen: host.MaxLen()}

	if b.Starts, err = mem.AllocU32(n); err != nil {
		return Buffers{}, fmt.Errorf("alloc starts: %w", err)
	}
	if b.Stops, err = mem.AllocU32(n); err != nil {
		return Buffers{}, fmt.Errorf("alloc stops: %w", err)
	}
	if b.Vals, err = mem.AllocI32(n); err != nil {
		return Buffers{}, fmt.Errorf("alloc vals: %w", err)
	}
	if b.StopsSorted, err = mem.AllocU32(n); err != nil {
		return Buffers{}, fmt.Errorf("alloc sorted stops: %w", err)
	}

	if err = mem.CopyU32(b.Starts, host.Starts()); err != nil {
		return Buffers{}, fmt.Errorf("transfer starts: %w", err)
	}
	if err = mem.CopyU32(b.Stops, host.Stops()); err != nil {
		return Buffers{}, fmt.Errorf("transfer stops: %w", err)
	}
	if err = mem.CopyI32(b.Vals, host.Vals()); err != nil {
		return Buffers{}, fmt.Errorf("transfer vals: %w", err)
	}
	if err = mem.CopyU32(b.StopsSorted, host.StopsSorted()); err != nil {
		return Buffers{}, fmt.Errorf("transfer sorted stops: %w", err)
	}

	return b, nil
}

// CountKernel is the per-thread kernel body for overlap counting. Thread
// tid reads its packed (start, stop) pair, constructs a non-owning view
// over the shared buffers, and writes its count to out[tid] — and nothing
// else. Threads past the batch size return without side effects, which is
// how a grid rounded up to block granularity stays correct.
func CountKernel(b Buffers, keys []uint32, out []uint32, tid int) {
	if tid >= len(out) {
		return
	}
	view := lapper.View(b.Starts, b.Stops, b.Vals, b.StopsSorted, b.MaxLen)
	out[tid] = uint32(view.Count(keys[2*tid], keys[2*tid+1]))
}

// FindKernel is the per-thread kernel body for overlap enumeration: thread
// tid appends its matches to out[tid], its private result list.
func FindKernel(b Buffers, keys []uint32, out [][]lapper.Interval[uint32], tid int) {
	if tid >= len(out) {
		return
	}
	view := lapper.View(b.Starts, b.Stops, b.Vals, b.StopsSorted, b.MaxLen)
	out[tid] = view.Find(keys[2*tid], keys[2*tid+1], out[tid])
}
