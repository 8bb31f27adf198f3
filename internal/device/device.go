// Package device models the memory space query kernels execute against.
// The index core never allocates or frees device memory itself: it is
// handed buffers by a Mem implementation, fills host staging regions, and
// asks the implementation to transfer them. Host backs everything with
// ordinary process memory; an accelerator backend would wrap driver
// allocations and copies behind the same interface.
package device

import "fmt"

// Mem provisions device-resident buffers and moves host data into them.
// Copy calls block until the transferred data is visible to subsequent
// kernel launches, which is the only synchronization the index core
// relies on. Implementations surface allocation and transfer failures as
// errors; the core never retries them.
type Mem interface {
	AllocU32(n int) ([]uint32, error)
	AllocI32(n int) ([]int32, error)
	CopyU32(dst []uint32, src []uint32) error
	CopyI32(dst []int32, src []int32) error
}

// Host is the in-process Mem implementation used on the CPU and in tests.
type Host struct{}

// AllocU32 returns a zeroed buffer of n coordinates.
func (Host) AllocU32(n int) ([]uint32, error) {
	if n < 0 {
		return nil, fmt.Errorf("device: negative allocation size %d", n)
	}
	return make([]uint32, n), nil
}

// AllocI32 returns a zeroed buffer of n payloads.
func (Host) AllocI32(n int) ([]int32, error) {
	if n < 0 {
		return nil, fmt.Errorf("device: negative allocation size %d", n)
	}
	return make([]int32, n), nil
}

// CopyU32 copies src into dst. Lengths must match exactly: device regions
// are pre-allocated to the index size and a partial transfer would leave a
// buffer violating the index invariants.
func (Host) CopyU32(dst, src []uint32) error {
	if len(dst) != len(src) {
		return fmt.Errorf("device: copy size mismatch: dst %d, src %d", len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

// CopyI32 copies src into dst with the same length contract as CopyU32.
func (Host) CopyI32(dst, src []int32) error {
	if len(dst) != len(src) {
		return fmt.Errorf("device: copy size mismatch: dst %d, src %d", len(dst), len(src))
	}
	copy(dst, src)
	return nil
}
