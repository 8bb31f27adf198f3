package dispatch

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-lapper/internal/lapper"
)

// DefaultBlockDim is the number of logical threads per block when the
// caller does not choose one.
const DefaultBlockDim = 256

// Grid launches kernels across a batch of queries, one logical thread per
// query. Blocks map to goroutines; threads within a block run
// sequentially on their goroutine. Threads share nothing but the
// read-only index buffers and each write only their own output slot, so a
// launched batch needs no synchronization beyond waiting for completion —
// and it always runs to completion, there is no mid-batch cancellation.
type Grid struct {
	blockDim int
	logger   *zap.Logger
}

// NewGrid creates a launcher with the given block dimension. A
// non-positive blockDim selects DefaultBlockDim.
func NewGrid(blockDim int) *Grid {
	if blockDim <= 0 {
		blockDim = DefaultBlockDim
	}
	return &Grid{
		blockDim: blockDim,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for launch diagnostics.
func (g *Grid) SetLogger(l *zap.Logger) {
	g.logger = l
}

// LaunchCount runs CountKernel over the batch: queries arrive packed as
// [start0, stop0, start1, stop1, ...] and out receives one count per
// query. The grid is rounded up to whole blocks; the kernel's thread
// guard makes the overhang threads no-ops.
func (g *Grid) LaunchCount(b Buffers, keys []uint32, out []uint32) error {
	blocks, err := g.validate(len(keys), len(out))
	if err != nil {
		return err
	}

	g.logger.Debug("launching count grid",
		zap.Int("queries", len(out)),
		zap.Int("blocks", blocks),
		zap.Int("block_dim", g.blockDim))

	var eg errgroup.Group
	for block := 0; block < blocks; block++ {
		base := block * g.blockDim
		eg.Go(func() error {
			for t := 0; t < g.blockDim; t++ {
				CountKernel(b, keys, out, base+t)
			}
			return nil
		})
	}
	return eg.Wait()
}

// LaunchFind runs FindKernel over the batch: out[t] receives thread t's
// matches, appended to whatever capacity the caller left in it.
func (g *Grid) LaunchFind(b Buffers, keys []uint32, out [][]lapper.Interval[uint32]) error {
	blocks, err := g.validate(len(keys), len(out))
	if err != nil {
		return err
	}

	g.logger.Debug("launching find grid",
		zap.Int("queries", len(out)),
		zap.Int("blocks", blocks),
		zap.Int("block_dim", g.blockDim))

	var eg errgroup.Group
	for block := 0; block < blocks; block++ {
		base := block * g.blockDim
		eg.Go(func() error {
			for t := 0; t < g.blockDim; t++ {
				FindKernel(b, keys, out, base+t)
			}
			return nil
		})
	}
	return eg.Wait()
}

func (g *Grid) validate(keyLen, outLen int) (blocks int, err error) {
	if keyLen != 2*outLen {
		return 0, fmt.Errorf("dispatch: %d packed coordinates for %d queries, want %d", keyLen, outLen, 2*outLen)
	}
	return (outLen + g.blockDim - 1) / g.blockDim, nil
}
