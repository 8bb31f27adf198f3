package main

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lapper/internal/device"
	"github.com/inodb/vibe-lapper/internal/dispatch"
	"github.com/inodb/vibe-lapper/internal/eytzinger"
	"github.com/inodb/vibe-lapper/internal/lapper"
	"github.com/inodb/vibe-lapper/internal/search"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the built-in benchmarks",
		Long: `Benchmark the search primitives against each other, or the interval
index on one core against the goroutine grid. Defaults come from the
bench.* keys in ~/.vibe-lapper.yaml.`,
	}

	cmd.AddCommand(newBenchSearchCmd())
	cmd.AddCommand(newBenchLapperCmd())

	return cmd
}

func newBenchSearchCmd() *cobra.Command {
	var (
		elements   int
		keys       int
		iterations int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Compare the lower-bound search variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchSearch(elements, keys, iterations, seed)
		},
	}

	cmd.Flags().IntVar(&elements, "elements", viper.GetInt("bench.elements"), "Number of sorted elements")
	cmd.Flags().IntVar(&keys, "keys", viper.GetInt("bench.keys"), "Number of search keys")
	cmd.Flags().IntVar(&iterations, "iterations", viper.GetInt("bench.iterations"), "Benchmark repetitions per variant")
	cmd.Flags().Int64Var(&seed, "seed", viper.GetInt64("bench.seed"), "RNG seed")

	return cmd
}

func runBenchSearch(elements, keys, iterations int, seed int64) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	fmt.Printf("Generating %d elements and %d search keys...\n", elements, keys)
	rng := rand.New(rand.NewSource(seed))

	xs := make([]uint32, elements)
	for i := range xs {
		xs[i] = uint32(rng.Intn(elements + 1))
	}
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })

	probes := make([]uint32, keys)
	for i := range probes {
		probes[i] = uint32(rng.Intn(keys + 1))
	}

	fmt.Println("Building Eytzinger layout...")
	built := time.Now()
	eyt := eytzinger.New(xs)
	logger.Debug("eytzinger built",
		zap.Int("elements", elements),
		zap.Duration("elapsed", time.Since(built)))

	variants := []struct {
		name string
		fn   func(uint32) int
	}{
		{"Naive binary search", func(x uint32) int { return search.LowerBoundNaive(xs, x) }},
		{"Lower bound (fast paths)", func(x uint32) int { return search.LowerBound(xs, x) }},
		{"Offset stepping", func(x uint32) int { return search.LowerBoundOffset(xs, x) }},
		{"Branchless", func(x uint32) int { return search.LowerBoundBranchless(xs, x) }},
		{"Eytzinger fixed iterations", eyt.Rank},
	}

	fmt.Println("\nRunning benchmarks...")
	fmt.Printf("%40s%15s%12s\n", "Algorithm", "Time (ms)", "Relative")
	fmt.Println(sepLine(67))

	var baseline float64
	for i, v := range variants {
		ms := benchmarkVariant(v.fn, probes, iterations)
		if i == 0 {
			baseline = ms
		}
		fmt.Printf("%40s%15.3f%11.2fx\n", v.name, ms, baseline/ms)
	}

	// Spot-check that every variant resolves the same insertion points.
	fmt.Println("\nVerifying agreement (first 10 searches):")
	fmt.Printf("%8s%10s%10s%10s%10s%10s\n", "Key", "Naive", "Fast", "Offset", "Brless", "Eytz")
	fmt.Println(sepLine(58))
	limit := 10
	if keys < limit {
		limit = keys
	}
	for i := 0; i < limit; i++ {
		key := probes[i]
		fmt.Printf("%8d", key)
		want := variants[0].fn(key)
		for _, v := range variants {
			got := v.fn(key)
			fmt.Printf("%10d", got)
			if got != want {
				return fmt.Errorf("variant %q disagrees on key %d: got %d, want %d", v.name, key, got, want)
			}
		}
		fmt.Println()
	}

	return nil
}

func benchmarkVariant(fn func(uint32) int, probes []uint32, iterations int) float64 {
	sink := 0
	start := time.Now()
	for it := 0; it < iterations; it++ {
		for _, key := range probes {
			sink += fn(key)
		}
	}
	elapsed := time.Since(start)
	_ = sink
	return float64(elapsed.Microseconds()) / 1000.0 / float64(iterations)
}

func newBenchLapperCmd() *cobra.Command {
	var (
		intervals int
		queries   int
		span      int
		blockDim  int
		seed      int64
	)

	cmd := &cobra.Command{
		Use:   "lapper",
		Short: "Compare single-core and grid-dispatched index queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchLapper(intervals, queries, span, blockDim, seed)
		},
	}

	cmd.Flags().IntVar(&intervals, "intervals", viper.GetInt("bench.intervals"), "Number of indexed intervals")
	cmd.Flags().IntVar(&queries, "queries", viper.GetInt("bench.queries"), "Number of queries per batch")
	cmd.Flags().IntVar(&span, "span", viper.GetInt("bench.span"), "Maximum interval length")
	cmd.Flags().IntVar(&blockDim, "block-dim", viper.GetInt("bench.block-dim"), "Logical threads per block")
	cmd.Flags().Int64Var(&seed, "seed", viper.GetInt64("bench.seed"), "RNG seed")

	return cmd
}

func runBenchLapper(intervals, queries, span, blockDim int, seed int64) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	fmt.Printf("Generating %d intervals and %d queries...\n", intervals, queries)
	rng := rand.New(rand.NewSource(seed))
	domain := 10 * intervals

	ivs := make([]lapper.Interval[uint32], intervals)
	for i := range ivs {
		start := uint32(rng.Intn(domain))
		ivs[i] = lapper.Interval[uint32]{
			Start: start,
			Stop:  start + 1 + uint32(rng.Intn(span)),
			Val:   int32(i),
		}
	}

	keys := make([]uint32, 2*queries)
	for t := 0; t < queries; t++ {
		start := uint32(rng.Intn(domain))
		keys[2*t] = start
		keys[2*t+1] = start + 1 + uint32(rng.Intn(span))
	}

	fmt.Println("Building index...")
	built := time.Now()
	bufs, err := dispatch.Upload(ivs, device.Host{})
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	fmt.Printf("Built in %s (max interval length %d)\n", time.Since(built).Round(time.Millisecond), bufs.MaxLen)

	view := lapper.View(bufs.Starts, bufs.Stops, bufs.Vals, bufs.StopsSorted, bufs.MaxLen)

	// Single core: one thread walks the whole batch.
	seq := make([]uint32, queries)
	start := time.Now()
	for t := 0; t < queries; t++ {
		seq[t] = uint32(view.Count(keys[2*t], keys[2*t+1]))
	}
	seqElapsed := time.Since(start)

	// Grid: one logical thread per query.
	grid := dispatch.NewGrid(blockDim)
	grid.SetLogger(logger)
	par := make([]uint32, queries)
	start = time.Now()
	if err := grid.LaunchCount(bufs, keys, par); err != nil {
		return fmt.Errorf("grid launch: %w", err)
	}
	parElapsed := time.Since(start)

	for t := 0; t < queries; t++ {
		if seq[t] != par[t] {
			return fmt.Errorf("query %d: grid count %d, single-core count %d", t, par[t], seq[t])
		}
	}

	fmt.Printf("\n%30s%15s%14s\n", "Mode", "Time (ms)", "Queries/s")
	fmt.Println(sepLine(59))
	fmt.Printf("%30s%15.3f%14.0f\n", "Single core", toMillis(seqElapsed), float64(queries)/seqElapsed.Seconds())
	fmt.Printf("%30s%15.3f%14.0f\n", fmt.Sprintf("Grid (block dim %d)", blockDim), toMillis(parElapsed), float64(queries)/parElapsed.Seconds())
	fmt.Printf("\nGrid and single-core counts agree on all %d queries.\n", queries)

	return nil
}

func toMillis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func sepLine(n int) string {
	return strings.Repeat("-", n)
}
