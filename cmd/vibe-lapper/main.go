// Package main provides the vibe-lapper command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var verbose bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vibe-lapper",
		Short: "Interval overlap index benchmarks and queries",
		Long: `vibe-lapper builds an interval overlap index over half-open [start, stop)
ranges and answers find/count queries through binary search, on one core
or fanned out one-query-per-thread across a goroutine grid.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newBenchCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vibe-lapper version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// initConfig loads ~/.vibe-lapper.yaml if present and seeds the bench
// defaults. Missing config files are fine; malformed ones are not.
func initConfig() error {
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetConfigFile(filepath.Join(home, ".vibe-lapper.yaml"))
	}

	viper.SetDefault("bench.seed", 42)
	viper.SetDefault("bench.elements", 6000000)
	viper.SetDefault("bench.keys", 60000)
	viper.SetDefault("bench.iterations", 10)
	viper.SetDefault("bench.intervals", 1000000)
	viper.SetDefault("bench.queries", 100000)
	viper.SetDefault("bench.span", 100)
	viper.SetDefault("bench.block-dim", 256)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// newLogger builds the CLI logger: chatty in verbose mode, silent
// otherwise so benchmark output stays clean.
func newLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}
