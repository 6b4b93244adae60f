// Package cmd implements the kitadash CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/kitadash/internal/app"
	"github.com/derickschaefer/kitadash/internal/config"
	"github.com/derickschaefer/kitadash/internal/render"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	Endpoints []string
	DBPath    string
	Format    string
	Out       string
	Timeout   string
	Rate      float64
	Quiet     bool
	Verbose   bool
	Debug     bool
}

// rootCmd is the base command. Running `kitadash` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "kitadash",
	Short: "kitadash: KitaKits MSME analytics in the terminal",
	Long: `kitadash renders the KitaKits MSME analytics dashboard in the terminal.

Data comes from the first reachable KitaKits analytics endpoint (live mode)
or from a built-in demo dataset (mock mode). The mode is saved locally and
shared by every kitadash process.

Quick start:
  kitadash status              # which endpoint answers, and how fast
  kitadash dashboard           # render every widget once
  kitadash mode set mock       # switch to the demo dataset
  kitadash dashboard --watch   # keep refreshing; follows mode changes`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(cmd.ErrOrStderr()))
	},
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger builds the stderr text logger for the current verbosity flags.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case globalFlags.Debug:
		level = slog.LevelDebug
	case globalFlags.Quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(cfg), nil
}

// applyFlags layers CLI flag overrides on top of the loaded config.
func applyFlags(cfg *config.Config) error {
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	if len(globalFlags.Endpoints) > 0 {
		var eps []string
		for _, e := range globalFlags.Endpoints {
			eps = append(eps, config.SplitEndpoints(e)...)
		}
		cfg.Endpoints = eps
	}
	if globalFlags.DBPath != "" {
		cfg.DBPath = globalFlags.DBPath
	}
	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if globalFlags.Timeout != "" {
		d, err := time.ParseDuration(globalFlags.Timeout)
		if err != nil {
			return fmt.Errorf("--timeout %q: %w", globalFlags.Timeout, err)
		}
		cfg.Timeout = d
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}
	return nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringArrayVar(&globalFlags.Endpoints, "endpoint", nil,
		"candidate base URL, repeatable; replaces the configured list")
	pf.StringVar(&globalFlags.DBPath, "db", "",
		"preference database path (overrides env KITADASH_DB_PATH and config.json)")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.StringVar(&globalFlags.Timeout, "timeout", "",
		"per-endpoint request timeout (e.g. 5s, 1m)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max KitaKits requests per second (default: 10)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show timing stats after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log every endpoint probe and fetch")

	_ = rootCmd.RegisterFlagCompletionFunc("format", fixedCompletions(render.Formats...))
}
