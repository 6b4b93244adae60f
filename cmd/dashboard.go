package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/kitadash/internal/dashboard"
	"github.com/derickschaefer/kitadash/internal/model"
	"github.com/derickschaefer/kitadash/internal/pipeline"
	"github.com/derickschaefer/kitadash/internal/prefs"
	"github.com/derickschaefer/kitadash/internal/render"
)

var (
	dashboardWidgets  string
	dashboardWatch    bool
	dashboardInterval time.Duration
	dashboardFilters  []string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render the analytics dashboard",
	Long: `Render the dashboard widgets in the saved display mode.

Every widget selects its data independently and concurrently. In live mode a
widget shows the connection-error placeholder when no endpoint answers; it
never falls back to the demo dataset.

With --watch the dashboard keeps running: it re-renders when the display
mode changes (including from 'kitadash mode set' in another terminal) and,
with --interval, periodically.`,
	Example: `  kitadash dashboard
  kitadash dashboard --widget hero,products
  kitadash dashboard --watch --interval 1m
  kitadash dashboard --filter region=NCR --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		widgets, err := dashboard.ParseWidgets(dashboardWidgets)
		if err != nil {
			return err
		}
		filters, err := parseFilters(dashboardFilters)
		if err != nil {
			return err
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		format, err := resolveFormat(deps.Config.Format)
		if err != nil {
			return err
		}

		mode, err := deps.Prefs.Mode()
		if err != nil {
			slog.Warn("reading saved display mode; using default", "mode", mode, "err", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		board := dashboard.New(deps.Selector, deps.Client, deps.Config.Endpoints, widgets, filters)

		if !dashboardWatch {
			defer deps.Close()
			snap, err := board.Refresh(ctx, mode)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), snapshotResult(&snap), format)
		}

		w, err := prefs.NewWatcher(deps.Prefs, deps.Config.DBPath, prefs.DefaultDebounce)
		if err != nil {
			return fmt.Errorf("watching preferences: %w", err)
		}
		defer deps.Close(w)
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("watching preferences: %w", err)
		}
		changes, cancel := deps.Bus.Subscribe()
		defer cancel()

		out := cmd.OutOrStdout()
		redraw := format == render.FormatTable && globalFlags.Out == "" && pipeline.IsTerminal(out)
		return board.Watch(ctx, dashboard.WatchOptions{
			Mode:     mode,
			Changes:  changes,
			Interval: dashboardInterval,
		}, func(snap dashboard.Snapshot) error {
			if redraw {
				fmt.Fprint(out, "\033[H\033[2J")
			}
			return emit(out, snapshotResult(&snap), format)
		})
	},
}

func snapshotResult(snap *dashboard.Snapshot) *model.Result {
	r := newResult(model.KindDashboard, "dashboard", snap, len(snap.Panels), snap.GeneratedAt)
	r.Stats.DurationMs = snap.Elapsed.Milliseconds()
	var failed []string
	for _, p := range snap.Panels {
		if p.Data.IsError() {
			failed = append(failed, string(p.Widget))
		}
	}
	if len(failed) > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("no live KitaKits endpoint for %s; showing placeholder", strings.Join(failed, ", ")))
	}
	return r
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	f := dashboardCmd.Flags()
	f.StringVar(&dashboardWidgets, "widget", "", "comma-separated widgets: hero,products,regions,alerts,trends,connection (default: all)")
	f.BoolVar(&dashboardWatch, "watch", false, "keep running and re-render on mode changes")
	f.DurationVar(&dashboardInterval, "interval", 0, "with --watch, also re-render every interval (e.g. 30s)")
	f.StringArrayVar(&dashboardFilters, "filter", nil, "query filter forwarded to the live endpoint, repeatable (key=value)")

	widgets := make([]string, len(dashboard.AllWidgets))
	for i, w := range dashboard.AllWidgets {
		widgets[i] = string(w)
	}
	_ = dashboardCmd.RegisterFlagCompletionFunc("widget", fixedCompletions(widgets...))
}
