package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/kitadash/internal/app"
	"github.com/derickschaefer/kitadash/internal/model"
)

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Show or change the display mode (live or mock)",
	Long: `The display mode decides where dashboard data comes from:

  live  the first reachable KitaKits analytics endpoint
  mock  the built-in demo dataset, no network access

The mode is saved in the preference database and shared by every kitadash
process; a running 'kitadash dashboard --watch' switches immediately.`,
}

// ─── mode get ─────────────────────────────────────────────────────────────────

var modeGetCmd = &cobra.Command{
	Use:     "get",
	Short:   "Print the current display mode",
	Example: `  kitadash mode get --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		report, err := modeReport(deps, false)
		if err != nil {
			return err
		}
		return emitMode(cmd, deps, report, "mode get")
	},
}

// ─── mode set ─────────────────────────────────────────────────────────────────

var modeSetCmd = &cobra.Command{
	Use:       "set <live|mock>",
	Short:     "Save the display mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(model.ModeLive), string(model.ModeMock)},
	Example: `  kitadash mode set mock
  kitadash mode set live`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := model.ParseMode(args[0])
		if err != nil {
			return err
		}
		return setMode(cmd, m)
	},
}

// ─── mode toggle ──────────────────────────────────────────────────────────────

var modeToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Switch between live and mock",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		cur, err := deps.Prefs.Mode()
		deps.Close()
		if err != nil {
			return err
		}
		next := model.ModeMock
		if cur == model.ModeMock {
			next = model.ModeLive
		}
		return setMode(cmd, next)
	},
}

// ─── mode history ─────────────────────────────────────────────────────────────

var modeHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent display mode changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		report, err := modeReport(deps, true)
		if err != nil {
			return err
		}
		if len(report.History) == 0 && !globalFlags.Quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), "No mode changes recorded yet.")
		}
		return emitMode(cmd, deps, report, "mode history")
	},
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func setMode(cmd *cobra.Command, m model.DisplayMode) error {
	deps, err := buildDeps()
	if err != nil {
		return err
	}
	defer deps.Close()
	if err := deps.Prefs.SetMode(m); err != nil {
		return err
	}
	if !globalFlags.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Display mode set to %s\n", m)
	}
	return nil
}

// modeReport reads the saved mode directly so the report can say whether it
// came from the database or the configured default.
func modeReport(deps *app.Deps, withHistory bool) (*model.ModeReport, error) {
	r := &model.ModeReport{Mode: deps.Config.DefaultMode, Source: "default", DBPath: deps.Config.DBPath}
	m, ok, err := deps.Store.LoadMode()
	if err != nil {
		return nil, fmt.Errorf("reading display mode: %w", err)
	}
	if ok {
		r.Mode, r.Source = m, "saved"
	}
	if withHistory {
		if r.History, err = deps.Store.History(); err != nil {
			return nil, fmt.Errorf("reading mode history: %w", err)
		}
	}
	return r, nil
}

func emitMode(cmd *cobra.Command, deps *app.Deps, r *model.ModeReport, command string) error {
	format, err := resolveFormat(deps.Config.Format)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), newResult(model.KindMode, command, r, len(r.History), time.Now()), format)
}

func init() {
	rootCmd.AddCommand(modeCmd)
	modeCmd.AddCommand(modeGetCmd)
	modeCmd.AddCommand(modeSetCmd)
	modeCmd.AddCommand(modeToggleCmd)
	modeCmd.AddCommand(modeHistoryCmd)
}
