package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect and reset the local preference database",
	Long: `Commands for the bbolt file that holds the saved display mode and the
history of mode changes.

The file is shared by every kitadash process. A running dashboard only opens
it briefly to re-read the mode, so these commands do not need it stopped.`,
}

// ─── db stats ─────────────────────────────────────────────────────────────────

var dbStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show row counts and sizes for each bucket",
	Example: `  kitadash db stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		stats, err := deps.Store.Stats()
		if err != nil {
			return fmt.Errorf("reading store stats: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n\n", deps.Store.Path)
		if len(stats) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No database yet. Run 'kitadash mode set <live|mock>' to create it.")
			return nil
		}
		printSimpleTable(cmd.OutOrStdout(), []string{"BUCKET", "ROWS", "SIZE"}, func(add func(...string)) {
			for _, s := range stats {
				add(s.Name, humanize.Comma(int64(s.Count)), humanize.Bytes(uint64(s.Bytes)))
			}
		})
		return nil
	},
}

// ─── db clear ─────────────────────────────────────────────────────────────────

var (
	dbClearAll    bool
	dbClearBucket []string
)

var dbClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete entries from the preference database",
	Long: `Delete entries from one or all buckets.

Clearing prefs resets the display mode to the configured default_mode.
Clearing history only forgets past mode changes.`,
	Example: `  kitadash db clear --all
  kitadash db clear --bucket history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !dbClearAll && len(dbClearBucket) == 0 {
			return fmt.Errorf("specify --all or --bucket <name>\n\nBuckets: prefs, history")
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		var names []string
		if !dbClearAll {
			names = dbClearBucket
		}
		if err := deps.Store.Clear(names...); err != nil {
			return err
		}
		if dbClearAll {
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Cleared all buckets")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %v\n", names)
		}
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.AddCommand(dbClearCmd)

	dbClearCmd.Flags().BoolVar(&dbClearAll, "all", false, "clear all buckets")
	dbClearCmd.Flags().StringArrayVar(&dbClearBucket, "bucket", nil, "clear a specific bucket: prefs|history (repeatable)")
}
