package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/kitadash/internal/model"
)

var (
	fetchMode    string
	fetchFilters []string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Print the normalized analytics dataset",
	Long: `Select analytics once and print the normalized dataset.

Without --mode the saved display mode is used. In live mode the candidate
endpoints are probed in order and the first one that answers with a valid
payload wins; when none does, the connection-error placeholder is printed
and the command still exits 0.`,
	Example: `  kitadash fetch --format json
  kitadash fetch --mode mock --format csv
  kitadash fetch --filter region=NCR --filter period=week`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := parseFilters(fetchFilters)
		if err != nil {
			return err
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		format, err := resolveFormat(deps.Config.Format)
		if err != nil {
			return err
		}

		var mode model.DisplayMode
		if fetchMode != "" {
			if mode, err = model.ParseMode(fetchMode); err != nil {
				return err
			}
		} else if mode, err = deps.Prefs.Mode(); err != nil {
			slog.Warn("reading saved display mode; using default", "mode", mode, "err", err)
		}

		started := time.Now()
		a := deps.Selector.Select(cmd.Context(), mode, filters)
		result := newResult(model.KindAnalytics, "fetch", &a, len(a.Products), started)
		if a.IsError() {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("no live KitaKits endpoint among %d candidates; showing placeholder", len(deps.Config.Endpoints)))
		}
		if a.Metadata.Degraded {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s answered with success=false; data may be incomplete", a.Metadata.Endpoint))
		}
		return emit(cmd.OutOrStdout(), result, format)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchMode, "mode", "", "live|mock (default: the saved display mode)")
	fetchCmd.Flags().StringArrayVar(&fetchFilters, "filter", nil, "query filter forwarded to the live endpoint, repeatable (key=value)")
	_ = fetchCmd.RegisterFlagCompletionFunc("mode", fixedCompletions(string(model.ModeLive), string(model.ModeMock)))
}
