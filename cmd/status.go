package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/kitadash/internal/model"
)

var statusStrict bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Test which KitaKits endpoint answers",
	Long: `Probe the candidate endpoints in order and report the first one that
serves analytics, its response time and payload format, a sample of its
headline numbers, and the outcome of every probe.

The test runs regardless of the saved display mode.`,
	Example: `  kitadash status
  kitadash status --endpoint http://localhost:8000 --format json
  kitadash status --strict || echo "KitaKits is down"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		format, err := resolveFormat(deps.Config.Format)
		if err != nil {
			return err
		}

		started := time.Now()
		st := deps.Client.TestConnection(cmd.Context(), deps.Config.Endpoints)
		result := newResult(model.KindConnection, "status", &st, len(st.Probes), started)
		if err := emit(cmd.OutOrStdout(), result, format); err != nil {
			return err
		}
		if statusStrict && !st.HasLiveEndpoint {
			return errNoLiveEndpoint
		}
		return nil
	},
}

var errNoLiveEndpoint = errors.New("no live KitaKits endpoint reachable")

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusStrict, "strict", false, "exit 1 when no endpoint is reachable")
}
