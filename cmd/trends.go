package cmd

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/kitadash/internal/analyze"
	"github.com/derickschaefer/kitadash/internal/chart"
	"github.com/derickschaefer/kitadash/internal/model"
	"github.com/derickschaefer/kitadash/internal/pipeline"
	"github.com/derickschaefer/kitadash/internal/render"
	"github.com/derickschaefer/kitadash/internal/transform"
	"github.com/derickschaefer/kitadash/internal/util"
)

var (
	trendsMode      string
	trendsStdin     bool
	trendsMetric    string
	trendsMethod    string
	trendsRolling   int
	trendsPctChange bool
	trendsDiff      bool
	trendsWeekly    bool
	trendsWidth     int
	trendsHeight    int
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Chart and summarize the daily activity series",
	Long: `Plot one metric of the daily activity series with descriptive statistics
and a fitted trend.

The series comes from the saved display mode, or from stdin with --stdin
(JSONL written by 'kitadash trends --format jsonl', or the JSON written by
'kitadash fetch --format json').

Transforms apply in this order: --weekly, --diff, --pct-change, --rolling.
Statistics and the trend are always computed on the untransformed days.`,
	Example: `  kitadash trends
  kitadash trends --metric newUsers --method theil-sen
  kitadash trends --rolling 3 --height 8
  kitadash fetch --mode mock --format json | kitadash trends --stdin --pct-change
  kitadash trends --format jsonl > days.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		metric, err := parseMetric(trendsMetric)
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

		var days []model.DailyTrend
		if trendsStdin {
			if days, err = pipeline.ReadDaily(cmd.InOrStdin()); err != nil {
				return err
			}
		} else {
			var mode model.DisplayMode
			if trendsMode != "" {
				if mode, err = model.ParseMode(trendsMode); err != nil {
					return err
				}
			} else if mode, err = deps.Prefs.Mode(); err != nil {
				slog.Warn("reading saved display mode; using default", "mode", mode, "err", err)
			}
			a := deps.Selector.Select(cmd.Context(), mode, nil)
			if a.IsError() {
				return errors.New("no live KitaKits endpoint; check 'kitadash status' or use --mode mock")
			}
			days = a.Trends.Daily
		}
		if len(days) == 0 {
			return errors.New("the dataset has no daily trends")
		}

		pts, label, err := applyTransforms(transform.FromDaily(days, metric.Value))
		if err != nil {
			return err
		}

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()

		switch format {
		case render.FormatJSONL:
			if label == "" {
				return pipeline.WriteDaily(w, days)
			}
			enc := json.NewEncoder(w)
			for _, p := range pts {
				if err := enc.Encode(pointJSON(p)); err != nil {
					return err
				}
			}
			return nil
		case render.FormatCSV, render.FormatTSV:
			return writePointsDelimited(w, pts, format == render.FormatTSV)
		}

		summary := analyze.Summarize(metric, days)
		tr, trendErr := analyze.Trend(metric, days, analyze.TrendMethod(trendsMethod))

		if format == render.FormatJSON {
			report := map[string]any{
				"metric":    metric,
				"transform": label,
				"summary":   summaryJSON(summary),
				"series":    pointsJSON(pts),
			}
			if trendErr == nil {
				report["trend"] = tr
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		title := string(metric)
		if label != "" {
			title += " " + label
		}
		cp := make([]chart.Point, len(pts))
		for i, p := range pts {
			cp[i] = chart.Point{Label: p.Date, Value: p.Value}
		}
		if err := chart.Plot(w, title, cp, chart.PlotOptions{Width: trendsWidth, Height: trendsHeight}); err != nil {
			fmt.Fprintf(w, "%s: %v\n", title, err)
		}
		fmt.Fprintln(w)

		rows := [][]string{
			{"days", strconv.Itoa(summary.Days)},
			{"total", fmtStat(summary.Total)},
			{"mean", fmtStat(summary.Mean)},
			{"std", fmtStat(summary.Std)},
			{"min", fmtStat(summary.Min) + "  " + summary.MinDate},
			{"median", fmtStat(summary.Median)},
			{"max", fmtStat(summary.Max) + "  " + summary.MaxDate},
			{"change", fmtStat(summary.Change) + "  " + fmtStatPct(summary.ChangePct)},
		}
		if trendErr == nil {
			rows = append(rows,
				[]string{"trend", fmt.Sprintf("%s (%s, R² %.2f)", tr.Direction, tr.Method, tr.R2)},
				[]string{"slope", fmt.Sprintf("%+.1f/day, %+.1f/week", tr.Slope, tr.SlopePerWeek)},
			)
		}
		printKVTableTo(w, rows)
		return nil
	},
}

func parseMetric(s string) (analyze.Metric, error) {
	for _, m := range analyze.Metrics {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	names := make([]string, len(analyze.Metrics))
	for i, m := range analyze.Metrics {
		names[i] = string(m)
	}
	return "", fmt.Errorf("unknown metric %q (valid: %s)", s, strings.Join(names, ", "))
}

// applyTransforms runs the requested operators and returns a label naming
// them, empty when none ran.
func applyTransforms(pts []transform.Point) ([]transform.Point, string, error) {
	var steps []string
	var err error
	if trendsWeekly {
		if pts, err = transform.Weekly(pts, transform.ResampleSum); err != nil {
			return nil, "", err
		}
		steps = append(steps, "weekly")
	}
	if trendsDiff {
		if pts, err = transform.Diff(pts); err != nil {
			return nil, "", err
		}
		steps = append(steps, "diff")
	}
	if trendsPctChange {
		if pts, err = transform.PctChange(pts, 1); err != nil {
			return nil, "", err
		}
		steps = append(steps, "% change")
	}
	if trendsRolling > 0 {
		if pts, err = transform.Roll(pts, trendsRolling, 1, transform.RollMean); err != nil {
			return nil, "", err
		}
		steps = append(steps, fmt.Sprintf("%d-point mean", trendsRolling))
	}
	if len(steps) == 0 {
		return pts, "", nil
	}
	return pts, "(" + strings.Join(steps, ", ") + ")", nil
}

func writePointsDelimited(w io.Writer, pts []transform.Point, tabs bool) error {
	cw := csv.NewWriter(w)
	if tabs {
		cw.Comma = '\t'
	}
	_ = cw.Write([]string{"date", "value"})
	for _, p := range pts {
		v := ""
		if !math.IsNaN(p.Value) {
			v = strconv.FormatFloat(p.Value, 'f', -1, 64)
		}
		_ = cw.Write([]string{p.Date, v})
	}
	cw.Flush()
	return cw.Error()
}

// ─── JSON helpers ─────────────────────────────────────────────────────────────

// finite maps NaN and ±Inf to nil; encoding/json rejects them.
func finite(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func pointJSON(p transform.Point) map[string]any {
	return map[string]any{"date": p.Date, "value": finite(p.Value)}
}

func pointsJSON(pts []transform.Point) []map[string]any {
	out := make([]map[string]any, len(pts))
	for i, p := range pts {
		out[i] = pointJSON(p)
	}
	return out
}

func summaryJSON(s analyze.Summary) map[string]any {
	return map[string]any{
		"days":       s.Days,
		"total":      finite(s.Total),
		"mean":       finite(s.Mean),
		"std":        finite(s.Std),
		"min":        finite(s.Min),
		"min_date":   s.MinDate,
		"median":     finite(s.Median),
		"max":        finite(s.Max),
		"max_date":   s.MaxDate,
		"first":      finite(s.First),
		"last":       finite(s.Last),
		"change":     finite(s.Change),
		"change_pct": finite(s.ChangePct),
	}
}

func fmtStat(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return util.CompactNumber(v)
}

func fmtStatPct(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return util.SignedPct(v)
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(trendsCmd)

	f := trendsCmd.Flags()
	f.StringVar(&trendsMode, "mode", "", "live|mock (default: the saved display mode)")
	f.BoolVar(&trendsStdin, "stdin", false, "read daily records from stdin instead of selecting")
	f.StringVar(&trendsMetric, "metric", string(analyze.MetricInteractions), "interactions|newUsers|ocrProcessed")
	f.StringVar(&trendsMethod, "method", string(analyze.TrendLinear), "trend fit: linear|theil-sen")
	f.IntVar(&trendsRolling, "rolling", 0, "trailing mean over N points (0 = off)")
	f.BoolVar(&trendsPctChange, "pct-change", false, "plot day-over-day percent change")
	f.BoolVar(&trendsDiff, "diff", false, "plot day-over-day difference")
	f.BoolVar(&trendsWeekly, "weekly", false, "aggregate to weekly totals before plotting")
	f.IntVar(&trendsWidth, "width", 0, "chart width in characters (default: auto-detect from $COLUMNS, fallback 80)")
	f.IntVar(&trendsHeight, "height", 10, "chart height in rows")

	_ = trendsCmd.RegisterFlagCompletionFunc("metric", fixedCompletions("interactions", "newUsers", "ocrProcessed"))
	_ = trendsCmd.RegisterFlagCompletionFunc("method", fixedCompletions("linear", "theil-sen"))
}
