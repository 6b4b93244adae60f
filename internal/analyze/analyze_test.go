package analyze_test

import (
	"math"
	"testing"
	"time"

	"github.com/derickschaefer/kitadash/internal/analyze"
	"github.com/derickschaefer/kitadash/internal/fixture"
	"github.com/derickschaefer/kitadash/internal/model"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// makeDays builds consecutive days of interactions starting 2025-01-06.
func makeDays(values ...int64) []model.DailyTrend {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	out := make([]model.DailyTrend, len(values))
	for i, v := range values {
		out[i] = model.DailyTrend{
			Date:         start.AddDate(0, 0, i).Format("2006-01-02"),
			Interactions: v,
			NewUsers:     v / 10,
		}
	}
	return out
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ─── Summarize ────────────────────────────────────────────────────────────────

func TestSummarizeBasics(t *testing.T) {
	s := analyze.Summarize(analyze.MetricInteractions, makeDays(1, 2, 3, 4, 5))

	if s.Days != 5 || s.Total != 15 {
		t.Errorf("Days/Total: got %d/%g", s.Days, s.Total)
	}
	if !approxEqual(s.Mean, 3, 1e-9) {
		t.Errorf("Mean: expected 3, got %g", s.Mean)
	}
	if !approxEqual(s.Std, math.Sqrt(2.5), 1e-6) {
		t.Errorf("Std: expected %g, got %g", math.Sqrt(2.5), s.Std)
	}
	if s.Median != 3 {
		t.Errorf("Median: expected 3, got %g", s.Median)
	}
}

func TestSummarizeMinMaxDates(t *testing.T) {
	s := analyze.Summarize(analyze.MetricInteractions, makeDays(5, 2, 8, 1, 9, 3))
	if s.Min != 1 || s.MinDate != "2025-01-09" {
		t.Errorf("Min: got %g on %s", s.Min, s.MinDate)
	}
	if s.Max != 9 || s.MaxDate != "2025-01-10" {
		t.Errorf("Max: got %g on %s", s.Max, s.MaxDate)
	}
}

func TestSummarizeChange(t *testing.T) {
	s := analyze.Summarize(analyze.MetricInteractions, makeDays(100, 130, 150))
	if s.First != 100 || s.Last != 150 || s.Change != 50 {
		t.Errorf("First/Last/Change: %g/%g/%g", s.First, s.Last, s.Change)
	}
	if !approxEqual(s.ChangePct, 50, 1e-9) {
		t.Errorf("ChangePct: expected 50, got %g", s.ChangePct)
	}
}

func TestSummarizeChangeZeroFirst(t *testing.T) {
	s := analyze.Summarize(analyze.MetricInteractions, makeDays(0, 10))
	if !math.IsNaN(s.ChangePct) {
		t.Errorf("ChangePct from zero should be NaN, got %g", s.ChangePct)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := analyze.Summarize(analyze.MetricInteractions, nil)
	if s.Days != 0 || s.Total != 0 {
		t.Errorf("empty: got %+v", s)
	}
	if !math.IsNaN(s.Mean) || !math.IsNaN(s.Min) || !math.IsNaN(s.ChangePct) {
		t.Error("empty input should produce NaN statistics")
	}
}

func TestSummarizeMetricSelection(t *testing.T) {
	s := analyze.Summarize(analyze.MetricNewUsers, makeDays(100, 200))
	if s.Total != 30 {
		t.Errorf("newUsers total: expected 30, got %g", s.Total)
	}
	s = analyze.Summarize(analyze.MetricOCRProcessed, makeDays(100, 200))
	if s.Total != 0 {
		t.Errorf("ocrProcessed total: expected 0, got %g", s.Total)
	}
}

func TestSummarizeAllFixture(t *testing.T) {
	days := fixture.Analytics().Trends.Daily
	all := analyze.SummarizeAll(days)
	if len(all) != len(analyze.Metrics) {
		t.Fatalf("expected %d summaries, got %d", len(analyze.Metrics), len(all))
	}
	for _, s := range all {
		if s.Days != len(days) {
			t.Errorf("%s: Days %d", s.Metric, s.Days)
		}
	}
	if all[0].MaxDate != "2025-01-10" {
		t.Errorf("fixture peak should be Friday 2025-01-10, got %s", all[0].MaxDate)
	}
}

// ─── Trend ────────────────────────────────────────────────────────────────────

func TestTrendLinearUpward(t *testing.T) {
	tr, err := analyze.Trend(analyze.MetricInteractions, makeDays(10, 20, 30, 40, 50), analyze.TrendLinear)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if !approxEqual(tr.Slope, 10, 1e-9) {
		t.Errorf("Slope: expected 10/day, got %g", tr.Slope)
	}
	if !approxEqual(tr.SlopePerWeek, 70, 1e-9) {
		t.Errorf("SlopePerWeek: expected 70, got %g", tr.SlopePerWeek)
	}
	if !approxEqual(tr.R2, 1, 1e-9) {
		t.Errorf("R2: expected 1, got %g", tr.R2)
	}
	if tr.Direction != "up" {
		t.Errorf("Direction: expected up, got %s", tr.Direction)
	}
}

func TestTrendDownwardAndFlat(t *testing.T) {
	tr, _ := analyze.Trend(analyze.MetricInteractions, makeDays(50, 40, 30, 20), analyze.TrendLinear)
	if tr.Direction != "down" {
		t.Errorf("expected down, got %s", tr.Direction)
	}
	tr, _ = analyze.Trend(analyze.MetricInteractions, makeDays(1000, 1000, 1000), analyze.TrendLinear)
	if tr.Direction != "flat" {
		t.Errorf("expected flat, got %s", tr.Direction)
	}
}

func TestTrendSkipsUndatedDays(t *testing.T) {
	days := makeDays(10, 20, 30)
	days[1].Date = "yesterday"
	tr, err := analyze.Trend(analyze.MetricInteractions, days, analyze.TrendLinear)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if !approxEqual(tr.Slope, 10, 1e-9) {
		t.Errorf("Slope over dated days: expected 10, got %g", tr.Slope)
	}
}

func TestTrendTooFewDays(t *testing.T) {
	if _, err := analyze.Trend(analyze.MetricInteractions, makeDays(10), analyze.TrendLinear); err == nil {
		t.Error("expected an error for a single day")
	}
}

func TestTrendTheilSenRobustToOutlier(t *testing.T) {
	days := makeDays(10, 20, 30, 40, 50, 60, 70)
	days[3].Interactions = 10000
	ts, err := analyze.Trend(analyze.MetricInteractions, days, analyze.TrendTheilSen)
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if !approxEqual(ts.Slope, 10, 1e-9) {
		t.Errorf("Theil-Sen slope should ignore the outlier, got %g", ts.Slope)
	}
	if ts.Method != analyze.TrendTheilSen {
		t.Errorf("Method: got %s", ts.Method)
	}
}

func TestTrendUnknownMethodFallsBackToLinear(t *testing.T) {
	tr, err := analyze.Trend(analyze.MetricInteractions, makeDays(1, 2), analyze.TrendMethod("cubic"))
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if tr.Method != analyze.TrendLinear {
		t.Errorf("expected linear, got %s", tr.Method)
	}
}
