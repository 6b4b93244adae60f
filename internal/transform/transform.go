// Package transform implements stateless operators over a dated metric
// series taken from the daily trends. Each operator is a pure function; no
// side effects, no I/O.
package transform

import (
	"fmt"
	"math"
	"time"

	"github.com/derickschaefer/kitadash/internal/model"
	"github.com/derickschaefer/kitadash/internal/util"
)

// Point is one dated value. Date is YYYY-MM-DD; a NaN Value means "no data".
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// FromDaily extracts one metric from days, oldest first as given.
func FromDaily(days []model.DailyTrend, value func(model.DailyTrend) float64) []Point {
	out := make([]Point, len(days))
	for i, d := range days {
		out[i] = Point{Date: d.Date, Value: value(d)}
	}
	return out
}

// ─── Percent Change ───────────────────────────────────────────────────────────

// PctChange computes (v[t] - v[t-period]) / |v[t-period]| * 100. Leading
// points with no prior period are dropped. A zero or NaN base yields NaN.
func PctChange(pts []Point, period int) ([]Point, error) {
	if period < 1 {
		return nil, fmt.Errorf("pct-change: period must be >= 1, got %d", period)
	}
	if len(pts) <= period {
		return nil, fmt.Errorf("pct-change: need more than %d days, got %d", period, len(pts))
	}
	out := make([]Point, 0, len(pts)-period)
	for i := period; i < len(pts); i++ {
		curr, prev := pts[i].Value, pts[i-period].Value
		val := math.NaN()
		if !math.IsNaN(curr) && !math.IsNaN(prev) && prev != 0 {
			val = (curr - prev) / math.Abs(prev) * 100
		}
		out = append(out, Point{Date: pts[i].Date, Value: val})
	}
	return out, nil
}

// ─── Difference ───────────────────────────────────────────────────────────────

// Diff computes day-over-day differences. The first point is dropped.
func Diff(pts []Point) ([]Point, error) {
	if len(pts) < 2 {
		return nil, fmt.Errorf("diff: need at least 2 days, got %d", len(pts))
	}
	out := make([]Point, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		out = append(out, Point{Date: pts[i].Date, Value: pts[i].Value - pts[i-1].Value})
	}
	return out, nil
}

// ─── Rolling Window ───────────────────────────────────────────────────────────

// RollStat selects the statistic for rolling window computation.
type RollStat string

const (
	RollMean RollStat = "mean"
	RollStd  RollStat = "std"
	RollMin  RollStat = "min"
	RollMax  RollStat = "max"
	RollSum  RollStat = "sum"
)

// Roll computes a trailing window statistic: each window is the current point
// and the window-1 before it. NaN values are skipped; a window with fewer
// than minPeriods values yields NaN.
func Roll(pts []Point, window, minPeriods int, stat RollStat) ([]Point, error) {
	if window < 1 {
		return nil, fmt.Errorf("roll: window must be >= 1, got %d", window)
	}
	if minPeriods < 1 {
		minPeriods = 1
	}
	if minPeriods > window {
		return nil, fmt.Errorf("roll: min-periods (%d) cannot exceed window (%d)", minPeriods, window)
	}
	switch stat {
	case RollMean, RollStd, RollMin, RollMax, RollSum:
	default:
		return nil, fmt.Errorf("roll: unknown stat %q (use mean, std, min, max, sum)", stat)
	}

	out := make([]Point, len(pts))
	for i, p := range pts {
		var vals []float64
		for _, w := range pts[max(0, i-window+1) : i+1] {
			if !math.IsNaN(w.Value) {
				vals = append(vals, w.Value)
			}
		}
		val := math.NaN()
		if len(vals) >= minPeriods {
			val = rollValue(vals, stat)
		}
		out[i] = Point{Date: p.Date, Value: val}
	}
	return out, nil
}

func rollValue(vals []float64, stat RollStat) float64 {
	switch stat {
	case RollStd:
		return stddev(vals, mean(vals))
	case RollMin:
		mn, _ := minmax(vals)
		return mn
	case RollMax:
		_, mx := minmax(vals)
		return mx
	case RollSum:
		return sum(vals)
	}
	return mean(vals)
}

// ─── Resample ─────────────────────────────────────────────────────────────────

// ResampleMethod is the aggregation used when resampling.
type ResampleMethod string

const (
	ResampleSum  ResampleMethod = "sum"
	ResampleMean ResampleMethod = "mean"
	ResampleLast ResampleMethod = "last"
)

// Weekly aggregates daily points into ISO weeks. Each output point is dated
// by the Monday of its week. Points with unparseable dates are skipped.
func Weekly(pts []Point, method ResampleMethod) ([]Point, error) {
	switch method {
	case ResampleSum, ResampleMean, ResampleLast:
	default:
		return nil, fmt.Errorf("resample: unknown method %q (use sum, mean, last)", method)
	}

	var out []Point
	var bucket []float64
	var current time.Time
	flush := func() {
		if len(bucket) == 0 {
			return
		}
		var v float64
		switch method {
		case ResampleSum:
			v = sum(bucket)
		case ResampleMean:
			v = mean(bucket)
		case ResampleLast:
			v = bucket[len(bucket)-1]
		}
		out = append(out, Point{Date: util.FormatDate(current), Value: v})
		bucket = bucket[:0]
	}

	for _, p := range pts {
		t, err := util.ParseDate(p.Date)
		if err != nil {
			continue
		}
		monday := t.AddDate(0, 0, -((int(t.Weekday()) + 6) % 7))
		if !monday.Equal(current) {
			flush()
			current = monday
		}
		if !math.IsNaN(p.Value) {
			bucket = append(bucket, p.Value)
		}
	}
	flush()
	return out, nil
}

// ─── Math helpers ─────────────────────────────────────────────────────────────

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return sum(vals) / float64(len(vals))
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

func stddev(vals []float64, m float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var sq float64
	for _, v := range vals {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(vals)-1))
}

func minmax(vals []float64) (float64, float64) {
	mn, mx := vals[0], vals[0]
	for _, v := range vals[1:] {
		mn = min(mn, v)
		mx = max(mx, v)
	}
	return mn, mx
}
