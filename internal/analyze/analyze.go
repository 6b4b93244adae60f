// Package analyze computes summaries and trend fits over the daily activity
// series. All functions are pure; no I/O.
package analyze

import (
	"fmt"
	"math"
	"sort"

	"github.com/derickschaefer/kitadash/internal/model"
	"github.com/derickschaefer/kitadash/internal/util"
)

// ─── Metrics ──────────────────────────────────────────────────────────────────

// Metric names one column of the daily series.
type Metric string

const (
	MetricInteractions Metric = "interactions"
	MetricNewUsers     Metric = "newUsers"
	MetricOCRProcessed Metric = "ocrProcessed"
)

// Metrics lists every Metric in display order.
var Metrics = []Metric{MetricInteractions, MetricNewUsers, MetricOCRProcessed}

// Value extracts m from d.
func (m Metric) Value(d model.DailyTrend) float64 {
	switch m {
	case MetricNewUsers:
		return float64(d.NewUsers)
	case MetricOCRProcessed:
		return float64(d.OCRProcessed)
	}
	return float64(d.Interactions)
}

// ─── Summary ──────────────────────────────────────────────────────────────────

// Summary holds descriptive statistics for one metric of the daily series.
type Summary struct {
	Metric    Metric  `json:"metric"`
	Days      int     `json:"days"`
	Total     float64 `json:"total"`
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	Min       float64 `json:"min"`
	MinDate   string  `json:"min_date"`
	Median    float64 `json:"median"`
	Max       float64 `json:"max"`
	MaxDate   string  `json:"max_date"`
	First     float64 `json:"first"`
	Last      float64 `json:"last"`
	Change    float64 `json:"change"`     // Last - First
	ChangePct float64 `json:"change_pct"` // (Last-First)/|First| * 100
}

// Summarize computes statistics for metric over days, which are expected
// oldest first. With no days every statistic is NaN.
func Summarize(metric Metric, days []model.DailyTrend) Summary {
	s := Summary{Metric: metric, Days: len(days)}
	if len(days) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Median, s.Max = nan, nan, nan, nan, nan
		s.First, s.Last, s.Change, s.ChangePct = nan, nan, nan, nan
		return s
	}

	vals := make([]float64, len(days))
	for i, d := range days {
		vals[i] = metric.Value(d)
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	s.Total = sumF(vals)
	s.Mean = s.Total / float64(len(vals))
	s.Std = stddevF(vals, s.Mean)
	s.Median = percentile(sorted, 50)

	s.Min, s.Max = vals[0], vals[0]
	s.MinDate, s.MaxDate = days[0].Date, days[0].Date
	for i, v := range vals {
		if v < s.Min {
			s.Min, s.MinDate = v, days[i].Date
		}
		if v > s.Max {
			s.Max, s.MaxDate = v, days[i].Date
		}
	}

	s.First = vals[0]
	s.Last = vals[len(vals)-1]
	s.Change = s.Last - s.First
	if s.First != 0 {
		s.ChangePct = s.Change / math.Abs(s.First) * 100
	} else {
		s.ChangePct = math.NaN()
	}
	return s
}

// SummarizeAll summarizes every Metric.
func SummarizeAll(days []model.DailyTrend) []Summary {
	out := make([]Summary, len(Metrics))
	for i, m := range Metrics {
		out[i] = Summarize(m, days)
	}
	return out
}

// ─── Trend ────────────────────────────────────────────────────────────────────

// TrendMethod selects the regression algorithm.
type TrendMethod string

const (
	TrendLinear   TrendMethod = "linear"
	TrendTheilSen TrendMethod = "theil-sen"
)

// TrendResult holds the output of a trend fit.
type TrendResult struct {
	Metric       Metric      `json:"metric"`
	Method       TrendMethod `json:"method"`
	Slope        float64     `json:"slope"` // units per day
	Intercept    float64     `json:"intercept"`
	R2           float64     `json:"r2"`
	Direction    string      `json:"direction"` // "up", "down", "flat"
	SlopePerWeek float64     `json:"slope_per_week"`
}

// flatThreshold is the relative weekly slope, as a fraction of the mean,
// below which a trend counts as flat.
const flatThreshold = 0.01

// Trend fits a line to metric over days. X values are days since the first
// date; entries with an unparseable date are skipped.
func Trend(metric Metric, days []model.DailyTrend, method TrendMethod) (TrendResult, error) {
	tr := TrendResult{Metric: metric, Method: method}

	var pts []point
	var t0 int64
	for _, d := range days {
		t, err := util.ParseDate(d.Date)
		if err != nil {
			continue
		}
		unix := t.Unix()
		if len(pts) == 0 {
			t0 = unix
		}
		pts = append(pts, point{float64(unix-t0) / 86400, metric.Value(d)})
	}
	if len(pts) < 2 {
		return tr, fmt.Errorf("trend: need at least 2 dated days, got %d", len(pts))
	}

	switch method {
	case TrendTheilSen:
		tr.Slope = theilSenSlope(pts)
		xMean := meanPts(pts, func(p point) float64 { return p.x })
		yMean := meanPts(pts, func(p point) float64 { return p.y })
		tr.Intercept = yMean - tr.Slope*xMean
	default:
		tr.Method = TrendLinear
		tr.Slope, tr.Intercept = olsRegress(pts)
	}

	tr.R2 = r2(pts, tr.Slope, tr.Intercept)
	tr.SlopePerWeek = tr.Slope * 7

	scale := math.Abs(meanPts(pts, func(p point) float64 { return p.y }))
	if scale == 0 {
		scale = 1
	}
	switch rel := tr.SlopePerWeek / scale; {
	case rel > flatThreshold:
		tr.Direction = "up"
	case rel < -flatThreshold:
		tr.Direction = "down"
	default:
		tr.Direction = "flat"
	}
	return tr, nil
}

// ─── Math helpers ─────────────────────────────────────────────────────────────

func sumF(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

func stddevF(vals []float64, m float64) float64 {
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

func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	idx := p / 100 * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

type point struct{ x, y float64 }

func olsRegress(pts []point) (slope, intercept float64) {
	n := float64(len(pts))
	var xSum, ySum, xySum, x2Sum float64
	for _, p := range pts {
		xSum += p.x
		ySum += p.y
		xySum += p.x * p.y
		x2Sum += p.x * p.x
	}
	denom := n*x2Sum - xSum*xSum
	if denom == 0 {
		return 0, ySum / n
	}
	slope = (n*xySum - xSum*ySum) / denom
	intercept = (ySum - slope*xSum) / n
	return
}

func theilSenSlope(pts []point) float64 {
	var slopes []float64
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			dx := pts[j].x - pts[i].x
			if dx == 0 {
				continue
			}
			slopes = append(slopes, (pts[j].y-pts[i].y)/dx)
		}
	}
	if len(slopes) == 0 {
		return 0
	}
	sort.Float64s(slopes)
	return percentile(slopes, 50)
}

func r2(pts []point, slope, intercept float64) float64 {
	var yMean float64
	for _, p := range pts {
		yMean += p.y
	}
	yMean /= float64(len(pts))

	var ssTot, ssRes float64
	for _, p := range pts {
		pred := slope*p.x + intercept
		ssTot += (p.y - yMean) * (p.y - yMean)
		ssRes += (p.y - pred) * (p.y - pred)
	}
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}

func meanPts(pts []point, f func(point) float64) float64 {
	var s float64
	for _, p := range pts {
		s += f(p)
	}
	return s / float64(len(pts))
}
