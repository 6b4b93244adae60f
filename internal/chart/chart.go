// Package chart provides ASCII terminal charts for dashboard widgets.
// Two renderers are available:
//
//   - Bar: horizontal bar chart, one labelled bar per point. Used for the
//     trending-products ranking.
//   - Plot: multi-line ASCII chart with labelled axes. Used for the daily
//     activity series.
//
// Both renderers treat NaN values as gaps, not zeros.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/derickschaefer/kitadash/internal/model"
)

// Point is one labelled value. Note, if set, is printed after the bar.
type Point struct {
	Label string
	Value float64
	Note  string
}

// FromProducts turns a product ranking into bar points, annotated with the
// week-over-week change and its band marker.
func FromProducts(products []model.Product) []Point {
	pts := make([]Point, len(products))
	for i, p := range products {
		pts[i] = Point{
			Label: fmt.Sprintf("%d. %s", p.Rank, p.Name),
			Value: float64(p.Sales),
			Note:  fmt.Sprintf("%+.0f%% %s", p.Change, BandMarker(p.Change)),
		}
	}
	return pts
}

// FromDaily turns one column of the daily series into points labelled by
// date. value picks the column.
func FromDaily(days []model.DailyTrend, value func(model.DailyTrend) float64) []Point {
	pts := make([]Point, len(days))
	for i, d := range days {
		pts[i] = Point{Label: d.Date, Value: value(d)}
	}
	return pts
}

// ─── Change bands ─────────────────────────────────────────────────────────────

// Band classifies a percentage change for colouring product bars.
type Band string

const (
	BandStrong Band = "strong" // > 30%
	BandUp     Band = "up"     // > 10%
	BandFlat   Band = "flat"   // > 0%
	BandDown   Band = "down"
)

// ChangeBand returns the band for a percentage change.
func ChangeBand(change float64) Band {
	switch {
	case change > 30:
		return BandStrong
	case change > 10:
		return BandUp
	case change > 0:
		return BandFlat
	}
	return BandDown
}

// BandMarker is the glyph shown for change's band.
func BandMarker(change float64) string {
	switch ChangeBand(change) {
	case BandStrong:
		return "▲▲"
	case BandUp:
		return "▲"
	case BandFlat:
		return "•"
	}
	return "▼"
}

// ─── Bar ─────────────────────────────────────────────────────────────────────

// BarOptions controls horizontal bar chart rendering.
type BarOptions struct {
	// Width is the total character width available for the chart.
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
	// MaxBars caps the number of bars; the first MaxBars points are kept.
	// If 0, no limit is applied.
	MaxBars int
}

// Bar renders a horizontal bar chart of pts to w, one bar per point.
//
// Output example:
//
//	Trending products
//	1. Instant Noodles    15.7K  ████████████████████  +45% ▲▲
//	2. Jasmine Rice 25kg  12.5K  ███████████████       +15% ▲
func Bar(w io.Writer, title string, pts []Point, opts BarOptions) error {
	totalWidth := opts.Width
	if totalWidth <= 0 {
		totalWidth = termWidth()
	}

	var valid []Point
	for _, p := range pts {
		if !math.IsNaN(p.Value) {
			valid = append(valid, p)
		}
	}
	if len(valid) < 1 {
		return fmt.Errorf("chart bar: no values to render")
	}
	if opts.MaxBars > 0 && len(valid) > opts.MaxBars {
		valid = valid[:opts.MaxBars]
	}

	minVal, maxVal := valid[0].Value, valid[0].Value
	for _, p := range valid[1:] {
		minVal = math.Min(minVal, p.Value)
		maxVal = math.Max(maxVal, p.Value)
	}

	labelWidth, valWidth, noteWidth := 0, 0, 0
	for _, p := range valid {
		labelWidth = max(labelWidth, utf8.RuneCountInString(p.Label))
		valWidth = max(valWidth, len(formatFloat(p.Value)))
		noteWidth = max(noteWidth, utf8.RuneCountInString(p.Note))
	}

	// label, value, bar and note separated by two spaces each
	barAreaWidth := totalWidth - labelWidth - valWidth - 4
	if noteWidth > 0 {
		barAreaWidth -= noteWidth + 2
	}
	if barAreaWidth < 4 {
		barAreaWidth = 4
	}

	hasNeg := minVal < 0
	valRange := maxVal - minVal
	if !hasNeg {
		// bars grow from zero so relative sizes read correctly
		valRange = maxVal
	}
	if valRange == 0 {
		valRange = 1
	}
	var zeroPos int
	if hasNeg {
		zeroPos = int(math.Round((-minVal / valRange) * float64(barAreaWidth-1)))
	}

	if title != "" {
		fmt.Fprintln(w, title)
	}
	for _, p := range valid {
		var bar string
		if hasNeg {
			bar = buildBiBar(p.Value, minVal, maxVal, barAreaWidth, zeroPos)
		} else {
			barLen := int(math.Round(p.Value / valRange * float64(barAreaWidth)))
			barLen = min(max(barLen, 1), barAreaWidth)
			bar = strings.Repeat("█", barLen)
		}

		line := fmt.Sprintf("%s  %*s  %s", padRight(p.Label, labelWidth), valWidth, formatFloat(p.Value), padRight(bar, barAreaWidth))
		if p.Note != "" {
			line += "  " + p.Note
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	return nil
}

// buildBiBar renders a bar that may extend left (negative) or right (positive)
// from a zero baseline at zeroPos within a field of width barAreaWidth.
func buildBiBar(val, minVal, maxVal float64, barAreaWidth, zeroPos int) string {
	valRange := maxVal - minVal
	buf := []rune(strings.Repeat(" ", barAreaWidth))

	if zeroPos >= 0 && zeroPos < barAreaWidth {
		buf[zeroPos] = '│'
	}

	if val >= 0 {
		end := zeroPos + int(math.Round(val/valRange*float64(barAreaWidth-1)))
		for i := zeroPos + 1; i <= end && i < barAreaWidth; i++ {
			buf[i] = '█'
		}
	} else {
		start := zeroPos - int(math.Round((-val)/valRange*float64(barAreaWidth-1)))
		if start < 0 {
			start = 0
		}
		for i := start; i < zeroPos && i < barAreaWidth; i++ {
			buf[i] = '█'
		}
	}
	return string(buf)
}

// ─── Plot ─────────────────────────────────────────────────────────────────────

// PlotOptions controls multi-line ASCII plot rendering.
type PlotOptions struct {
	// Width is the total character width of the chart (including Y-axis label).
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
	// Height is the number of data rows in the chart body (not counting axis labels).
	// If 0, defaults to 10.
	Height int
}

// Plot renders a multi-line ASCII chart of pts to w. Points are spread
// across the plot width in order; the first, middle and last labels are
// printed under the X axis.
func Plot(w io.Writer, title string, pts []Point, opts PlotOptions) error {
	width := opts.Width
	if width <= 0 {
		width = termWidth()
	}
	height := opts.Height
	if height <= 0 {
		height = 10
	}

	var validVals []float64
	for _, p := range pts {
		if !math.IsNaN(p.Value) {
			validVals = append(validVals, p.Value)
		}
	}
	if len(validVals) < 2 {
		return fmt.Errorf("chart plot: need at least 2 values (got %d)", len(validVals))
	}

	minVal, maxVal := validVals[0], validVals[0]
	for _, v := range validVals[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}

	ticks := yTicks(minVal, maxVal, height)
	yLabelWidth := 0
	for _, t := range ticks {
		yLabelWidth = max(yLabelWidth, len(formatFloat(t)))
	}

	plotWidth := width - yLabelWidth - 1
	if plotWidth < 10 {
		plotWidth = 10
	}

	cols := spreadCols(pts, plotWidth)
	grid := buildGrid(cols, minVal, maxVal, height)

	if title != "" {
		fmt.Fprintf(w, "%s  (%s to %s)\n", title, pts[0].Label, pts[len(pts)-1].Label)
	}

	for row := 0; row < height; row++ {
		label := ""
		for _, t := range ticks {
			if math.Abs(rowForValue(t, minVal, maxVal, height)-float64(row)) < 0.5 {
				label = formatFloat(t)
				break
			}
		}
		axisCh := "┤"
		if label == "" {
			axisCh = " "
		}
		fmt.Fprintf(w, "%*s%s%s\n", yLabelWidth, label, axisCh, strings.TrimRight(string(grid[row]), " "))
	}

	fmt.Fprintf(w, "%s└%s\n", strings.Repeat(" ", yLabelWidth), strings.Repeat("─", plotWidth))
	fmt.Fprintf(w, "%s %s\n", strings.Repeat(" ", yLabelWidth), strings.TrimRight(xAxisLabels(pts, plotWidth), " "))
	return nil
}

// ─── Grid building ────────────────────────────────────────────────────────────

// spreadCols maps pts onto n columns. With fewer points than columns each
// point is stretched over an equal run; with more, each column averages its
// bucket. A column whose bucket is all NaN is NaN.
func spreadCols(pts []Point, n int) []float64 {
	total := len(pts)
	cols := make([]float64, n)
	for col := 0; col < n; col++ {
		lo := col * total / n
		hi := (col+1)*total/n - 1
		if hi < lo {
			hi = lo
		}
		if hi >= total {
			hi = total - 1
		}
		sum, count := 0.0, 0
		for i := lo; i <= hi; i++ {
			if !math.IsNaN(pts[i].Value) {
				sum += pts[i].Value
				count++
			}
		}
		if count == 0 {
			cols[col] = math.NaN()
		} else {
			cols[col] = sum / float64(count)
		}
	}
	return cols
}

// rowForValue returns the float row index (0=top=max) for a given value.
func rowForValue(v, minVal, maxVal float64, height int) float64 {
	if maxVal == minVal {
		return float64(height) / 2
	}
	return (maxVal - v) / (maxVal - minVal) * float64(height-1)
}

// buildGrid renders columns into a height×width rune grid using
// box-drawing characters to connect adjacent data points.
func buildGrid(cols []float64, minVal, maxVal float64, height int) [][]rune {
	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", len(cols)))
	}

	rowOf := make([]int, len(cols))
	for col, v := range cols {
		if math.IsNaN(v) {
			rowOf[col] = -1 // gap
			continue
		}
		r := int(math.Round(rowForValue(v, minVal, maxVal, height)))
		rowOf[col] = min(max(r, 0), height-1)
	}

	for col := 0; col < len(cols); col++ {
		r := rowOf[col]
		if r < 0 {
			continue
		}

		prevRow, nextRow := -2, -2
		if col > 0 {
			prevRow = rowOf[col-1]
		}
		if col < len(cols)-1 {
			nextRow = rowOf[col+1]
		}

		switch {
		case prevRow == -2 && nextRow == -2:
			grid[r][col] = '·'
		case (prevRow < 0 || prevRow == r) && (nextRow < 0 || nextRow == r):
			grid[r][col] = '─'
		case prevRow >= 0 && nextRow >= 0 && (prevRow < r) == (nextRow < r) && prevRow != r && nextRow != r:
			// both neighbours on the same side: peak or valley
			grid[r][col] = '─'
		case (prevRow < 0 || prevRow <= r) && nextRow > r:
			grid[r][col] = '╭'
		case (prevRow < 0 || prevRow >= r) && nextRow >= 0 && nextRow < r:
			grid[r][col] = '╰'
		case prevRow >= 0 && prevRow < r:
			grid[r][col] = '╮'
		case prevRow >= 0 && prevRow > r:
			grid[r][col] = '╯'
		default:
			grid[r][col] = '─'
		}

		if prevRow >= 0 && prevRow != r {
			lo, hi := min(r, prevRow), max(r, prevRow)
			for fill := lo + 1; fill < hi; fill++ {
				if grid[fill][col] == ' ' {
					grid[fill][col] = '│'
				}
			}
		}
	}
	return grid
}

// ─── Axis helpers ─────────────────────────────────────────────────────────────

// yTicks returns 3 or 4 evenly-spaced tick values for the Y axis.
func yTicks(minVal, maxVal float64, height int) []float64 {
	if maxVal == minVal {
		return []float64{minVal}
	}
	nTicks := 4
	if height <= 6 {
		nTicks = 3
	}
	ticks := make([]float64, nTicks)
	for i := 0; i < nTicks; i++ {
		ticks[i] = minVal + float64(i)*(maxVal-minVal)/float64(nTicks-1)
	}
	return ticks
}

// xAxisLabels builds a padded string with the start, middle and end labels.
func xAxisLabels(pts []Point, plotWidth int) string {
	if len(pts) == 0 {
		return ""
	}
	startLabel := pts[0].Label
	midLabel := pts[len(pts)/2].Label
	endLabel := pts[len(pts)-1].Label

	buf := []rune(strings.Repeat(" ", plotWidth))
	writeAt := func(pos int, s string) {
		for i, ch := range []rune(s) {
			if pos+i >= 0 && pos+i < len(buf) {
				buf[pos+i] = ch
			}
		}
	}
	writeAt(0, startLabel)
	if len(pts) > 2 {
		writeAt(plotWidth/2-utf8.RuneCountInString(midLabel)/2, midLabel)
	}
	writeAt(plotWidth-utf8.RuneCountInString(endLabel), endLabel)
	return string(buf)
}

// ─── Utilities ────────────────────────────────────────────────────────────────

// formatFloat formats a value for labels: compact K/M notation for large
// numbers, no unnecessary trailing zeros otherwise.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	abs := math.Abs(v)
	var s string
	switch {
	case abs == 0:
		return "0"
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 1, 64) + "K"
	case abs >= 1:
		s = strconv.FormatFloat(v, 'f', 2, 64)
	default:
		s = strconv.FormatFloat(v, 'f', 4, 64)
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// termWidth returns the terminal width from $COLUMNS, defaulting to 80.
func termWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 20 {
			return n
		}
	}
	return 80
}
