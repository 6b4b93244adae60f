package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/kitadash/internal/analyze"
	"github.com/derickschaefer/kitadash/internal/chart"
	"github.com/derickschaefer/kitadash/internal/dashboard"
	"github.com/derickschaefer/kitadash/internal/kitakits"
	"github.com/derickschaefer/kitadash/internal/model"
	"github.com/derickschaefer/kitadash/internal/util"
)

// ─── View helpers ─────────────────────────────────────────────────────────────

// Stat is one hero card.
type Stat struct {
	Label string
	Value string
	Note  string
}

// HeroStats builds the headline cards for a.
func HeroStats(a *model.Analytics) []Stat {
	growth := a.Engagement.UserGrowthRate
	if growth == "" {
		growth = "n/a"
	}
	return []Stat{
		{Label: "Total MSMEs", Value: util.Count(a.Overview.TotalUsers), Note: "growth " + growth},
		{Label: "Daily Transactions", Value: util.CompactNumber(float64(a.Overview.TotalInteractions)), Note: "week " + orNA(a.Trends.Weekly.PercentageChange.Interactions)},
		{Label: "Revenue Tracked", Value: util.Peso(a.Sales.TotalRevenue), Note: fmt.Sprintf("%s transactions", util.Count(a.Sales.TotalTransactions))},
		{Label: "OCR Processed", Value: util.CompactNumber(float64(a.Overview.TotalOCRProcessed)), Note: "week " + orNA(a.Trends.Weekly.PercentageChange.OCRProcessed)},
		{Label: "Geographic Coverage", Value: fmt.Sprintf("%d Regions", len(a.Regions)), Note: densitySummary(a.Regions)},
	}
}

// DensityLabel maps a region status to its heat-map legend.
func DensityLabel(status string) string {
	switch strings.ToLower(status) {
	case "high":
		return "High Density"
	case "medium":
		return "Medium Density"
	case "low":
		return "Low Density"
	}
	return "No Data"
}

// Badge is the data-source status shown above every dashboard.
func Badge(mode model.DisplayMode, failed bool) string {
	switch {
	case failed:
		return "ERROR"
	case mode.IsLive():
		return "LIVE"
	}
	return "MOCK"
}

func densitySummary(regions []model.Region) string {
	var high []string
	for _, r := range regions {
		if strings.EqualFold(r.Status, "high") {
			high = append(high, r.Name)
		}
	}
	if len(high) == 0 {
		return ""
	}
	return "high density: " + strings.Join(high, ", ")
}

func widgetTitle(w dashboard.Widget) string {
	switch w {
	case dashboard.WidgetHero:
		return "Overview"
	case dashboard.WidgetProducts:
		return "Trending Products"
	case dashboard.WidgetRegions:
		return "Regional Activity"
	case dashboard.WidgetAlerts:
		return "Insights & Alerts"
	case dashboard.WidgetTrends:
		return "Daily Activity"
	case dashboard.WidgetConnection:
		return "Connection"
	}
	return string(w)
}

func formatCount(n int64) string { return util.Count(n) }

func signedPct(v float64) string { return util.SignedPct(v) }

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	switch d := result.Data.(type) {
	case *model.Analytics:
		return renderAnalyticsTables(w, d)
	case *dashboard.Snapshot:
		return renderSnapshot(w, d)
	case *kitakits.ConnectionStatus:
		return renderConnection(w, d)
	case *model.ModeReport:
		return renderModeReport(w, d)
	default:
		return renderJSON(w, result)
	}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	return tw
}

func renderAnalyticsTables(w io.Writer, a *model.Analytics) error {
	fmt.Fprintf(w, "%s · %s · %s\n\n", Badge(modeOf(a), a.IsError()), a.Metadata.DataSource, a.Metadata.GeneratedAt.Format(time.RFC3339))
	renderHero(w, a)
	renderProductsTable(w, a.Products)
	renderRegions(w, a.Regions)
	renderFindings(w, a)
	return nil
}

func modeOf(a *model.Analytics) model.DisplayMode {
	if a.Metadata.Status == model.StatusMock {
		return model.ModeMock
	}
	return model.ModeLive
}

func renderHero(w io.Writer, a *model.Analytics) {
	tw := newTable(w, "STAT", "VALUE", "NOTE")
	tw.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	for _, s := range HeroStats(a) {
		tw.Append([]string{s.Label, s.Value, s.Note})
	}
	tw.Render()
}

func renderProductsTable(w io.Writer, products []model.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No trending products.")
		return
	}
	tw := newTable(w, "#", "PRODUCT", "SALES", "CHANGE", "PRICE", "CATEGORY", "STOCK")
	tw.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})
	for _, p := range products {
		tw.Append([]string{
			strconv.Itoa(p.Rank), p.Name, formatCount(p.Sales),
			signedPct(p.Change) + " " + chart.BandMarker(p.Change),
			util.Peso(p.Price), p.Category, p.Stock,
		})
	}
	tw.Render()
}

func renderRegions(w io.Writer, regions []model.Region) {
	if len(regions) == 0 {
		fmt.Fprintln(w, "No regional data.")
		return
	}
	tw := newTable(w, "REGION", "MSMES", "AVG TXN", "DENSITY", "GROWTH", "TOP PRODUCT", "ALERT")
	for _, r := range regions {
		tw.Append([]string{
			r.Name, formatCount(r.MSMEs), util.Peso(r.AvgTransaction),
			DensityLabel(r.Status), r.Growth, r.TopProduct, r.Alert,
		})
	}
	tw.Render()
}

func renderFindings(w io.Writer, a *model.Analytics) {
	if len(a.Findings) > 0 {
		tw := newTable(w, "KIND", "TITLE", "DESCRIPTION", "IMPACT", "ACTION")
		for _, f := range a.Findings {
			tw.Append([]string{strings.ToUpper(f.Kind), f.Title, f.Description, f.Impact, f.Action})
		}
		tw.Render()
	}
	for _, r := range a.Recommendations {
		fmt.Fprintf(w, "  → %s\n", r)
	}
}

func renderTrends(w io.Writer, a *model.Analytics) {
	days := a.Trends.Daily
	if len(days) < 2 {
		fmt.Fprintln(w, "Not enough daily data to chart.")
		return
	}
	pts := chart.FromDaily(days, analyze.MetricInteractions.Value)
	if err := chart.Plot(w, "Interactions", pts, chart.PlotOptions{Height: 8}); err != nil {
		fmt.Fprintf(w, "chart: %v\n", err)
	}

	tw := newTable(w, "METRIC", "TOTAL", "MEAN", "PEAK", "CHANGE", "TREND")
	for _, s := range analyze.SummarizeAll(days) {
		trend := "n/a"
		if tr, err := analyze.Trend(s.Metric, days, analyze.TrendTheilSen); err == nil {
			trend = fmt.Sprintf("%s (%+.0f/wk)", tr.Direction, tr.SlopePerWeek)
		}
		change := "n/a"
		if !math.IsNaN(s.ChangePct) {
			change = signedPct(s.ChangePct)
		}
		tw.Append([]string{
			string(s.Metric), util.CompactNumber(s.Total), util.CompactNumber(s.Mean),
			s.MaxDate, change, trend,
		})
	}
	tw.Render()

	wk := a.Trends.Weekly
	fmt.Fprintf(w, "Week over week: interactions %s → %s (%s), new users %s → %s (%s)\n",
		formatCount(wk.PreviousWeek.Interactions), formatCount(wk.CurrentWeek.Interactions), orNA(wk.PercentageChange.Interactions),
		formatCount(wk.PreviousWeek.NewUsers), formatCount(wk.CurrentWeek.NewUsers), orNA(wk.PercentageChange.NewUsers))
}

// ─── Dashboard ────────────────────────────────────────────────────────────────

func renderSnapshot(w io.Writer, s *dashboard.Snapshot) error {
	fmt.Fprintf(w, "KitaKits MSME Analytics  [%s]  %s\n", Badge(s.Mode, anyError(s)), s.GeneratedAt.Format("2006-01-02 15:04:05"))
	for _, p := range s.Panels {
		fmt.Fprintf(w, "\n── %s ", widgetTitle(p.Widget))
		fmt.Fprintln(w, strings.Repeat("─", max(0, 60-len(widgetTitle(p.Widget)))))
		a := &p.Data
		if a.IsError() && p.Widget != dashboard.WidgetConnection {
			renderFindings(w, a)
			continue
		}
		switch p.Widget {
		case dashboard.WidgetHero:
			renderHero(w, a)
		case dashboard.WidgetProducts:
			if len(a.Products) == 0 {
				fmt.Fprintln(w, "No trending products.")
				break
			}
			if err := chart.Bar(w, "", chart.FromProducts(a.Products), chart.BarOptions{MaxBars: 10}); err != nil {
				return err
			}
		case dashboard.WidgetRegions:
			renderRegions(w, a.Regions)
		case dashboard.WidgetAlerts:
			renderFindings(w, a)
		case dashboard.WidgetTrends:
			renderTrends(w, a)
		case dashboard.WidgetConnection:
			if p.Connection == nil {
				fmt.Fprintf(w, "Mock data (demo); no endpoints probed.\n")
				break
			}
			if err := renderConnection(w, p.Connection); err != nil {
				return err
			}
		}
	}
	return nil
}

// ─── Connection ───────────────────────────────────────────────────────────────

func renderConnection(w io.Writer, st *kitakits.ConnectionStatus) error {
	if st.HasLiveEndpoint {
		fmt.Fprintf(w, "Connected: %s (%dms, %s format)\n", st.Endpoint, st.ResponseTime.Milliseconds(), orNA(st.Format))
		if st.Sample != nil {
			genuine := "no"
			if st.Sample.HasRealData {
				genuine = "yes"
			}
			fmt.Fprintf(w, "Sample: %s users, %s interactions, real data: %s\n",
				formatCount(st.Sample.TotalUsers), formatCount(st.Sample.TotalInteractions), genuine)
		}
	} else {
		fmt.Fprintf(w, "No live endpoint reachable (%d tried).\n", len(st.Probes))
	}

	tw := newTable(w, "ENDPOINT", "RESULT", "HTTP", "LATENCY", "ERROR")
	for _, p := range st.Probes {
		result := "fail"
		if p.Reachable {
			result = "ok"
		}
		code := ""
		if p.Status > 0 {
			code = strconv.Itoa(p.Status)
		}
		tw.Append([]string{p.Endpoint, result, code, fmt.Sprintf("%dms", p.Latency.Milliseconds()), truncate(p.Cause(), 60)})
	}
	tw.Render()
	return nil
}

// ─── Mode ─────────────────────────────────────────────────────────────────────

func renderModeReport(w io.Writer, r *model.ModeReport) error {
	fmt.Fprintf(w, "Display mode: %s (%s)\n", r.Mode, r.Source)
	if len(r.History) == 0 {
		return nil
	}
	tw := newTable(w, "CHANGED AT", "MODE")
	for _, c := range r.History {
		tw.Append([]string{c.At.Local().Format("2006-01-02 15:04:05"), string(c.Mode)})
	}
	tw.Render()
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
