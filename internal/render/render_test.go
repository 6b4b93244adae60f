package render_test

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/derickschaefer/kitadash/internal/dashboard"
	"github.com/derickschaefer/kitadash/internal/fixture"
	"github.com/derickschaefer/kitadash/internal/kitakits"
	"github.com/derickschaefer/kitadash/internal/model"
	"github.com/derickschaefer/kitadash/internal/render"
	"github.com/derickschaefer/kitadash/internal/source"
)

var at = time.Date(2025, 1, 12, 8, 0, 0, 0, time.UTC)

func mockResult() *model.Result {
	a := source.Mock()
	return &model.Result{Kind: model.KindAnalytics, GeneratedAt: at, Command: "fetch", Data: &a}
}

func snapshotResult(mode model.DisplayMode, data model.Analytics) *model.Result {
	snap := &dashboard.Snapshot{ID: "snap-1", Mode: mode, GeneratedAt: at}
	for _, w := range dashboard.AllWidgets {
		snap.Panels = append(snap.Panels, dashboard.Panel{Widget: w, Data: data})
	}
	return &model.Result{Kind: model.KindDashboard, GeneratedAt: at, Command: "dashboard", Data: snap}
}

func connResult() *model.Result {
	st := &kitakits.ConnectionStatus{
		Probes: []kitakits.Probe{
			{Endpoint: "http://a/api/analytics", Err: errors.New("connection refused"), Latency: 3 * time.Millisecond},
			{Endpoint: "http://b/api/analytics", Status: 500, Err: errors.New("HTTP 500"), Latency: 9 * time.Millisecond},
		},
		CheckedAt: at,
	}
	return &model.Result{Kind: model.KindConnection, GeneratedAt: at, Command: "status", Data: st}
}

func renderString(t *testing.T, r *model.Result, format string) string {
	t.Helper()
	var buf strings.Builder
	if err := render.Render(&buf, r, format); err != nil {
		t.Fatalf("Render(%s): %v", format, err)
	}
	return buf.String()
}

// ─── View helpers ─────────────────────────────────────────────────────────────

func TestHeroStatsFixture(t *testing.T) {
	a := fixture.Analytics()
	stats := render.HeroStats(&a)
	want := map[string]string{
		"Total MSMEs":         "45,231",
		"Daily Transactions":  "156.8K",
		"Revenue Tracked":     "₱2.3M",
		"Geographic Coverage": "16 Regions",
	}
	got := map[string]string{}
	for _, s := range stats {
		got[s.Label] = s.Value
	}
	for label, v := range want {
		if got[label] != v {
			t.Errorf("%s: expected %q, got %q", label, v, got[label])
		}
	}
}

func TestHeroStatsPlaceholderZeros(t *testing.T) {
	a := source.Placeholder(at)
	for _, s := range render.HeroStats(&a) {
		switch s.Label {
		case "Total MSMEs":
			if s.Value != "0" {
				t.Errorf("users: got %q", s.Value)
			}
		case "Geographic Coverage":
			if s.Value != "0 Regions" {
				t.Errorf("coverage: got %q", s.Value)
			}
		}
	}
}

func TestDensityLabel(t *testing.T) {
	tests := map[string]string{
		"high":   "High Density",
		"Medium": "Medium Density",
		"low":    "Low Density",
		"":       "No Data",
		"bogus":  "No Data",
	}
	for in, want := range tests {
		if got := render.DensityLabel(in); got != want {
			t.Errorf("DensityLabel(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestBadge(t *testing.T) {
	if got := render.Badge(model.ModeLive, false); got != "LIVE" {
		t.Errorf("live: %s", got)
	}
	if got := render.Badge(model.ModeMock, false); got != "MOCK" {
		t.Errorf("mock: %s", got)
	}
	if got := render.Badge(model.ModeLive, true); got != "ERROR" {
		t.Errorf("error: %s", got)
	}
}

// ─── Formats ──────────────────────────────────────────────────────────────────

func TestValidFormat(t *testing.T) {
	for _, f := range render.Formats {
		if !render.ValidFormat(f) {
			t.Errorf("%s should be valid", f)
		}
	}
	if render.ValidFormat("xml") {
		t.Error("xml should be rejected")
	}
}

func TestRenderJSONEnvelope(t *testing.T) {
	out := renderString(t, mockResult(), render.FormatJSON)
	var env struct {
		Kind string `json:"kind"`
		Data struct {
			Metadata struct {
				Status string `json:"status"`
			} `json:"metadata"`
			Products []model.Product `json:"trendingProducts"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if env.Kind != model.KindAnalytics || env.Data.Metadata.Status != model.StatusMock {
		t.Errorf("envelope: kind=%s status=%s", env.Kind, env.Data.Metadata.Status)
	}
	if len(env.Data.Products) != 10 || env.Data.Products[0].Rank != 1 {
		t.Errorf("products: %+v", env.Data.Products)
	}
}

func TestRenderJSONLProducts(t *testing.T) {
	out := renderString(t, mockResult(), render.FormatJSONL)
	sc := bufio.NewScanner(strings.NewReader(out))
	n := 0
	for sc.Scan() {
		var p model.Product
		if err := json.Unmarshal(sc.Bytes(), &p); err != nil {
			t.Fatalf("line %d: %v", n+1, err)
		}
		n++
		if p.Rank != n {
			t.Errorf("line %d: rank %d", n, p.Rank)
		}
	}
	if n != 10 {
		t.Errorf("expected 10 lines, got %d", n)
	}
}

func TestRenderJSONLProbesCarryErrors(t *testing.T) {
	out := renderString(t, connResult(), render.FormatJSONL)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"error":"connection refused"`) {
		t.Errorf("probe error missing: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"status":500`) {
		t.Errorf("probe status missing: %s", lines[1])
	}
}

func TestRenderCSVProducts(t *testing.T) {
	out := renderString(t, mockResult(), render.FormatCSV)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if len(rows) != 11 {
		t.Fatalf("expected header + 10 rows, got %d", len(rows))
	}
	if rows[0][0] != "rank" || rows[1][0] != "1" {
		t.Errorf("unexpected rows: %v / %v", rows[0], rows[1])
	}
}

func TestRenderTSVSnapshot(t *testing.T) {
	out := renderString(t, snapshotResult(model.ModeMock, source.Mock()), render.FormatTSV)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1+len(dashboard.AllWidgets) {
		t.Fatalf("expected %d lines, got %d", 1+len(dashboard.AllWidgets), len(lines))
	}
	if !strings.HasPrefix(lines[1], "snap-1\thero\tmock") {
		t.Errorf("first panel row: %q", lines[1])
	}
}

func TestRenderMarkdownEscapesPipes(t *testing.T) {
	a := source.Mock()
	a.Products[0].Name = "Noodles | Pack"
	r := &model.Result{Kind: model.KindAnalytics, Data: &a}
	out := renderString(t, r, render.FormatMD)
	if !strings.Contains(out, `Noodles \| Pack`) {
		t.Errorf("pipe should be escaped:\n%s", out)
	}
}

// ─── Table ────────────────────────────────────────────────────────────────────

func TestRenderTableAnalytics(t *testing.T) {
	out := renderString(t, mockResult(), render.FormatTable)
	for _, want := range []string{"MOCK", "KitaKits Mock Data (Demo)", "Total MSMEs", "45,231", "High Density", "REGION"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q", want)
		}
	}
}

func TestRenderTableSnapshotMock(t *testing.T) {
	out := renderString(t, snapshotResult(model.ModeMock, source.Mock()), render.FormatTable)
	for _, want := range []string{"[MOCK]", "Trending Products", "Daily Activity", "Interactions", "no endpoints probed"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTableSnapshotPlaceholder(t *testing.T) {
	out := renderString(t, snapshotResult(model.ModeLive, source.Placeholder(at)), render.FormatTable)
	if !strings.Contains(out, "[ERROR]") {
		t.Error("placeholder dashboard should carry the ERROR badge")
	}
	if !strings.Contains(out, source.PlaceholderTitle) {
		t.Errorf("placeholder finding missing:\n%s", out)
	}
	if strings.Contains(out, "Instant Noodles") {
		t.Error("placeholder must not show mock products")
	}
}

func TestRenderTableConnection(t *testing.T) {
	out := renderString(t, connResult(), render.FormatTable)
	if !strings.Contains(out, "No live endpoint reachable (2 tried)") {
		t.Errorf("summary missing:\n%s", out)
	}
	if !strings.Contains(out, "connection refused") || !strings.Contains(out, "500") {
		t.Errorf("probe rows missing:\n%s", out)
	}
}

func TestRenderTableModeReport(t *testing.T) {
	r := &model.Result{Kind: model.KindMode, Data: &model.ModeReport{
		Mode:    model.ModeMock,
		Source:  "saved",
		History: []model.ModeChange{{Mode: model.ModeMock, At: at}},
	}}
	out := renderString(t, r, render.FormatTable)
	if !strings.Contains(out, "Display mode: mock (saved)") || !strings.Contains(out, "CHANGED AT") {
		t.Errorf("mode report:\n%s", out)
	}
}

func TestPrintFooterWarnings(t *testing.T) {
	var buf strings.Builder
	r := mockResult()
	r.Warnings = []string{"using default endpoints"}
	render.PrintFooter(&buf, r, false)
	if !strings.Contains(buf.String(), "using default endpoints") {
		t.Errorf("warning missing: %q", buf.String())
	}
	if strings.Contains(buf.String(), "items") {
		t.Error("stats line should only print in verbose mode")
	}
}
