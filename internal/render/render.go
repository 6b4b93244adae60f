// Package render converts Result values into human-readable or machine-parseable
// output. Each format is a separate function; the top-level Render dispatcher
// selects based on the format string.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/derickschaefer/kitadash/internal/dashboard"
	"github.com/derickschaefer/kitadash/internal/kitakits"
	"github.com/derickschaefer/kitadash/internal/model"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
)

// Formats lists every accepted --format value.
var Formats = []string{FormatTable, FormatJSON, FormatJSONL, FormatCSV, FormatTSV, FormatMD}

// ValidFormat reports whether f is one of Formats.
func ValidFormat(f string) bool {
	for _, v := range Formats {
		if v == f {
			return true
		}
	}
	return false
}

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	default:
		return renderTable(w, result)
	}
}

// RenderTo writes to stdout by default; if path is non-empty, writes to file.
func RenderTo(path string, result *model.Result, format string) error {
	if path == "" {
		return Render(os.Stdout, result, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(f, result, format)
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// renderJSONL writes one compact record per line: one per product for
// analytics, one per panel for a dashboard snapshot, one per probe for a
// connection test. Anything else is a single line.
func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	switch d := result.Data.(type) {
	case *model.Analytics:
		for _, p := range d.Products {
			if err := enc.Encode(p); err != nil {
				return err
			}
		}
		return nil
	case *dashboard.Snapshot:
		for _, p := range d.Panels {
			rec := struct {
				Snapshot string `json:"snapshot"`
				dashboard.Panel
			}{d.ID, p}
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	case *kitakits.ConnectionStatus:
		for _, p := range d.Probes {
			if err := enc.Encode(probeRecord(p)); err != nil {
				return err
			}
		}
		return nil
	default:
		return enc.Encode(result.Data)
	}
}

// probeRec is the serialisable view of a Probe; Probe.Err is an error value
// and does not marshal on its own.
type probeRec struct {
	Endpoint  string `json:"endpoint"`
	Reachable bool   `json:"reachable"`
	Status    int    `json:"status,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

func probeRecord(p kitakits.Probe) probeRec {
	return probeRec{
		Endpoint:  p.Endpoint,
		Reachable: p.Reachable,
		Status:    p.Status,
		LatencyMs: p.Latency.Milliseconds(),
		Error:     p.Cause(),
	}
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	switch d := result.Data.(type) {
	case *model.Analytics:
		writeProductRows(cw, d.Products)
	case *dashboard.Snapshot:
		_ = cw.Write([]string{"snapshot", "widget", "status", "data_source", "endpoint", "elapsed_ms"})
		for _, p := range d.Panels {
			_ = cw.Write([]string{
				d.ID, string(p.Widget), p.Data.Metadata.Status, p.Data.Metadata.DataSource,
				p.Data.Metadata.Endpoint, strconv.FormatInt(p.Elapsed.Milliseconds(), 10),
			})
		}
	case *kitakits.ConnectionStatus:
		_ = cw.Write([]string{"endpoint", "reachable", "status", "latency_ms", "error"})
		for _, p := range d.Probes {
			r := probeRecord(p)
			_ = cw.Write([]string{
				r.Endpoint, strconv.FormatBool(r.Reachable), strconv.Itoa(r.Status),
				strconv.FormatInt(r.LatencyMs, 10), r.Error,
			})
		}
	case *model.ModeReport:
		_ = cw.Write([]string{"mode", "at"})
		if len(d.History) == 0 {
			_ = cw.Write([]string{string(d.Mode), ""})
		}
		for _, c := range d.History {
			_ = cw.Write([]string{string(c.Mode), c.At.Format(time.RFC3339)})
		}
	default:
		b, _ := json.Marshal(result.Data)
		_ = cw.Write([]string{string(b)})
	}

	cw.Flush()
	return cw.Error()
}

func writeProductRows(cw *csv.Writer, products []model.Product) {
	_ = cw.Write([]string{"rank", "name", "sales", "change_pct", "price", "category", "stock"})
	for _, p := range products {
		_ = cw.Write([]string{
			strconv.Itoa(p.Rank), p.Name, strconv.FormatInt(p.Sales, 10),
			formatValue(p.Change), formatValue(p.Price), p.Category, p.Stock,
		})
	}
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	switch d := result.Data.(type) {
	case *model.Analytics:
		writeAnalyticsMarkdown(w, d)
		return nil
	case *dashboard.Snapshot:
		fmt.Fprintf(w, "**%s** · %s\n\n", Badge(d.Mode, anyError(d)), d.GeneratedAt.Format(time.RFC3339))
		for _, p := range d.Panels {
			fmt.Fprintf(w, "### %s\n\n", widgetTitle(p.Widget))
			writeAnalyticsMarkdown(w, &p.Data)
		}
		return nil
	case *kitakits.ConnectionStatus:
		fmt.Fprintf(w, "| ENDPOINT | REACHABLE | STATUS | LATENCY | ERROR |\n|----|----|----|----|----|\n")
		for _, p := range d.Probes {
			r := probeRecord(p)
			fmt.Fprintf(w, "| %s | %t | %d | %dms | %s |\n", r.Endpoint, r.Reachable, r.Status, r.LatencyMs, mdEscape(r.Error))
		}
		return nil
	default:
		return renderJSON(w, result)
	}
}

func writeAnalyticsMarkdown(w io.Writer, a *model.Analytics) {
	fmt.Fprintf(w, "| STAT | VALUE | NOTE |\n|----|----|----|\n")
	for _, s := range HeroStats(a) {
		fmt.Fprintf(w, "| %s | %s | %s |\n", s.Label, s.Value, mdEscape(s.Note))
	}
	fmt.Fprintln(w)
	if len(a.Products) > 0 {
		fmt.Fprintf(w, "| RANK | PRODUCT | SALES | CHANGE |\n|----|----|----|----|\n")
		for _, p := range a.Products {
			fmt.Fprintf(w, "| %d | %s | %s | %s |\n", p.Rank, mdEscape(p.Name), formatCount(p.Sales), signedPct(p.Change))
		}
		fmt.Fprintln(w)
	}
	for _, f := range a.Findings {
		fmt.Fprintf(w, "- **%s** (%s): %s\n", mdEscape(f.Title), f.Kind, mdEscape(f.Description))
	}
	if len(a.Findings) > 0 {
		fmt.Fprintln(w)
	}
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings and stats to w when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		fmt.Fprintf(w, "\n[%s • %d items • %dms]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
		)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// formatValue formats a float with trailing zeros trimmed (12.50 → 12.5,
// 4.0 → 4).
func formatValue(v float64) string {
	s := strings.TrimRight(strconv.FormatFloat(v, 'f', 6, 64), "0")
	return strings.TrimSuffix(s, ".")
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

func anyError(s *dashboard.Snapshot) bool {
	for _, p := range s.Panels {
		if p.Data.IsError() {
			return true
		}
	}
	return false
}
