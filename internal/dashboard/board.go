// Package dashboard refreshes the set of widgets shown by `kitadash
// dashboard`. Each widget selects its own data independently, so two
// widgets may disagree for one cycle if an endpoint flips between their
// probes; a Snapshot is the consistent record of what each one got.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/derickschaefer/kitadash/internal/kitakits"
	"github.com/derickschaefer/kitadash/internal/model"
)

// Widget names a dashboard panel.
type Widget string

const (
	WidgetHero       Widget = "hero"
	WidgetProducts   Widget = "products"
	WidgetRegions    Widget = "regions"
	WidgetAlerts     Widget = "alerts"
	WidgetTrends     Widget = "trends"
	WidgetConnection Widget = "connection"
)

// AllWidgets is the default panel order.
var AllWidgets = []Widget{WidgetHero, WidgetProducts, WidgetRegions, WidgetAlerts, WidgetTrends, WidgetConnection}

// ParseWidgets parses a comma-separated widget list. Duplicates are dropped;
// an empty string selects AllWidgets.
func ParseWidgets(s string) ([]Widget, error) {
	if strings.TrimSpace(s) == "" {
		return append([]Widget(nil), AllWidgets...), nil
	}
	seen := map[Widget]bool{}
	var out []Widget
	for _, part := range strings.Split(s, ",") {
		w := Widget(strings.ToLower(strings.TrimSpace(part)))
		if w == "" {
			continue
		}
		if !w.valid() {
			return nil, fmt.Errorf("unknown widget %q (valid: %s)", part, widgetNames())
		}
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no widgets selected (valid: %s)", widgetNames())
	}
	return out, nil
}

func (w Widget) valid() bool {
	for _, v := range AllWidgets {
		if v == w {
			return true
		}
	}
	return false
}

func widgetNames() string {
	names := make([]string, len(AllWidgets))
	for i, w := range AllWidgets {
		names[i] = string(w)
	}
	return strings.Join(names, ", ")
}

// ─── Board ────────────────────────────────────────────────────────────────────

// Selector supplies widget data. *source.Selector satisfies it.
type Selector interface {
	Select(ctx context.Context, mode model.DisplayMode, filters url.Values) model.Analytics
}

// Prober backs the connection widget. *kitakits.Client satisfies it.
type Prober interface {
	TestConnection(ctx context.Context, candidates []string) kitakits.ConnectionStatus
}

// Panel is one widget's result for a refresh cycle. Connection is set only
// for the connection widget in live mode.
type Panel struct {
	Widget     Widget                     `json:"widget"`
	Data       model.Analytics            `json:"data"`
	Connection *kitakits.ConnectionStatus `json:"connection,omitempty"`
	Elapsed    time.Duration              `json:"elapsed"`
}

// Snapshot is the outcome of one Refresh. Panels follow the board's widget
// order regardless of which finished first.
type Snapshot struct {
	ID          string            `json:"id"`
	Mode        model.DisplayMode `json:"mode"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Elapsed     time.Duration     `json:"elapsed"`
	Panels      []Panel           `json:"panels"`
}

// Panel returns the panel for w.
func (s Snapshot) Panel(w Widget) (Panel, bool) {
	for _, p := range s.Panels {
		if p.Widget == w {
			return p, true
		}
	}
	return Panel{}, false
}

// Board holds the widget list and the sources they draw on.
type Board struct {
	selector   Selector
	prober     Prober
	candidates []string
	widgets    []Widget
	filters    url.Values
}

// New returns a Board refreshing widgets. filters are forwarded to every
// live selection.
func New(sel Selector, prober Prober, candidates []string, widgets []Widget, filters url.Values) *Board {
	if len(widgets) == 0 {
		widgets = AllWidgets
	}
	return &Board{
		selector:   sel,
		prober:     prober,
		candidates: append([]string(nil), candidates...),
		widgets:    append([]Widget(nil), widgets...),
		filters:    filters,
	}
}

// Widgets returns the board's widget order.
func (b *Board) Widgets() []Widget { return append([]Widget(nil), b.widgets...) }

// Refresh refreshes every widget concurrently for mode. Widgets never fail
// individually; the error is non-nil only when ctx ends before all finish.
func (b *Board) Refresh(ctx context.Context, mode model.DisplayMode) (Snapshot, error) {
	start := time.Now()
	snap := Snapshot{
		ID:          uuid.NewString(),
		Mode:        mode,
		GeneratedAt: start,
		Panels:      make([]Panel, len(b.widgets)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range b.widgets {
		g.Go(func() error {
			snap.Panels[i] = b.refreshWidget(gctx, w, mode)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return snap, err
	}
	snap.Elapsed = time.Since(start)
	if err := ctx.Err(); err != nil {
		return snap, fmt.Errorf("refresh %s: %w", snap.ID, err)
	}

	slog.Debug("dashboard refreshed", "snapshot", snap.ID, "mode", mode,
		"widgets", len(snap.Panels), "elapsed", snap.Elapsed)
	return snap, nil
}

func (b *Board) refreshWidget(ctx context.Context, w Widget, mode model.DisplayMode) Panel {
	start := time.Now()
	p := Panel{Widget: w}
	if w == WidgetConnection && mode.IsLive() && b.prober != nil {
		st := b.prober.TestConnection(ctx, b.candidates)
		p.Connection = &st
	}
	p.Data = b.selector.Select(ctx, mode, b.filters)
	p.Elapsed = time.Since(start)
	return p
}
