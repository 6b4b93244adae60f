// Package source decides what data a widget shows. In mock mode that is the
// reference dataset; in live mode it is the first reachable KitaKits
// endpoint's payload, or a connection-error placeholder when none answers.
// The two are never mixed: live mode does not fall back to mock data.
package source

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/derickschaefer/kitadash/internal/fixture"
	"github.com/derickschaefer/kitadash/internal/kitakits"
	"github.com/derickschaefer/kitadash/internal/model"
)

// Resolver is the part of *kitakits.Client the Selector depends on.
type Resolver interface {
	Resolve(ctx context.Context, candidates []string) kitakits.Outcome
	Fetch(ctx context.Context, endpoint string, filters url.Values) ([]byte, error)
}

// Selector produces the Analytics for one widget refresh.
type Selector struct {
	resolver   Resolver
	candidates []string
	now        func() time.Time
}

// NewSelector returns a Selector probing candidates through r. The slice is
// copied.
func NewSelector(r Resolver, candidates []string) *Selector {
	return &Selector{
		resolver:   r,
		candidates: append([]string(nil), candidates...),
		now:        time.Now,
	}
}

// Candidates returns a copy of the endpoint list this Selector probes.
func (s *Selector) Candidates() []string {
	return append([]string(nil), s.candidates...)
}

// Select returns fully populated Analytics for mode. It never fails: every
// live-mode failure yields the Placeholder. filters are passed verbatim as
// query parameters on the final live fetch and ignored in mock mode.
func (s *Selector) Select(ctx context.Context, mode model.DisplayMode, filters url.Values) model.Analytics {
	if !mode.IsLive() {
		return Mock()
	}

	cycle := uuid.NewString()
	log := slog.With("cycle", cycle)

	out := s.resolver.Resolve(ctx, s.candidates)
	if !out.Found {
		log.Debug("live selection: no endpoint", "probes", len(out.Probes))
		return stamp(Placeholder(s.now()), cycle, "", filters)
	}

	body := out.Payload
	if len(filters) > 0 {
		b, err := s.resolver.Fetch(ctx, out.Endpoint, filters)
		if err != nil {
			log.Warn("live selection: filtered fetch failed", "endpoint", out.Endpoint, "err", err)
			return stamp(Placeholder(s.now()), cycle, out.Endpoint, filters)
		}
		body = b
	}

	p, err := kitakits.ParsePayload(body)
	if err != nil {
		log.Warn("live selection: payload rejected", "endpoint", out.Endpoint, "err", err)
		return stamp(Placeholder(s.now()), cycle, out.Endpoint, filters)
	}

	a := Normalize(p, s.now())
	log.Debug("live selection", "endpoint", out.Endpoint, "format", p.Format(),
		"products", len(a.Products), "regions", len(a.Regions))
	return stamp(a, cycle, out.Endpoint, filters)
}

// Mock returns the reference dataset in normalized form.
func Mock() model.Analytics {
	a := fixture.Analytics()
	a.Products = rankProducts(a.Products)
	a.Regions = sortRegions(a.Regions)
	a.Metadata.Status = model.StatusMock
	a.Metadata.IsLive = false
	return a
}

// PlaceholderTitle is the title of the single Finding carried by Placeholder.
const PlaceholderTitle = "API Connection Error"

// Placeholder is what live mode shows when no endpoint yields a usable
// payload: every number zero, every collection empty, and one error finding.
func Placeholder(at time.Time) model.Analytics {
	a := empty()
	a.Metadata = model.Metadata{
		GeneratedAt: at,
		DataSource:  "KitaKits API (unavailable)",
		Status:      model.StatusError,
	}
	a.Findings = []model.Finding{{
		Kind:        model.FindingError,
		Title:       PlaceholderTitle,
		Description: "No KitaKits endpoint returned usable analytics. Check your connection or switch to mock data.",
		Impact:      "High",
		Action:      "Retry later or run `kitadash mode set mock`",
		Timeframe:   "Immediate",
	}}
	return a
}

// empty returns Analytics with zero numbers and non-nil empty collections.
func empty() model.Analytics {
	return model.Analytics{
		Engagement:      model.Engagement{PeakUsageHours: []string{}},
		Trends:          model.Trends{Daily: []model.DailyTrend{}},
		Products:        []model.Product{},
		Regions:         []model.Region{},
		Findings:        []model.Finding{},
		Recommendations: []string{},
	}
}

// stamp records the per-cycle provenance on a.
func stamp(a model.Analytics, cycle, endpoint string, filters url.Values) model.Analytics {
	a.Metadata.CycleID = cycle
	a.Metadata.Endpoint = endpoint
	if len(filters) > 0 {
		a.Metadata.Filters = make(map[string]string, len(filters))
		for k := range filters {
			a.Metadata.Filters[k] = filters.Get(k)
		}
	}
	return a
}
