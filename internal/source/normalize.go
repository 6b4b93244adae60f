package source

import (
	"sort"
	"time"

	"github.com/derickschaefer/kitadash/internal/kitakits"
	"github.com/derickschaefer/kitadash/internal/model"
)

const liveDataSource = "KitaKits API"

// Normalize maps a validated payload into Analytics. Sections absent from the
// payload become zero values and empty collections; nothing is borrowed from
// the reference dataset. now stamps the result when the payload carries no
// parseable generatedAt. Counts are integers: fractional overview and
// engagement counts are rounded half away from zero.
func Normalize(p kitakits.Payload, now time.Time) model.Analytics {
	b := p.Content()
	a := empty()

	a.Metadata = model.Metadata{
		GeneratedAt: now,
		DataSource:  liveDataSource,
		Status:      model.StatusLive,
		IsLive:      true,
	}
	if wp, ok := p.(*kitakits.WrappedPayload); ok && !wp.Success {
		a.Metadata.Degraded = true
	}
	if md := b.Metadata; md != nil {
		if t, err := time.Parse(time.RFC3339, md.GeneratedAt.String()); err == nil {
			a.Metadata.GeneratedAt = t
		}
		if md.DataSource != "" {
			a.Metadata.DataSource = md.DataSource.String()
		}
	}

	if ov := b.Overview; ov != nil {
		a.Overview = model.Overview{
			TotalUsers:        ov.TotalUsers.Int(),
			TotalInteractions: ov.TotalInteractions.Int(),
			TotalOCRProcessed: ov.TotalOCRProcessed.Int(),
			DataPoints:        ov.DataPoints.Int(),
		}
	}

	if e := b.UserEngagement; e != nil {
		a.Engagement = model.Engagement{
			DailyActiveUsers:       e.DailyActiveUsers.Int(),
			AvgSessionLength:       e.AvgSessionLength.String(),
			AvgInteractionsPerUser: e.AvgInteractionsPerUser.Float(),
			RetentionRate:          e.RetentionRate.String(),
			PeakUsageHours:         texts(e.PeakUsageHours),
			UserGrowthRate:         e.UserGrowthRate.String(),
		}
	}

	if tr := b.Trends; tr != nil {
		for _, d := range tr.Daily {
			a.Trends.Daily = append(a.Trends.Daily, model.DailyTrend{
				Date:         d.Date.String(),
				Interactions: d.Interactions.Int(),
				NewUsers:     d.NewUsers.Int(),
				OCRProcessed: d.OCRProcessed.Int(),
			})
		}
		if w := tr.Weekly; w != nil {
			a.Trends.Weekly = model.WeeklyComparison{
				CurrentWeek:  weekTotals(w.CurrentWeek),
				PreviousWeek: weekTotals(w.PreviousWeek),
				PercentageChange: model.WeekChange{
					Interactions: w.PercentageChange.Interactions.String(),
					NewUsers:     w.PercentageChange.NewUsers.String(),
					OCRProcessed: w.PercentageChange.OCRProcessed.String(),
				},
			}
		}
	}

	products := make([]model.Product, 0, len(b.TrendingProducts))
	for _, tp := range b.TrendingProducts {
		products = append(products, model.Product{
			Rank:     int(tp.Rank.Int()),
			Name:     tp.Name.String(),
			FullName: tp.FullName.String(),
			Sales:    tp.Sales.Int(),
			Change:   tp.Change.Float(),
			Price:    tp.Price.Float(),
			Category: tp.Category.String(),
			Stock:    tp.Stock.String(),
		})
	}
	a.Products = rankProducts(products)

	regions := make([]model.Region, 0, len(b.Regions))
	for name, r := range b.Regions {
		regions = append(regions, model.Region{
			Name:           name,
			MSMEs:          r.MSMEs.Int(),
			AvgTransaction: r.AvgTransaction.Float(),
			Status:         r.Status.String(),
			Growth:         r.Growth.String(),
			TopProduct:     r.TopProduct.String(),
			Alert:          r.Alert.String(),
		})
	}
	a.Regions = sortRegions(regions)

	a.Findings = findings(b)
	if bi := b.BusinessInsights; bi != nil {
		a.Recommendations = texts(bi.Recommendations)
	}

	switch {
	case b.SalesSummary != nil:
		a.Sales = salesSummary(b.SalesSummary)
	case b.UrbanPlanningData != nil && b.UrbanPlanningData.EconomicActivity != nil &&
		b.UrbanPlanningData.EconomicActivity.OverallMetrics != nil:
		a.Sales = salesSummary(b.UrbanPlanningData.EconomicActivity.OverallMetrics)
	}
	return a
}

// findings orders alerts first, then key findings, then opportunities.
func findings(b *kitakits.Body) []model.Finding {
	out := make([]model.Finding, 0, len(b.Alerts))
	for _, al := range b.Alerts {
		kind := al.Type.String()
		if kind == "" {
			kind = model.FindingWarning
		}
		out = append(out, model.Finding{
			Kind:        kind,
			Title:       al.Title.String(),
			Description: al.Description.String(),
			Impact:      al.Impact.String(),
			Action:      al.Action.String(),
			Timeframe:   al.Timeframe.String(),
		})
	}
	bi := b.BusinessInsights
	if bi == nil {
		return out
	}
	for _, kf := range bi.KeyFindings {
		out = append(out, model.Finding{
			Kind:        model.FindingInsight,
			Title:       "Key Finding",
			Description: kf.String(),
		})
	}
	for _, op := range bi.Opportunities {
		out = append(out, model.Finding{
			Kind:        model.FindingOpportunity,
			Title:       op.Title.String(),
			Description: op.Description.String(),
			Impact:      op.PotentialImpact.String(),
		})
	}
	return out
}

// rankProducts orders products by their explicit rank when every product
// has one, otherwise by sales descending, and renumbers ranks from 1. The
// input is not modified.
func rankProducts(in []model.Product) []model.Product {
	out := make([]model.Product, len(in))
	copy(out, in)

	ranked := len(out) > 0
	for _, p := range out {
		if p.Rank <= 0 {
			ranked = false
			break
		}
	}
	if ranked {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Sales > out[j].Sales })
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func sortRegions(in []model.Region) []model.Region {
	out := make([]model.Region, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func weekTotals(w kitakits.WeekTotals) model.WeekTotals {
	return model.WeekTotals{
		Interactions: w.Interactions.Int(),
		NewUsers:     w.NewUsers.Int(),
		OCRProcessed: w.OCRProcessed.Int(),
	}
}

func salesSummary(s *kitakits.SalesSummary) model.SalesSummary {
	return model.SalesSummary{
		TotalRevenue:        s.TotalRevenue.Float(),
		TotalTransactions:   s.TotalTransactions.Int(),
		AvgTransactionValue: s.AvgTransactionValue.Float(),
		UniqueProducts:      s.UniqueProducts.Int(),
		UniqueSellers:       s.UniqueSellers.Int(),
	}
}

func texts(in []kitakits.Text) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		out = append(out, t.String())
	}
	return out
}
