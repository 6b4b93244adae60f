// Package fixture holds the static reference dataset shown in mock mode.
// Every call returns a freshly built value, so callers may keep or modify
// what they receive without affecting later calls.
package fixture

import (
	"time"

	"github.com/derickschaefer/kitadash/internal/model"
)

// DataSource is the Metadata.DataSource label of the reference dataset.
const DataSource = "KitaKits Mock Data (Demo)"

// GeneratedAt is the fixed generation stamp of the reference dataset.
var GeneratedAt = time.Date(2025, time.January, 12, 8, 0, 0, 0, time.UTC)

// Analytics returns the reference dataset. Products are in catalogue order,
// not ranked; ranking is the selector's job.
func Analytics() model.Analytics {
	return model.Analytics{
		Metadata: model.Metadata{
			GeneratedAt: GeneratedAt,
			DataSource:  DataSource,
			Status:      model.StatusMock,
		},
		Overview: model.Overview{
			TotalUsers:        45231,
			TotalInteractions: 156789,
			TotalOCRProcessed: 23456,
		},
		Engagement: model.Engagement{
			DailyActiveUsers:       1250,
			AvgSessionLength:       "5.2 minutes",
			AvgInteractionsPerUser: 12.5,
			RetentionRate:          "68%",
			PeakUsageHours:         []string{"9:00-10:00", "14:00-15:00", "20:00-21:00"},
			UserGrowthRate:         "+15% monthly",
		},
		Trends: model.Trends{
			Daily: dailyTrends(),
			Weekly: model.WeeklyComparison{
				CurrentWeek:  model.WeekTotals{Interactions: 156789, NewUsers: 1245, OCRProcessed: 23456},
				PreviousWeek: model.WeekTotals{Interactions: 142340, NewUsers: 1156, OCRProcessed: 21890},
				PercentageChange: model.WeekChange{
					Interactions: "+10.1%",
					NewUsers:     "+7.7%",
					OCRProcessed: "+7.2%",
				},
			},
		},
		Products:        products(),
		Regions:         regions(),
		Findings:        findings(),
		Recommendations: recommendations(),
		Sales: model.SalesSummary{
			TotalRevenue:        2300000,
			TotalTransactions:   156789,
			AvgTransactionValue: 14.67,
			UniqueProducts:      10,
			UniqueSellers:       45231,
		},
	}
}

// dailyTrends is one fixed week, Monday to Sunday.
func dailyTrends() []model.DailyTrend {
	return []model.DailyTrend{
		{Date: "2025-01-06", Interactions: 145000, NewUsers: 168, OCRProcessed: 3210},
		{Date: "2025-01-07", Interactions: 152000, NewUsers: 181, OCRProcessed: 3390},
		{Date: "2025-01-08", Interactions: 148000, NewUsers: 159, OCRProcessed: 3305},
		{Date: "2025-01-09", Interactions: 163000, NewUsers: 203, OCRProcessed: 3620},
		{Date: "2025-01-10", Interactions: 171000, NewUsers: 224, OCRProcessed: 3815},
		{Date: "2025-01-11", Interactions: 156000, NewUsers: 177, OCRProcessed: 3480},
		{Date: "2025-01-12", Interactions: 139000, NewUsers: 133, OCRProcessed: 2636},
	}
}

func products() []model.Product {
	return []model.Product{
		{Name: "Jasmine Rice 25kg", Sales: 12450, Change: 15, Price: 1250, Category: "Staples", Stock: "Low"},
		{Name: "Cooking Oil 1L", Sales: 8230, Change: -5, Price: 85, Category: "Cooking", Stock: "Medium"},
		{Name: "Instant Noodles", Sales: 15670, Change: 45, Price: 12, Category: "Processed", Stock: "High"},
		{Name: "Sugar 1kg", Sales: 5440, Change: 8, Price: 65, Category: "Staples", Stock: "Medium"},
		{Name: "Canned Sardines", Sales: 7890, Change: 22, Price: 28, Category: "Processed", Stock: "High"},
		{Name: "Coffee 3-in-1", Sales: 9340, Change: 12, Price: 8, Category: "Beverages", Stock: "High"},
		{Name: "Laundry Soap", Sales: 4560, Change: -2, Price: 15, Category: "Household", Stock: "Medium"},
		{Name: "Milk Powder 400g", Sales: 3890, Change: 18, Price: 180, Category: "Dairy", Stock: "Low"},
		{Name: "Bread Loaf", Sales: 11230, Change: 6, Price: 35, Category: "Bakery", Stock: "High"},
		{Name: "Eggs 12pcs", Sales: 8970, Change: 25, Price: 95, Category: "Fresh", Stock: "Medium"},
	}
}

func regions() []model.Region {
	return []model.Region{
		{Name: "ARMM", MSMEs: 1800, AvgTransaction: 580, Status: "low", Growth: "+4%", TopProduct: "Rice"},
		{Name: "CAR", MSMEs: 1200, AvgTransaction: 920, Status: "medium", Growth: "+13%", TopProduct: "Coffee"},
		{Name: "NCR", MSMEs: 8500, AvgTransaction: 1250, Status: "high", Growth: "+15%", TopProduct: "Instant Noodles", Alert: "High demand for rice"},
		{Name: "Region 1", MSMEs: 3200, AvgTransaction: 890, Status: "medium", Growth: "+8%", TopProduct: "Rice"},
		{Name: "Region 10", MSMEs: 3400, AvgTransaction: 880, Status: "medium", Growth: "+16%", TopProduct: "Cooking Oil"},
		{Name: "Region 11", MSMEs: 2800, AvgTransaction: 790, Status: "medium", Growth: "+11%", TopProduct: "Sardines"},
		{Name: "Region 12", MSMEs: 2200, AvgTransaction: 680, Status: "low", Growth: "+6%", TopProduct: "Rice"},
		{Name: "Region 2", MSMEs: 2800, AvgTransaction: 780, Status: "medium", Growth: "+12%", TopProduct: "Cooking Oil"},
		{Name: "Region 3", MSMEs: 6200, AvgTransaction: 980, Status: "medium", Growth: "+18%", TopProduct: "Sugar", Alert: "Price gap opportunity"},
		{Name: "Region 4A", MSMEs: 4100, AvgTransaction: 920, Status: "medium", Growth: "+10%", TopProduct: "Coffee"},
		{Name: "Region 4B", MSMEs: 2400, AvgTransaction: 680, Status: "low", Growth: "+5%", TopProduct: "Sardines"},
		{Name: "Region 5", MSMEs: 3600, AvgTransaction: 820, Status: "medium", Growth: "+14%", TopProduct: "Rice"},
		{Name: "Region 6", MSMEs: 4800, AvgTransaction: 950, Status: "medium", Growth: "+20%", TopProduct: "Sugar"},
		{Name: "Region 7", MSMEs: 5100, AvgTransaction: 850, Status: "high", Growth: "+25%", TopProduct: "Instant Noodles"},
		{Name: "Region 8", MSMEs: 2900, AvgTransaction: 720, Status: "medium", Growth: "+9%", TopProduct: "Coffee"},
		{Name: "Region 9", MSMEs: 2100, AvgTransaction: 650, Status: "low", Growth: "+7%", TopProduct: "Rice"},
	}
}

func findings() []model.Finding {
	return []model.Finding{
		{
			Kind:        model.FindingWarning,
			Title:       "Stock Alert",
			Description: "Rice shortage predicted in NCR within 3 days",
			Impact:      "High",
			Action:      "Increase supply chain priority",
			Timeframe:   "Immediate",
		},
		{
			Kind:        model.FindingOpportunity,
			Title:       "Price Gap Opportunity",
			Description: "23% price gap for cooking oil between NCR and Visayas",
			Impact:      "Medium",
			Action:      "Optimize distribution pricing",
			Timeframe:   "This week",
		},
		{
			Kind:        model.FindingTrending,
			Title:       "Trending Product",
			Description: "Instant noodles sales up 45% this week across all regions",
			Impact:      "High",
			Action:      "Scale inventory and promotions",
			Timeframe:   "Ongoing",
		},
		{
			Kind:        model.FindingInsight,
			Title:       "Market Insight",
			Description: "MSMEs in Cebu showing 25% growth in premium coffee sales",
			Impact:      "Medium",
			Action:      "Consider premium product line expansion",
			Timeframe:   "Next month",
		},
	}
}

func recommendations() []string {
	return []string{
		"Implement predictive alerts for supply chain managers",
		"Create regional pricing optimization dashboard",
		"Develop category-specific trend analysis",
		"Add real-time shortage prediction models",
	}
}

// Category is one slice of the category breakdown.
type Category struct {
	Name    string
	Percent float64
}

// Categories returns the share of sales per product category.
func Categories() []Category {
	return []Category{
		{Name: "Staples", Percent: 35},
		{Name: "Processed", Percent: 28},
		{Name: "Beverages", Percent: 15},
		{Name: "Household", Percent: 12},
		{Name: "Fresh", Percent: 10},
	}
}
