// Package model defines the canonical data types used throughout kitadash.
// Analytics is the single normalized shape every widget consumes, whether it
// was built from a live KitaKits payload, the static reference dataset, or
// the connection-error placeholder.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ─── Display Mode ─────────────────────────────────────────────────────────────

// DisplayMode selects where widget data comes from.
type DisplayMode string

const (
	ModeLive DisplayMode = "live"
	ModeMock DisplayMode = "mock"
)

// ErrInvalidMode is returned by ParseMode for anything other than live|mock.
var ErrInvalidMode = errors.New("invalid display mode")

// ParseMode parses "live" or "mock" (case-insensitive, surrounding space ignored).
func ParseMode(s string) (DisplayMode, error) {
	switch DisplayMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLive:
		return ModeLive, nil
	case ModeMock:
		return ModeMock, nil
	}
	return "", fmt.Errorf("%w %q: expected live or mock", ErrInvalidMode, s)
}

// IsLive reports whether m is ModeLive.
func (m DisplayMode) IsLive() bool { return m == ModeLive }

func (m DisplayMode) String() string { return string(m) }

// ModeChange is broadcast when the persisted display mode changes.
type ModeChange struct {
	Mode DisplayMode `json:"mode"`
	At   time.Time   `json:"at"`
}

// ─── Analytics ────────────────────────────────────────────────────────────────

// Status values for Metadata.Status.
const (
	StatusLive  = "live"
	StatusMock  = "mock"
	StatusError = "error"
)

// Metadata describes where an Analytics value came from.
type Metadata struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	DataSource  string            `json:"dataSource"`
	Status      string            `json:"status"`
	IsLive      bool              `json:"isLive"`
	// Degraded is set when a wrapped live payload's success flag was not true.
	Degraded    bool              `json:"degraded,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`
	CycleID     string            `json:"cycleId,omitempty"`
	Filters     map[string]string `json:"filters,omitempty"`
}

// Overview holds the headline counts. Field names follow the KitaKits
// payload so a normalized overview re-serializes to the same keys.
type Overview struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalInteractions int64 `json:"totalInteractions"`
	TotalOCRProcessed int64 `json:"totalOCRProcessed"`
	DataPoints        int64 `json:"dataPoints"`
}

// Engagement holds user engagement figures. The string fields are
// preformatted by the backend ("5.2 minutes", "68%").
type Engagement struct {
	DailyActiveUsers       int64    `json:"dailyActiveUsers"`
	AvgSessionLength       string   `json:"avgSessionLength"`
	AvgInteractionsPerUser float64  `json:"avgInteractionsPerUser"`
	RetentionRate          string   `json:"retentionRate"`
	PeakUsageHours         []string `json:"peakUsageHours"`
	UserGrowthRate         string   `json:"userGrowthRate"`
}

// DailyTrend is one day of activity.
type DailyTrend struct {
	Date         string `json:"date"` // YYYY-MM-DD
	Interactions int64  `json:"interactions"`
	NewUsers     int64  `json:"newUsers"`
	OCRProcessed int64  `json:"ocrProcessed"`
}

// WeekTotals holds one week's aggregate counts.
type WeekTotals struct {
	Interactions int64 `json:"interactions"`
	NewUsers     int64 `json:"newUsers"`
	OCRProcessed int64 `json:"ocrProcessed"`
}

// WeekChange holds preformatted week-over-week changes ("+10.1%").
type WeekChange struct {
	Interactions string `json:"interactions"`
	NewUsers     string `json:"newUsers"`
	OCRProcessed string `json:"ocrProcessed"`
}

// WeeklyComparison compares the current week against the previous one.
type WeeklyComparison struct {
	CurrentWeek      WeekTotals `json:"currentWeek"`
	PreviousWeek     WeekTotals `json:"previousWeek"`
	PercentageChange WeekChange `json:"percentageChange"`
}

// Trends bundles the daily series (oldest first) and the weekly comparison.
type Trends struct {
	Daily  []DailyTrend     `json:"daily"`
	Weekly WeeklyComparison `json:"weekly"`
}

// Product is one entry of the trending products ranking.
type Product struct {
	Rank     int     `json:"rank"`
	Name     string  `json:"name"`
	FullName string  `json:"fullName,omitempty"`
	Sales    int64   `json:"sales"`
	Change   float64 `json:"change"` // percent, week over week
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Stock    string  `json:"stock"`
}

// Region is one keyed regional record for the heat map.
type Region struct {
	Name           string  `json:"name"`
	MSMEs          int64   `json:"msmes"`
	AvgTransaction float64 `json:"avgTransaction"`
	Status         string  `json:"status"` // high|medium|low
	Growth         string  `json:"growth"`
	TopProduct     string  `json:"topProduct"`
	Alert          string  `json:"alert,omitempty"`
}

// Finding kinds.
const (
	FindingWarning     = "warning"
	FindingOpportunity = "opportunity"
	FindingTrending    = "trending"
	FindingInsight     = "insight"
	FindingError       = "error"
)

// Finding is one narrative insight rendered as an alert card.
type Finding struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact,omitempty"`
	Action      string `json:"action,omitempty"`
	Timeframe   string `json:"timeframe,omitempty"`
}

// SalesSummary holds marketplace-wide sales totals.
type SalesSummary struct {
	TotalRevenue        float64 `json:"totalRevenue"`
	TotalTransactions   int64   `json:"totalTransactions"`
	AvgTransactionValue float64 `json:"avgTransactionValue"`
	UniqueProducts      int64   `json:"uniqueProducts"`
	UniqueSellers       int64   `json:"uniqueSellers"`
}

// Analytics is the normalized data every widget renders. Collections are
// never nil: an absent collection is an empty slice.
type Analytics struct {
	Metadata        Metadata     `json:"metadata"`
	Overview        Overview     `json:"overview"`
	Engagement      Engagement   `json:"userEngagement"`
	Trends          Trends       `json:"trends"`
	Products        []Product    `json:"trendingProducts"`
	Regions         []Region     `json:"regions"`
	Findings        []Finding    `json:"findings"`
	Recommendations []string     `json:"recommendations"`
	Sales           SalesSummary `json:"salesSummary"`
}

// IsError reports whether a is the connection-error placeholder.
func (a Analytics) IsError() bool { return a.Metadata.Status == StatusError }

// Region returns the record keyed by name.
func (a Analytics) Region(name string) (Region, bool) {
	for _, r := range a.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries timing metadata for a command result.
type ResultStats struct {
	DurationMs int64 `json:"duration_ms"`
	Items      int   `json:"items"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind"`
	GeneratedAt time.Time   `json:"generated_at"`
	Command     string      `json:"command"`
	Data        interface{} `json:"data"`
	Warnings    []string    `json:"warnings,omitempty"`
	Stats       ResultStats `json:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindAnalytics  = "analytics"
	KindDashboard  = "dashboard"
	KindConnection = "connection"
	KindMode       = "mode"
)

// ModeReport is the payload of `kitadash mode get`. Source is "saved" when
// the mode came from the preference DB and "default" when it fell back to
// configuration.
type ModeReport struct {
	Mode    DisplayMode  `json:"mode"`
	Source  string       `json:"source"`
	DBPath  string       `json:"dbPath"`
	History []ModeChange `json:"history,omitempty"`
}
