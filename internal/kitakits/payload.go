package kitakits

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// ErrUnexpectedSchema marks a JSON object matching neither payload format.
var ErrUnexpectedSchema = errors.New("unexpected payload schema")

// Payload format names.
const (
	FormatWrapped = "wrapped"
	FormatDirect  = "direct"
)

// Payload is a validated analytics response. It is one of *WrappedPayload or
// *DirectPayload; both expose the same typed Body.
type Payload interface {
	Format() string
	Content() *Body
}

// WrappedPayload is the newer envelope: a top-level "success" flag with the
// analytics fields either beside it or nested under "data". The flag's
// presence identifies the format; Success is true only for a literal true.
type WrappedPayload struct {
	Success bool
	Body    Body
}

func (p *WrappedPayload) Format() string { return FormatWrapped }
func (p *WrappedPayload) Content() *Body { return &p.Body }

// DirectPayload carries "metadata" and "overview" at the top level.
type DirectPayload struct {
	Body Body
}

func (p *DirectPayload) Format() string { return FormatDirect }
func (p *DirectPayload) Content() *Body { return &p.Body }

// ParseError reports why a body could not be accepted as a Payload.
type ParseError struct {
	Reason string
	Keys   []string // top-level keys seen, sorted, at most 10
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parsing analytics payload: " + e.Reason
	if len(e.Keys) > 0 {
		msg += " (keys: " + strings.Join(e.Keys, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParsePayload validates body against the wrapped and direct formats and
// decodes it. A body matching neither returns a *ParseError wrapping
// ErrUnexpectedSchema; a body that is not a JSON object wraps ErrMalformedBody.
func ParsePayload(body []byte) (Payload, error) {
	if !isJSONObject(body) {
		return nil, &ParseError{Reason: "body is not a JSON object", Err: ErrMalformedBody}
	}

	var top map[string]rawJSON
	if err := sonic.ConfigStd.Unmarshal(body, &top); err != nil {
		return nil, &ParseError{Reason: "decoding top level", Err: fmt.Errorf("%w: %v", ErrMalformedBody, err)}
	}

	if raw, ok := top["success"]; ok {
		var success bool
		_ = sonic.ConfigStd.Unmarshal(raw, &success)
		src := body
		if data, ok := top["data"]; ok && isJSONObject(data) {
			src = data
		}
		p := &WrappedPayload{Success: success}
		if err := sonic.ConfigStd.Unmarshal(src, &p.Body); err != nil {
			return nil, &ParseError{Reason: "decoding wrapped payload", Keys: keysOf(top), Err: err}
		}
		return p, nil
	}

	if isJSONObject(top["metadata"]) && isJSONObject(top["overview"]) {
		p := &DirectPayload{}
		if err := sonic.ConfigStd.Unmarshal(body, &p.Body); err != nil {
			return nil, &ParseError{Reason: "decoding direct payload", Keys: keysOf(top), Err: err}
		}
		return p, nil
	}

	return nil, &ParseError{Reason: "neither wrapped nor direct format", Keys: keysOf(top), Err: ErrUnexpectedSchema}
}

// ─── Body ─────────────────────────────────────────────────────────────────────

// Body is the typed content shared by both formats. Pointer sections are nil
// when absent from the payload.
type Body struct {
	Metadata          *Metadata          `json:"metadata"`
	Overview          *Overview          `json:"overview"`
	UserEngagement    *Engagement        `json:"userEngagement"`
	BusinessInsights  *BusinessInsights  `json:"businessInsights"`
	Trends            *Trends            `json:"trends"`
	TrendingProducts  []Product          `json:"trendingProducts"`
	SalesSummary      *SalesSummary      `json:"salesSummary"`
	Regions           map[string]Region  `json:"regions"`
	Alerts            []Alert            `json:"alerts"`
	UrbanPlanningData *UrbanPlanningData `json:"urbanPlanningData"`
}

type Metadata struct {
	GeneratedAt Text `json:"generatedAt"`
	DataSource  Text `json:"dataSource"`
	IsLive      bool `json:"isLive"`
}

type Overview struct {
	TotalUsers        Number `json:"totalUsers"`
	TotalInteractions Number `json:"totalInteractions"`
	TotalOCRProcessed Number `json:"totalOCRProcessed"`
	DataPoints        Number `json:"dataPoints"`
}

type Engagement struct {
	DailyActiveUsers       Number `json:"dailyActiveUsers"`
	AvgSessionLength       Text   `json:"avgSessionLength"`
	AvgInteractionsPerUser Number `json:"avgInteractionsPerUser"`
	RetentionRate          Text   `json:"retentionRate"`
	PeakUsageHours         []Text `json:"peakUsageHours"`
	UserGrowthRate         Text   `json:"userGrowthRate"`
}

type Opportunity struct {
	Title           Text `json:"title"`
	Description     Text `json:"description"`
	PotentialImpact Text `json:"potentialImpact"`
}

type BusinessInsights struct {
	KeyFindings     []Text        `json:"keyFindings"`
	Opportunities   []Opportunity `json:"opportunities"`
	Recommendations []Text        `json:"recommendations"`
}

type DailyTrend struct {
	Date         Text   `json:"date"`
	Interactions Number `json:"interactions"`
	NewUsers     Number `json:"newUsers"`
	OCRProcessed Number `json:"ocrProcessed"`
}

type WeekTotals struct {
	Interactions Number `json:"interactions"`
	NewUsers     Number `json:"newUsers"`
	OCRProcessed Number `json:"ocrProcessed"`
}

type WeekChange struct {
	Interactions Text `json:"interactions"`
	NewUsers     Text `json:"newUsers"`
	OCRProcessed Text `json:"ocrProcessed"`
}

type Weekly struct {
	CurrentWeek      WeekTotals `json:"currentWeek"`
	PreviousWeek     WeekTotals `json:"previousWeek"`
	PercentageChange WeekChange `json:"percentageChange"`
}

type Trends struct {
	Daily  []DailyTrend `json:"daily"`
	Weekly *Weekly      `json:"weekly"`
}

type Product struct {
	Name     Text   `json:"name"`
	FullName Text   `json:"fullName"`
	Sales    Number `json:"sales"`
	Change   Number `json:"change"`
	Price    Number `json:"price"`
	Category Text   `json:"category"`
	Stock    Text   `json:"stock"`
	Rank     Number `json:"rank"`
}

type SalesSummary struct {
	TotalRevenue        Number `json:"totalRevenue"`
	TotalTransactions   Number `json:"totalTransactions"`
	AvgTransactionValue Number `json:"avgTransactionValue"`
	UniqueProducts      Number `json:"uniqueProducts"`
	UniqueSellers       Number `json:"uniqueSellers"`
}

type Region struct {
	MSMEs          Number `json:"msmes"`
	AvgTransaction Number `json:"avgTransaction"`
	Status         Text   `json:"status"`
	Growth         Text   `json:"growth"`
	TopProduct     Text   `json:"topProduct"`
	Alert          Text   `json:"alert"`
}

type Alert struct {
	Type        Text `json:"type"`
	Title       Text `json:"title"`
	Description Text `json:"description"`
	Impact      Text `json:"impact"`
	Action      Text `json:"action"`
	Timeframe   Text `json:"timeframe"`
}

// UrbanPlanningData carries the backend's economic-activity rollup, used when
// salesSummary is absent.
type UrbanPlanningData struct {
	EconomicActivity *struct {
		OverallMetrics *SalesSummary `json:"overallMetrics"`
	} `json:"economicActivity"`
}

// ─── Lenient scalars ──────────────────────────────────────────────────────────

// Number decodes a JSON number, a numeric string ("₱1,250", "12.5%"), or null.
// Anything unparseable decodes to zero.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := sonic.ConfigStd.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number(parseLooseFloat(s))
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		// booleans, objects, arrays
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

// Int returns n rounded to the nearest integer.
func (n Number) Int() int64 { return int64(math.Round(float64(n))) }

// Float returns n as a float64.
func (n Number) Float() float64 { return float64(n) }

// Text decodes a JSON string, a number (formatted without exponent), or null.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := sonic.ConfigStd.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	if v, err := strconv.ParseFloat(string(b), 64); err == nil {
		*t = Text(strconv.FormatFloat(v, 'f', -1, 64))
		return nil
	}
	*t = Text(string(b))
	return nil
}

func (t Text) String() string { return string(t) }

// ─── Helpers ──────────────────────────────────────────────────────────────────

// rawJSON defers decoding of one top-level value.
type rawJSON []byte

func (r *rawJSON) UnmarshalJSON(b []byte) error {
	*r = append((*r)[:0], b...)
	return nil
}

func parseLooseFloat(s string) float64 {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '+', r == 'e', r == 'E':
			return r
		}
		return -1
	}, s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// isJSON reports whether b is syntactically valid JSON of any kind.
func isJSON(b []byte) bool {
	return sonic.Valid(bytes.TrimSpace(b))
}

// isJSONObject reports whether b is syntactically valid JSON whose top-level
// value is an object.
func isJSONObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	if len(b) < 2 || b[0] != '{' {
		return false
	}
	return sonic.Valid(b)
}

func keysOf(m map[string]rawJSON) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 10 {
		keys = keys[:10]
	}
	return keys
}
