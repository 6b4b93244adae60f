package kitakits_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/derickschaefer/kitadash/internal/kitakits"
)

// Payload decode throughput. Compare against the stdlib decoder with:
//
//	go test ./internal/kitakits/ -bench=. -benchmem -count=10 | tee bench.txt
//	benchstat bench.txt

// ─── Fixtures ─────────────────────────────────────────────────────────────────

// largeBody builds a wrapped payload with n trending products, n regions and
// n days of trends, mixing numeric and string-encoded numbers the way the
// backend does.
func largeBody(n int) []byte {
	var b strings.Builder
	b.WriteString(`{"success":true,"data":{"metadata":{"generatedAt":"2025-01-12T00:00:00Z","dataSource":"KitaKits","isLive":true},`)
	b.WriteString(`"overview":{"totalUsers":"45231","totalInteractions":156789,"totalOCRProcessed":23456,"dataPoints":1200},`)

	b.WriteString(`"trendingProducts":[`)
	for i := range n {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"name":"Product %d","sales":%d,"change":"%d.5","price":%d,"category":"Groceries","stock":"In Stock"}`,
			i, 10000-i, i%40-20, 25+i%300)
	}
	b.WriteString(`],"regions":{`)
	for i := range n {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `"Region %d":{"msmes":%d,"avgTransaction":"%d","status":"medium","growth":"+%d%%","topProduct":"Rice"}`,
			i, 1000+i, 150+i, i%30)
	}
	b.WriteString(`},"trends":{"daily":[`)
	for i := range n {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"date":"2025-%02d-%02d","interactions":%d,"newUsers":%d,"ocrProcessed":%d}`,
			1+i/28%12, 1+i%28, 140000+i*13, 150+i%90, 3000+i%700)
	}
	b.WriteString(`]}}}`)
	return []byte(b.String())
}

var benchSizes = []int{10, 100, 1000}

// ─── ParsePayload ─────────────────────────────────────────────────────────────

func BenchmarkParsePayloadDirect(b *testing.B) {
	body := []byte(directBody)
	b.SetBytes(int64(len(body)))
	b.ReportAllocs()
	for b.Loop() {
		if _, err := kitakits.ParsePayload(body); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParsePayloadWrapped(b *testing.B) {
	for _, n := range benchSizes {
		body := largeBody(n)
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			b.SetBytes(int64(len(body)))
			b.ReportAllocs()
			for b.Loop() {
				if _, err := kitakits.ParsePayload(body); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkStdlibBody decodes the same payload body with encoding/json as a
// baseline for the sonic decoder used by ParsePayload.
func BenchmarkStdlibBody(b *testing.B) {
	for _, n := range benchSizes {
		body := largeBody(n)
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			b.SetBytes(int64(len(body)))
			b.ReportAllocs()
			for b.Loop() {
				var env struct {
					Success bool          `json:"success"`
					Data    kitakits.Body `json:"data"`
				}
				if err := json.Unmarshal(body, &env); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// TestLargeBodyParses keeps the benchmark fixture honest.
func TestLargeBodyParses(t *testing.T) {
	p, err := kitakits.ParsePayload(largeBody(50))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	c := p.Content()
	if len(c.TrendingProducts) != 50 || len(c.Regions) != 50 || c.Trends == nil || len(c.Trends.Daily) != 50 {
		t.Fatalf("unexpected shape: products=%d regions=%d", len(c.TrendingProducts), len(c.Regions))
	}
	if c.Overview.TotalUsers.Int() != 45231 {
		t.Errorf("string-encoded totalUsers: got %d", c.Overview.TotalUsers.Int())
	}
	if got := c.TrendingProducts[3].Change.Float(); got != -17.5 {
		t.Errorf("string-encoded change: got %v", got)
	}
}
