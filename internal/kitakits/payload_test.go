package kitakits_test

import (
	"errors"
	"testing"

	"github.com/derickschaefer/kitadash/internal/kitakits"
)

func TestParsePayloadDirect(t *testing.T) {
	p, err := kitakits.ParsePayload([]byte(directBody))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if _, ok := p.(*kitakits.DirectPayload); !ok {
		t.Fatalf("expected *DirectPayload, got %T", p)
	}
	ov := p.Content().Overview
	if ov == nil {
		t.Fatal("overview missing")
	}
	if ov.TotalUsers.Int() != 120 || ov.TotalInteractions.Int() != 3400 || ov.TotalOCRProcessed.Int() != 56 {
		t.Errorf("unexpected overview %+v", *ov)
	}
	if p.Content().TrendingProducts != nil {
		t.Error("absent trendingProducts should decode as nil")
	}
}

func TestParsePayloadWrappedTopLevel(t *testing.T) {
	body := `{"success":true,"overview":{"totalUsers":7},"trendingProducts":[{"name":"Rice","sales":10}]}`
	p, err := kitakits.ParsePayload([]byte(body))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	w, ok := p.(*kitakits.WrappedPayload)
	if !ok {
		t.Fatalf("expected *WrappedPayload, got %T", p)
	}
	if !w.Success || w.Format() != kitakits.FormatWrapped {
		t.Errorf("unexpected wrapped payload %+v", w)
	}
	if got := p.Content().Overview.TotalUsers.Int(); got != 7 {
		t.Errorf("totalUsers: expected 7, got %d", got)
	}
	if len(p.Content().TrendingProducts) != 1 {
		t.Errorf("expected 1 product, got %d", len(p.Content().TrendingProducts))
	}
}

func TestParsePayloadWrappedData(t *testing.T) {
	body := `{"success":true,"data":{"metadata":{},"overview":{"totalUsers":99}}}`
	p, err := kitakits.ParsePayload([]byte(body))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if got := p.Content().Overview.TotalUsers.Int(); got != 99 {
		t.Errorf("fields under data should be read, got totalUsers=%d", got)
	}
}

func TestParsePayloadWrappedAnySuccessValue(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"true", `{"success":true,"overview":{"totalUsers":3}}`, true},
		{"false", `{"success":false,"error":"db down","overview":{"totalUsers":3}}`, false},
		{"null", `{"success":null,"data":{"overview":{"totalUsers":3}}}`, false},
		{"string", `{"success":"yes","overview":{"totalUsers":3}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := kitakits.ParsePayload([]byte(tt.body))
			if err != nil {
				t.Fatalf("a present success key marks the wrapped format: %v", err)
			}
			wp, ok := p.(*kitakits.WrappedPayload)
			if !ok {
				t.Fatalf("expected *WrappedPayload, got %T", p)
			}
			if wp.Success != tt.want {
				t.Errorf("Success: expected %v, got %v", tt.want, wp.Success)
			}
			if ov := wp.Content().Overview; ov == nil || ov.TotalUsers.Int() != 3 {
				t.Errorf("overview not decoded: %+v", ov)
			}
		})
	}
}

func TestParsePayloadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"not json", `oops`, kitakits.ErrMalformedBody},
		{"array", `[{"overview":{}}]`, kitakits.ErrMalformedBody},
		{"truncated", `{"metadata":{`, kitakits.ErrMalformedBody},
		{"unknown keys", `{"status":"ok","rows":[]}`, kitakits.ErrUnexpectedSchema},
		{"metadata only", `{"metadata":{}}`, kitakits.ErrUnexpectedSchema},
		{"overview not object", `{"metadata":{},"overview":3}`, kitakits.ErrUnexpectedSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := kitakits.ParsePayload([]byte(tt.body))
			if err == nil {
				t.Fatalf("expected an error, got %T", p)
			}
			var pe *kitakits.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseErrorListsKeys(t *testing.T) {
	_, err := kitakits.ParsePayload([]byte(`{"b":1,"a":2}`))
	var pe *kitakits.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if len(pe.Keys) != 2 || pe.Keys[0] != "a" || pe.Keys[1] != "b" {
		t.Errorf("expected sorted keys [a b], got %v", pe.Keys)
	}
}

func TestLenientScalars(t *testing.T) {
	body := `{"metadata":{},"overview":{"totalUsers":"1,204","totalInteractions":12.0,"dataPoints":null},` +
		`"trendingProducts":[{"name":"Oil","price":"₱85","stock":42,"change":"-5%","sales":8230}]}`
	p, err := kitakits.ParsePayload([]byte(body))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	ov := p.Content().Overview
	if ov.TotalUsers.Int() != 1204 {
		t.Errorf("numeric string: expected 1204, got %v", ov.TotalUsers)
	}
	if ov.TotalInteractions.Int() != 12 {
		t.Errorf("float count: expected 12, got %v", ov.TotalInteractions)
	}
	if ov.DataPoints != 0 {
		t.Errorf("null: expected 0, got %v", ov.DataPoints)
	}
	prod := p.Content().TrendingProducts[0]
	if prod.Price.Float() != 85 {
		t.Errorf("price string: expected 85, got %v", prod.Price)
	}
	if prod.Stock != "42" {
		t.Errorf("numeric stock: expected \"42\", got %q", prod.Stock)
	}
	if prod.Change.Float() != -5 {
		t.Errorf("percent string: expected -5, got %v", prod.Change)
	}
}
