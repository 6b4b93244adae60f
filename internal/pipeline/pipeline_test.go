package pipeline_test

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/derickschaefer/kitadash/internal/fixture"
	"github.com/derickschaefer/kitadash/internal/model"
	"github.com/derickschaefer/kitadash/internal/pipeline"
)

// jsonl joins lines with newlines and appends a trailing newline.
func jsonl(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// ─── ReadDaily ────────────────────────────────────────────────────────────────

func TestReadDailyJSONL(t *testing.T) {
	input := jsonl(
		`{"date":"2025-01-06","interactions":145000,"newUsers":320,"ocrProcessed":2100}`,
		``,
		`{"date":"2025-01-07","interactions":152000,"newUsers":340,"ocrProcessed":2250}`,
	)
	days, err := pipeline.ReadDaily(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadDaily: %v", err)
	}
	want := []model.DailyTrend{
		{Date: "2025-01-06", Interactions: 145000, NewUsers: 320, OCRProcessed: 2100},
		{Date: "2025-01-07", Interactions: 152000, NewUsers: 340, OCRProcessed: 2250},
	}
	if diff := cmp.Diff(want, days); diff != "" {
		t.Errorf("days mismatch (-want +got):\n%s", diff)
	}
}

func TestReadDailyIndentedEnvelope(t *testing.T) {
	a := fixture.Analytics()
	env := model.Result{Kind: model.KindAnalytics, Command: "fetch", Data: &a}
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	days, err := pipeline.ReadDaily(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("ReadDaily: %v", err)
	}
	if diff := cmp.Diff(a.Trends.Daily, days); diff != "" {
		t.Errorf("envelope days mismatch (-want +got):\n%s", diff)
	}
}

func TestReadDailyErrors(t *testing.T) {
	tests := map[string]string{
		"empty":       "",
		"not json":    "date,interactions\n",
		"bad date":    `{"date":"Jan 6","interactions":1}`,
		"missing day": `{"interactions":1}`,
		"array":       `[1,2]`,
	}
	for name, in := range tests {
		if _, err := pipeline.ReadDaily(strings.NewReader(in)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

// ─── WriteDaily ───────────────────────────────────────────────────────────────

func TestWriteReadRoundTrip(t *testing.T) {
	days := fixture.Analytics().Trends.Daily
	var buf bytes.Buffer
	if err := pipeline.WriteDaily(&buf, days); err != nil {
		t.Fatalf("WriteDaily: %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != len(days) {
		t.Errorf("expected %d lines, got %d", len(days), n)
	}
	got, err := pipeline.ReadDaily(&buf)
	if err != nil {
		t.Fatalf("ReadDaily: %v", err)
	}
	if diff := cmp.Diff(days, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestIsTerminal(t *testing.T) {
	if pipeline.IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if pipeline.IsTerminal(f) {
		t.Error("a regular file is not a terminal")
	}
}
