package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/derickschaefer/kitadash/internal/config"
)

func TestOutputWriterDefault(t *testing.T) {
	globalFlags.Out = ""
	w, closeFn, err := outputWriter(os.Stdout)
	if err != nil {
		t.Fatalf("outputWriter default: %v", err)
	}
	if w != os.Stdout {
		t.Fatalf("expected stdout writer passthrough")
	}
	if err := closeFn(); err != nil {
		t.Fatalf("default closer should be nil error, got: %v", err)
	}
}

func TestOutputWriterFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.txt")
	globalFlags.Out = p
	t.Cleanup(func() { globalFlags.Out = "" })

	w, closeFn, err := outputWriter(os.Stdout)
	if err != nil {
		t.Fatalf("outputWriter file: %v", err)
	}
	if w == os.Stdout {
		t.Fatalf("expected file writer, got stdout")
	}
	if err := closeFn(); err != nil {
		t.Fatalf("closing output writer: %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}
}

func TestOutputWriterQuietDiscards(t *testing.T) {
	globalFlags.Quiet = true
	t.Cleanup(func() { globalFlags.Quiet = false })

	w, _, err := outputWriter(os.Stdout)
	if err != nil {
		t.Fatalf("outputWriter: %v", err)
	}
	if w == os.Stdout {
		t.Fatal("--quiet without --out should discard output")
	}
}

func TestParseFilters(t *testing.T) {
	q, err := parseFilters([]string{"region=NCR", "period = week", "region=Region 7"})
	if err != nil {
		t.Fatalf("parseFilters: %v", err)
	}
	if got := q["region"]; len(got) != 2 || got[0] != "NCR" || got[1] != "Region 7" {
		t.Errorf("region: got %v", got)
	}
	if q.Get("period") != "week" {
		t.Errorf("period: got %q", q.Get("period"))
	}

	if q, err := parseFilters(nil); err != nil || q != nil {
		t.Errorf("no filters: got %v, %v", q, err)
	}
	for _, bad := range []string{"region", "=NCR"} {
		if _, err := parseFilters([]string{bad}); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}

func TestResolveFormat(t *testing.T) {
	globalFlags.Format = ""
	if f, _ := resolveFormat(""); f != "table" {
		t.Errorf("default: got %q", f)
	}
	if f, _ := resolveFormat("csv"); f != "csv" {
		t.Errorf("config: got %q", f)
	}

	globalFlags.Format = "json"
	t.Cleanup(func() { globalFlags.Format = "" })
	if f, _ := resolveFormat("csv"); f != "json" {
		t.Errorf("flag should win: got %q", f)
	}

	globalFlags.Format = "xml"
	if _, err := resolveFormat(""); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestSetConfigKey(t *testing.T) {
	f := config.Template()
	tests := []struct {
		key, val string
		wantErr  bool
	}{
		{"default_mode", "MOCK", false},
		{"default_mode", "offline", true},
		{"format", "md", false},
		{"format", "xml", true},
		{"timeout", "750ms", false},
		{"timeout", "soon", true},
		{"rate", "2.5", false},
		{"rate", "-1", true},
		{"endpoints", "http://a/, http://b", false},
		{"endpoints", " , ", true},
		{"api_key", "x", true},
	}
	for _, tt := range tests {
		err := setConfigKey(&f, tt.key, tt.val)
		if (err != nil) != tt.wantErr {
			t.Errorf("setConfigKey(%s, %s): err=%v, wantErr=%v", tt.key, tt.val, err, tt.wantErr)
		}
	}
	if f.DefaultMode != "mock" || f.DefaultFormat != "md" || f.Timeout != "750ms" || f.Rate != 2.5 {
		t.Errorf("unexpected file: %+v", f)
	}
	if len(f.Endpoints) != 2 || f.Endpoints[0] != "http://a" {
		t.Errorf("endpoints: %v", f.Endpoints)
	}
}
