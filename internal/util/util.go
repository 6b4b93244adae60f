// Package util provides shared utilities: date parsing, display number
// formatting and error aggregation.
package util

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ─── Date Parsing ─────────────────────────────────────────────────────────────

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a time.Time (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate formats a time.Time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ─── Number Formatting ────────────────────────────────────────────────────────

// CompactNumber formats n for stat cards: 2300000 → "2.3M", 156789 → "156.8K",
// anything under a thousand with thousands separators.
func CompactNumber(n float64) string {
	abs := math.Abs(n)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", n/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", n/1_000)
	}
	return humanize.Commaf(n)
}

// Peso formats a currency amount: millions compact ("₱2.3M"), otherwise
// with separators ("₱1,250").
func Peso(n float64) string {
	if math.Abs(n) >= 1_000_000 {
		return fmt.Sprintf("₱%.1fM", n/1_000_000)
	}
	return "₱" + humanize.Commaf(n)
}

// Count formats an integer count with thousands separators.
func Count(n int64) string {
	return humanize.Comma(n)
}

// SignedPct formats a percentage with an explicit sign: 15 → "+15%".
func SignedPct(v float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
	if v > 0 {
		return "+" + s + "%"
	}
	return s + "%"
}

// ─── Error Helpers ────────────────────────────────────────────────────────────

// MultiError collects multiple errors and presents them as one.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

func (m *MultiError) Error() string {
	msgs := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}
