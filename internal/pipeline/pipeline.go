// Package pipeline reads and writes daily activity as JSONL, the pipe format
// between kitadash commands:
//
//	kitadash trends --format jsonl | kitadash trends --stdin --rolling 3
package pipeline

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/derickschaefer/kitadash/internal/model"
	"github.com/derickschaefer/kitadash/internal/util"
)

// ReadDaily reads a stream of JSON values from r. Each value is either one
// DailyTrend record (the JSONL written by WriteDaily) or a Result envelope
// from `kitadash fetch --format json`, whose daily trends are used. Values
// may span lines, so indented JSON is accepted.
func ReadDaily(r io.Reader) ([]model.DailyTrend, error) {
	dec := json.NewDecoder(bufio.NewReader(r))

	var days []model.DailyTrend
	for n := 1; ; n++ {
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid JSON: %w", n, err)
		}

		var probe struct {
			Date *string         `json:"date"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("record %d: expected an object: %w", n, err)
		}
		if probe.Date == nil && len(probe.Data) > 0 {
			var a model.Analytics
			if err := json.Unmarshal(probe.Data, &a); err != nil {
				return nil, fmt.Errorf("record %d: envelope data: %w", n, err)
			}
			days = append(days, a.Trends.Daily...)
			continue
		}

		var d model.DailyTrend
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}
		if _, err := util.ParseDate(d.Date); err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return nil, errors.New("no daily records read from input (is stdin empty?)")
	}
	return days, nil
}

// WriteDaily writes days as JSONL to w.
func WriteDaily(w io.Writer, days []model.DailyTrend) error {
	enc := json.NewEncoder(w)
	for _, d := range days {
		if err := enc.Encode(d); err != nil {
			return err
		}
	}
	return nil
}

// IsTerminal reports whether w is a terminal rather than a pipe or file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
