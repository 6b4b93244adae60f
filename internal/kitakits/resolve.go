package kitakits

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Probe is the outcome of testing one candidate endpoint. Reachable means a
// 2xx response whose body is a JSON object; everything else carries Err.
type Probe struct {
	Endpoint  string        `json:"endpoint"`
	Reachable bool          `json:"reachable"`
	Status    int           `json:"status,omitempty"`
	Latency   time.Duration `json:"latency"`
	Err       error         `json:"-"`
	CheckedAt time.Time     `json:"checked_at"`
	Payload   []byte        `json:"-"`
}

// Cause returns the failure reason, or "" for a reachable probe.
func (p Probe) Cause() string {
	if p.Err == nil {
		return ""
	}
	return p.Err.Error()
}

// Outcome is the Resolver's answer for one refresh cycle. Found is false when
// every candidate was exhausted; that is a normal result, not an error.
type Outcome struct {
	Found    bool          `json:"found"`
	Endpoint string        `json:"endpoint,omitempty"`
	Payload  []byte        `json:"-"`
	Elapsed  time.Duration `json:"elapsed"`
	Probes   []Probe       `json:"probes"`
}

// Resolve walks candidates strictly in order, probing GET {candidate}/analytics
// once each, and stops at the first reachable one. Probes are sequential
// because list order is preference: a faster, less-preferred endpoint must
// never win. Individual probe failures are logged and swallowed.
//
// If ctx is cancelled mid-walk the remaining candidates are recorded as
// unreachable with the context error, so Probes always has one entry per
// candidate.
func (c *Client) Resolve(ctx context.Context, candidates []string) Outcome {
	start := time.Now()
	out := Outcome{Probes: make([]Probe, 0, len(candidates))}

	if len(candidates) == 0 {
		slog.Warn("kitakits resolve: empty candidate list")
		return out
	}

	for i, base := range candidates {
		if err := ctx.Err(); err != nil {
			for _, rest := range candidates[i:] {
				out.Probes = append(out.Probes, Probe{Endpoint: rest, Err: err, CheckedAt: time.Now()})
			}
			break
		}

		p := c.probe(ctx, base)
		out.Probes = append(out.Probes, p)
		if p.Reachable {
			out.Found = true
			out.Endpoint = base
			out.Payload = p.Payload
			out.Elapsed = time.Since(start)
			slog.Debug("kitakits endpoint found", "endpoint", base, "attempts", i+1, "elapsed", out.Elapsed)
			return out
		}
		slog.Debug("kitakits probe failed", "endpoint", base, "status", p.Status, "latency", p.Latency, "err", p.Err)
	}

	out.Elapsed = time.Since(start)
	slog.Info("no live KitaKits endpoint found", "candidates", len(candidates), "elapsed", out.Elapsed)
	return out
}

// probe issues one bounded GET against base and classifies the response.
func (c *Client) probe(ctx context.Context, base string) Probe {
	start := time.Now()
	p := Probe{Endpoint: base, CheckedAt: start}

	status, body, err := c.get(ctx, AnalyticsURL(base, nil))
	p.Latency = time.Since(start)
	p.Status = status

	switch {
	case err != nil:
		p.Err = err
	case !isSuccess(status):
		p.Err = fmt.Errorf("%w: HTTP %d", ErrStatus, status)
	case !isJSON(body):
		p.Err = ErrMalformedBody
	default:
		p.Reachable = true
		p.Payload = body
	}
	return p
}
