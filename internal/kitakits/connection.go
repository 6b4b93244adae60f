package kitakits

import (
	"context"
	"time"
)

// Sample is a handful of headline numbers read from a live payload, shown by
// the connection status panel.
type Sample struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalInteractions int64 `json:"totalInteractions"`
	HasRealData       bool  `json:"hasRealData"`
}

// ConnectionStatus reports whether any candidate serves analytics right now.
type ConnectionStatus struct {
	HasLiveEndpoint bool          `json:"hasLiveEndpoint"`
	Endpoint        string        `json:"endpoint,omitempty"`
	ResponseTime    time.Duration `json:"responseTime"`
	Format          string        `json:"format,omitempty"`
	Sample          *Sample       `json:"sample,omitempty"`
	Probes          []Probe       `json:"probes"`
	CheckedAt       time.Time     `json:"checkedAt"`
}

// TestConnection resolves candidates and summarises the result. The sample is
// read from the payload that won resolution; it is omitted when that payload
// matches neither accepted format.
func (c *Client) TestConnection(ctx context.Context, candidates []string) ConnectionStatus {
	checkedAt := time.Now()
	out := c.Resolve(ctx, candidates)
	st := ConnectionStatus{
		HasLiveEndpoint: out.Found,
		Endpoint:        out.Endpoint,
		ResponseTime:    out.Elapsed,
		Probes:          out.Probes,
		CheckedAt:       checkedAt,
	}
	if !out.Found {
		return st
	}
	p, err := ParsePayload(out.Payload)
	if err != nil {
		return st
	}
	st.Format = p.Format()
	s := &Sample{}
	if ov := p.Content().Overview; ov != nil {
		s.TotalUsers = ov.TotalUsers.Int()
		s.TotalInteractions = ov.TotalInteractions.Int()
	}
	s.HasRealData = s.TotalUsers > 0
	st.Sample = s
	return st
}
