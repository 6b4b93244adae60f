package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/derickschaefer/kitadash/internal/model"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	// Mode is the display mode for the first refresh.
	Mode model.DisplayMode
	// Changes delivers mode changes; each one triggers an immediate refresh
	// in the new mode. Nil disables change-driven refreshes.
	Changes <-chan model.ModeChange
	// Interval re-refreshes periodically in the current mode. Zero disables
	// periodic refreshes.
	Interval time.Duration
}

// Watch refreshes once, then again on every mode change and every Interval,
// handing each Snapshot to emit. It returns nil when ctx is done or Changes
// is closed, and emit's error if emit fails.
func (b *Board) Watch(ctx context.Context, opts WatchOptions, emit func(Snapshot) error) error {
	mode := opts.Mode

	refresh := func() error {
		snap, err := b.Refresh(ctx, mode)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		return emit(snap)
	}

	if err := refresh(); err != nil {
		return err
	}

	var tick <-chan time.Time
	if opts.Interval > 0 {
		t := time.NewTicker(opts.Interval)
		defer t.Stop()
		tick = t.C
	}

	changes := opts.Changes
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			slog.Info("display mode switched", "from", mode, "to", c.Mode)
			mode = c.Mode
			if err := refresh(); err != nil {
				return err
			}
		case <-tick:
			if err := refresh(); err != nil {
				return err
			}
		}
	}
}
