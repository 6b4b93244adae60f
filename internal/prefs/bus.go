// Package prefs owns the display-mode preference: reading and writing it,
// and telling running widgets when it changes.
package prefs

import (
	"sync"

	"github.com/derickschaefer/kitadash/internal/model"
)

// Bus is an in-process broadcast of mode changes. Each subscriber has a
// one-slot buffer holding only the newest change, so a slow subscriber
// skips intermediate values and never blocks Publish.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]chan model.ModeChange
	next   uint64
	last   model.ModeChange
	closed bool
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan model.ModeChange)}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; calling it more than once is safe.
func (b *Bus) Subscribe() (<-chan model.ModeChange, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan model.ModeChange, 1)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers c to every subscriber, replacing any change still
// waiting in a subscriber's buffer.
func (b *Bus) Publish(c model.ModeChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishLocked(c)
}

// PublishIfChanged publishes c only when its mode differs from the last one
// published or seeded. It reports whether c was published.
func (b *Bus) PublishIfChanged(c model.ModeChange) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c.Mode == b.last.Mode {
		return false
	}
	b.publishLocked(c)
	return true
}

// Seed records m as the current mode without notifying anyone.
func (b *Bus) Seed(m model.DisplayMode) {
	b.mu.Lock()
	b.last = model.ModeChange{Mode: m}
	b.mu.Unlock()
}

// Last returns the most recently published or seeded change.
func (b *Bus) Last() model.ModeChange {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Close closes every subscriber channel. Later Publish calls are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Bus) publishLocked(c model.ModeChange) {
	if b.closed {
		return
	}
	b.last = c
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c
	}
}
