package prefs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/derickschaefer/kitadash/internal/model"
)

// Persister stores the display mode. store.Opener satisfies it.
type Persister interface {
	LoadMode() (model.DisplayMode, bool, error)
	SaveMode(model.DisplayMode) error
}

// Service reads and writes the display mode and announces changes on a Bus.
type Service struct {
	store    Persister
	fallback model.DisplayMode
	bus      *Bus
}

// NewService returns a Service backed by p. fallback is the mode reported
// while no preference has been saved.
func NewService(p Persister, fallback model.DisplayMode, bus *Bus) *Service {
	return &Service{store: p, fallback: fallback, bus: bus}
}

// Bus returns the bus changes are published on.
func (s *Service) Bus() *Bus { return s.bus }

// Mode returns the persisted mode, read fresh on every call.
func (s *Service) Mode() (model.DisplayMode, error) {
	m, ok, err := s.store.LoadMode()
	if err != nil {
		return s.fallback, fmt.Errorf("reading display mode: %w", err)
	}
	if !ok {
		return s.fallback, nil
	}
	return m, nil
}

// SetMode validates, persists and then publishes m.
func (s *Service) SetMode(m model.DisplayMode) error {
	m, err := model.ParseMode(string(m))
	if err != nil {
		return err
	}
	if err := s.store.SaveMode(m); err != nil {
		return fmt.Errorf("saving display mode: %w", err)
	}
	slog.Debug("display mode saved", "mode", m)
	s.bus.PublishIfChanged(model.ModeChange{Mode: m, At: time.Now()})
	return nil
}
