// Package app wires together configuration, the KitaKits client, the
// preference store and the data source selector into a single Deps struct
// that commands receive at runtime.
package app

import (
	"github.com/derickschaefer/kitadash/internal/config"
	"github.com/derickschaefer/kitadash/internal/kitakits"
	"github.com/derickschaefer/kitadash/internal/prefs"
	"github.com/derickschaefer/kitadash/internal/source"
	"github.com/derickschaefer/kitadash/internal/store"
)

// Deps holds all runtime dependencies injected into command Run functions.
// The preference DB is opened per operation through Store, so building Deps
// never takes the bbolt file lock.
type Deps struct {
	Config   *config.Config
	Client   *kitakits.Client
	Store    store.Opener
	Bus      *prefs.Bus
	Prefs    *prefs.Service
	Selector *source.Selector
}

// New builds a Deps from resolved config.
func New(cfg *config.Config) *Deps {
	client := kitakits.NewClient(cfg.Timeout, cfg.Rate, cfg.UserAgent)
	opener := store.Opener{Path: cfg.DBPath}
	bus := prefs.NewBus()
	return &Deps{
		Config:   cfg,
		Client:   client,
		Store:    opener,
		Bus:      bus,
		Prefs:    prefs.NewService(opener, cfg.DefaultMode, bus),
		Selector: source.NewSelector(client, cfg.Endpoints),
	}
}

// Close releases anything Deps started. Watchers passed in are stopped
// before the bus is closed so no reload publishes onto a closed bus.
func (d *Deps) Close(watchers ...*prefs.Watcher) {
	for _, w := range watchers {
		if w != nil {
			w.Stop()
		}
	}
	d.Bus.Close()
}
