package prefs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/derickschaefer/kitadash/internal/model"
	"github.com/derickschaefer/kitadash/internal/prefs"
	"github.com/derickschaefer/kitadash/internal/store"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// memStore is an in-memory Persister.
type memStore struct {
	mode    model.DisplayMode
	set     bool
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) LoadMode() (model.DisplayMode, bool, error) {
	return m.mode, m.set, m.loadErr
}

func (m *memStore) SaveMode(d model.DisplayMode) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.mode, m.set = d, true
	return nil
}

func recv(t *testing.T, ch <-chan model.ModeChange, within time.Duration) (model.ModeChange, bool) {
	t.Helper()
	select {
	case c, ok := <-ch:
		return c, ok
	case <-time.After(within):
		return model.ModeChange{}, false
	}
}

// ─── Bus ──────────────────────────────────────────────────────────────────────

func TestBusDeliversToEverySubscriber(t *testing.T) {
	b := prefs.NewBus()
	a, cancelA := b.Subscribe()
	defer cancelA()
	c, cancelC := b.Subscribe()
	defer cancelC()

	b.Publish(model.ModeChange{Mode: model.ModeMock})
	for i, ch := range []<-chan model.ModeChange{a, c} {
		got, ok := recv(t, ch, time.Second)
		if !ok || got.Mode != model.ModeMock {
			t.Errorf("subscriber %d: expected mock, got %+v ok=%v", i, got, ok)
		}
	}
}

func TestBusLatestWins(t *testing.T) {
	b := prefs.NewBus()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(model.ModeChange{Mode: model.ModeMock})
	b.Publish(model.ModeChange{Mode: model.ModeLive})
	b.Publish(model.ModeChange{Mode: model.ModeMock})

	got, ok := recv(t, ch, time.Second)
	if !ok || got.Mode != model.ModeMock {
		t.Fatalf("expected newest change (mock), got %+v", got)
	}
	if _, ok := recv(t, ch, 20*time.Millisecond); ok {
		t.Error("intermediate changes should have been dropped")
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	b := prefs.NewBus()
	ch, cancel := b.Subscribe()
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}
	b.Publish(model.ModeChange{Mode: model.ModeLive})
}

func TestBusClose(t *testing.T) {
	b := prefs.NewBus()
	ch, cancel := b.Subscribe()
	b.Close()
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after Close")
	}
	cancel()
	b.Publish(model.ModeChange{Mode: model.ModeLive})

	late, _ := b.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribing to a closed bus should yield a closed channel")
	}
}

func TestBusPublishIfChanged(t *testing.T) {
	b := prefs.NewBus()
	b.Seed(model.ModeLive)
	ch, cancel := b.Subscribe()
	defer cancel()

	if b.PublishIfChanged(model.ModeChange{Mode: model.ModeLive}) {
		t.Error("same mode as seed should not publish")
	}
	if !b.PublishIfChanged(model.ModeChange{Mode: model.ModeMock}) {
		t.Error("new mode should publish")
	}
	if got, ok := recv(t, ch, time.Second); !ok || got.Mode != model.ModeMock {
		t.Errorf("expected mock, got %+v", got)
	}
	if b.Last().Mode != model.ModeMock {
		t.Errorf("Last: expected mock, got %s", b.Last().Mode)
	}
}

// ─── Service ──────────────────────────────────────────────────────────────────

func TestServiceFallbackWhenUnset(t *testing.T) {
	svc := prefs.NewService(&memStore{}, model.ModeLive, prefs.NewBus())
	m, err := svc.Mode()
	if err != nil || m != model.ModeLive {
		t.Fatalf("expected fallback live, got %s err=%v", m, err)
	}
}

func TestServiceReadErrorReturnsFallback(t *testing.T) {
	svc := prefs.NewService(&memStore{loadErr: errors.New("locked")}, model.ModeMock, prefs.NewBus())
	m, err := svc.Mode()
	if err == nil {
		t.Fatal("expected the read error")
	}
	if m != model.ModeMock {
		t.Errorf("expected fallback alongside the error, got %s", m)
	}
}

func TestServiceSetModePersistsThenPublishes(t *testing.T) {
	ms := &memStore{}
	bus := prefs.NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()
	svc := prefs.NewService(ms, model.ModeLive, bus)

	if err := svc.SetMode(model.ModeMock); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if ms.saves != 1 || ms.mode != model.ModeMock {
		t.Errorf("expected one save of mock, got %d saves of %s", ms.saves, ms.mode)
	}
	if got, ok := recv(t, ch, time.Second); !ok || got.Mode != model.ModeMock {
		t.Errorf("expected a mock change, got %+v", got)
	}
	if m, _ := svc.Mode(); m != model.ModeMock {
		t.Errorf("Mode after SetMode: %s", m)
	}
}

func TestServiceSetModeRejectsInvalid(t *testing.T) {
	ms := &memStore{}
	svc := prefs.NewService(ms, model.ModeLive, prefs.NewBus())
	if err := svc.SetMode("offline"); !errors.Is(err, model.ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	if ms.saves != 0 {
		t.Error("invalid mode must not be saved")
	}
}

func TestServiceSaveErrorDoesNotPublish(t *testing.T) {
	bus := prefs.NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()
	svc := prefs.NewService(&memStore{saveErr: errors.New("disk full")}, model.ModeLive, bus)

	if err := svc.SetMode(model.ModeMock); err == nil {
		t.Fatal("expected save error")
	}
	if _, ok := recv(t, ch, 20*time.Millisecond); ok {
		t.Error("a failed save must not be announced")
	}
}

// ─── Watcher ──────────────────────────────────────────────────────────────────

func TestWatcherSeesChangeFromAnotherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kitadash.db")
	opener := store.Opener{Path: path}

	// watched: the long-running dashboard. other: a separate `mode set`.
	watchedBus := prefs.NewBus()
	watched := prefs.NewService(opener, model.ModeLive, watchedBus)
	other := prefs.NewService(opener, model.ModeLive, prefs.NewBus())

	w, err := prefs.NewWatcher(watched, path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if watchedBus.Last().Mode != model.ModeLive {
		t.Fatalf("watcher should seed the bus with the current mode, got %q", watchedBus.Last().Mode)
	}

	ch, unsub := watchedBus.Subscribe()
	defer unsub()

	if err := other.SetMode(model.ModeMock); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	got, ok := recv(t, ch, 3*time.Second)
	if !ok {
		t.Fatal("watcher did not publish the change")
	}
	if got.Mode != model.ModeMock {
		t.Errorf("expected mock, got %s", got.Mode)
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kitadash.db")
	svc := prefs.NewService(store.Opener{Path: path}, model.ModeLive, prefs.NewBus())
	w, err := prefs.NewWatcher(svc, path, 0)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
}

func TestWatcherStopAfterFailedStart(t *testing.T) {
	// The DB directory would have to live under a regular file.
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(file, "kitadash.db")
	svc := prefs.NewService(store.Opener{Path: path}, model.ModeLive, prefs.NewBus())
	w, err := prefs.NewWatcher(svc, path, 0)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail when the DB directory cannot be created")
	}

	done := make(chan struct{})
	go func() {
		w.Stop()
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
}
