package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gitok/internal/config"
	"gitok/internal/picker"
	"gitok/internal/scheduler"
	"gitok/internal/status"
)

type stubScanner struct {
	mu    sync.Mutex
	roots []string
}

func (s *stubScanner) Scan(_ context.Context, root string, remote bool, _ *status.ScanResult) status.ScanResult {
	s.mu.Lock()
	s.roots = append(s.roots, root)
	s.mu.Unlock()
	now := time.Now()
	return status.ScanResult{Root: root, IncludeRemote: remote, StartedAt: now, CompletedAt: now, Projects: []status.ProjectStatus{}}
}

type fixture struct {
	engine  *Engine
	sched   *scheduler.Scheduler
	store   *config.FileStore
	applied chan status.ScanResult
	states  chan scheduler.State
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	applied := make(chan status.ScanResult, 64)
	sched := scheduler.New(&stubScanner{},
		scheduler.Config{LocalInterval: time.Hour, RemoteInterval: time.Hour},
		nil,
		scheduler.NotifierFunc(func(r status.ScanResult, _ scheduler.State) { applied <- r }),
	)
	t.Cleanup(sched.Close)

	store := config.NewFileStore(t.TempDir(), nil)
	f := &fixture{
		engine:  New(sched, store, nil),
		sched:   sched,
		store:   store,
		applied: applied,
		states:  make(chan scheduler.State, 64),
	}
	f.engine.OnChange(func(st scheduler.State) { f.states <- st })
	return f
}

func (f *fixture) waitScan(t *testing.T, root string) status.ScanResult {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case r := <-f.applied:
			if r.Root == root {
				return r
			}
		case <-deadline:
			t.Fatalf("no scan of %s applied", root)
		}
	}
}

func TestSetRoot(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()

	got, err := f.engine.SetRoot(root)
	if err != nil || got != root {
		t.Fatalf("SetRoot = %q, %v", got, err)
	}
	if f.store.Get(config.KeyRootPath, "") != root {
		t.Error("root not persisted")
	}
	f.waitScan(t, root)
	if st := <-f.states; st.Root() != root {
		t.Errorf("listener state root = %q", st.Root())
	}
}

func TestSetRoot_Rejects(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := f.engine.SetRoot(file); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("SetRoot(file) = %v, want ErrNotDirectory", err)
	}
	if _, err := f.engine.SetRoot(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("SetRoot(missing) = %v, want ErrNotExist", err)
	}
	if f.store.Get(config.KeyRootPath, "unset") != "unset" {
		t.Error("rejected root was persisted")
	}
}

func TestSelectRoot(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()

	got, ok, err := f.engine.SelectRoot(context.Background(), picker.Func(func(context.Context) (string, bool, error) {
		return root, true, nil
	}))
	if err != nil || !ok || got != root {
		t.Fatalf("SelectRoot = %q, %v, %v", got, ok, err)
	}
	f.waitScan(t, root)
}

func TestSelectRoot_CancelIsNoop(t *testing.T) {
	f := newFixture(t)

	_, ok, err := f.engine.SelectRoot(context.Background(), picker.Func(func(context.Context) (string, bool, error) {
		return "", false, nil
	}))
	if ok || err != nil {
		t.Errorf("cancelled SelectRoot = %v, %v", ok, err)
	}
	if st := f.engine.State(); st.RootPath != nil {
		t.Errorf("root changed to %q", st.Root())
	}
}

func TestPolling(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.StartPolling(); !errors.Is(err, scheduler.ErrNoRoot) {
		t.Errorf("StartPolling without root = %v, want ErrNoRoot", err)
	}

	root := t.TempDir()
	if _, err := f.engine.SetRoot(root); err != nil {
		t.Fatal(err)
	}
	on, err := f.engine.TogglePolling()
	if err != nil || !on {
		t.Fatalf("TogglePolling = %v, %v", on, err)
	}
	if !f.engine.State().CadenceEnabled || !config.Bool(f.store, config.KeyPollingEnabled, false) {
		t.Error("polling not enabled and persisted")
	}

	on, err = f.engine.TogglePolling()
	if err != nil || on {
		t.Fatalf("TogglePolling = %v, %v", on, err)
	}
	st := f.engine.State()
	if st.CadenceEnabled || st.Phase != scheduler.PhaseStopped {
		t.Errorf("state after stop = %+v", st)
	}
	if f.store.Get(config.KeyPollingEnabled, "") != "false" {
		t.Error("pollingEnabled not persisted as false")
	}
}

func TestTogglePolling_ConcurrentTogglesCancelOut(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.SetRoot(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	for range 20 {
		results := make(chan bool, 2)
		var wg sync.WaitGroup
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				on, err := f.engine.TogglePolling()
				if err != nil {
					t.Errorf("TogglePolling: %v", err)
				}
				results <- on
			}()
		}
		wg.Wait()
		close(results)

		var ons int
		for on := range results {
			if on {
				ons++
			}
		}
		if ons != 1 {
			t.Fatalf("%d of 2 concurrent toggles enabled polling, want 1", ons)
		}
		if f.engine.State().CadenceEnabled {
			t.Fatal("two toggles should leave polling off")
		}
		if config.Bool(f.store, config.KeyPollingEnabled, true) {
			t.Fatal("persisted flag should be false")
		}
	}
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	root := t.TempDir()
	if err := f.store.Set(config.KeyRootPath, root); err != nil {
		t.Fatal(err)
	}
	if err := config.SetBool(f.store, config.KeyPollingEnabled, true); err != nil {
		t.Fatal(err)
	}

	if err := f.engine.Restore(""); err != nil {
		t.Fatal(err)
	}
	r := f.waitScan(t, root)
	if !r.IncludeRemote {
		t.Error("restore should start with a full scan")
	}
	if !f.engine.State().CadenceEnabled {
		t.Error("polling not restored")
	}
}

func TestRestore_Override(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Set(config.KeyRootPath, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	override := t.TempDir()

	if err := f.engine.Restore(override); err != nil {
		t.Fatal(err)
	}
	f.waitScan(t, override)
	if f.engine.State().CadenceEnabled {
		t.Error("polling should stay off")
	}
	if f.store.Get(config.KeyRootPath, "") != override {
		t.Error("override not persisted")
	}
}

func TestRestore_NothingConfigured(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.Restore(""); err != nil {
		t.Fatal(err)
	}
	if st := f.engine.State(); st.Phase != scheduler.PhaseIdle {
		t.Errorf("Phase = %s, want idle", st.Phase)
	}
}

func TestApplyStoreChange(t *testing.T) {
	f := newFixture(t)
	a, b := t.TempDir(), t.TempDir()
	if _, err := f.engine.SetRoot(a); err != nil {
		t.Fatal(err)
	}
	f.waitScan(t, a)

	f.engine.ApplyStoreChange(
		map[string]string{config.KeyRootPath: a, config.KeyPollingEnabled: "false"},
		map[string]string{config.KeyRootPath: b, config.KeyPollingEnabled: "true"},
	)
	f.waitScan(t, b)
	st := f.engine.State()
	if st.Root() != b || !st.CadenceEnabled {
		t.Errorf("state = %+v, want polling %s", st, b)
	}

	// Echo of a change already applied does nothing.
	before := len(f.states)
	f.engine.ApplyStoreChange(
		map[string]string{config.KeyRootPath: a},
		map[string]string{config.KeyRootPath: b},
	)
	if len(f.states) != before {
		t.Error("echoed change notified listeners")
	}
}
