//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitok/internal/config"
	"gitok/internal/engine"
	"gitok/internal/gitexec"
	"gitok/internal/gittest"
	"gitok/internal/logging"
	"gitok/internal/repostatus"
	"gitok/internal/scan"
	"gitok/internal/scheduler"
	"gitok/internal/status"
	"gitok/internal/tui"
	"gitok/internal/web"
)

// Stack is a fully wired gitok instance running against real git.
type Stack struct {
	Root   string
	Engine *engine.Engine
	Sched  *scheduler.Scheduler
	Store  *config.FileStore
	Hub    *web.Hub
	Server *httptest.Server
	Logs   *logging.TestLogManager

	// Msgs receives every message the TUI notifier would send.
	Msgs chan tea.Msg
}

// NewStack builds a stack over a gittest.Fixture root with the given
// cadence. The root is set and scanned once; polling is not started.
func NewStack(t *testing.T, cfg scheduler.Config) *Stack {
	t.Helper()
	gittest.RequireGit(t)

	root := gittest.Fixture(t)
	logs := logging.NewTestLogManager(1000)
	t.Cleanup(func() { _ = logs.Close() })

	runner := gitexec.NewRunner(
		gitexec.WithTimeout(10*time.Second),
		gitexec.WithLogger(logs.For("gitexec")),
	)
	resolver := repostatus.NewResolver(runner.Func(), logs.For("repostatus"))
	scanner := scan.New(resolver, 4, logs.For("scan"))

	msgs := make(chan tea.Msg, 100)
	notifier := tui.NewNotifier(func(msg tea.Msg) {
		select {
		case msgs <- msg:
		default:
		}
	})
	hub := web.NewHub()

	sched := scheduler.New(scanner, cfg, logs.For("scheduler"), notifier, hub)
	store := config.NewFileStore(t.TempDir(), logs.For("config"))
	eng := engine.New(sched, store, logs.For("engine"))
	eng.OnChange(notifier.StateChanged)
	eng.OnChange(hub.StateChanged)

	srv := web.New(web.Config{Bind: "127.0.0.1", Port: 0}, eng, hub, logs)
	ts := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		ts.Close()
		hub.Close()
		sched.Close()
	})

	if _, err := eng.SetRoot(root); err != nil {
		t.Fatalf("set root: %v", err)
	}

	s := &Stack{
		Root:   root,
		Engine: eng,
		Sched:  sched,
		Store:  store,
		Hub:    hub,
		Server: ts,
		Logs:   logs,
		Msgs:   msgs,
	}
	// Setting a root without polling runs one full scan in the background.
	s.WaitForScan(t, 30*time.Second, func(r status.ScanResult) bool { return r.Root == root })
	return s
}

// WaitForScan waits until the engine holds a result accepted by pred.
func (s *Stack) WaitForScan(t *testing.T, timeout time.Duration, pred func(status.ScanResult) bool) status.ScanResult {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if res, ok := s.Engine.Latest(); ok && pred(res) {
			return res
		}
		time.Sleep(20 * time.Millisecond)
	}
	res, _ := s.Engine.Latest()
	t.Fatalf("timed out waiting for scan; latest: %+v", res)
	return status.ScanResult{}
}

// Project returns the named project from res.
func Project(t *testing.T, res status.ScanResult, name string) status.ProjectStatus {
	t.Helper()
	for _, p := range res.Projects {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("project %q not in result", name)
	return status.ProjectStatus{}
}

// ScanNow runs a scan through the engine and fails the test if it was
// discarded.
func (s *Stack) ScanNow(t *testing.T, includeRemote bool) status.ScanResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, ok := s.Engine.Scan(ctx, includeRemote)
	if !ok {
		t.Fatal("scan was not applied")
	}
	return res
}

// TUITestRunner helps drive the TUI through Update() calls for testing.
type TUITestRunner struct {
	t     *testing.T
	model tui.Model
}

// NewTUITestRunner creates a new test runner with the given model.
func NewTUITestRunner(t *testing.T, model tui.Model) *TUITestRunner {
	return &TUITestRunner{t: t, model: model}
}

// Model returns the current model state.
func (r *TUITestRunner) Model() tui.Model {
	return r.model
}

// PressKey simulates pressing a regular key.
func (r *TUITestRunner) PressKey(key rune) {
	r.t.Helper()
	r.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{key}})
}

// SendWindowSize sends a window size message.
func (r *TUITestRunner) SendWindowSize(width, height int) {
	r.t.Helper()
	r.Send(tea.WindowSizeMsg{Width: width, Height: height})
}

// Send feeds msg through Update and applies the message its command
// produces. Follow-up commands (status timers, spinner ticks) are dropped.
func (r *TUITestRunner) Send(msg tea.Msg) {
	r.t.Helper()
	model, cmd := r.model.Update(msg)
	r.model = model.(tui.Model)
	if cmd == nil {
		return
	}
	next := cmd()
	if next == nil {
		return
	}
	if _, ok := next.(tea.BatchMsg); ok {
		return
	}
	if _, ok := next.(tea.QuitMsg); ok {
		return
	}
	model, _ = r.model.Update(next)
	r.model = model.(tui.Model)
}

// Drain feeds every queued notifier message into the model.
func (r *TUITestRunner) Drain(msgs <-chan tea.Msg) {
	r.t.Helper()
	for {
		select {
		case msg := <-msgs:
			model, _ := r.model.Update(msg)
			r.model = model.(tui.Model)
		default:
			return
		}
	}
}
