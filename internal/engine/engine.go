// pattern: Imperative Shell

// Package engine exposes the operations a host offers on top of the
// scheduler: choosing the root, scanning on demand and toggling polling.
// Every change is persisted to the state store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gitok/internal/config"
	"gitok/internal/logging"
	"gitok/internal/picker"
	"gitok/internal/scheduler"
	"gitok/internal/status"
)

// ErrNotDirectory is returned when a proposed root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Engine serializes host operations against one scheduler and store.
type Engine struct {
	sched  *scheduler.Scheduler
	store  config.Store
	logger *logging.ScopedLogger

	mu        sync.Mutex
	listeners []func(scheduler.State)
}

// New creates an Engine.
func New(sched *scheduler.Scheduler, store config.Store, logger *logging.ScopedLogger) *Engine {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Engine{sched: sched, store: store, logger: logger}
}

// OnChange registers fn to receive the schedule state after every host
// operation. Scan results are delivered separately by scheduler notifiers.
func (e *Engine) OnChange(fn func(scheduler.State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Restore applies the persisted root and polling flag. A non-empty
// override replaces the persisted root. Without polling, a known root
// still gets one full scan.
func (e *Engine) Restore(override string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	root := e.store.Get(config.KeyRootPath, "")
	if override != "" {
		abs, err := CheckDir(override)
		if err != nil {
			return err
		}
		root = abs
		if err := e.store.Set(config.KeyRootPath, root); err != nil {
			return err
		}
	}
	if root == "" {
		e.logger.Info("no root configured")
		return nil
	}

	polling := config.Bool(e.store, config.KeyPollingEnabled, false)
	e.logger.Info("restoring schedule", "root", root, "polling", polling)
	if polling {
		if err := e.sched.Start(root); err != nil {
			return err
		}
	} else {
		e.sched.Reconfigure(root)
	}
	e.changedLocked()
	return nil
}

// SetRoot validates and persists a new root, then reconfigures the
// scheduler. An empty path clears the root.
func (e *Engine) SetRoot(path string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	root := ""
	if path != "" {
		abs, err := CheckDir(path)
		if err != nil {
			return "", err
		}
		root = abs
	}
	if err := e.store.Set(config.KeyRootPath, root); err != nil {
		return "", err
	}
	e.sched.Reconfigure(root)
	e.changedLocked()
	return root, nil
}

// SelectRoot asks p for a directory and applies it. A cancelled pick is
// not an error and changes nothing.
func (e *Engine) SelectRoot(ctx context.Context, p picker.Picker) (string, bool, error) {
	path, ok, err := p.Pick(ctx)
	if err != nil {
		return "", false, err
	}
	if !ok {
		e.logger.Debug("root selection cancelled")
		return "", false, nil
	}
	root, err := e.SetRoot(path)
	if err != nil {
		return "", false, err
	}
	return root, true, nil
}

// StartPolling enables both cadences for the current root.
func (e *Engine) StartPolling() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startPollingLocked()
}

// StopPolling disables both cadences.
func (e *Engine) StopPolling() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopPollingLocked()
}

// TogglePolling flips polling and reports the new setting. Concurrent
// toggles serialize, so two of them always cancel out.
func (e *Engine) TogglePolling() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sched.State().CadenceEnabled {
		return false, e.stopPollingLocked()
	}
	return true, e.startPollingLocked()
}

func (e *Engine) startPollingLocked() error {
	root := e.sched.State().Root()
	if root == "" {
		return scheduler.ErrNoRoot
	}
	if err := config.SetBool(e.store, config.KeyPollingEnabled, true); err != nil {
		return err
	}
	if err := e.sched.Start(root); err != nil {
		return err
	}
	e.changedLocked()
	return nil
}

func (e *Engine) stopPollingLocked() error {
	if err := config.SetBool(e.store, config.KeyPollingEnabled, false); err != nil {
		return err
	}
	e.sched.Stop()
	e.changedLocked()
	return nil
}

// Scan runs a scan of the current root now.
func (e *Engine) Scan(ctx context.Context, includeRemote bool) (status.ScanResult, bool) {
	return e.sched.ScanNow(ctx, includeRemote)
}

// State returns the scheduler state.
func (e *Engine) State() scheduler.State {
	return e.sched.State()
}

// Latest returns the last applied scan.
func (e *Engine) Latest() (status.ScanResult, bool) {
	return e.sched.Latest()
}

// ApplyStoreChange reacts to the state file being edited by another
// process. Changes this engine made itself are no-ops.
func (e *Engine) ApplyStoreChange(old, cur map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed := false
	st := e.sched.State()

	if root := cur[config.KeyRootPath]; root != old[config.KeyRootPath] && root != st.Root() {
		e.logger.Info("root changed on disk", "root", root)
		e.sched.Reconfigure(root)
		changed = true
		st = e.sched.State()
	}

	if polling, err := strconv.ParseBool(cur[config.KeyPollingEnabled]); err == nil &&
		cur[config.KeyPollingEnabled] != old[config.KeyPollingEnabled] &&
		polling != st.CadenceEnabled {
		e.logger.Info("polling changed on disk", "enabled", polling)
		if polling {
			if err := e.sched.Start(st.Root()); err != nil {
				e.logger.Warn("cannot start polling", "error", err)
			}
		} else {
			e.sched.Stop()
		}
		changed = true
	}

	if changed {
		e.changedLocked()
	}
}

func (e *Engine) changedLocked() {
	st := e.sched.State()
	for _, fn := range e.listeners {
		fn(st)
	}
}

// CheckDir resolves path to an absolute directory or fails with
// ErrNotDirectory or the stat error.
func CheckDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root %s: %w", abs, ErrNotDirectory)
	}
	return abs, nil
}
