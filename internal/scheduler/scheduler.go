// pattern: Imperative Shell

// Package scheduler drives scans of the root at two cadences: frequent
// local-only checks and infrequent checks against the remote.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"gitok/internal/logging"
	"gitok/internal/status"
)

const (
	DefaultLocalInterval  = 60 * time.Second
	DefaultRemoteInterval = 600 * time.Second
)

var (
	ErrNoRoot = errors.New("no root directory configured")
	ErrClosed = errors.New("scheduler closed")
)

// Scanner runs one scan. *scan.Scanner implements it.
type Scanner interface {
	Scan(ctx context.Context, root string, includeRemote bool, prev *status.ScanResult) status.ScanResult
}

// Config sets the two cadences. Zero values take the defaults.
type Config struct {
	LocalInterval  time.Duration
	RemoteInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.LocalInterval <= 0 {
		c.LocalInterval = DefaultLocalInterval
	}
	if c.RemoteInterval <= 0 {
		c.RemoteInterval = DefaultRemoteInterval
	}
	return c
}

type source int

const (
	sourceManual source = iota
	sourceLocal
	sourceRemote
)

func (s source) String() string {
	switch s {
	case sourceLocal:
		return "local"
	case sourceRemote:
		return "remote"
	default:
		return "manual"
	}
}

// run is one configuration epoch: a root and whether cadences are armed.
// Start, Stop and Reconfigure replace the current run; anything a
// replaced run produces is discarded.
type run struct {
	root    string
	polling bool
	ctx     context.Context
	cancel  context.CancelFunc

	localBusy atomic.Bool
	fullBusy  atomic.Bool

	// guarded by Scheduler.mu
	nextLocal  time.Time
	nextRemote time.Time
}

// Scheduler owns the polling cadences and the latest scan result.
type Scheduler struct {
	scanner   Scanner
	cfg       Config
	logger    *logging.ScopedLogger
	notifiers []Notifier
	now       func() time.Time

	base       context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu       sync.Mutex
	cur      *run
	stopped  bool
	closed   bool
	latest   *status.ScanResult
	lastFull *time.Time
	applied  uint64

	notifyMu sync.Mutex
	notified uint64
}

// New creates an idle scheduler.
func New(scanner Scanner, cfg Config, logger *logging.ScopedLogger, notifiers ...Notifier) *Scheduler {
	if logger == nil {
		logger = logging.NopLogger()
	}
	base, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		scanner:    scanner,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		notifiers:  notifiers,
		now:        time.Now,
		base:       base,
		baseCancel: cancel,
	}
	s.cur = s.newRunLocked("", false)
	return s
}

func (s *Scheduler) newRunLocked(root string, polling bool) *run {
	ctx, cancel := context.WithCancel(s.base)
	return &run{root: root, polling: polling, ctx: ctx, cancel: cancel}
}

// Start arms both cadences against root and triggers an immediate full
// scan. Starting while already running restarts the cadences.
func (s *Scheduler) Start(root string) error {
	if root == "" {
		return ErrNoRoot
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.startLocked(root)
	return nil
}

func (s *Scheduler) startLocked(root string) {
	s.cur.cancel()
	if s.cur.root != root {
		s.latest = nil
		s.lastFull = nil
	}

	r := s.newRunLocked(root, true)
	r.nextLocal = s.now().Add(s.cfg.LocalInterval)
	s.cur = r
	s.stopped = false

	s.logger.Info("polling started",
		"root", root,
		"local_interval", s.cfg.LocalInterval.String(),
		"remote_interval", s.cfg.RemoteInterval.String(),
	)

	s.wg.Add(2)
	go s.remoteLoop(r)
	go s.localLoop(r)
}

// Stop cancels both cadences and any in-flight scan. The root is kept.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()
	s.logger.Info("polling stopped", "root", s.cur.root)
}

func (s *Scheduler) stopLocked() {
	s.cur.cancel()
	s.cur = s.newRunLocked(s.cur.root, false)
	s.lastFull = nil
	s.stopped = true
}

// Reconfigure points the scheduler at a new root. The same root is a
// no-op. An empty root stops everything and clears the latest result.
// With polling enabled both cadences restart against the new root;
// otherwise the new root gets one full scan.
func (s *Scheduler) Reconfigure(root string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || root == s.cur.root {
		return
	}

	old := s.cur.root
	polling := s.cur.polling
	s.logger.Info("root changed", "from", old, "to", root, "polling", polling)

	if root == "" {
		s.cur.cancel()
		s.cur = s.newRunLocked("", false)
		s.latest = nil
		s.lastFull = nil
		s.stopped = true
		return
	}
	if polling {
		s.startLocked(root)
		return
	}

	s.cur.cancel()
	r := s.newRunLocked(root, false)
	s.cur = r
	s.latest = nil
	s.lastFull = nil
	r.fullBusy.Store(true)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(r.ctx, r, &r.fullBusy, true, sourceManual)
	}()
}

// ScanNow runs one scan of the current root through the same coalescing
// and apply path as the cadences. It reports false when there is no root,
// when a scan of the same kind is already in flight, or when the result
// was discarded because the configuration changed meanwhile.
func (s *Scheduler) ScanNow(ctx context.Context, includeRemote bool) (status.ScanResult, bool) {
	s.mu.Lock()
	r := s.cur
	closed := s.closed
	s.mu.Unlock()
	if closed || r.root == "" {
		return status.ScanResult{}, false
	}

	busy := &r.localBusy
	if includeRemote {
		busy = &r.fullBusy
	}
	if !busy.CompareAndSwap(false, true) {
		s.logger.Debug("manual scan coalesced", "remote", includeRemote)
		return status.ScanResult{}, false
	}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	unlink := context.AfterFunc(r.ctx, cancel)
	defer unlink()

	return s.execute(scanCtx, r, busy, includeRemote, sourceManual)
}

// Close stops the scheduler for good and waits for its goroutines.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if !s.closed {
		s.stopLocked()
		s.closed = true
	}
	s.mu.Unlock()
	s.baseCancel()
	s.wg.Wait()
}

// State returns a snapshot of the schedule.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Latest returns the most recently applied scan.
func (s *Scheduler) Latest() (status.ScanResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return status.ScanResult{}, false
	}
	return *s.latest, true
}

func (s *Scheduler) stateLocked() State {
	r := s.cur
	st := State{CadenceEnabled: r.polling, Phase: s.phaseLocked()}
	if r.root != "" {
		root := r.root
		st.RootPath = &root
	}
	if s.lastFull != nil {
		t := *s.lastFull
		st.LastFullCheckAt = &t
	}
	if r.polling {
		st.NextCheckAt = earliest(r.nextLocal, r.nextRemote)
	}
	return st
}

func (s *Scheduler) phaseLocked() Phase {
	r := s.cur
	switch {
	case r.fullBusy.Load():
		return PhaseRunningFull
	case r.localBusy.Load():
		return PhaseRunningLocal
	case r.polling:
		return PhaseArmed
	case s.stopped:
		return PhaseStopped
	default:
		return PhaseIdle
	}
}

// remoteLoop runs a full scan, then waits RemoteInterval from the
// completion of the last applied full scan, manual ones included.
func (s *Scheduler) remoteLoop(r *run) {
	defer s.wg.Done()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-timer.C:
		}

		// A manual full scan may have pushed the deadline out.
		s.mu.Lock()
		due, now := r.nextRemote, s.now()
		s.mu.Unlock()
		if !due.IsZero() && due.After(now) {
			timer.Reset(due.Sub(now))
			continue
		}

		if r.fullBusy.CompareAndSwap(false, true) {
			s.mu.Lock()
			r.nextRemote = time.Time{}
			s.mu.Unlock()
			s.execute(r.ctx, r, &r.fullBusy, true, sourceRemote)
		} else {
			// Dropped, not queued: the in-flight scan re-arms the
			// deadline when it applies.
			s.logger.Debug("remote tick skipped, full scan in flight", "root", r.root)
			s.mu.Lock()
			r.nextRemote = s.now().Add(s.cfg.RemoteInterval)
			s.mu.Unlock()
		}
		if r.ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		if r.nextRemote.IsZero() {
			r.nextRemote = s.now().Add(s.cfg.RemoteInterval)
		}
		delay := r.nextRemote.Sub(s.now())
		s.mu.Unlock()
		timer.Reset(max(delay, 0))
	}
}

// localLoop fires local-only scans on a fixed ticker. A tick that finds a
// scan still in flight is dropped.
func (s *Scheduler) localLoop(r *run) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.LocalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		r.nextLocal = s.now().Add(s.cfg.LocalInterval)
		s.mu.Unlock()

		if r.fullBusy.Load() {
			s.logger.Debug("local tick skipped, full scan in flight", "root", r.root)
			continue
		}
		if !r.localBusy.CompareAndSwap(false, true) {
			s.logger.Debug("local tick skipped, local scan in flight", "root", r.root)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.execute(r.ctx, r, &r.localBusy, false, sourceLocal)
		}()
	}
}

// execute scans r's root and applies the result. busy must already be
// held by the caller; it is released on return.
func (s *Scheduler) execute(ctx context.Context, r *run, busy *atomic.Bool, includeRemote bool, src source) (status.ScanResult, bool) {
	released := false
	defer func() {
		if !released {
			busy.Store(false)
		}
	}()

	s.mu.Lock()
	prev := s.latest
	s.mu.Unlock()
	if prev != nil && prev.Root != r.root {
		prev = nil
	}

	result := s.scanner.Scan(ctx, r.root, includeRemote, prev)

	s.mu.Lock()
	if s.cur != r || ctx.Err() != nil || result.Root != r.root {
		s.mu.Unlock()
		s.logger.Debug("discarding stale scan", "root", result.Root, "remote", includeRemote, "source", src.String())
		return result, false
	}

	// Another scan applied while this local one ran; its counts are newer
	// than the ones carried from prev.
	if !includeRemote && s.latest != nil && s.latest != prev && s.latest.Root == r.root {
		result = result.WithCountsFrom(s.latest)
	}

	s.latest = &result
	if includeRemote {
		t := result.CompletedAt
		s.lastFull = &t
		r.nextRemote = t.Add(s.cfg.RemoteInterval)
	}
	busy.Store(false)
	released = true
	s.applied++
	seq := s.applied
	state := s.stateLocked()
	s.mu.Unlock()

	s.notify(seq, result, state)
	return result, true
}

// notify delivers an applied scan to every notifier. A scan applied
// before one that was already delivered is dropped.
func (s *Scheduler) notify(seq uint64, result status.ScanResult, state State) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.notified {
		return
	}
	s.notified = seq
	for _, n := range s.notifiers {
		n.Notify(result, state)
	}
}
