// pattern: Imperative Shell

// Package scan runs one pass over the root: enumerate, resolve every
// directory concurrently, and summarize.
package scan

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"gitok/internal/discovery"
	"gitok/internal/logging"
	"gitok/internal/status"
)

// Resolver resolves a single directory. *repostatus.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, path string, includeRemote bool) status.RepositoryStatus
}

// Scanner produces ScanResults. It is safe for concurrent use.
type Scanner struct {
	resolver Resolver
	workers  int
	logger   *logging.ScopedLogger
	now      func() time.Time
}

// New creates a Scanner. workers <= 0 means one per CPU.
func New(resolver Resolver, workers int, logger *logging.ScopedLogger) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Scanner{resolver: resolver, workers: workers, logger: logger, now: time.Now}
}

// Workers returns the resolution concurrency limit.
func (s *Scanner) Workers() int {
	return s.workers
}

// Scan enumerates root and resolves each child directory. Results keep
// enumeration order. For local-only scans, ahead/behind counts are taken
// from prev when the same path is still on the same branch.
//
// Scan never fails. An unreadable root yields no projects and a Warning.
// A cancelled ctx kills outstanding git processes; the partial result is
// returned and callers are expected to discard it.
func (s *Scanner) Scan(ctx context.Context, root string, includeRemote bool, prev *status.ScanResult) status.ScanResult {
	result := status.ScanResult{
		Root:          root,
		IncludeRemote: includeRemote,
		StartedAt:     s.now(),
		Projects:      []status.ProjectStatus{},
	}

	entries, err := discovery.List(root)
	if err != nil {
		result.Warning = err.Error()
		s.logger.Warn("root unreadable", "root", root, "error", err)
		result.CompletedAt = s.now()
		return result
	}

	projects := make([]status.ProjectStatus, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, entry := range entries {
		g.Go(func() error {
			rs := s.resolver.Resolve(gctx, entry.Path, includeRemote)
			if !includeRemote && rs.IsRepo {
				rs = status.CarryCounts(rs, entry.Path, prev)
			}
			projects[i] = status.ProjectStatus{DirectoryEntry: entry, RepositoryStatus: rs}
			return nil
		})
	}
	_ = g.Wait()

	result.Projects = projects
	result.AttentionCount = status.Summarize(projects).AttentionCount
	result.CompletedAt = s.now()

	s.logger.Debug("scan finished",
		"root", root,
		"remote", includeRemote,
		"projects", len(projects),
		"attention", result.AttentionCount,
		"duration", result.CompletedAt.Sub(result.StartedAt).String(),
	)
	return result
}
