// pattern: Imperative Shell

// Package repostatus resolves the git state of a single directory.
package repostatus

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gitok/internal/gitexec"
	"gitok/internal/logging"
	"gitok/internal/status"
)

// markerName is the entry whose presence makes a directory a repository.
// Worktrees and submodules use a .git file rather than a directory.
const markerName = ".git"

// Resolver resolves repository status through git. It holds no per-call
// state and is safe for concurrent use.
type Resolver struct {
	git    gitexec.Func
	logger *logging.ScopedLogger
}

// NewResolver creates a Resolver that runs git through the given executor.
func NewResolver(git gitexec.Func, logger *logging.ScopedLogger) *Resolver {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Resolver{git: git, logger: logger}
}

// Resolve returns the status of the directory at path. It never fails:
// each query that errors leaves its field at the default. Ahead/behind
// counts are only queried when includeRemote is set and a branch is
// checked out; otherwise they are zero.
func (r *Resolver) Resolve(ctx context.Context, path string, includeRemote bool) status.RepositoryStatus {
	if !hasMarker(path) {
		return status.NotRepository()
	}

	log := r.logger.With("path", path)
	rs := status.RepositoryStatus{IsRepo: true, IsSynced: true}

	if out, err := r.git(ctx, path, "status", "--porcelain"); err != nil {
		log.Debug("status query failed", "error", err)
	} else {
		rs.HasUncommittedChanges = strings.TrimSpace(out) != ""
	}

	if out, err := r.git(ctx, path, "branch", "--show-current"); err != nil {
		log.Debug("branch query failed", "error", err)
	} else if branch := strings.TrimSpace(out); branch != "" {
		rs.Branch = &branch
	}

	if out, err := r.git(ctx, path, "log", "-1", "--pretty=format:%s|%ci"); err != nil {
		log.Debug("log query failed", "error", err)
	} else {
		msg, ts, perr := parseLastCommit(out)
		if perr != nil {
			log.Debug("commit timestamp unparsable", "error", perr)
		}
		rs.LastCommitMessage = msg
		rs.LastCommitTimestamp = ts
	}

	if includeRemote && rs.Branch != nil {
		upstream := "origin/" + *rs.Branch
		behind := r.count(ctx, log, path, "HEAD.."+upstream)
		ahead := r.count(ctx, log, path, upstream+"..HEAD")
		rs = rs.WithCounts(ahead, behind)
	}

	return rs
}

// count runs rev-list --count over a revision range, degrading to 0.
func (r *Resolver) count(ctx context.Context, log *logging.ScopedLogger, path, revRange string) uint {
	out, err := r.git(ctx, path, "rev-list", "--count", revRange)
	if err != nil {
		log.Debug("rev-list query failed", "range", revRange, "error", err)
		return 0
	}
	n, err := parseCount(out)
	if err != nil {
		log.Debug("rev-list output unparsable", "range", revRange, "error", err)
		return 0
	}
	return n
}

func hasMarker(path string) bool {
	_, err := os.Stat(filepath.Join(path, markerName))
	return err == nil
}
