// pattern: Functional Core

// Package status holds the repository status value types and the pure
// functions that summarize, filter and sort them.
package status

import "time"

// DirectoryEntry is one first-level child directory of the watched root.
type DirectoryEntry struct {
	Path string `json:"path"` // Absolute path
	Name string `json:"name"` // Leaf directory name
}

// RepositoryStatus describes the git state of a single directory.
// Optional values are nil when unknown; they are never omitted from JSON.
type RepositoryStatus struct {
	IsRepo                bool       `json:"is_repo"`
	HasUncommittedChanges bool       `json:"has_uncommitted_changes"`
	IsSynced              bool       `json:"is_synced"`
	AheadCount            uint       `json:"ahead_count"`  // Local commits not on origin
	BehindCount           uint       `json:"behind_count"` // Origin commits not in HEAD
	Branch                *string    `json:"branch"`
	LastCommitMessage     *string    `json:"last_commit_message"`
	LastCommitTimestamp   *time.Time `json:"last_commit_timestamp"`
}

// NotRepository returns the status of a directory without a .git marker.
func NotRepository() RepositoryStatus {
	return RepositoryStatus{IsSynced: true}
}

// WithCounts returns a copy with the given ahead/behind counts and
// IsSynced recomputed from them.
func (s RepositoryStatus) WithCounts(ahead, behind uint) RepositoryStatus {
	s.AheadCount = ahead
	s.BehindCount = behind
	s.IsSynced = ahead == 0 && behind == 0
	return s
}

// BranchName returns the branch or "" when detached or unknown.
func (s RepositoryStatus) BranchName() string {
	if s.Branch == nil {
		return ""
	}
	return *s.Branch
}

// CommitMessage returns the last commit subject or "".
func (s RepositoryStatus) CommitMessage() string {
	if s.LastCommitMessage == nil {
		return ""
	}
	return *s.LastCommitMessage
}

// ProjectStatus is a directory merged with its repository status.
type ProjectStatus struct {
	DirectoryEntry
	RepositoryStatus
}

// ScanResult is the outcome of one scan of the root.
type ScanResult struct {
	Root           string          `json:"root"`
	IncludeRemote  bool            `json:"include_remote"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at"`
	Projects       []ProjectStatus `json:"projects"`
	AttentionCount uint            `json:"attention_count"`
	// Warning is set when the root itself could not be read, so that
	// "nothing found" is distinguishable from "everything clean".
	Warning string `json:"warning,omitempty"`
}

// Find returns the project with the given path.
func (r *ScanResult) Find(path string) (ProjectStatus, bool) {
	if r == nil {
		return ProjectStatus{}, false
	}
	for _, p := range r.Projects {
		if p.Path == path {
			return p, true
		}
	}
	return ProjectStatus{}, false
}

// CarryCounts copies the last known remote counts from prev onto a
// local-only status of the directory at path. Counts recorded on another
// branch do not apply.
func CarryCounts(rs RepositoryStatus, path string, prev *ScanResult) RepositoryStatus {
	old, ok := prev.Find(path)
	if !ok || !old.IsRepo || rs.Branch == nil || old.BranchName() != rs.BranchName() {
		return rs
	}
	return rs.WithCounts(old.AheadCount, old.BehindCount)
}

// WithCountsFrom returns a copy of a local-only result whose repositories
// take their ahead/behind counts from src. The attention count is
// recomputed.
func (r ScanResult) WithCountsFrom(src *ScanResult) ScanResult {
	projects := make([]ProjectStatus, len(r.Projects))
	for i, p := range r.Projects {
		if p.IsRepo {
			p.RepositoryStatus = CarryCounts(p.RepositoryStatus, p.Path, src)
		}
		projects[i] = p
	}
	r.Projects = projects
	r.AttentionCount = Summarize(projects).AttentionCount
	return r
}
