// pattern: Functional Core

package status

// Summary aggregates a scan for notification surfaces.
type Summary struct {
	AttentionCount uint `json:"attention_count"`
	Total          uint `json:"total"`
	Repos          uint `json:"repos"`
	NotRepos       uint `json:"not_repos"`
	WithChanges    uint `json:"with_changes"`
	PendingPush    uint `json:"pending_push"`
	Behind         uint `json:"behind"`
	Synced         uint `json:"synced"`
}

// Summarize counts attention and per-category totals.
// A project needs attention iff it is a repository with uncommitted
// changes or with commits on either side of its upstream.
func Summarize(projects []ProjectStatus) Summary {
	var s Summary
	for _, p := range projects {
		s.Total++
		if !p.IsRepo {
			s.NotRepos++
			continue
		}
		s.Repos++
		if NeedsAttention(p) {
			s.AttentionCount++
		}
		if HasChanges(p) {
			s.WithChanges++
		}
		if IsPendingPush(p) {
			s.PendingPush++
		}
		if IsBehind(p) {
			s.Behind++
		}
		if IsFullySynced(p) {
			s.Synced++
		}
	}
	return s
}

// NeedsAttention reports whether p counts toward the attention badge.
func NeedsAttention(p ProjectStatus) bool {
	return p.IsRepo && (p.HasUncommittedChanges || !p.IsSynced)
}

// IsNotRepo reports whether p has no git marker.
func IsNotRepo(p ProjectStatus) bool {
	return !p.IsRepo
}

// HasChanges reports whether p has uncommitted work.
func HasChanges(p ProjectStatus) bool {
	return p.IsRepo && p.HasUncommittedChanges
}

// IsPendingPush reports whether p has local commits origin lacks.
func IsPendingPush(p ProjectStatus) bool {
	return p.IsRepo && p.AheadCount > 0
}

// IsBehind reports whether origin has commits HEAD lacks.
func IsBehind(p ProjectStatus) bool {
	return p.IsRepo && p.BehindCount > 0
}

// IsFullySynced reports a clean repository level with its upstream.
func IsFullySynced(p ProjectStatus) bool {
	return p.IsRepo && !p.HasUncommittedChanges && p.IsSynced
}
