// pattern: Functional Core

package status

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Category selects a subset of projects for display.
type Category int

const (
	All Category = iota
	NotRepo
	Changes
	PendingPush
	Behind
	Synced
)

// Categories lists every category in display order.
var Categories = []Category{All, NotRepo, Changes, PendingPush, Behind, Synced}

func (c Category) String() string {
	switch c {
	case NotRepo:
		return "not-repo"
	case Changes:
		return "changes"
	case PendingPush:
		return "pending-push"
	case Behind:
		return "behind"
	case Synced:
		return "synced"
	default:
		return "all"
	}
}

// ParseCategory maps a name produced by Category.String back to a Category.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if c.String() == name {
			return c, true
		}
	}
	return All, false
}

// Match reports whether p belongs to c.
func (c Category) Match(p ProjectStatus) bool {
	switch c {
	case NotRepo:
		return IsNotRepo(p)
	case Changes:
		return HasChanges(p)
	case PendingPush:
		return IsPendingPush(p)
	case Behind:
		return IsBehind(p)
	case Synced:
		return IsFullySynced(p)
	default:
		return true
	}
}

// Filter returns the projects in c, preserving order.
func Filter(projects []ProjectStatus, c Category) []ProjectStatus {
	out := make([]ProjectStatus, 0, len(projects))
	for _, p := range projects {
		if c.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the number of projects per category.
func Count(projects []ProjectStatus) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	for _, p := range projects {
		for _, c := range Categories {
			if c.Match(p) {
				counts[c]++
			}
		}
	}
	return counts
}

// SortMode orders projects for display.
type SortMode int

const (
	ByLastCommit SortMode = iota
	ByName
	ByStatus
)

func (m SortMode) String() string {
	switch m {
	case ByName:
		return "name"
	case ByStatus:
		return "status"
	default:
		return "last-commit"
	}
}

// Next cycles through the sort modes.
func (m SortMode) Next() SortMode {
	return (m + 1) % 3
}

// Severity ranks p for status sorting; higher means more urgent.
func Severity(p ProjectStatus) int {
	switch {
	case !p.IsRepo:
		return 0
	case p.HasUncommittedChanges:
		return 4
	case p.AheadCount > 0:
		return 3
	case p.BehindCount > 0:
		return 2
	default:
		return 1
	}
}

// Sort returns a sorted copy of projects. Descending order puts newest
// commits, highest severity and Z..A first. For ByLastCommit,
// non-repositories always sort last.
func Sort(projects []ProjectStatus, mode SortMode, descending bool) []ProjectStatus {
	out := slices.Clone(projects)
	dir := 1
	if descending {
		dir = -1
	}

	slices.SortStableFunc(out, func(a, b ProjectStatus) int {
		switch mode {
		case ByName:
			return dir * cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case ByStatus:
			return dir * cmp.Compare(Severity(a), Severity(b))
		default:
			if a.IsRepo != b.IsRepo {
				if a.IsRepo {
					return -1
				}
				return 1
			}
			return dir * cmp.Compare(commitUnix(a), commitUnix(b))
		}
	})
	return out
}

func commitUnix(p ProjectStatus) int64 {
	if p.LastCommitTimestamp == nil {
		return 0
	}
	return p.LastCommitTimestamp.Unix()
}

// Describe renders a short human description of p's state.
func Describe(p ProjectStatus) string {
	if !p.IsRepo {
		return "not a git repository"
	}

	var parts []string
	if p.HasUncommittedChanges {
		parts = append(parts, "uncommitted changes")
	}
	if p.AheadCount > 0 {
		parts = append(parts, fmt.Sprintf("%d ahead", p.AheadCount))
	}
	if p.BehindCount > 0 {
		parts = append(parts, fmt.Sprintf("%d behind", p.BehindCount))
	}
	if len(parts) == 0 {
		return "synced"
	}
	return strings.Join(parts, ", ")
}

// Symbol returns a compact marker for p's most important state.
func Symbol(p ProjectStatus) string {
	switch {
	case !p.IsRepo:
		return "·"
	case p.HasUncommittedChanges && p.AheadCount > 0:
		return "!↑"
	case p.HasUncommittedChanges:
		return "!"
	case p.AheadCount > 0:
		return "↑"
	case p.BehindCount > 0:
		return "↓"
	default:
		return "✓"
	}
}

// Indicator returns the badge title and tooltip for an attention count.
// The title is empty when nothing needs attention.
func Indicator(attention uint) (title, tooltip string) {
	switch attention {
	case 0:
		return "", "gitok - all projects up to date"
	case 1:
		return "1", "gitok - 1 project needs attention"
	default:
		return fmt.Sprint(attention), fmt.Sprintf("gitok - %d projects need attention", attention)
	}
}
