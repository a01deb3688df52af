package repostatus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gitok/internal/gitexec"
	"gitok/internal/gittest"
	"gitok/internal/logging"
	"gitok/internal/status"
)

// fakeGit answers git invocations from a table keyed by the joined args.
type fakeGit struct {
	mu      sync.Mutex
	replies map[string]string
	fail    map[string]bool
	calls   []string
}

func (f *fakeGit) run(_ context.Context, dir string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	if f.fail[key] {
		return "", &gitexec.ExecutionError{Dir: dir, Args: args, ExitCode: 128, Stderr: "fatal: bad revision"}
	}
	return f.replies[key], nil
}

func repoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestResolve_NotARepository(t *testing.T) {
	fake := &fakeGit{}
	r := NewResolver(fake.run, nil)

	for _, remote := range []bool{true, false} {
		got := r.Resolve(context.Background(), t.TempDir(), remote)
		if got != status.NotRepository() {
			t.Errorf("Resolve(remote=%v) = %+v, want NotRepository()", remote, got)
		}
	}
	if len(fake.calls) != 0 {
		t.Errorf("no git commands should run without a marker, got %v", fake.calls)
	}
}

func TestResolve_GitFileMarker(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: /elsewhere\n"), 0644); err != nil {
		t.Fatal(err)
	}
	r := NewResolver((&fakeGit{}).run, nil)
	if got := r.Resolve(context.Background(), dir, false); !got.IsRepo {
		t.Error("a .git file should mark a repository")
	}
}

func TestResolve_FullStatus(t *testing.T) {
	fake := &fakeGit{replies: map[string]string{
		"status --porcelain":                      " M main.go\n?? new.txt\n",
		"branch --show-current":                   "feature/x\n",
		"log -1 --pretty=format:%s|%ci":           "fix: handle a|b pipes|2024-03-05 14:07:09 +0100",
		"rev-list --count HEAD..origin/feature/x": "3\n",
		"rev-list --count origin/feature/x..HEAD": "2\n",
	}}
	r := NewResolver(fake.run, nil)

	got := r.Resolve(context.Background(), repoDir(t), true)

	if !got.IsRepo || !got.HasUncommittedChanges {
		t.Errorf("IsRepo/HasUncommittedChanges = %v/%v, want true/true", got.IsRepo, got.HasUncommittedChanges)
	}
	if got.BranchName() != "feature/x" {
		t.Errorf("Branch = %q, want %q", got.BranchName(), "feature/x")
	}
	if got.CommitMessage() != "fix: handle a|b pipes" {
		t.Errorf("LastCommitMessage = %q", got.CommitMessage())
	}
	wantTS := time.Date(2024, 3, 5, 13, 7, 9, 0, time.UTC)
	if got.LastCommitTimestamp == nil || !got.LastCommitTimestamp.Equal(wantTS) {
		t.Errorf("LastCommitTimestamp = %v, want %v", got.LastCommitTimestamp, wantTS)
	}
	if got.AheadCount != 2 || got.BehindCount != 3 {
		t.Errorf("Ahead/Behind = %d/%d, want 2/3", got.AheadCount, got.BehindCount)
	}
	if got.IsSynced {
		t.Error("IsSynced should be false with commits on both sides")
	}
}

func TestResolve_LocalOnlySkipsRemoteQueries(t *testing.T) {
	fake := &fakeGit{replies: map[string]string{
		"branch --show-current": "main\n",
	}}
	r := NewResolver(fake.run, nil)

	got := r.Resolve(context.Background(), repoDir(t), false)
	if got.AheadCount != 0 || got.BehindCount != 0 || !got.IsSynced {
		t.Errorf("local-only resolve = %+v, want zero counts and synced", got)
	}
	for _, call := range fake.calls {
		if strings.HasPrefix(call, "rev-list") {
			t.Errorf("unexpected remote query %q", call)
		}
	}
}

func TestResolve_DetachedHeadSkipsRemote(t *testing.T) {
	fake := &fakeGit{replies: map[string]string{
		"branch --show-current": "\n",
	}}
	r := NewResolver(fake.run, nil)

	got := r.Resolve(context.Background(), repoDir(t), true)
	if got.Branch != nil {
		t.Errorf("Branch = %q, want nil", *got.Branch)
	}
	if !got.IsSynced || got.AheadCount != 0 || got.BehindCount != 0 {
		t.Errorf("detached HEAD = %+v, want synced with zero counts", got)
	}
	for _, call := range fake.calls {
		if strings.HasPrefix(call, "rev-list") {
			t.Errorf("unexpected remote query %q", call)
		}
	}
}

func TestResolve_PerFieldDegradation(t *testing.T) {
	tests := []struct {
		name  string
		fake  *fakeGit
		check func(t *testing.T, got status.RepositoryStatus)
	}{
		{
			name: "status failure leaves no changes",
			fake: &fakeGit{
				replies: map[string]string{"branch --show-current": "main"},
				fail:    map[string]bool{"status --porcelain": true},
			},
			check: func(t *testing.T, got status.RepositoryStatus) {
				if got.HasUncommittedChanges || got.BranchName() != "main" {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name: "missing upstream leaves zero counts",
			fake: &fakeGit{
				replies: map[string]string{"branch --show-current": "main"},
				fail: map[string]bool{
					"rev-list --count HEAD..origin/main": true,
					"rev-list --count origin/main..HEAD": true,
				},
			},
			check: func(t *testing.T, got status.RepositoryStatus) {
				if got.AheadCount != 0 || got.BehindCount != 0 || !got.IsSynced {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name: "garbage count degrades to zero",
			fake: &fakeGit{replies: map[string]string{
				"branch --show-current":              "main",
				"rev-list --count HEAD..origin/main": "lots\n",
				"rev-list --count origin/main..HEAD": "4\n",
			}},
			check: func(t *testing.T, got status.RepositoryStatus) {
				if got.BehindCount != 0 || got.AheadCount != 4 || got.IsSynced {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name: "empty history leaves commit unset",
			fake: &fakeGit{
				replies: map[string]string{"branch --show-current": "main"},
				fail:    map[string]bool{"log -1 --pretty=format:%s|%ci": true},
			},
			check: func(t *testing.T, got status.RepositoryStatus) {
				if got.LastCommitMessage != nil || got.LastCommitTimestamp != nil {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name: "bad timestamp keeps message only",
			fake: &fakeGit{replies: map[string]string{
				"log -1 --pretty=format:%s|%ci": "subject|yesterday",
			}},
			check: func(t *testing.T, got status.RepositoryStatus) {
				if got.CommitMessage() != "subject" || got.LastCommitTimestamp != nil {
					t.Errorf("got %+v", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lm := logging.NewTestLogManager(50)
			t.Cleanup(func() { _ = lm.Close() })

			r := NewResolver(tt.fake.run, lm.For("repostatus"))
			got := r.Resolve(context.Background(), repoDir(t), true)
			if !got.IsRepo {
				t.Fatal("IsRepo should stay true when sub-queries fail")
			}
			if got.IsSynced != (got.AheadCount == 0 && got.BehindCount == 0) {
				t.Errorf("IsSynced invariant broken: %+v", got)
			}
			tt.check(t, got)
		})
	}
}

func TestParseCount(t *testing.T) {
	if n, err := parseCount(" 12\n"); err != nil || n != 12 {
		t.Errorf("parseCount(12) = %d, %v", n, err)
	}
	_, err := parseCount("-1")
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Field != "count" {
		t.Errorf("parseCount(-1) error = %v, want *ParseError", err)
	}
}

func TestParseLastCommit(t *testing.T) {
	msg, ts, err := parseLastCommit("")
	if msg != nil || ts != nil || err != nil {
		t.Errorf("parseLastCommit(\"\") = %v, %v, %v", msg, ts, err)
	}

	msg, ts, err = parseLastCommit("no separator")
	if msg == nil || *msg != "no separator" || ts != nil || err == nil {
		t.Errorf("parseLastCommit(no separator) = %v, %v, %v", msg, ts, err)
	}
}

func TestResolve_RealRepositories(t *testing.T) {
	root := gittest.Fixture(t)
	r := NewResolver(gitexec.NewRunner().Run, nil)
	ctx := context.Background()

	notes := r.Resolve(ctx, filepath.Join(root, "notes"), true)
	if notes != status.NotRepository() {
		t.Errorf("notes = %+v, want NotRepository()", notes)
	}

	proj1 := r.Resolve(ctx, filepath.Join(root, "proj1"), true)
	if !proj1.IsRepo || proj1.HasUncommittedChanges || !proj1.IsSynced {
		t.Errorf("proj1 = %+v, want clean and synced", proj1)
	}
	if proj1.BranchName() != "main" || proj1.CommitMessage() != "initial commit" || proj1.LastCommitTimestamp == nil {
		t.Errorf("proj1 metadata = %+v", proj1)
	}

	proj2 := r.Resolve(ctx, filepath.Join(root, "proj2"), true)
	if !proj2.HasUncommittedChanges || !proj2.IsSynced {
		t.Errorf("proj2 = %+v, want dirty and synced", proj2)
	}

	proj3 := r.Resolve(ctx, filepath.Join(root, "proj3"), true)
	if proj3.AheadCount != 2 || proj3.BehindCount != 0 || proj3.IsSynced {
		t.Errorf("proj3 = ahead %d behind %d synced %v, want 2/0/false", proj3.AheadCount, proj3.BehindCount, proj3.IsSynced)
	}

	local := r.Resolve(ctx, filepath.Join(root, "proj3"), false)
	if local.AheadCount != 0 || !local.IsSynced {
		t.Errorf("local-only proj3 = %+v, want counts left to the caller", local)
	}
}

func TestResolve_RealBehind(t *testing.T) {
	gittest.RequireGit(t)
	dir := filepath.Join(t.TempDir(), "behind")
	origin := gittest.WithRemote(t, dir)
	gittest.PushFromClone(t, dir, origin, 3)

	r := NewResolver(gitexec.NewRunner().Run, nil)
	got := r.Resolve(context.Background(), dir, true)
	if got.BehindCount != 3 || got.AheadCount != 0 || got.IsSynced {
		t.Errorf("got ahead %d behind %d synced %v, want 0/3/false", got.AheadCount, got.BehindCount, got.IsSynced)
	}
}
