// pattern: Imperative Shell

// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// RequireGit skips the test when git is not installed.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// Git runs git in dir with a hermetic identity and fails the test on error.
func Git(t testing.TB, dir string, args ...string) string {
	t.Helper()
	full := append([]string{
		"-c", "commit.gpgsign=false",
		"-c", "init.defaultBranch=main",
		"-c", "protocol.file.allow=always",
	}, args...)
	cmd := exec.Command("git", full...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=gitok",
		"GIT_AUTHOR_EMAIL=gitok@example.com",
		"GIT_COMMITTER_NAME=gitok",
		"GIT_COMMITTER_EMAIL=gitok@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s in %s: %v\n%s", strings.Join(args, " "), dir, err, out)
	}
	return string(out)
}

// Init creates dir and initializes a repository on branch main.
func Init(t testing.TB, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	Git(t, dir, "init", "-q")
	Git(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")
}

// Commit writes file with content and commits it with msg.
func Commit(t testing.TB, dir, file, content, msg string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	Git(t, dir, "add", file)
	Git(t, dir, "commit", "-q", "-m", msg)
}

// WithRemote initializes dir with one commit pushed to a fresh bare
// origin, and returns the origin path.
func WithRemote(t testing.TB, dir string) string {
	t.Helper()
	origin := filepath.Join(t.TempDir(), filepath.Base(dir)+".git")
	Git(t, t.TempDir(), "init", "-q", "--bare", origin)

	Init(t, dir)
	Commit(t, dir, "README.md", "# "+filepath.Base(dir)+"\n", "initial commit")
	Git(t, dir, "remote", "add", "origin", origin)
	Git(t, dir, "push", "-q", "-u", "origin", "main")
	return origin
}

// PushFromClone adds n commits to origin through a separate clone, then
// fetches them into dir so dir is n commits behind.
func PushFromClone(t testing.TB, dir, origin string, n int) {
	t.Helper()
	clone := filepath.Join(t.TempDir(), "clone")
	Git(t, t.TempDir(), "clone", "-q", origin, clone)
	for i := range n {
		Commit(t, clone, "remote.txt", strings.Repeat("r", i+1), "remote change")
	}
	Git(t, clone, "push", "-q", "origin", "main")
	Git(t, dir, "fetch", "-q", "origin")
}

// Fixture builds a root holding:
//
//	proj1  clean repo level with origin
//	proj2  repo with an uncommitted file
//	proj3  repo two commits ahead of origin
//	notes  plain directory
//
// and returns the root path.
func Fixture(t testing.TB) string {
	t.Helper()
	RequireGit(t)
	root := t.TempDir()

	WithRemote(t, filepath.Join(root, "proj1"))

	proj2 := filepath.Join(root, "proj2")
	WithRemote(t, proj2)
	if err := os.WriteFile(filepath.Join(proj2, "wip.txt"), []byte("wip"), 0644); err != nil {
		t.Fatal(err)
	}

	proj3 := filepath.Join(root, "proj3")
	WithRemote(t, proj3)
	Commit(t, proj3, "a.txt", "a", "local one")
	Commit(t, proj3, "b.txt", "b", "local two")

	if err := os.MkdirAll(filepath.Join(root, "notes"), 0755); err != nil {
		t.Fatal(err)
	}
	return root
}
