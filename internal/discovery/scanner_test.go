package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(root, name), 0755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestList_DirectoriesOnlyInNameOrder(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "zeta", "alpha", "mid")
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	dirs, err := List(root)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"alpha", "mid", "zeta"}
	if len(dirs) != len(want) {
		t.Fatalf("List() returned %d entries, want %d", len(dirs), len(want))
	}
	for i, name := range want {
		if dirs[i].Name != name {
			t.Errorf("dirs[%d].Name = %q, want %q", i, dirs[i].Name, name)
		}
		if dirs[i].Path != filepath.Join(root, name) {
			t.Errorf("dirs[%d].Path = %q, want %q", i, dirs[i].Path, filepath.Join(root, name))
		}
	}
}

func TestList_DoesNotRecurse(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, filepath.Join("outer", "inner", "deeper"))

	dirs, err := List(root)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(dirs) != 1 || dirs[0].Name != "outer" {
		t.Fatalf("List() = %+v, want only outer", dirs)
	}
}

func TestList_Symlinks(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	if err := os.WriteFile(filepath.Join(target, "file.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	links := map[string]string{
		"dir-link":      target,
		"file-link":     filepath.Join(target, "file.txt"),
		"dangling-link": filepath.Join(target, "missing"),
	}
	for name, dest := range links {
		if err := os.Symlink(dest, filepath.Join(root, name)); err != nil {
			t.Skipf("symlinks unsupported: %v", err)
		}
	}

	dirs, err := List(root)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(dirs) != 1 || dirs[0].Name != "dir-link" {
		t.Fatalf("List() = %+v, want only dir-link", dirs)
	}
}

func TestList_EmptyRoot(t *testing.T) {
	dirs, err := List(t.TempDir())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if dirs == nil || len(dirs) != 0 {
		t.Fatalf("List() = %#v, want empty non-nil slice", dirs)
	}
}

func TestList_MissingRoot(t *testing.T) {
	dirs, err := List("/nonexistent/gitok/root")
	if err == nil {
		t.Fatal("List() should fail for a missing root")
	}

	var enumErr *EnumerationError
	if !errors.As(err, &enumErr) {
		t.Fatalf("error type = %T, want *EnumerationError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
	if len(dirs) != 0 {
		t.Errorf("List() returned %d entries for missing root", len(dirs))
	}
}

func TestList_RootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := List(file); err == nil {
		t.Fatal("List() should fail when root is a file")
	}
}
