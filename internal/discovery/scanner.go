// pattern: Imperative Shell

package discovery

import (
	"fmt"
	"os"
	"path/filepath"

	"gitok/internal/status"
)

// EnumerationError reports that the root directory itself could not be read.
type EnumerationError struct {
	Root string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("read root %s: %v", e.Root, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// List returns the immediate child directories of root, in name order.
// It never recurses. Entries are classified with os.Stat, so a symlink to
// a directory counts as a directory and a dangling symlink is skipped.
// If root cannot be read, List returns an empty slice and an
// *EnumerationError.
func List(root string) ([]status.DirectoryEntry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return []status.DirectoryEntry{}, &EnumerationError{Root: root, Err: err}
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return []status.DirectoryEntry{}, &EnumerationError{Root: abs, Err: err}
	}

	dirs := make([]status.DirectoryEntry, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(abs, entry.Name())
		if !isDir(entry, path) {
			continue
		}
		dirs = append(dirs, status.DirectoryEntry{
			Path: path,
			Name: entry.Name(),
		})
	}

	return dirs, nil
}

func isDir(entry os.DirEntry, path string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
