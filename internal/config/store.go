// pattern: Imperative Shell

package config

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"gitok/internal/logging"
)

// Keys persisted in the state store.
const (
	KeyRootPath       = "rootPath"
	KeyPollingEnabled = "pollingEnabled"
)

const stateFileName = "state.yaml"

// Store is a flat string key/value store that survives restarts.
type Store interface {
	Get(key, def string) string
	Set(key, value string) error
}

// Bool reads a "true"/"false" entry. Unparsable values yield def.
func Bool(s Store, key string, def bool) bool {
	v, err := strconv.ParseBool(s.Get(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return v
}

// SetBool writes a boolean entry as "true" or "false".
func SetBool(s Store, key string, v bool) error {
	return s.Set(key, strconv.FormatBool(v))
}

// FileStore keeps entries in <dir>/state.yaml. Writers from any process
// serialize on a file lock and replace the file atomically, so readers
// never see a partial write.
type FileStore struct {
	dir    string
	path   string
	lock   *flock.Flock
	logger *logging.ScopedLogger

	mu sync.Mutex
}

// NewFileStore creates a store rooted at dir. The directory is created on
// the first Set.
func NewFileStore(dir string, logger *logging.ScopedLogger) *FileStore {
	if logger == nil {
		logger = logging.NopLogger()
	}
	path := filepath.Join(dir, stateFileName)
	return &FileStore{
		dir:    dir,
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Path returns the state file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value for key, or def when the key or file is missing
// or unreadable.
func (s *FileStore) Get(key, def string) string {
	values, err := s.Snapshot()
	if err != nil {
		s.logger.Warn("state file unreadable", "path", s.path, "error", err)
		return def
	}
	if v, ok := values[key]; ok {
		return v
	}
	return def
}

// Set stores value under key.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	values, err := s.Snapshot()
	if err != nil {
		return err
	}
	if old, ok := values[key]; ok && old == value {
		return nil
	}
	values[key] = value

	if err := s.write(values); err != nil {
		return err
	}
	s.logger.Debug("state updated", "key", key, "value", value)
	return nil
}

// Snapshot returns every entry. A missing file is an empty map.
func (s *FileStore) Snapshot() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}

func (s *FileStore) write(values map[string]string) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, stateFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Watch calls fn with the previous and current entries whenever
// state.yaml changes on disk, including changes made by this process.
// It blocks until ctx is cancelled.
func (s *FileStore) Watch(ctx context.Context, fn func(old, cur map[string]string)) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: the file is replaced by rename on every write.
	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	last, err := s.Snapshot()
	if err != nil {
		last = map[string]string{}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}

			cur, err := s.Snapshot()
			if err != nil {
				s.logger.Debug("state file changed but unreadable", "error", err)
				continue
			}
			if maps.Equal(last, cur) {
				continue
			}
			old := last
			last = cur
			fn(old, cur)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("state watcher error", "error", err)
		}
	}
}
