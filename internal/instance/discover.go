// pattern: Imperative Shell

package instance

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"gitok/internal/web"
)

const healthTimeout = 2 * time.Second

var (
	// ErrNoInstance is returned by Discover when nothing holds the lock.
	ErrNoInstance = errors.New("no running gitok instance found (start gitok first)")

	// ErrStaleInstance means the lock is held but the recorded address does
	// not answer as gitok, usually after a crash or a reused port.
	ErrStaleInstance = errors.New("stale gitok instance (try 'gitok cleanup')")
)

// Discover returns the base URL of the running instance, for example
// "http://127.0.0.1:41234". It fails with ErrNoInstance when nothing holds
// the lock and with ErrStaleInstance when the port file is unusable or
// the address does not identify itself as gitok.
func Discover(dataDir string) (string, error) {
	// If we can take the lock, nobody else holds it.
	fl := flock.New(filepath.Join(dataDir, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return "", fmt.Errorf("failed to check lock: %w", err)
	}
	if locked {
		_ = fl.Unlock()
		return "", ErrNoInstance
	}

	addr, err := readPort(dataDir)
	if err != nil {
		return "", err
	}

	baseURL := "http://" + addr
	if err := checkHealth(baseURL); err != nil {
		return "", err
	}
	return baseURL, nil
}

// readPort returns the address recorded by WritePort.
func readPort(dataDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, portFileName))
	if err != nil {
		return "", fmt.Errorf("%w: port file missing: %w", ErrStaleInstance, err)
	}
	addr := strings.TrimSpace(string(data))
	if addr == "" {
		return "", fmt.Errorf("%w: port file is empty", ErrStaleInstance)
	}
	return addr, nil
}

// checkHealth asks baseURL who it is. Anything but a gitok health body
// means the port now belongs to someone else.
func checkHealth(baseURL string) error {
	client := &http.Client{Timeout: healthTimeout}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return fmt.Errorf("%w: not responding: %w", ErrStaleInstance, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check failed (status %d)", ErrStaleInstance, resp.StatusCode)
	}
	var health web.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil || health.App != web.AppName {
		return fmt.Errorf("%w: %s is not a gitok instance", ErrStaleInstance, baseURL)
	}
	return nil
}
