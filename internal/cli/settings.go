// pattern: Imperative Shell

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gitok/internal/config"
	"gitok/internal/engine"
	"gitok/internal/instance"
)

// Settings changes the root and polling flag. With an instance running the
// change goes through its API and applies at once; otherwise it is written
// to the state file and picked up on the next start.
type Settings struct {
	ConfigDir string
	Stdout    io.Writer

	// Discover finds the running instance. Defaults to instance.Discover.
	Discover func(dataDir string) (string, error)
}

func (s Settings) dataDir() string {
	return ResolveDataDir(s.ConfigDir)
}

func (s Settings) out() io.Writer {
	if s.Stdout == nil {
		return os.Stdout
	}
	return s.Stdout
}

// client returns nil without error when no instance is running.
func (s Settings) client() (*instance.Client, error) {
	discover := s.Discover
	if discover == nil {
		discover = instance.Discover
	}
	baseURL, err := discover(s.dataDir())
	if err != nil {
		if errors.Is(err, instance.ErrNoInstance) {
			return nil, nil
		}
		return nil, err
	}
	return instance.NewClient(baseURL), nil
}

func (s Settings) store() *config.FileStore {
	return config.NewFileStore(s.dataDir(), nil)
}

// CurrentRoot returns the root of the running instance, else the persisted
// one, else "".
func (s Settings) CurrentRoot() string {
	if c, err := s.client(); err == nil && c != nil {
		if resp, err := c.Status(); err == nil {
			return resp.State.Root()
		}
	}
	return s.store().Get(config.KeyRootPath, "")
}

// SetRoot validates path and makes it the root.
func (s Settings) SetRoot(path string) error {
	abs, err := engine.CheckDir(path)
	if err != nil {
		return err
	}

	c, err := s.client()
	if err != nil {
		return err
	}
	if c != nil {
		if _, err := c.SetRoot(abs); err != nil {
			return err
		}
		fmt.Fprintf(s.out(), "Root set to %s.\n", abs)
		return nil
	}

	if err := s.store().Set(config.KeyRootPath, abs); err != nil {
		return err
	}
	fmt.Fprintf(s.out(), "Root set to %s (applies when gitok starts).\n", abs)
	return nil
}

// SetPolling turns both cadences on or off.
func (s Settings) SetPolling(on bool) error {
	c, err := s.client()
	if err != nil {
		return err
	}
	if c != nil {
		if on {
			_, err = c.StartPolling()
		} else {
			_, err = c.StopPolling()
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out(), "Polling %s.\n", onOff(on))
		return nil
	}

	if err := config.SetBool(s.store(), config.KeyPollingEnabled, on); err != nil {
		return err
	}
	fmt.Fprintf(s.out(), "Polling %s (applies when gitok starts).\n", onOff(on))
	return nil
}
