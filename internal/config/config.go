// pattern: Imperative Shell

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName        = "gitok"
	configFileName = "config.yaml"
)

// Config is the user-editable application configuration (config.yaml).
type Config struct {
	Theme          string        `yaml:"theme"`
	LogLevel       string        `yaml:"log_level"`
	GitBinary      string        `yaml:"git_binary"`
	LocalInterval  time.Duration `yaml:"local_interval"`
	RemoteInterval time.Duration `yaml:"remote_interval"`
	Workers        int           `yaml:"workers"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	Web            WebConfig     `yaml:"web"`
}

// WebConfig controls the local HTTP API. Port 0 picks an ephemeral port.
type WebConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// LookPathFunc is the function signature for looking up executables.
type LookPathFunc func(name string) (string, error)

func DefaultConfig() Config {
	return Config{
		Theme:          "mocha",
		LogLevel:       "info",
		GitBinary:      "git",
		LocalInterval:  60 * time.Second,
		RemoteInterval: 600 * time.Second,
		CommandTimeout: 30 * time.Second,
		Web:            WebConfig{Bind: "127.0.0.1"},
	}
}

// Load reads config.yaml from the default config directory.
func Load() (Config, error) {
	return LoadFrom(filepath.Join(Dir(), configFileName))
}

// LoadFromDir reads config.yaml from dir.
func LoadFromDir(dir string) (Config, error) {
	return LoadFrom(filepath.Join(dir, configFileName))
}

// LoadFrom reads the config at configPath. A missing file yields the
// defaults; unset fields are filled from the defaults.
func LoadFrom(configPath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", configPath, err)
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Theme == "" {
		c.Theme = def.Theme
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.GitBinary == "" {
		c.GitBinary = def.GitBinary
	}
	if c.LocalInterval == 0 {
		c.LocalInterval = def.LocalInterval
	}
	if c.RemoteInterval == 0 {
		c.RemoteInterval = def.RemoteInterval
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = def.CommandTimeout
	}
	if c.Web.Bind == "" {
		c.Web.Bind = def.Web.Bind
	}
}

// Validate rejects values the scheduler or web server cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.LocalInterval < 0 {
		errs = append(errs, fmt.Errorf("local_interval must be positive, got %s", c.LocalInterval))
	}
	if c.RemoteInterval < 0 {
		errs = append(errs, fmt.Errorf("remote_interval must be positive, got %s", c.RemoteInterval))
	}
	if c.CommandTimeout < 0 {
		errs = append(errs, fmt.Errorf("command_timeout must not be negative, got %s", c.CommandTimeout))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		errs = append(errs, fmt.Errorf("web.port out of range: %d", c.Web.Port))
	}
	return errors.Join(errs...)
}

// ResolveGit returns the absolute path of the configured git binary.
func (c *Config) ResolveGit() (string, error) {
	return c.ResolveGitWith(exec.LookPath)
}

// ResolveGitWith resolves the git binary using the provided lookup function.
func (c *Config) ResolveGitWith(lookPath LookPathFunc) (string, error) {
	name := c.GitBinary
	if name == "" {
		name = "git"
	}
	path, err := lookPath(name)
	if err != nil {
		return "", fmt.Errorf("git binary %q not found: %w", name, err)
	}
	return path, nil
}

// Dir returns the default config directory:
// $XDG_CONFIG_HOME/gitok, else ~/.config/gitok.
func Dir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", appName)
	}

	return filepath.Join(home, ".config", appName)
}

// ResolveDir returns override when set, else Dir().
func ResolveDir(override string) string {
	if override != "" {
		return override
	}
	return Dir()
}
