package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
theme: latte
log_level: debug
git_binary: /opt/git/bin/git
local_interval: 30s
remote_interval: 5m
workers: 3
command_timeout: 10s
web:
  bind: 0.0.0.0
  port: 8421
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	want := Config{
		Theme:          "latte",
		LogLevel:       "debug",
		GitBinary:      "/opt/git/bin/git",
		LocalInterval:  30 * time.Second,
		RemoteInterval: 5 * time.Minute,
		Workers:        3,
		CommandTimeout: 10 * time.Second,
		Web:            WebConfig{Bind: "0.0.0.0", Port: 8421},
	}
	if cfg != want {
		t.Errorf("LoadFrom =\n%+v\nwant\n%+v", cfg, want)
	}
}

func TestLoadPartialConfigFillsDefaults(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "local_interval: 15s\n"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	def := DefaultConfig()
	if cfg.LocalInterval != 15*time.Second {
		t.Errorf("LocalInterval: got %v, want 15s", cfg.LocalInterval)
	}
	if cfg.RemoteInterval != def.RemoteInterval || cfg.Theme != def.Theme || cfg.GitBinary != def.GitBinary {
		t.Errorf("defaults not filled: %+v", cfg)
	}
	if cfg.Web.Bind != "127.0.0.1" || cfg.Web.Port != 0 {
		t.Errorf("Web: got %+v", cfg.Web)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "theme: [unclosed\n", "parse"},
		{"bad duration", "local_interval: soon\n", "parse"},
		{"negative interval", "remote_interval: -1m\n", "remote_interval"},
		{"negative workers", "workers: -2\n", "workers"},
		{"port out of range", "web:\n  port: 70000\n", "web.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
			if cfg != DefaultConfig() {
				t.Errorf("invalid config should fall back to defaults, got %+v", cfg)
			}
		})
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("theme: frappe\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Theme != "frappe" {
		t.Errorf("Theme: got %q, want frappe", cfg.Theme)
	}
}

func TestResolveGitWith(t *testing.T) {
	cfg := Config{GitBinary: "mygit"}
	var looked string
	path, err := cfg.ResolveGitWith(func(name string) (string, error) {
		looked = name
		return "/usr/local/bin/" + name, nil
	})
	if err != nil || path != "/usr/local/bin/mygit" || looked != "mygit" {
		t.Errorf("ResolveGitWith = %q, %v (looked up %q)", path, err, looked)
	}

	_, err = (&Config{}).ResolveGitWith(func(string) (string, error) { return "", os.ErrNotExist })
	if err == nil || !strings.Contains(err.Error(), `"git"`) {
		t.Errorf("missing git error = %v", err)
	}
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := Dir(); got != filepath.Join("/xdg", "gitok") {
		t.Errorf("Dir() = %q", got)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/someone")
	if got := Dir(); got != filepath.Join("/home/someone", ".config", "gitok") {
		t.Errorf("Dir() = %q", got)
	}

	if got := ResolveDir("/custom"); got != "/custom" {
		t.Errorf("ResolveDir override = %q", got)
	}
}
