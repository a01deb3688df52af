package instance

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// holdLock simulates a running instance holding the data dir lock.
func holdLock(t *testing.T, dir string) {
	t.Helper()
	fl, err := Lock(dir)
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	t.Cleanup(func() { Cleanup(dir, fl) })
}

// serveHealth starts a server answering /api/health with body and
// records its address in the port file.
func serveHealth(t *testing.T, dir, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	addr := srv.Listener.Addr().String()
	if err := WritePort(dir, addr); err != nil {
		t.Fatalf("WritePort() failed: %v", err)
	}
	return addr
}

func TestDiscover_NoInstance(t *testing.T) {
	_, err := Discover(t.TempDir())
	if !errors.Is(err, ErrNoInstance) {
		t.Fatalf("Discover() error = %v, want ErrNoInstance", err)
	}
}

func TestDiscover_WithInstance(t *testing.T) {
	dir := t.TempDir()
	holdLock(t, dir)
	addr := serveHealth(t, dir, `{"status":"ok","app":"gitok","pid":42}`)

	baseURL, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if baseURL != "http://"+addr {
		t.Fatalf("Discover() = %q, want %q", baseURL, "http://"+addr)
	}
}

func TestDiscover_Stale(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{"missing port file", func(t *testing.T, dir string) {}},
		{"empty port file", func(t *testing.T, dir string) {
			if err := os.WriteFile(filepath.Join(dir, portFileName), []byte("\n"), 0644); err != nil {
				t.Fatal(err)
			}
		}},
		{"dead address", func(t *testing.T, dir string) {
			if err := WritePort(dir, "127.0.0.1:1"); err != nil {
				t.Fatal(err)
			}
		}},
		{"port reused by another service", func(t *testing.T, dir string) {
			serveHealth(t, dir, `{"status":"ok"}`)
		}},
		{"not json", func(t *testing.T, dir string) {
			serveHealth(t, dir, `<html>hello</html>`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			holdLock(t, dir)
			tt.setup(t, dir)

			_, err := Discover(dir)
			if !errors.Is(err, ErrStaleInstance) {
				t.Fatalf("Discover() error = %v, want ErrStaleInstance", err)
			}
		})
	}
}
