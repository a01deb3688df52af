// pattern: Imperative Shell
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"gitok/internal/cli"
	"gitok/internal/config"
	"gitok/internal/engine"
	"gitok/internal/events"
	"gitok/internal/gitexec"
	"gitok/internal/instance"
	"gitok/internal/logging"
	"gitok/internal/repostatus"
	"gitok/internal/scan"
	"gitok/internal/scheduler"
	"gitok/internal/tui"
	"gitok/internal/web"
)

var version = "dev"

func main() {
	// Stop parsing flags after the first non-flag arg (the subcommand),
	// so that flags after a subcommand are handled by the subcommand.
	flag.CommandLine.SetInterspersed(false)

	configDir := flag.StringP("config-dir", "c", "", "config directory (default: ~/.config/gitok)")
	root := flag.StringP("root", "r", "", "root directory to watch (saved for next time)")

	flag.Usage = func() {
		app := cli.BuildApp(version, cli.Options{ConfigDir: *configDir})
		app.PrintHelp(os.Stderr)
		flag.PrintDefaults()
	}

	flag.Parse()

	app := cli.BuildApp(version, cli.Options{ConfigDir: *configDir, Root: *root})
	if app.Execute(flag.Args()) {
		runTUI(*configDir, *root)
	}
}

// runTUI launches the interactive TUI together with the scheduler and the
// local web API.
func runTUI(configDir, rootOverride string) {
	dataDir := cli.ResolveDataDir(configDir)

	cfg, err := config.LoadFromDir(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}

	if rootOverride != "" {
		abs, err := engine.CheckDir(rootOverride)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		rootOverride = abs
	}

	fl, err := instance.Lock(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer instance.Cleanup(dataDir, fl)

	logManager, err := newLogManager(dataDir, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logManager.Close() }()

	appLogger := logManager.For("app")
	appLogger.Info("application starting", "version", version, "data_dir", dataDir)

	var p *tea.Program
	h := newHost(cfg, dataDir, logManager, func(msg tea.Msg) { p.Send(msg) })
	defer h.sched.Close()

	p = tea.NewProgram(tui.NewModel(cfg.Theme, h.engine, logManager.Entries()), tea.WithAltScreen())

	ln, err := h.web.Listen()
	if err != nil {
		appLogger.Error("web server listen error", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := instance.WritePort(dataDir, h.web.Addr()); err != nil {
		appLogger.Error("failed to write port file", "error", err)
	}

	go func() {
		if err := h.web.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("web server error", "error", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.web.Shutdown(ctx); err != nil {
			appLogger.Error("web server shutdown error", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := h.store.Watch(ctx, h.engine.ApplyStoreChange); err != nil {
			appLogger.Warn("state file watcher stopped", "error", err)
		}
	}()

	// Notifiers block in p.Send until the program runs, so everything that
	// can notify starts from here.
	go func() {
		p.Send(events.WebListenURLMsg{URL: "http://" + h.web.Addr()})
		if err := h.engine.Restore(rootOverride); err != nil {
			appLogger.Error("failed to restore schedule", "error", err)
		}
	}()

	if _, err := p.Run(); err != nil {
		appLogger.Error("application exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	appLogger.Info("application stopped")
}

// newLogManager writes gitok.log in the data directory, rotated by
// lumberjack, and feeds the TUI log panel.
func newLogManager(dataDir, level string) (*logging.Manager, error) {
	return logging.NewManager(logging.Config{
		FilePath:       filepath.Join(dataDir, "gitok.log"),
		MaxSizeMB:      10,
		MaxBackups:     3,
		MaxAgeDays:     7,
		ChannelBufSize: 1000,
		Level:          level,
	})
}

// host is everything behind the TUI: the scan pipeline, the scheduler,
// the persisted settings and the web API, wired to one engine.
type host struct {
	sched  *scheduler.Scheduler
	store  *config.FileStore
	engine *engine.Engine
	hub    *web.Hub
	web    *web.Server
}

// newHost wires the components. send delivers TUI messages; it may block
// until the program runs, so nothing here triggers a notification.
func newHost(cfg config.Config, dataDir string, logs logging.LoggerProvider, send func(tea.Msg)) *host {
	gitPath, err := cfg.ResolveGit()
	if err != nil {
		logs.For("app").Warn("git not found, every directory will report defaults", "error", err)
		gitPath = cfg.GitBinary
	}

	runner := gitexec.NewRunner(
		gitexec.WithBinary(gitPath),
		gitexec.WithTimeout(cfg.CommandTimeout),
		gitexec.WithLogger(logs.For("gitexec")),
	)
	resolver := repostatus.NewResolver(runner.Func(), logs.For("repostatus"))
	scanner := scan.New(resolver, cfg.Workers, logs.For("scan"))

	tuiNotifier := tui.NewNotifier(send)
	hub := web.NewHub()
	sched := scheduler.New(
		scanner,
		scheduler.Config{LocalInterval: cfg.LocalInterval, RemoteInterval: cfg.RemoteInterval},
		logs.For("scheduler"),
		tuiNotifier,
		hub,
		scheduler.LogNotifier(logs.For("scheduler")),
	)

	store := config.NewFileStore(dataDir, logs.For("config"))
	eng := engine.New(sched, store, logs.For("engine"))
	eng.OnChange(tuiNotifier.StateChanged)
	eng.OnChange(hub.StateChanged)

	return &host{
		sched:  sched,
		store:  store,
		engine: eng,
		hub:    hub,
		web:    web.New(web.Config{Bind: cfg.Web.Bind, Port: cfg.Web.Port}, eng, hub, logs),
	}
}
