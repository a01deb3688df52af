// pattern: Imperative Shell

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitok/internal/config"
	"gitok/internal/instance"
	"gitok/internal/picker"
	"gitok/internal/status"
	"gitok/internal/tui"
)

// Options carries the global flags into the commands.
type Options struct {
	ConfigDir string
	Root      string
	Stdout    io.Writer
	Stderr    io.Writer
	Exit      func(int)
}

func (o Options) withDefaults() Options {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Exit == nil {
		o.Exit = os.Exit
	}
	return o
}

// ResolveDataDir returns the data directory for lock, port and state files.
func ResolveDataDir(configDir string) string {
	return config.ResolveDir(configDir)
}

// BuildApp creates the CLI application with every command registered.
func BuildApp(version string, opts Options) *App {
	opts = opts.withDefaults()
	app := NewApp(version)
	app.Stderr = opts.Stderr
	app.ExitFunc = opts.Exit
	settings := Settings{ConfigDir: opts.ConfigDir, Stdout: opts.Stdout}

	app.AddCommand(&Command{
		Name:    "scan",
		Summary: "Scan a root once and print every project (no instance needed)",
		Usage:   "Usage: gitok scan [--remote] [--json] [--only <category>] [--workers <n>] [root]",
		Run: func(args []string) error {
			ctx, stop := signalContext()
			defer stop()
			return runScanCommand(ctx, opts, args)
		},
	})

	app.AddCommand(&Command{
		Name:    "status",
		Summary: "Show the schedule and latest scan of the running instance",
		Usage:   "Usage: gitok status [--json]",
		Run: func(args []string) error {
			return runStatusCommand(opts, args)
		},
	})

	app.AddCommand(&Command{
		Name:    "select",
		Summary: "Choose the root directory interactively",
		Usage:   "Usage: gitok select",
		Run: func(args []string) error {
			ctx, stop := signalContext()
			defer stop()
			p := picker.TerminalPicker{Start: settings.CurrentRoot()}
			path, ok, err := p.Pick(ctx)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(opts.Stdout, "Root unchanged.")
				return nil
			}
			return settings.SetRoot(path)
		},
	})

	app.AddCommand(&Command{
		Name:    "root",
		Summary: "Print or set the root directory",
		Usage:   "Usage: gitok root [path]",
		Run: func(args []string) error {
			if len(args) == 0 {
				root := settings.CurrentRoot()
				if root == "" {
					return errors.New("no root selected (use 'gitok root <path>' or 'gitok select')")
				}
				fmt.Fprintln(opts.Stdout, root)
				return nil
			}
			return settings.SetRoot(args[0])
		},
	})

	polling := app.AddGroup("polling", "Turn background polling on or off")
	polling.AddCommand(&Command{
		Name:    "on",
		Summary: "Start local and remote cadences",
		Usage:   "Usage: gitok polling on",
		Run: func(args []string) error {
			return settings.SetPolling(true)
		},
	})
	polling.AddCommand(&Command{
		Name:    "off",
		Summary: "Stop both cadences",
		Usage:   "Usage: gitok polling off",
		Run: func(args []string) error {
			return settings.SetPolling(false)
		},
	})

	app.AddCommand(&Command{
		Name:    "cleanup",
		Summary: "Remove stale lock/port files from a crashed instance",
		Usage:   "Usage: gitok cleanup",
		Run: func(args []string) error {
			return runCleanupCommand(opts)
		},
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: gitok version",
		Run: func(args []string) error {
			fmt.Fprintln(opts.Stdout, version)
			return nil
		},
	})

	return app
}

// runStatusCommand asks the running instance for its state.
func runStatusCommand(opts Options, args []string) error {
	asJSON := len(args) > 0 && args[0] == "--json"
	cfg, _ := config.LoadFromDir(ResolveDataDir(opts.ConfigDir))

	delegate := Delegate{ConfigDir: opts.ConfigDir, Stderr: opts.Stderr, ExitFunc: opts.Exit}
	delegate.Run(func(client *instance.Client) error {
		resp, err := client.Status()
		if err != nil {
			return err
		}
		if asJSON {
			return PrintJSON(opts.Stdout, resp)
		}
		now := time.Now()
		renderState(opts.Stdout, resp.State, now)
		if resp.Result != nil {
			fmt.Fprintln(opts.Stdout)
			renderScan(opts.Stdout, tui.NewStyles(cfg.Theme), *resp.Result, status.All, now)
		}
		return nil
	})
	return nil
}

// runCleanupCommand removes stale lock and port files from a crashed instance.
func runCleanupCommand(opts Options) error {
	dataDir := ResolveDataDir(opts.ConfigDir)
	fl, err := instance.Lock(dataDir)
	if err != nil {
		if errors.Is(err, instance.ErrAlreadyRunning) {
			return errors.New("a gitok instance appears to be running; stop it first")
		}
		return err
	}
	instance.Cleanup(dataDir, fl)
	fmt.Fprintln(opts.Stdout, "Cleaned up stale lock and port files.")
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
