// pattern: Imperative Shell

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"gitok/internal/config"
	"gitok/internal/gitexec"
	"gitok/internal/logging"
	"gitok/internal/repostatus"
	"gitok/internal/scan"
	"gitok/internal/status"
	"gitok/internal/tui"
)

type scanFlags struct {
	remote  bool
	json    bool
	only    string
	workers int
}

func parseScanFlags(args []string, stderr io.Writer) (scanFlags, []string, error) {
	var f scanFlags
	fs := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&f.remote, "remote", false, "Fetch from origin and count ahead/behind")
	fs.BoolVar(&f.json, "json", false, "Print the scan result as JSON")
	fs.StringVar(&f.only, "only", "all", "Show one category: all, not-repo, changes, pending-push, behind, synced")
	fs.IntVar(&f.workers, "workers", 0, "Parallel resolvers (default from config, else CPU count)")
	if err := fs.Parse(args); err != nil {
		return f, nil, err
	}
	return f, fs.Args(), nil
}

// runScanCommand performs one scan in-process and prints it.
func runScanCommand(ctx context.Context, opts Options, args []string) error {
	flags, rest, err := parseScanFlags(args, opts.Stderr)
	if err != nil {
		return err
	}
	category, ok := status.ParseCategory(flags.only)
	if !ok {
		return fmt.Errorf("unknown category %q", flags.only)
	}

	dataDir := ResolveDataDir(opts.ConfigDir)
	cfg, err := config.LoadFromDir(dataDir)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "warning: %v (using defaults)\n", err)
	}
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}

	root := opts.Root
	if len(rest) > 0 {
		root = rest[0]
	}
	if root == "" {
		root = config.NewFileStore(dataDir, nil).Get(config.KeyRootPath, "")
	}
	if root == "" {
		return errors.New("no root given (pass a path or run 'gitok root <path>')")
	}

	result, err := ScanOnce(ctx, cfg, root, flags.remote, logging.NopLogger())
	if err != nil {
		return err
	}
	if flags.json {
		return PrintJSON(opts.Stdout, result)
	}
	renderScan(opts.Stdout, tui.NewStyles(cfg.Theme), result, category, time.Now())
	return nil
}

// ScanOnce resolves every project under root with a scanner built from cfg.
func ScanOnce(ctx context.Context, cfg config.Config, root string, includeRemote bool, logger *logging.ScopedLogger) (status.ScanResult, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	gitPath, err := cfg.ResolveGit()
	if err != nil {
		return status.ScanResult{}, err
	}
	runner := gitexec.NewRunner(
		gitexec.WithBinary(gitPath),
		gitexec.WithTimeout(cfg.CommandTimeout),
		gitexec.WithLogger(logger),
	)
	resolver := repostatus.NewResolver(runner.Func(), logger)
	scanner := scan.New(resolver, cfg.Workers, logger)
	return scanner.Scan(ctx, root, includeRemote, nil), nil
}
