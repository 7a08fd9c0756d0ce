package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/spf13/cobra"

	"github.com/arumata/glacierbag/internal/adapters/config"
	"github.com/arumata/glacierbag/internal/adapters/loghandler"
	"github.com/arumata/glacierbag/internal/app"
	"github.com/arumata/glacierbag/internal/usecase"
)

func main() {
	os.Exit(runMain())
}

func runMain() int {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGHUP,
	)
	defer stop()

	exitCode := exitSuccess
	cmd := newRootCmd(&exitCode)
	cmd.SetContext(ctx)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitCode == exitSuccess {
			exitCode = exitUsageError
		}
	}
	return exitCode
}

// engineState is the shared machinery every subcommand needs: a
// resolved config, wired dependencies, a logger, the parsed branch
// tree, and the loaded catalog (§2 control flow entry point).
type engineState struct {
	cfg    *usecase.Config
	deps   *usecase.Dependencies
	logger *slog.Logger
	tree   []usecase.Branch
	cat    *usecase.Catalog
}

func newRootCmd(exitCode *int) *cobra.Command {
	var verbose, run bool

	root := &cobra.Command{
		Use:           "glacierbag",
		Short:         "Incremental, content-addressed backups to S3 Deep Archive",
		SilenceUsage:  false,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVar(&run, "run", false, "apply changes; without this flag, every command reports what it would do")

	loadState := func(cmd *cobra.Command) (*engineState, error) {
		return setupEngineState(cmd.Context(), verbose, run)
	}

	root.AddCommand(newMirrorTreeCmd(loadState, exitCode))
	root.AddCommand(newMirrorBranchCmd(loadState, exitCode))
	root.AddCommand(newMirrorBagCmd(loadState, exitCode))
	root.AddCommand(newDeleteCmd(loadState, exitCode))
	root.AddCommand(newRepackCmd(loadState, exitCode))
	root.AddCommand(newAuditCmd(loadState, exitCode))
	root.AddCommand(newPruneCmd(loadState, exitCode))
	root.AddCommand(newRestoreCmd(loadState, exitCode))
	root.AddCommand(newCronCmd(loadState, exitCode))
	root.AddCommand(newVersionCmd())

	root.SetErr(os.Stderr)
	return root
}

// setupEngineState resolves configuration, wires real adapters, and
// loads the branch tree and catalog — the common preamble every
// subcommand shares before it can act on a specific branch or bag.
func setupEngineState(ctx context.Context, verbose, run bool) (*engineState, error) {
	logger := setupLogger(verbose)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %v: %w", err, usecase.ErrCritical)
	}
	configPath := filepath.Join(homeDir, ".config", "glacierbag", "config.toml")

	configFile, err := config.New(logger).Load(ctx, configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w: %w", err, usecase.ErrCritical)
	}

	cfg, err := usecase.RuntimeConfigFromFile(configFile, homeDir)
	if err != nil {
		return nil, err
	}
	cfg.Verbose = verbose
	cfg.Run = run

	fileLogger, _ := withFileLogging(logger, configFile.Logging, verbose)
	logger = fileLogger

	deps, err := app.NewDefaultDependencies(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}

	treeData, err := deps.FileSystem.ReadFile(ctx, cfg.TreeFilePath)
	if err != nil {
		return nil, fmt.Errorf("read tree file %q: %w: %w", cfg.TreeFilePath, err, usecase.ErrUsage)
	}
	tree, err := usecase.ParseTreeFile(string(treeData))
	if err != nil {
		return nil, err
	}

	cat, err := usecase.LoadCatalog(ctx, deps.FileSystem, cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	return &engineState{cfg: cfg, deps: deps, logger: logger, tree: tree, cat: cat}, nil
}

func findBranch(tree []usecase.Branch, path string) (usecase.Branch, error) {
	for _, b := range tree {
		if b.Path == path {
			return b, nil
		}
	}
	return usecase.Branch{}, fmt.Errorf("branch %q not found in tree file: %w", path, usecase.ErrUsage)
}

func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := loghandler.NewHandler(os.Stderr, &loghandler.Options{
		Level:    level,
		UseColor: shouldUseColor(os.Stderr),
	})
	return slog.New(handler)
}

// withFileLogging fans log records out to a dated file under the
// configured log directory in addition to stderr. The returned
// cleanup closes the file; callers that run for the lifetime of the
// process may discard it.
func withFileLogging(logger *slog.Logger, logCfg usecase.LoggingConfig, verbose bool) (*slog.Logger, func()) {
	dir := strings.TrimSpace(logCfg.Dir)
	if dir == "" {
		return logger, func() {}
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Warn("cannot resolve home dir for log file", "error", err)
		return logger, func() {}
	}
	expanded := usecase.ExpandHomeDirPublic(dir, homeDir)
	if err := os.MkdirAll(expanded, 0o750); err != nil {
		logger.Warn("cannot create log directory", "path", expanded, "error", err)
		return logger, func() {}
	}
	filename := "glacierbag-" + time.Now().Format("2006-01-02") + ".log"
	logPath := filepath.Join(expanded, filename)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path from config
	if err != nil {
		logger.Warn("cannot open log file", "path", logPath, "error", err)
		return logger, func() {}
	}

	fileLevel := parseLogLevel(logCfg.Level)
	if verbose && fileLevel > slog.LevelDebug {
		fileLevel = slog.LevelDebug
	}
	fileHandler := loghandler.NewHandler(f, &loghandler.Options{Level: fileLevel, UseColor: false})
	combined := loghandler.NewMultiHandler(logger.Handler(), fileHandler)
	return slog.New(combined), func() { _ = f.Close() }
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func shouldUseColor(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func mapExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	switch {
	case errors.Is(err, usecase.ErrUsage):
		return exitUsageError
	case errors.Is(err, usecase.ErrLockBusy):
		return exitLockBusy
	case errors.Is(err, usecase.ErrInterrupted):
		return exitInterrupted
	case errors.Is(err, usecase.ErrGuardDenied):
		return exitGuardDenied
	case errors.Is(err, usecase.ErrMinRetention):
		return exitGuardDenied
	case errors.Is(err, usecase.ErrCatalogParse):
		return exitCriticalError
	case errors.Is(err, usecase.ErrUnverifiedUpload):
		return exitCriticalError
	default:
		return exitCriticalError
	}
}
