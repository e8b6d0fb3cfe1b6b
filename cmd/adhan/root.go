package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/adhan/internal/config"
	"github.com/jmylchreest/adhan/internal/prayer"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Exit statuses, one per fatal error class.
const (
	exitOK            = 0
	exitFailure       = 1
	exitConfiguration = 2
	exitScheduleBuild = 3
)

var (
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "adhan",
	Short: "Play the call to prayer when prayer times begin",
	Long: `adhan computes the day's prayer times for a location and plays an
audio cue on a chosen output device when each prayer begins.

Cues are picked at random from two directories below the cue directory
(default ~/.config/adhan/audio): fajr/ for the dawn prayer and normal/ for
the others.

Exit status:
  0  success
  1  unclassified failure
  2  configuration error (missing or invalid config file)
  3  prayer times could not be computed for the configured location`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger(cmd)
		return nil
	},
}

// Execute runs the command line and exits with the status for its outcome.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file, .toml or .yaml (default: ~/.config/adhan/config.toml)")
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrConfiguration):
		return exitConfiguration
	case errors.Is(err, prayer.ErrScheduleBuild):
		return exitScheduleBuild
	default:
		return exitFailure
	}
}

// setupLogger configures the global slog logger. Long-running commands log
// at info so firings and playback failures are visible.
func setupLogger(cmd *cobra.Command) {
	level := slog.LevelWarn
	switch cmd.Name() {
	case "run", "test":
		level = slog.LevelInfo
	}
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// loadConfig loads the configuration. With the default config location the
// config and cue directories are created on first use.
func loadConfig() (*config.Config, error) {
	if globalOpts.configPath == "" {
		created, err := config.EnsureDirs("")
		if err != nil {
			logger.Warn("failed to create config directories", "error", err)
		} else if created {
			printFirstUse(os.Stderr)
		}
	}

	cfg, err := config.Load(globalOpts.configPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded",
		"latitude", cfg.Location.Latitude,
		"longitude", cfg.Location.Longitude,
		"method", cfg.Calculation.Method)
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
