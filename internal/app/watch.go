package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/crashkeep/internal/config"
	"github.com/blackwell-systems/crashkeep/internal/output"
	"github.com/blackwell-systems/crashkeep/internal/watch"
)

var (
	watchFlagTimeout     time.Duration
	watchFlagDaemon      bool
	watchFlagDaemonChild bool
	watchFlagStop        bool
	watchFlagPIDFile     string
	watchFlagLogFile     string

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print crash reports as other processes write them",
		Long: `Follow the crash directories and print every report as it is written.

Reports already pending are printed first. The crash directories are only
created by the first crash, so watch waits on the cache root until they
appear.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run in the background and append each report path to a log file
  • Stop: Stop a running daemon`,
		Example: `  # Follow until interrupted
  crashkeep watch

  # Stop after a minute
  crashkeep watch --timeout 1m

  # Run in the background, then stop it
  crashkeep watch --daemon
  crashkeep watch --stop`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchFlagTimeout, "timeout", 0, "stop after this long (0 waits until interrupted)")
	watchCmd.Flags().BoolVar(&watchFlagDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchFlagDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().BoolVar(&watchFlagStop, "stop", false, "stop running daemon")
	watchCmd.Flags().StringVar(&watchFlagPIDFile, "pid-file", "", "PID file path (default: ~/.local/share/crashkeep/watch.pid)")
	watchCmd.Flags().StringVar(&watchFlagLogFile, "log-file", "", "log file path (default: ~/.local/share/crashkeep/watch.log)")

	watchCmd.Flags().MarkHidden("daemon-child") //nolint:errcheck
	watchCmd.MarkFlagsMutuallyExclusive("daemon", "stop")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if watchFlagDaemon || watchFlagDaemonChild || watchFlagStop {
		d, err := watchDaemon()
		if err != nil {
			return err
		}
		switch {
		case watchFlagStop:
			return stopWatchDaemon(cmd, d)
		case watchFlagDaemon:
			return startWatchDaemon(cmd, cfg, d)
		default:
			return runWatchDaemonChild(cmd, cfg, d)
		}
	}

	return runWatchForeground(cmd, cfg)
}

// watchDaemon resolves the PID and log files, creating the data directory
// for the defaults.
func watchDaemon() (watch.Daemon, error) {
	d := watch.Daemon{PIDFile: watchFlagPIDFile, LogFile: watchFlagLogFile}
	if d.PIDFile != "" && d.LogFile != "" {
		return d, nil
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return d, fmt.Errorf("failed to get data directory: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return d, fmt.Errorf("failed to create data directory: %w", err)
	}
	if d.PIDFile == "" {
		d.PIDFile = filepath.Join(dataDir, "watch.pid")
	}
	if d.LogFile == "" {
		d.LogFile = filepath.Join(dataDir, "watch.log")
	}
	return d, nil
}

func stopWatchDaemon(cmd *cobra.Command, d watch.Daemon) error {
	out := cmd.OutOrStdout()

	running, err := d.Running()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	if err := d.Stop(); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	fmt.Fprintln(out, "✓ Daemon stopped")
	return nil
}

func startWatchDaemon(cmd *cobra.Command, cfg config.Config, d watch.Daemon) error {
	args := []string{"watch", "--daemon-child", "--pid-file", d.PIDFile, "--log-file", d.LogFile}
	if cfg.Cache.Root != "" {
		args = append(args, "--cache-dir", cfg.Cache.Root)
	}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if cfg.Log.Verbose {
		args = append(args, "--verbose")
	}

	pid, err := d.Start(args...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Watch daemon started (PID %d)\n", pid)
	fmt.Fprintf(out, "  Log: %s\n", d.LogFile)
	fmt.Fprintln(out, "  Stop with: crashkeep watch --stop")
	return nil
}

// runWatchDaemonChild is the detached process. Its stdout is the log file.
func runWatchDaemonChild(cmd *cobra.Command, cfg config.Config, d watch.Daemon) error {
	defer d.Release() //nolint:errcheck

	w, err := startWatcher(cfg)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, stop := watchContext(cmd.Context())
	defer stop()

	logger := log.New(cmd.OutOrStdout(), "", log.LstdFlags)
	logger.Printf("watch: following %s", cacheRootOf(cfg))

	seen := followEvents(ctx, w, newLogger(cfg), func(ev watch.Event) {
		logger.Printf("%-10s %s", ev.Type, ev.Path)
	})
	logger.Printf("watch: stopped after %d crash reports", seen)
	return nil
}

func runWatchForeground(cmd *cobra.Command, cfg config.Config) error {
	w, err := startWatcher(cfg)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, stop := watchContext(cmd.Context())
	defer stop()

	spinner := output.NewSpinner("Watching for crash reports")
	spinner.SetWriter(cmd.OutOrStdout())
	spinner.Start()

	seen := followEvents(ctx, w, newLogger(cfg), func(ev watch.Event) {
		spinner.Println(fmt.Sprintf("%-10s %s", ev.Type, ev.Path))
	})
	spinner.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Saw %d crash reports.\n", seen)
	return nil
}

func startWatcher(cfg config.Config) (*watch.Watcher, error) {
	w, err := watch.New(openCrashStore(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	return w, nil
}

// watchContext ends on Ctrl+C, SIGTERM or after --timeout.
func watchContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if watchFlagTimeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, watchFlagTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// followEvents hands every event to onEvent until ctx ends or the watcher
// stops, and returns how many it saw.
func followEvents(ctx context.Context, w *watch.Watcher, logger *log.Logger, onEvent func(watch.Event)) int {
	seen := 0
	for {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				return seen
			}
			seen++
			onEvent(ev)
		case err := <-w.Errors():
			logger.Printf("watch: %v", err)
		case <-ctx.Done():
			return seen
		}
	}
}

func cacheRootOf(cfg config.Config) string {
	root, err := config.CacheRoot(cfg.Cache.Root).CacheRoot()
	if err != nil {
		return "(unavailable)"
	}
	return root
}
