package watch

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// Daemon manages a detached watcher process through a PID file.
type Daemon struct {
	PIDFile string
	LogFile string

	// Executable is the program started by Start. It defaults to the
	// running binary.
	Executable string
}

// Start launches Executable with args in a new session, sends its output to
// LogFile and records its PID. It fails if a daemon is already running.
func (d Daemon) Start(args ...string) (int, error) {
	running, err := d.Running()
	if err != nil {
		return 0, fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return 0, fmt.Errorf("daemon already running (PID file: %s)", d.PIDFile)
	}

	logF, err := os.OpenFile(d.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer logF.Close()

	executable := d.Executable
	if executable == "" {
		if executable, err = os.Executable(); err != nil {
			return 0, fmt.Errorf("failed to get executable path: %w", err)
		}
	}

	cmd := exec.Command(executable, args...)
	cmd.Stdout = logF
	cmd.Stderr = logF
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon process: %w", err)
	}

	pid := cmd.Process.Pid
	if err := os.WriteFile(d.PIDFile, []byte(fmt.Sprintf("%d\n", pid)), 0644); err != nil {
		cmd.Process.Kill() //nolint:errcheck
		return 0, fmt.Errorf("failed to write PID file: %w", err)
	}

	if err := cmd.Process.Release(); err != nil {
		return 0, fmt.Errorf("failed to release process: %w", err)
	}
	return pid, nil
}

// Running reports whether the process named by the PID file is alive. A
// stale PID file is removed.
func (d Daemon) Running() (bool, error) {
	pid, err := d.pid()
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if pid <= 0 {
		return false, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		os.Remove(d.PIDFile)
		return false, nil
	}
	return true, nil
}

// Stop sends SIGTERM to the running daemon.
func (d Daemon) Stop() error {
	pid, err := d.pid()
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("daemon not running (PID file not found)")
		}
		return err
	}
	if pid <= 0 {
		return fmt.Errorf("invalid PID in %s", d.PIDFile)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to process %d: %w", pid, err)
	}
	return nil
}

// Release removes the PID file. The daemon calls it on shutdown.
func (d Daemon) Release() error {
	if err := os.Remove(d.PIDFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// pid reads the PID file. Unparseable contents yield 0.
func (d Daemon) pid() (int, error) {
	data, err := os.ReadFile(d.PIDFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, nil
	}
	return pid, nil
}
