package daemon

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/npratt/intervals/internal/config"
)

const (
	// daemonEnvVar marks the re-executed child.
	daemonEnvVar = "INTERVALS_DAEMONIZED"

	socketWaitTimeout   = 2 * time.Second
	socketCheckInterval = 50 * time.Millisecond
)

// Daemonize re-executes the current command as a detached child.
//
// In the parent it starts the child, waits up to two seconds for the socket,
// reports the child PID on w and returns shouldExit=true. In the child it
// returns shouldExit=false so the caller keeps running as the daemon.
func Daemonize(cfg *config.Config, w io.Writer) (shouldExit bool, pid int, err error) {
	if IsDaemonized() {
		return false, os.Getpid(), nil
	}

	executable, err := os.Executable()
	if err != nil {
		return false, 0, fmt.Errorf("get executable path: %w", err)
	}

	cmd := exec.Command(executable, os.Args[1:]...)
	cmd.Env = append(os.Environ(), daemonEnvVar+"=1")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return false, 0, fmt.Errorf("start daemon: %w", err)
	}
	childPID := cmd.Process.Pid

	if err := waitForSocketReady(cfg.Paths.Socket, socketWaitTimeout); err != nil {
		_, _ = fmt.Fprintf(w, "Started daemon (pid %d) - socket not yet available\n", childPID)
	} else {
		_, _ = fmt.Fprintf(w, "Started daemon (pid %d)\n", childPID)
	}

	return true, childPID, nil
}

// IsDaemonized reports whether this process is the daemon child.
func IsDaemonized() bool {
	return os.Getenv(daemonEnvVar) == "1"
}

// waitForSocketReady waits for the socket to accept connections.
func waitForSocketReady(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("unix", socketPath, socketCheckInterval)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(socketCheckInterval)
	}
	return fmt.Errorf("socket not available after %v", timeout)
}
