package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrLocked is returned by PIDFile.Write when another daemon holds the lock.
var ErrLocked = errors.New("daemon already running (pid file locked)")

// PIDFile is a flock-guarded PID file. Holding the lock is what makes a
// daemon the only one for its project.
type PIDFile struct {
	path string
	file *os.File
}

// NewPIDFile creates a PIDFile for path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the PID file path.
func (p *PIDFile) Path() string {
	return p.path
}

// Write locks the file and records the current process ID.
func (p *PIDFile) Write() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("create pid directory: %w", err)
	}

	file, err := os.OpenFile(p.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open pid file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return ErrLocked
		}
		return fmt.Errorf("lock pid file: %w", err)
	}

	write := func() error {
		if err := file.Truncate(0); err != nil {
			return fmt.Errorf("truncate pid file: %w", err)
		}
		if _, err := file.Seek(0, 0); err != nil {
			return fmt.Errorf("seek pid file: %w", err)
		}
		if _, err := fmt.Fprintf(file, "%d\n", os.Getpid()); err != nil {
			return fmt.Errorf("write pid: %w", err)
		}
		return file.Sync()
	}
	if err := write(); err != nil {
		unlockAndClose(file)
		return err
	}

	p.file = file
	return nil
}

// Read returns the recorded PID, or 0 if the file is missing or invalid.
func (p *PIDFile) Read() int {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// Remove releases the lock and deletes the file.
func (p *PIDFile) Remove() error {
	if p.file != nil {
		unlockAndClose(p.file)
		p.file = nil
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

func unlockAndClose(file *os.File) {
	_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
	_ = file.Close()
}

// IsProcessRunning reports whether pid is alive, using signal 0.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// IsRunning reports whether the recorded process is alive.
func (p *PIDFile) IsRunning() bool {
	return IsProcessRunning(p.Read())
}

// CleanupStale removes the PID file and socket left by a daemon that is no
// longer running.
func (p *PIDFile) CleanupStale(socketPath string) {
	if p.IsRunning() {
		return
	}
	_ = os.Remove(p.path)
	if socketPath != "" {
		_ = os.Remove(socketPath)
	}
}
