package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestPIDFile_WriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "intervals.pid")
	pf := NewPIDFile(path)

	if pf.Path() != path {
		t.Errorf("Path() = %s, want %s", pf.Path(), path)
	}
	if err := pf.Write(); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	defer func() { _ = pf.Remove() }()

	if pid := pf.Read(); pid != os.Getpid() {
		t.Errorf("Read() = %d, want %d", pid, os.Getpid())
	}
	if !pf.IsRunning() {
		t.Error("IsRunning() should be true for the current process")
	}
}

func TestPIDFile_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intervals.pid")
	pf := NewPIDFile(path)

	if err := pf.Write(); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := pf.Remove(); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("PID file should be gone after Remove()")
	}
	if err := pf.Remove(); err != nil {
		t.Errorf("second Remove() error: %v", err)
	}
}

func TestPIDFile_ReadInvalid(t *testing.T) {
	tmp := t.TempDir()

	if pid := NewPIDFile(filepath.Join(tmp, "missing.pid")).Read(); pid != 0 {
		t.Errorf("Read() of missing file = %d, want 0", pid)
	}

	path := filepath.Join(tmp, "bad.pid")
	if err := os.WriteFile(path, []byte("not-a-pid\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if pid := NewPIDFile(path).Read(); pid != 0 {
		t.Errorf("Read() of invalid content = %d, want 0", pid)
	}
}

func TestPIDFile_FlockPreventsDoubleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intervals.pid")

	pf1 := NewPIDFile(path)
	pf2 := NewPIDFile(path)

	if err := pf1.Write(); err != nil {
		t.Fatalf("first Write() error: %v", err)
	}
	defer func() { _ = pf1.Remove() }()

	err := pf2.Write()
	if err == nil {
		_ = pf2.Remove()
		t.Fatal("expected error for second Write(), got nil")
	}
	if !errors.Is(err, ErrLocked) {
		t.Errorf("second Write() = %v, want ErrLocked", err)
	}
}

func TestIsProcessRunning(t *testing.T) {
	tests := []struct {
		name string
		pid  int
		want bool
	}{
		{"current process", os.Getpid(), true},
		{"zero", 0, false},
		{"negative", -1, false},
		{"unlikely pid", 999999999, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsProcessRunning(tt.pid); got != tt.want {
				t.Errorf("IsProcessRunning(%d) = %v, want %v", tt.pid, got, tt.want)
			}
		})
	}
}

func TestPIDFile_CleanupStale(t *testing.T) {
	t.Run("dead process", func(t *testing.T) {
		tmp := t.TempDir()
		pidPath := filepath.Join(tmp, "intervals.pid")
		sockPath := filepath.Join(tmp, "intervals.sock")

		if err := os.WriteFile(pidPath, []byte("999999999\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(sockPath, nil, 0600); err != nil {
			t.Fatal(err)
		}

		NewPIDFile(pidPath).CleanupStale(sockPath)

		for _, p := range []string{pidPath, sockPath} {
			if _, err := os.Stat(p); !os.IsNotExist(err) {
				t.Errorf("%s should be removed", filepath.Base(p))
			}
		}
	})

	t.Run("live process", func(t *testing.T) {
		tmp := t.TempDir()
		pidPath := filepath.Join(tmp, "intervals.pid")
		sockPath := filepath.Join(tmp, "intervals.sock")

		if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(sockPath, nil, 0600); err != nil {
			t.Fatal(err)
		}

		NewPIDFile(pidPath).CleanupStale(sockPath)

		for _, p := range []string{pidPath, sockPath} {
			if _, err := os.Stat(p); err != nil {
				t.Errorf("%s should be kept: %v", filepath.Base(p), err)
			}
		}
	})
}
