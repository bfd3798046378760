package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/npratt/intervals/internal/config"
)

// DaemonInfo is written to daemon.json so CLI commands can find the daemon
// from any directory inside the project.
type DaemonInfo struct {
	SocketPath string    `json:"socket_path"`
	PIDPath    string    `json:"pid_path"`
	LogPath    string    `json:"log_path"`
	Program    string    `json:"program"`
	StartTime  time.Time `json:"start_time"`
	PID        int       `json:"pid"`
}

const daemonInfoFile = "daemon.json"

// projectMarkers are directories that indicate project root.
var projectMarkers = []string{".git", config.ProjectConfigDir}

// ResolvePaths makes every relative path in paths absolute against basePath,
// or the working directory when basePath is empty.
func ResolvePaths(paths config.PathsConfig, basePath string) (config.PathsConfig, error) {
	if basePath == "" {
		var err error
		basePath, err = os.Getwd()
		if err != nil {
			return paths, fmt.Errorf("get working directory: %w", err)
		}
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(basePath, p)
	}

	return config.PathsConfig{
		Log:    resolve(paths.Log),
		Socket: resolve(paths.Socket),
		PID:    resolve(paths.PID),
	}, nil
}

// FindProjectRoot walks up from startDir looking for a project marker and
// returns the directory holding it, or startDir if none is found.
func FindProjectRoot(startDir string) string {
	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return "."
		}
	}

	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return startDir
	}

	for dir := absDir; ; {
		for _, marker := range projectMarkers {
			if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
				return dir
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir
		}
		dir = parent
	}
}

// FindDaemonInfo reads daemon.json from the project containing startDir.
func FindDaemonInfo(startDir string) (*DaemonInfo, error) {
	infoPath := DaemonInfoPath(FindProjectRoot(startDir))
	info, err := ReadDaemonInfo(infoPath)
	if err != nil {
		return nil, fmt.Errorf("daemon info not found (checked %s): %w", infoPath, err)
	}
	return info, nil
}

// WriteDaemonInfo writes daemon connection info to path.
func WriteDaemonInfo(path string, info *DaemonInfo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal daemon info: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write daemon info: %w", err)
	}
	return nil
}

// ReadDaemonInfo reads daemon connection info from path.
func ReadDaemonInfo(path string) (*DaemonInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read daemon info: %w", err)
	}

	var info DaemonInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("unmarshal daemon info: %w", err)
	}
	return &info, nil
}

// RemoveDaemonInfo removes daemon.json. A missing file is not an error.
func RemoveDaemonInfo(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove daemon info: %w", err)
	}
	return nil
}

// DaemonInfoPath returns the daemon.json path under projectRoot.
func DaemonInfoPath(projectRoot string) string {
	return filepath.Join(projectRoot, config.ProjectConfigDir, daemonInfoFile)
}
