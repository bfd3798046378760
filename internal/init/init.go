// Package initcmd writes a starter intervals config and sample programs.
package initcmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/npratt/intervals/internal/config"
	"github.com/npratt/intervals/internal/program"
)

// ErrChanged is returned when existing files differ and Force is not set.
var ErrChanged = errors.New("files have changes (use --force to overwrite)")

// Options configures the init command behavior.
type Options struct {
	DryRun  bool
	Force   bool
	Minimal bool      // config file only, no sample programs
	Global  bool      // write to the XDG config dir instead of ./.intervals
	Writer  io.Writer // defaults to os.Stdout

	// Confirm is asked before overwriting changed files when Force is not
	// set. Nil means refuse with ErrChanged.
	Confirm func(label string) (bool, error)
}

// InstallFile is one file to write, relative to the target directory.
type InstallFile struct {
	Path    string
	Content string
}

// Result lists what happened to each file, by relative path.
type Result struct {
	TargetDir   string
	Created     []string
	Overwritten []string
	Unchanged   []string
	Skipped     []string
	Backups     []string
}

// FileStatus is the state of one InstallFile on disk.
type FileStatus struct {
	File      InstallFile
	Exists    bool
	Unchanged bool
	Diff      string
}

// BuildFileList returns the files init writes.
func BuildFileList(minimal bool) ([]InstallFile, error) {
	files := []InstallFile{
		{Path: config.ProjectConfigFile, Content: configTemplate(config.Default())},
	}
	if minimal {
		return files, nil
	}

	for _, p := range samplePrograms() {
		data, err := program.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode sample program %s: %w", p.Name(), err)
		}
		files = append(files, InstallFile{
			Path:    filepath.Join("programs", p.Name()+".yaml"),
			Content: string(data),
		})
	}
	return files, nil
}

// Run writes the starter files according to opts.
func Run(opts Options) (*Result, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	w := opts.Writer

	targetDir, err := TargetDir(opts.Global)
	if err != nil {
		return nil, err
	}

	files, err := BuildFileList(opts.Minimal)
	if err != nil {
		return nil, err
	}
	statuses := checkFileStatuses(targetDir, files)
	result := &Result{TargetDir: targetDir}

	if opts.DryRun {
		_, _ = fmt.Fprintln(w, "DRY RUN - No changes will be made")
		_, _ = fmt.Fprintln(w)
	}

	changed := false
	for _, s := range statuses {
		if s.Exists && !s.Unchanged {
			changed = true
		}
	}
	if changed && !opts.Force && !opts.DryRun {
		if opts.Confirm == nil {
			return showChanges(w, targetDir, statuses, result)
		}
		printChanges(w, targetDir, statuses)
		ok, err := opts.Confirm("Overwrite changed files (backups are kept)")
		if err != nil {
			return result, fmt.Errorf("confirm overwrite: %w", err)
		}
		if !ok {
			result.Skipped = changedPaths(statuses)
			return result, ErrChanged
		}
	}

	for _, s := range statuses {
		path := filepath.Join(targetDir, s.File.Path)
		switch {
		case s.Unchanged:
			_, _ = fmt.Fprintf(w, "Already up to date: %s\n", path)
			result.Unchanged = append(result.Unchanged, s.File.Path)
		case opts.DryRun && s.Exists:
			_, _ = fmt.Fprintf(w, "Would overwrite (has changes): %s\n", path)
			_, _ = fmt.Fprintln(w, s.Diff)
			result.Skipped = append(result.Skipped, s.File.Path)
		case opts.DryRun:
			_, _ = fmt.Fprintf(w, "Would create: %s\n", path)
			result.Created = append(result.Created, s.File.Path)
		case s.Exists:
			backup, err := backupFile(path)
			if err != nil {
				return result, err
			}
			if err := writeFile(path, s.File.Content); err != nil {
				return result, err
			}
			_, _ = fmt.Fprintf(w, "Overwritten: %s (backup: %s)\n", path, filepath.Base(backup))
			result.Overwritten = append(result.Overwritten, s.File.Path)
			result.Backups = append(result.Backups, backup)
		default:
			if err := writeFile(path, s.File.Content); err != nil {
				return result, err
			}
			_, _ = fmt.Fprintf(w, "Created: %s\n", path)
			result.Created = append(result.Created, s.File.Path)
		}
	}

	_, _ = fmt.Fprintln(w)
	if opts.DryRun {
		_, _ = fmt.Fprintln(w, "Run without --dry-run to apply changes.")
		return result, nil
	}
	if len(result.Created) == 0 && len(result.Overwritten) == 0 {
		_, _ = fmt.Fprintln(w, "intervals configuration is already up to date.")
		return result, nil
	}
	_, _ = fmt.Fprintln(w, "intervals configuration initialized.")
	if !opts.Minimal {
		_, _ = fmt.Fprintf(w, "Try: intervals run %s\n", filepath.Join(targetDir, "programs", "tabata.yaml"))
	}
	return result, nil
}

// TargetDir returns the directory init writes to.
func TargetDir(global bool) (string, error) {
	if !global {
		return config.ProjectConfigDir, nil
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, config.GlobalConfigDir), nil
}

func checkFileStatuses(targetDir string, files []InstallFile) []FileStatus {
	statuses := make([]FileStatus, 0, len(files))
	for _, f := range files {
		status := FileStatus{File: f}
		existing, err := os.ReadFile(filepath.Join(targetDir, f.Path))
		if err == nil {
			status.Exists = true
			status.Unchanged = string(existing) == f.Content
			status.Diff = UnifiedDiff("existing", "new", string(existing), f.Content)
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func showChanges(w io.Writer, targetDir string, statuses []FileStatus, result *Result) (*Result, error) {
	printChanges(w, targetDir, statuses)
	result.Skipped = changedPaths(statuses)
	_, _ = fmt.Fprintln(w, "Use --force to overwrite changed files.")
	return result, ErrChanged
}

func printChanges(w io.Writer, targetDir string, statuses []FileStatus) {
	_, _ = fmt.Fprintln(w, "The following files have changes:")
	_, _ = fmt.Fprintln(w)
	for _, s := range statuses {
		if !s.Exists || s.Unchanged {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s:\n", filepath.Join(targetDir, s.File.Path))
		_, _ = fmt.Fprintln(w, s.Diff)
	}
}

func changedPaths(statuses []FileStatus) []string {
	var paths []string
	for _, s := range statuses {
		if s.Exists && !s.Unchanged {
			paths = append(paths, s.File.Path)
		}
	}
	return paths
}

// backupFile copies path to a timestamped .bak next to it.
func backupFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("2006-01-02T15-04-05.000"))
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return "", fmt.Errorf("write backup %s: %w", backup, err)
	}
	return backup, nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
