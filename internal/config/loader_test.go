package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// chdirTemp moves the test into an empty directory so no project config is
// picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	return tmpDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig(viper.New())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Timer.TickInterval != time.Second {
		t.Errorf("Timer.TickInterval = %v, want %v", cfg.Timer.TickInterval, time.Second)
	}
	if cfg.Paths.Socket != ".intervals/intervals.sock" {
		t.Errorf("Paths.Socket = %q", cfg.Paths.Socket)
	}
	if !cfg.Display.Bell {
		t.Error("Display.Bell = false, want default true")
	}
}

func TestLoadConfig_ProjectFile(t *testing.T) {
	chdirTemp(t)

	writeFile(t, filepath.Join(ProjectConfigDir, ProjectConfigFile), `
timer:
  tick_interval: 250ms
  program_file: workouts/hiit.yaml
  max_entry_steps: 1000
display:
  bell: false
  cue_command: "paplay {asset}"
web:
  addr: "127.0.0.1:8787"
`)

	cfg, err := LoadConfig(viper.New())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Timer.TickInterval != 250*time.Millisecond {
		t.Errorf("Timer.TickInterval = %v, want 250ms", cfg.Timer.TickInterval)
	}
	if cfg.Timer.ProgramFile != "workouts/hiit.yaml" {
		t.Errorf("Timer.ProgramFile = %q", cfg.Timer.ProgramFile)
	}
	if cfg.Timer.MaxEntrySteps != 1000 {
		t.Errorf("Timer.MaxEntrySteps = %d, want 1000", cfg.Timer.MaxEntrySteps)
	}
	if cfg.Display.Bell {
		t.Error("Display.Bell = true, want false from file")
	}
	if !cfg.Display.ShowProgram {
		t.Error("Display.ShowProgram should keep its default")
	}
	if cfg.Display.CueCommand != "paplay {asset}" {
		t.Errorf("Display.CueCommand = %q", cfg.Display.CueCommand)
	}
	if cfg.Web.Addr != "127.0.0.1:8787" {
		t.Errorf("Web.Addr = %q", cfg.Web.Addr)
	}
}

func TestLoadConfig_GlobalThenProject(t *testing.T) {
	tmpDir := chdirTemp(t)

	writeFile(t, filepath.Join(tmpDir, "xdg", GlobalConfigDir, GlobalConfigFile), `
timer:
  tick_interval: 2s
paths:
  log: /var/tmp/global.log
`)
	writeFile(t, filepath.Join(ProjectConfigDir, ProjectConfigFile), `
timer:
  tick_interval: 3s
`)

	cfg, err := LoadConfig(viper.New())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Timer.TickInterval != 3*time.Second {
		t.Errorf("Timer.TickInterval = %v, want project value 3s", cfg.Timer.TickInterval)
	}
	if cfg.Paths.Log != "/var/tmp/global.log" {
		t.Errorf("Paths.Log = %q, want global value", cfg.Paths.Log)
	}
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	tmpDir := chdirTemp(t)

	configPath := filepath.Join(tmpDir, "custom-config.yaml")
	writeFile(t, configPath, `
timer:
  tick_interval: 500ms
paths:
  socket: /tmp/custom.sock
`)

	v := viper.New()
	v.Set("config", configPath)

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Timer.TickInterval != 500*time.Millisecond {
		t.Errorf("Timer.TickInterval = %v, want 500ms", cfg.Timer.TickInterval)
	}
	if cfg.Paths.Socket != "/tmp/custom.sock" {
		t.Errorf("Paths.Socket = %q", cfg.Paths.Socket)
	}
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	chdirTemp(t)

	v := viper.New()
	v.Set("config", "/nonexistent/path/config.yaml")

	if _, err := LoadConfig(v); err == nil {
		t.Error("LoadConfig should fail for missing explicit config")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	chdirTemp(t)

	writeFile(t, filepath.Join(ProjectConfigDir, ProjectConfigFile), `
web:
  addr: "from-file:1"
`)

	v := viper.New()
	v.SetEnvPrefix("INTERVALS")
	v.AutomaticEnv()

	// env binding happens in the CLI; a direct Set has the same precedence
	v.Set("web.addr", "from-env:2")

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Web.Addr != "from-env:2" {
		t.Errorf("Web.Addr = %q, want %q", cfg.Web.Addr, "from-env:2")
	}
}

func TestLoadConfig_DurationParsing(t *testing.T) {
	tmpDir := chdirTemp(t)

	tests := []struct {
		name    string
		value   string
		wantDur time.Duration
	}{
		{"milliseconds", "100ms", 100 * time.Millisecond},
		{"seconds", "1s", time.Second},
		{"combined", "1m30s", 90 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tmpDir, tt.name+".yaml")
			writeFile(t, configPath, "timer:\n  tick_interval: "+tt.value)

			v := viper.New()
			v.Set("config", configPath)

			cfg, err := LoadConfig(v)
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if cfg.Timer.TickInterval != tt.wantDur {
				t.Errorf("got %v, want %v", cfg.Timer.TickInterval, tt.wantDur)
			}
		})
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tmpDir := chdirTemp(t)

	configPath := filepath.Join(tmpDir, "bad.yaml")
	writeFile(t, configPath, "timer:\n  tick_interval: 0s\n")

	v := viper.New()
	v.Set("config", configPath)

	if _, err := LoadConfig(v); err == nil {
		t.Error("LoadConfig should reject a zero tick interval")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	tmpDir := chdirTemp(t)

	configPath := filepath.Join(tmpDir, "broken.yaml")
	writeFile(t, configPath, "timer: [unclosed\n")

	v := viper.New()
	v.Set("config", configPath)

	if _, err := LoadConfig(v); err == nil {
		t.Error("LoadConfig should fail on malformed YAML")
	}
}

func TestGlobalConfigPath(t *testing.T) {
	tmpDir := chdirTemp(t)

	if path := globalConfigPath(); path != "" {
		t.Errorf("globalConfigPath() = %q, want empty with no file", path)
	}

	want := filepath.Join(tmpDir, "xdg", GlobalConfigDir, GlobalConfigFile)
	writeFile(t, want, "timer: {}\n")
	if path := globalConfigPath(); path != want {
		t.Errorf("globalConfigPath() = %q, want %q", path, want)
	}
}

func TestProjectConfigPath(t *testing.T) {
	chdirTemp(t)

	if path := projectConfigPath(); path != "" {
		t.Errorf("projectConfigPath() = %q, want empty", path)
	}

	writeFile(t, filepath.Join(ProjectConfigDir, ProjectConfigFile), "timer: {}\n")
	if path := projectConfigPath(); path == "" {
		t.Error("projectConfigPath() should find .intervals/config.yaml")
	}
}
