package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"micmeter/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "micmeter.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if cfg.Plot.Precision != -1 {
		t.Errorf("Expected shortest precision by default, got %d", cfg.Plot.Precision)
	}
	port := cfg.PortConfig()
	if port.Device != "/dev/ttyACM0" || port.Baud != 115200 {
		t.Errorf("Unexpected port config %+v", port)
	}
}

func TestLoadReplay(t *testing.T) {
	path := writeConfig(t, `
mode: replay
replay:
  file: capture.wav
  loop: true
plot:
  enabled: true
  width: 80
  precision: 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != ModeReplay || cfg.Replay.File != "capture.wav" || !cfg.Replay.Loop {
		t.Errorf("Replay section not applied: %+v", cfg.Replay)
	}
	if !cfg.Plot.Enabled || cfg.Plot.Width != 80 || cfg.Plot.Precision != 3 {
		t.Errorf("Plot section not applied: %+v", cfg.Plot)
	}
	// Untouched sections keep their defaults
	if cfg.Serial.Baud != 115200 {
		t.Errorf("Expected default baud, got %d", cfg.Serial.Baud)
	}
}

func TestLoadRejects(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want string
	}{
		{"unknown mode", "mode: bluetooth\n", "Config.Mode must be one of"},
		{"narrow plot", "plot:\n  width: 2\n", "Config.Plot.Width must be greater"},
		{"precision too high", "plot:\n  precision: 12\n", "Config.Plot.Precision must be less"},
		{"replay without file", "mode: replay\n", "needs a WAV file"},
		{"serial without device", "serial:\n  device: \"\"\n", "needs a device"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if !errors.Is(err, core.ErrInvalidConfig) {
				t.Fatalf("Expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "mode: [serial\n")); err == nil {
		t.Error("Expected parse error")
	}
}
