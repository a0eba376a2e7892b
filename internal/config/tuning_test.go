package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTuningConfig(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{
		"history_window": "3s",
		"use_tracked_motion": true,
		"model_path": "models/custom.bin"
	}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}
	if got := cfg.GetHistoryWindow(); got != 3*time.Second {
		t.Errorf("GetHistoryWindow() = %v, want 3s", got)
	}
	if !cfg.GetUseTrackedMotion() {
		t.Error("GetUseTrackedMotion() = false, want true")
	}
	if got := cfg.GetModelPath(); got != "models/custom.bin" {
		t.Errorf("GetModelPath() = %q", got)
	}
	// Unset field falls back to default.
	if got := cfg.GetDatabasePath(); got != "lane_scores.db" {
		t.Errorf("GetDatabasePath() = %q, want default", got)
	}
}

func TestLoadTuningConfig_PartialConfigIsSafe(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{}`)
	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}
	if got := cfg.GetHistoryWindow(); got != 5*time.Second {
		t.Errorf("GetHistoryWindow() = %v, want default 5s", got)
	}
	if cfg.GetUseTrackedMotion() {
		t.Error("GetUseTrackedMotion() = true, want default false")
	}
}

func TestLoadTuningConfig_RejectsInvalidWindow(t *testing.T) {
	for _, payload := range []string{
		`{"history_window": "soon"}`,
		`{"history_window": "-2s"}`,
	} {
		path := writeConfig(t, "tuning.json", payload)
		if _, err := LoadTuningConfig(path); err == nil {
			t.Errorf("expected error for %s", payload)
		}
	}
}

func TestLoadTuningConfig_RejectsNonJSONExtension(t *testing.T) {
	path := writeConfig(t, "tuning.toml", `{}`)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected error for non-JSON extension")
	}
}

func TestEmptyTuningConfigDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()
	if got := cfg.GetHistoryWindow(); got != 5*time.Second {
		t.Errorf("GetHistoryWindow() = %v, want 5s", got)
	}
	if got := cfg.GetModelPath(); got != "models/fnn_lane_model.bin" {
		t.Errorf("GetModelPath() = %q", got)
	}
}
