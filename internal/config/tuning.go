package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig represents the runtime tuning parameters for lane-sequence
// scoring. Fields are pointers so partial config files only override what
// they name; the Get* methods supply defaults for the rest.
type TuningConfig struct {
	// HistoryWindow is how far back the obstacle feature extractor reads
	// motion history, as a duration string like "5s".
	HistoryWindow *string `json:"history_window,omitempty"`

	// UseTrackedMotion selects the filter-smoothed speed and heading
	// fields over the raw measurements.
	UseTrackedMotion *bool `json:"use_tracked_motion,omitempty"`

	// ModelPath points at the trained model file.
	ModelPath *string `json:"model_path,omitempty"`

	// DatabasePath points at the sqlite score store.
	DatabasePath *string `json:"database_path,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to have a .json extension and to be under the max file size.
// Fields omitted from the JSON file fall back to defaults, so partial
// configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.HistoryWindow != nil && *c.HistoryWindow != "" {
		d, err := time.ParseDuration(*c.HistoryWindow)
		if err != nil {
			return fmt.Errorf("invalid history_window '%s': %w", *c.HistoryWindow, err)
		}
		if d <= 0 {
			return fmt.Errorf("history_window must be positive, got %s", d)
		}
	}
	return nil
}

// GetHistoryWindow parses and returns the HistoryWindow as a time.Duration.
func (c *TuningConfig) GetHistoryWindow() time.Duration {
	if c.HistoryWindow == nil || *c.HistoryWindow == "" {
		return 5 * time.Second // default
	}
	d, err := time.ParseDuration(*c.HistoryWindow)
	if err != nil {
		return 5 * time.Second // default on parse error
	}
	return d
}

// GetUseTrackedMotion returns the use_tracked_motion value or the default.
func (c *TuningConfig) GetUseTrackedMotion() bool {
	if c.UseTrackedMotion == nil {
		return false // default: raw measurements
	}
	return *c.UseTrackedMotion
}

// GetModelPath returns the model_path value or the default.
func (c *TuningConfig) GetModelPath() string {
	if c.ModelPath == nil || *c.ModelPath == "" {
		return "models/fnn_lane_model.bin"
	}
	return *c.ModelPath
}

// GetDatabasePath returns the database_path value or the default.
func (c *TuningConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return "lane_scores.db"
	}
	return *c.DatabasePath
}
