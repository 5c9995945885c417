// Package config loads the capture configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CaptureConfig holds startup configuration for the d300stream binary.
// Fields are pointers so that values omitted from the JSON file fall back
// to defaults via the Get* accessors; partial configs are safe.
type CaptureConfig struct {
	// Transport params
	PortPath *string `json:"port_path,omitempty"`
	BaudRate *int    `json:"baud_rate,omitempty"`

	// Aggregation params
	RotationsPerBatch *int `json:"rotations_per_batch,omitempty"`

	// Output params
	DBPath     *string `json:"db_path,omitempty"`
	CaptureDir *string `json:"capture_dir,omitempty"`

	// Logging params
	LogInterval *string `json:"log_interval,omitempty"` // duration string like "5s"
}

// LoadCaptureConfig loads a CaptureConfig from a JSON file. The file must
// have a .json extension and stay under the max file size.
func LoadCaptureConfig(path string) (*CaptureConfig, error) {
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

	cfg := &CaptureConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *CaptureConfig) Validate() error {
	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}

	if c.RotationsPerBatch != nil && *c.RotationsPerBatch < 1 {
		return fmt.Errorf("rotations_per_batch must be at least 1, got %d", *c.RotationsPerBatch)
	}

	if c.LogInterval != nil && *c.LogInterval != "" {
		if _, err := time.ParseDuration(*c.LogInterval); err != nil {
			return fmt.Errorf("invalid log_interval '%s': %w", *c.LogInterval, err)
		}
	}

	return nil
}

// GetPortPath returns the port_path value or the default.
func (c *CaptureConfig) GetPortPath() string {
	if c.PortPath == nil || *c.PortPath == "" {
		return "/dev/ttyUSB0"
	}
	return *c.PortPath
}

// GetBaudRate returns the baud_rate value or the D300 default.
func (c *CaptureConfig) GetBaudRate() int {
	if c.BaudRate == nil {
		return 230400
	}
	return *c.BaudRate
}

// GetRotationsPerBatch returns the rotations_per_batch value or the default.
func (c *CaptureConfig) GetRotationsPerBatch() int {
	if c.RotationsPerBatch == nil {
		return 1
	}
	return *c.RotationsPerBatch
}

// GetDBPath returns the db_path value; empty means persistence disabled.
func (c *CaptureConfig) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// GetCaptureDir returns the capture_dir value; empty means recording
// disabled.
func (c *CaptureConfig) GetCaptureDir() string {
	if c.CaptureDir == nil {
		return ""
	}
	return *c.CaptureDir
}

// GetLogInterval parses and returns the log_interval as a time.Duration.
func (c *CaptureConfig) GetLogInterval() time.Duration {
	if c.LogInterval == nil || *c.LogInterval == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(*c.LogInterval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
