// Package config loads the JSON settings shared by the martini tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultToolkitBin is the toolkit binary invoked for every child stage.
	DefaultToolkitBin = "mm3d"
	// DefaultExtHom is the homologue extension written by Ratafia in the harness.
	DefaultExtHom = "TestMartini"
	// DefaultReportDir is where martini-report writes its plots.
	DefaultReportDir = "martini-report"
)

// Config holds the settings shared by the driver, the harness and the report tool.
// Named command-line arguments take precedence over file values.
type Config struct {
	ToolkitBin string `json:"toolkit_bin,omitempty"`
	LedgerPath string `json:"ledger_path,omitempty"`
	ExtHom     string `json:"ext_hom,omitempty"`
	ReportDir  string `json:"report_dir,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ToolkitBin: DefaultToolkitBin,
		ExtHom:     DefaultExtHom,
		ReportDir:  DefaultReportDir,
	}
}

// Load reads a Config from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 64 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it is non-empty, otherwise returns Default.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks that the configuration can be used to compose commands.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ToolkitBin) == "" {
		return fmt.Errorf("toolkit_bin must not be empty")
	}
	if c.ExtHom == "" {
		return fmt.Errorf("ext_hom must not be empty")
	}
	if strings.ContainsAny(c.ExtHom, " \t/") {
		return fmt.Errorf("ext_hom %q must not contain whitespace or '/'", c.ExtHom)
	}
	return nil
}
