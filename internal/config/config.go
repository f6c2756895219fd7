package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zhengda-lu/imgtag/internal/utils"
)

// Config holds all imgtag configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database" json:"database"`
	Scan     ScanConfig     `yaml:"scan" json:"scan"`
	Labels   LabelsConfig   `yaml:"labels" json:"labels"`
	Purge    PurgeConfig    `yaml:"purge" json:"purge"`
	Organize OrganizeConfig `yaml:"organize" json:"organize"`
}

// DatabaseConfig selects the catalog backend. An empty path means the
// default location under the data directory.
type DatabaseConfig struct {
	Driver string `yaml:"driver" json:"driver"`
	Path   string `yaml:"path" json:"path"`
}

// ScanConfig controls directory listing and pagination.
type ScanConfig struct {
	BatchSize int      `yaml:"batch_size" json:"batch_size"`
	Order     string   `yaml:"order" json:"order"`
	Exclude   []string `yaml:"exclude" json:"exclude"`
}

type LabelsConfig struct {
	Default    string `yaml:"default" json:"default"`
	UseDefault bool   `yaml:"use_default" json:"use_default"`
}

type PurgeConfig struct {
	Method string `yaml:"method" json:"method"`
}

type OrganizeConfig struct {
	Verify bool `yaml:"verify" json:"verify"`
}

// Environment variables that override the file.
const (
	EnvDBPath       = "IMGTAG_DB_PATH"
	EnvDBDriver     = "IMGTAG_DB_DRIVER"
	EnvDefaultLabel = "IMGTAG_DEFAULT_LABEL"
)

// Default returns a Config with all default values populated.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "sqlite"},
		Scan: ScanConfig{
			BatchSize: 100,
			Order:     "name",
			Exclude:   []string{},
		},
		Purge: PurgeConfig{Method: "permanent"},
	}
}

// DefaultPath returns ~/.config/imgtag/config.yaml.
func DefaultPath() string {
	return filepath.Join(utils.ConfigDir(), "config.yaml")
}

// Load loads config from path, or from DefaultPath when path is empty. A
// missing file is created with default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	return LoadFrom(path)
}

// LoadFrom loads and parses config from path. Missing fields keep their
// default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save marshals the config to YAML and writes it to path, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from IMGTAG_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvDBDriver); v != "" {
		c.Database.Driver = v
	}
	if v, ok := os.LookupEnv(EnvDefaultLabel); ok {
		c.Labels.Default = v
		c.Labels.UseDefault = strings.TrimSpace(v) != ""
	}
}

// DatabasePath resolves the catalog file location.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return utils.ExpandHome(c.Database.Path)
	}
	name := "catalog.db"
	if c.Database.Driver == "bolt" {
		name = "catalog.bolt"
	}
	return filepath.Join(utils.DataDir(), name)
}
