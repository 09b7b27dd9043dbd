package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/tasktracker/internal/clierr"
	"github.com/twiced-technology-gmbh/tasktracker/internal/task"
)

const (
	fileMode = 0o600
	dirMode  = 0o750
)

// Sentinel errors.
var (
	ErrNotFound = errors.New("no task store found (run 'tasktracker init' to create one)")
	ErrInvalid  = errors.New("invalid config")
)

// Config represents the store configuration.
type Config struct {
	Version     int            `yaml:"version"`
	Name        string         `yaml:"name"`
	DataFile    string         `yaml:"data_file"`
	Server      ServerConfig   `yaml:"server"`
	Defaults    DefaultsConfig `yaml:"defaults"`
	ActivityLog *bool          `yaml:"activity_log,omitempty"`
	TUI         TUIConfig      `yaml:"tui,omitempty"`

	// dir is the absolute path to the store directory (not serialized).
	dir string `yaml:"-"`
}

// ServerConfig holds settings for the HTTP facade.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultsConfig holds default values for new tasks.
type DefaultsConfig struct {
	Status task.Status `yaml:"status"`
}

// TUIConfig holds TUI-specific display settings.
type TUIConfig struct {
	TitleLines int `yaml:"title_lines,omitempty"`
}

// NewDefault creates a Config with default values.
func NewDefault(name string) *Config {
	return &Config{
		Version:     CurrentVersion,
		Name:        name,
		DataFile:    DefaultDataFile,
		Server:      ServerConfig{Addr: DefaultServerAddr},
		Defaults:    DefaultsConfig{Status: DefaultStatus},
		ActivityLog: boolPtr(true),
		TUI:         TUIConfig{TitleLines: DefaultTitleLines},
	}
}

// Dir returns the absolute path to the store directory.
func (c *Config) Dir() string {
	return c.dir
}

// SetDir sets the store directory path on the config.
func (c *Config) SetDir(dir string) {
	c.dir = dir
}

// ConfigPath returns the absolute path to the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.dir, ConfigFileName)
}

// DataPath returns the absolute path to the data file. A relative data_file
// is resolved against the store directory.
func (c *Config) DataPath() string {
	if filepath.IsAbs(c.DataFile) {
		return c.DataFile
	}
	return filepath.Join(c.dir, c.DataFile)
}

// LogPath returns the absolute path to the activity log.
func (c *Config) LogPath() string {
	return filepath.Join(c.dir, ActivityLogName)
}

// LockPath returns the absolute path to the lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.dir, LockFileName)
}

// LogEnabled reports whether mutations are appended to the activity log.
// An unset value means enabled.
func (c *Config) LogEnabled() bool {
	return c.ActivityLog == nil || *c.ActivityLog
}

// TitleLines returns the configured number of title lines for TUI cards.
// Returns DefaultTitleLines if the value is unset (zero).
func (c *Config) TitleLines() int {
	if c.TUI.TitleLines == 0 {
		return DefaultTitleLines
	}
	return c.TUI.TitleLines
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if c.DataFile == "" {
		return fmt.Errorf("%w: data_file is required", ErrInvalid)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalid)
	}
	if err := task.ValidateStatus(string(c.Defaults.Status)); err != nil {
		return fmt.Errorf("%w: defaults.status: %w", ErrInvalid, err)
	}
	const minTitleLines, maxTitleLines = 1, 3
	if c.TUI.TitleLines < minTitleLines || c.TUI.TitleLines > maxTitleLines {
		return fmt.Errorf("%w: tui.title_lines must be between %d and %d",
			ErrInvalid, minTitleLines, maxTitleLines)
	}
	return nil
}

// Init creates a new store directory in dir with default settings.
func Init(dir, name string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := NewDefault(name)
	cfg.SetDir(absDir)

	if err := os.MkdirAll(absDir, dirMode); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to its config file.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, fileMode)
}

// Load reads and validates a config from the given store directory.
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	path := filepath.Join(absDir, ConfigFileName)
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted source
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.dir = absDir

	// Migrate old config versions forward before validating.
	oldVersion := cfg.Version
	if err := migrate(&cfg); err != nil {
		return nil, err
	}

	// Persist migrated config so future loads skip re-migration.
	if cfg.Version != oldVersion {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("saving migrated config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FindDir walks upward from startDir looking for a store directory
// containing config.yml. Returns the absolute path to the store directory.
func FindDir(startDir string) (string, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	dir := absStart
	for {
		candidate := filepath.Join(dir, DefaultDir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Join(dir, DefaultDir), nil
		}

		// Also check if we're inside the store directory itself.
		candidate = filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", clierr.New(clierr.StoreNotFound, ErrNotFound.Error())
		}
		dir = parent
	}
}

func boolPtr(v bool) *bool { return &v }
