package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/datebook/internal/event"
	"github.com/pfrederiksen/datebook/internal/logger"
	"github.com/pfrederiksen/datebook/internal/storage"
)

// Environment variables consulted by Load.
const (
	EnvConfig      = "DATEBOOK_CONFIG"
	EnvDataFile    = "DATEBOOK_DATA_FILE"
	EnvHorizonDays = "DATEBOOK_HORIZON_DAYS"
	EnvLogLevel    = "DATEBOOK_LOG_LEVEL"
)

// Config is the effective application configuration.
type Config struct {
	// DataFile is the JSON event file.
	DataFile string `yaml:"data_file"`

	// HorizonDays is the length of the reminder window after today.
	HorizonDays int `yaml:"horizon_days"`

	LogLevel string `yaml:"log_level"`

	// LogFile receives log lines instead of stderr when set.
	LogFile string `yaml:"log_file"`

	Color         bool `yaml:"color"`
	ConfirmDelete bool `yaml:"confirm_delete"`

	// Watch makes the interactive view reload when the data file changes
	// outside the program.
	Watch bool `yaml:"watch"`
}

// Flags holds command-line overrides. Nil fields were not given.
type Flags struct {
	DataFile    *string
	HorizonDays *int
	LogLevel    *string
	NoColor     bool
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataFile:      defaultDataFile(),
		HorizonDays:   event.DefaultHorizonDays,
		LogLevel:      "warn",
		Color:         true,
		ConfirmDelete: true,
		Watch:         true,
	}
}

// DefaultPath returns the config file location, honouring DATEBOOK_CONFIG.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return ExpandPath(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "datebook", "config.yaml")
	}
	return filepath.Join(home, ".config", "datebook", "config.yaml")
}

func defaultDataFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return storage.DefaultFileName
	}
	return filepath.Join(home, ".local", "share", "datebook", storage.DefaultFileName)
}

// Load builds the configuration with priority flags > env > file > defaults.
// A missing file at path is not an error; an empty path means DefaultPath.
func Load(path string, flags Flags) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	if err := cfg.loadFile(ExpandPath(path)); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyFlags(flags)

	cfg.DataFile = ExpandPath(cfg.DataFile)
	cfg.LogFile = ExpandPath(cfg.LogFile)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no config file, using defaults", logger.Fields{"path": path})
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDataFile); v != "" {
		c.DataFile = v
	}
	if v := os.Getenv(EnvHorizonDays); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvHorizonDays, err)
		}
		c.HorizonDays = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

func (c *Config) applyFlags(f Flags) {
	if f.DataFile != nil && *f.DataFile != "" {
		c.DataFile = *f.DataFile
	}
	if f.HorizonDays != nil {
		c.HorizonDays = *f.HorizonDays
	}
	if f.LogLevel != nil && *f.LogLevel != "" {
		c.LogLevel = *f.LogLevel
	}
	if f.NoColor {
		c.Color = false
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataFile) == "" {
		return errors.New("data_file must not be empty")
	}
	if c.HorizonDays < 0 {
		return fmt.Errorf("horizon_days must be >= 0, got %d", c.HorizonDays)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Level returns the parsed log level. Validate has already rejected bad
// values, so an error here falls back to WARN.
func (c *Config) Level() logger.Level {
	lvl, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LevelWarn
	}
	return lvl
}

// YAML renders the configuration as it would appear in the config file.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// WriteDefault creates the config file at path with default values. It does
// nothing and reports false when the file already exists.
func WriteDefault(path string) (bool, error) {
	path = ExpandPath(path)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	data, err := Default().YAML()
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("writing config: %w", err)
	}
	logger.Info("config file created", logger.Fields{"path": path})
	return true, nil
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
