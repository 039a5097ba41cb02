package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "zoomdeck"

type Config struct {
	Poll     PollConfig     `toml:"poll"`
	Commands CommandsConfig `toml:"commands"`
	Log      LogConfig      `toml:"log"`
	History  HistoryConfig  `toml:"history"`
	Web      WebConfig      `toml:"web"`

	path string
}

type PollConfig struct {
	IntervalMs int `toml:"interval_ms"`
}

// CommandsConfig holds the shell commands used to read and drive Zoom
type CommandsConfig struct {
	Shell     string `toml:"shell"`
	TimeoutMs int    `toml:"timeout_ms"`
	Status    string `toml:"status"`
	Mute      string `toml:"mute"`
	Video     string `toml:"video"`
	Share     string `toml:"share"`
	Focus     string `toml:"focus"`
	Leave     string `toml:"leave"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type HistoryConfig struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

type WebConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// Default configuration
func defaultConfig(configDir string) *Config {
	return &Config{
		Poll: PollConfig{
			IntervalMs: 3000,
		},
		Commands: CommandsConfig{
			Shell:     "/bin/sh",
			TimeoutMs: 5000,
			Status:    StatusScript,
			Mute:      MuteScript,
			Video:     VideoScript,
			Share:     ShareScript,
			Focus:     FocusScript,
			Leave:     LeaveScript,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(configDir, "plugin.log"),
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
		Web: WebConfig{
			Enabled: false,
			Port:    8723,
		},
	}
}

// ConfigDir returns the directory holding config, logs and history,
// creating it if needed
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}

	configDir := filepath.Join(base, appName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// ConfigPath returns the path to the configuration file
func ConfigPath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from the default location
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from the TOML file at path.
// If the file doesn't exist, it creates it with default values.
func LoadFrom(path string) (*Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	cfg.path = path

	// If config doesn't exist, create it with defaults
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		slog.Warn("Ignoring unknown config keys", "keys", undecoded)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Path returns the file the configuration was loaded from
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration back to its TOML file
func (c *Config) Save() error {
	f, err := os.Create(c.path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(c)
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	if c.Poll.IntervalMs <= 0 {
		return fmt.Errorf("poll.interval_ms must be > 0, got %d", c.Poll.IntervalMs)
	}
	if c.Commands.TimeoutMs < 0 {
		return fmt.Errorf("commands.timeout_ms must be >= 0, got %d", c.Commands.TimeoutMs)
	}
	if strings.TrimSpace(c.Commands.Shell) == "" {
		return fmt.Errorf("commands.shell is required")
	}

	commands := map[string]string{
		"status": c.Commands.Status,
		"mute":   c.Commands.Mute,
		"video":  c.Commands.Video,
		"share":  c.Commands.Share,
		"focus":  c.Commands.Focus,
		"leave":  c.Commands.Leave,
	}
	for name, cmd := range commands {
		if strings.TrimSpace(cmd) == "" {
			return fmt.Errorf("commands.%s is required", name)
		}
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days must be >= 0, got %d", c.History.RetentionDays)
	}
	if c.Web.Enabled && (c.Web.Port <= 0 || c.Web.Port > 65535) {
		return fmt.Errorf("web.port out of range: %d", c.Web.Port)
	}

	return nil
}

// PollInterval returns the status poll interval
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMs) * time.Millisecond
}

// CommandTimeout returns the bound on each external command; zero means none
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Commands.TimeoutMs) * time.Millisecond
}

// ParseLevel parses a log level name like "debug" or "warn"
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}
