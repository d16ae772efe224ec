package boardcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/willcgage/wirelessboard/internal/logstore"
	"go.uber.org/zap"
)

const (
	AppName        = "wirelessboard"
	LegacyAppName  = "micboard"
	ConfigFileName = "config.json"

	DefaultPort     = 8058
	DefaultOTLPPort = 4317

	portEnv       = "WIRELESSBOARD_PORT"
	legacyPortEnv = "MICBOARD_PORT"
)

// Config is the board's persisted configuration, one JSON file per board.
// Every instance carries its own viper, so nothing leaks through package
// globals.
type Config struct {
	v      *viper.Viper
	dir    string
	path   string
	logger *zap.Logger
}

// ResolveDir picks the configuration directory: an explicit override first,
// then an existing wirelessboard directory under the user data path, then a
// legacy micboard directory, and finally a freshly created wirelessboard one.
func ResolveDir(override string, logger *zap.Logger) (string, error) {
	if override != "" {
		if err := os.MkdirAll(override, 0o755); err != nil {
			return "", fmt.Errorf("failed to create config directory: %w", err)
		}
		return override, nil
	}

	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".local", "share")
	}

	preferred := filepath.Join(base, AppName)
	if _, err := os.Stat(preferred); err == nil {
		return preferred, nil
	}
	legacy := filepath.Join(base, LegacyAppName)
	if _, err := os.Stat(legacy); err == nil {
		logger.Info("Reusing legacy configuration directory", zap.String("path", legacy))
		return legacy, nil
	}
	if err := os.MkdirAll(preferred, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return preferred, nil
}

// Load reads the board config from dir, creating it if needed. A board that
// has never run gets a fresh UUID persisted on the spot.
func Load(dir string, logger *zap.Logger) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	v := viper.New()
	v.SetConfigFile(path)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	config := &Config{v: v, dir: dir, path: path, logger: logger}
	if !v.IsSet("uuid") {
		boardID := uuid.NewString()
		v.Set("uuid", boardID)
		logger.Info("Adding UUID to config", zap.String("uuid", boardID))
		if err := v.WriteConfig(); err != nil {
			return nil, fmt.Errorf("failed to write config file %s: %w", path, err)
		}
	}
	return config, nil
}

func (c *Config) Path() string {
	return c.path
}

// BoardID returns the stable identity of this board.
func (c *Config) BoardID() string {
	return c.v.GetString("uuid")
}

// Port returns the HTTP port. Environment overrides win over the config
// file; the legacy variable still works but is called out when used.
func (c *Config) Port() int {
	if value := os.Getenv(portEnv); value != "" {
		if port := parsePort(value); port > 0 {
			return port
		}
		c.logger.Warn("Invalid port in environment, falling back",
			zap.String("variable", portEnv), zap.Int("fallback", DefaultPort))
		return DefaultPort
	}
	if value := os.Getenv(legacyPortEnv); value != "" {
		if port := parsePort(value); port > 0 {
			c.logger.Info("Using legacy MICBOARD_PORT environment variable")
			return port
		}
	}
	if c.v.IsSet("port") {
		if port := c.v.GetInt("port"); port > 0 {
			return port
		}
		c.logger.Warn("Invalid port value in configuration, falling back",
			zap.Int("fallback", DefaultPort))
	}
	return DefaultPort
}

// OTLPPort returns the gRPC port the log ingest listener binds.
func (c *Config) OTLPPort() int {
	if c.v.IsSet("otlp_port") {
		if port := c.v.GetInt("otlp_port"); port > 0 {
			return port
		}
	}
	return DefaultOTLPPort
}

// LogsDir returns the logs directory under the config directory, creating it
// if needed.
func (c *Config) LogsDir() (string, error) {
	dir := filepath.Join(c.dir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}
	return dir, nil
}

// LogFile returns the path of the active log file.
func (c *Config) LogFile() (string, error) {
	dir, err := c.LogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logstore.LogFilename), nil
}

// LoggingSettings reads the stored logging settings, normalized, with
// defaults for anything unset.
func (c *Config) LoggingSettings() logstore.Settings {
	settings := logstore.DefaultSettings()
	if c.v.IsSet("logging.level") {
		settings.Level = logstore.Level(c.v.GetString("logging.level"))
	}
	if c.v.IsSet("logging.console_level") {
		settings.ConsoleLevel = logstore.Level(c.v.GetString("logging.console_level"))
	}
	if c.v.IsSet("logging.max_bytes") {
		settings.MaxBytes = c.v.GetInt64("logging.max_bytes")
	}
	if c.v.IsSet("logging.backups") {
		settings.Backups = c.v.GetInt("logging.backups")
	}
	if c.v.IsSet("logging.levels") {
		for name, level := range c.v.GetStringMapString("logging.levels") {
			settings.Levels[name] = logstore.Level(level)
		}
	}
	return logstore.NormalizeSettings(settings)
}

// SaveLoggingSettings persists the given settings into the config file.
func (c *Config) SaveLoggingSettings(settings logstore.Settings) error {
	levels := make(map[string]string, len(settings.Levels))
	for name, level := range settings.Levels {
		levels[name] = string(level)
	}
	c.v.Set("logging.level", string(settings.Level))
	c.v.Set("logging.console_level", string(settings.ConsoleLevel))
	c.v.Set("logging.levels", levels)
	c.v.Set("logging.max_bytes", settings.MaxBytes)
	c.v.Set("logging.backups", settings.Backups)
	if err := c.v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", c.path, err)
	}
	return nil
}

func parsePort(value string) int {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return port
}
