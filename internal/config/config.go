// Package config assembles server settings from defaults, an optional
// YAML config file, a .env file, and environment variables, in
// increasing precedence. Command-line flags are layered on top by main.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment variable this server reads.
const EnvPrefix = "GOOGLE_SHEETS_MCP_"

const (
	defaultCredentialsPath = "~/.config/google_sheets_mcp/google-sheets-mcp.json"
	defaultTokenPath       = "~/.config/google_sheets_mcp/token.json"
	defaultHost            = "127.0.0.1"
	defaultPort            = 8000
	defaultLogLevel        = "INFO"
	defaultRatePerMinute   = 60
)

// Settings holds the server configuration. Paths are fully expanded once
// Load returns.
type Settings struct {
	// ServiceAccountPath points at a service account key. Empty means
	// user OAuth.
	ServiceAccountPath string `yaml:"service_account_path"`

	// CredentialsPath points at the OAuth client secrets file.
	CredentialsPath string `yaml:"credentials_path"`

	// TokenPath is where the user token is cached.
	TokenPath string `yaml:"token_path"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// RatePerMinute caps outgoing Sheets API calls.
	RatePerMinute int `yaml:"rate_limit"`

	// MetadataCacheTTL bounds how long sheet metadata is served from cache,
	// as a Go duration string. Empty means the client default.
	MetadataCacheTTL string `yaml:"metadata_cache_ttl"`
}

func defaults() Settings {
	return Settings{
		CredentialsPath: defaultCredentialsPath,
		TokenPath:       defaultTokenPath,
		Host:            defaultHost,
		Port:            defaultPort,
		LogLevel:        defaultLogLevel,
		RatePerMinute:   defaultRatePerMinute,
	}
}

// Load builds the settings. A missing config file or .env file is fine;
// a malformed one is not.
func Load(logger *logrus.Logger) (*Settings, error) {
	// godotenv fills in blanks without clobbering real environment
	// variables, so exported values still win.
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment variables from .env file")
	}

	s := defaults()

	if err := s.applyFile(logger, configFilePath()); err != nil {
		return nil, err
	}
	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	if err := s.expandPaths(); err != nil {
		return nil, err
	}
	return &s, nil
}

// configFilePath honours an explicit override before falling back to the
// conventional location.
func configFilePath() string {
	if custom := os.Getenv(EnvPrefix + "CONFIG"); custom != "" {
		return custom
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "google_sheets_mcp", "config.yaml")
}

func (s *Settings) applyFile(logger *logrus.Logger, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	logger.WithField("path", path).Debug("Loaded config file")
	return nil
}

func (s *Settings) applyEnv() error {
	if v := os.Getenv(EnvPrefix + "GOOGLE_SERVICE_ACCOUNT_PATH"); v != "" {
		s.ServiceAccountPath = v
	}
	if v := os.Getenv(EnvPrefix + "GOOGLE_CREDENTIALS_PATH"); v != "" {
		s.CredentialsPath = v
	}
	if v := os.Getenv(EnvPrefix + "GOOGLE_TOKEN_PATH"); v != "" {
		s.TokenPath = v
	}
	if v := os.Getenv(EnvPrefix + "HOST"); v != "" {
		s.Host = v
	}
	if v := os.Getenv(EnvPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT value %q: %w", EnvPrefix, v, err)
		}
		s.Port = port
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv(EnvPrefix + "RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return fmt.Errorf("invalid %sRATE_LIMIT value %q: must be a positive integer", EnvPrefix, v)
		}
		s.RatePerMinute = limit
	}
	if v := os.Getenv(EnvPrefix + "METADATA_CACHE_TTL"); v != "" {
		s.MetadataCacheTTL = v
	}
	return nil
}

func (s *Settings) expandPaths() error {
	var err error
	if s.ServiceAccountPath, err = ExpandPath(s.ServiceAccountPath); err != nil {
		return err
	}
	if s.CredentialsPath, err = ExpandPath(s.CredentialsPath); err != nil {
		return err
	}
	if s.TokenPath, err = ExpandPath(s.TokenPath); err != nil {
		return err
	}
	return nil
}

// MetadataTTL parses MetadataCacheTTL, warning and falling back to zero,
// which the client treats as its default, for values time.ParseDuration
// does not recognise.
func (s *Settings) MetadataTTL(logger *logrus.Logger) time.Duration {
	if s.MetadataCacheTTL == "" {
		return 0
	}
	ttl, err := time.ParseDuration(s.MetadataCacheTTL)
	if err != nil || ttl <= 0 {
		logger.WithField("metadata_cache_ttl", s.MetadataCacheTTL).Warn("Invalid metadata cache TTL, using default")
		return 0
	}
	return ttl
}

// Level parses LogLevel, warning and falling back to info for values
// logrus does not recognise.
func (s *Settings) Level(logger *logrus.Logger) logrus.Level {
	level, err := logrus.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil {
		logger.WithField("log_level", s.LogLevel).Warn("Unknown log level, defaulting to info")
		return logrus.InfoLevel
	}
	return level
}

// ExpandPath resolves a leading ~ against the user's home directory.
// Paths without one pass through unchanged.
func ExpandPath(path string) (string, error) {
	if path == "" || !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:]), nil
	}
	// ~user syntax is not supported; leave it for the filesystem to reject.
	return path, nil
}
