package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk nutri configuration file.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	Backup   BackupConfig   `yaml:"backup"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	JWTSecret      string   `yaml:"jwt_secret"`
	TokenTTL       string   `yaml:"token_ttl"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type BackupConfig struct {
	Dir string `yaml:"dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			TokenTTL:       "12h",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("NUTRI_DB"); path != "" {
		c.Database.Path = path
	}
	if secret := os.Getenv("NUTRI_JWT_SECRET"); secret != "" {
		c.Server.JWTSecret = secret
	}
}

// TokenTTLDuration returns the session token lifetime, 12h when unset or invalid.
func (c *Config) TokenTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.Server.TokenTTL)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

var validLevels = []string{"debug", "info", "warn", "error"}

func (c *Config) Validate() error {
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level != "" {
		ok := false
		for _, l := range validLevels {
			if level == l {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("invalid logging.level %q (valid: %v)", c.Logging.Level, validLevels)
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid logging.format %q (valid: console, json)", c.Logging.Format)
	}
	if c.Server.TokenTTL != "" {
		if _, err := time.ParseDuration(c.Server.TokenTTL); err != nil {
			return fmt.Errorf("invalid server.token_ttl %q: %w", c.Server.TokenTTL, err)
		}
	}
	return nil
}
