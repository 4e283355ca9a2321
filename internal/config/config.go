package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Call     CallConfig     `yaml:"call"`
	Contacts ContactsConfig `yaml:"contacts"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// MCP mounts the streamable MCP handler at /mcp.
	MCP bool `yaml:"mcp"`
	// APIToken, when set, is required as a bearer token on every route but
	// /health.
	APIToken string `yaml:"api_token"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string        `yaml:"level"`
	Format string        `yaml:"format"`
	File   string        `yaml:"file"`
	MaxAge time.Duration `yaml:"max_age"`
}

// CallConfig tunes the tracker and the adb device adapter.
type CallConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	VerifyHangUp   bool          `yaml:"verify_hangup"`
	HangUpBackoff  time.Duration `yaml:"hangup_backoff"`
	Timezone       string        `yaml:"timezone"`
	ADBPath        string        `yaml:"adb_path"`
	ADBSerial      string        `yaml:"adb_serial"`
}

type ContactsConfig struct {
	ImportTimeout time.Duration `yaml:"import_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8000,
			MCP:  true,
		},
		DB: DBConfig{
			Path: "data/contacts.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Call: CallConfig{
			PollInterval:   2 * time.Second,
			ProbeTimeout:   3 * time.Second,
			CommandTimeout: 10 * time.Second,
			VerifyHangUp:   true,
			HangUpBackoff:  500 * time.Millisecond,
			Timezone:       "Europe/Paris",
			ADBPath:        "adb",
		},
		Contacts: ContactsConfig{
			ImportTimeout: 2 * time.Minute,
		},
	}
}

// Load reads configuration from an optional YAML file and environment
// variables. An empty path falls back to CALLDESK_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CALLDESK_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the services cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Call.PollInterval < 0 || c.Call.ProbeTimeout < 0 || c.Call.CommandTimeout < 0 || c.Call.HangUpBackoff < 0 {
		return fmt.Errorf("call durations must not be negative")
	}
	if _, err := time.LoadLocation(c.Call.Timezone); err != nil {
		return fmt.Errorf("invalid call timezone %q: %w", c.Call.Timezone, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("CALLDESK_SERVER_HOST", &cfg.Server.Host)
	str("CALLDESK_API_TOKEN", &cfg.Server.APIToken)
	str("CALLDESK_DB_PATH", &cfg.DB.Path)
	str("CALLDESK_LOG_LEVEL", &cfg.Log.Level)
	str("CALLDESK_LOG_FORMAT", &cfg.Log.Format)
	str("CALLDESK_LOG_FILE", &cfg.Log.File)
	str("CALLDESK_TIMEZONE", &cfg.Call.Timezone)
	str("CALLDESK_ADB_PATH", &cfg.Call.ADBPath)
	str("CALLDESK_ADB_SERIAL", &cfg.Call.ADBSerial)

	if portStr := os.Getenv("CALLDESK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid CALLDESK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"CALLDESK_SERVER_MCP", &cfg.Server.MCP},
		{"CALLDESK_VERIFY_HANGUP", &cfg.Call.VerifyHangUp},
	}
	for _, b := range bools {
		if v := os.Getenv(b.key); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", b.key, err)
			}
			*b.dst = parsed
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CALLDESK_POLL_INTERVAL", &cfg.Call.PollInterval},
		{"CALLDESK_PROBE_TIMEOUT", &cfg.Call.ProbeTimeout},
		{"CALLDESK_COMMAND_TIMEOUT", &cfg.Call.CommandTimeout},
		{"CALLDESK_HANGUP_BACKOFF", &cfg.Call.HangUpBackoff},
		{"CALLDESK_IMPORT_TIMEOUT", &cfg.Contacts.ImportTimeout},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
