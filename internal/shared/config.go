package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Tracker       TrackerConfig      `toml:"tracker"`
	Database      DatabaseConfig     `toml:"database"`
	Server        ServerConfig       `toml:"server"`
	Notifications NotificationConfig `toml:"notifications"`
	Report        ReportConfig       `toml:"report"`
	Log           LogConfig          `toml:"log"`
}

// TrackerConfig contains catalog and broadcast settings.
type TrackerConfig struct {
	CatalogPath       string        `toml:"catalog_path"`
	HeartbeatInterval time.Duration `toml:"heartbeat_interval"`
	SubscriberBuffer  int           `toml:"subscriber_buffer"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BaseURL returns the http URL clients use to reach the server.
func (s ServerConfig) BaseURL() string {
	return "http://" + s.Addr()
}

// NotificationConfig contains dispatcher and sender settings.
type NotificationConfig struct {
	Workers     int             `toml:"workers"`
	QueueSize   int             `toml:"queue_size"`
	SendTimeout time.Duration   `toml:"send_timeout"`
	RateLimit   float64         `toml:"rate_limit"`
	LogEvents   bool            `toml:"log_events"`
	Webhooks    []WebhookConfig `toml:"webhooks"`
}

// WebhookConfig describes one outbound webhook target.
type WebhookConfig struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
	Kind string `toml:"kind"` // generic, slack or discord
}

// ReportConfig contains durable report settings.
type ReportConfig struct {
	OutputPath string `toml:"output_path"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports settings that would leave the tracker unusable.
func (c *Config) Validate() error {
	if c.Tracker.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: tracker.heartbeat_interval must be positive", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	for _, wh := range c.Notifications.Webhooks {
		if wh.URL == "" {
			return fmt.Errorf("%w: webhook %q has no url", ErrInvalidConfig, wh.Name)
		}
		switch wh.Kind {
		case "", "generic", "slack", "discord":
		default:
			return fmt.Errorf("%w: webhook %q has unknown kind %q", ErrInvalidConfig, wh.Name, wh.Kind)
		}
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
