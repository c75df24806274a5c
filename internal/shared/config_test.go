package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./migtrack.db" {
			t.Errorf("expected database path ./migtrack.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Tracker.HeartbeatInterval != 5*time.Second {
			t.Errorf("expected heartbeat interval 5s, got %v", config.Tracker.HeartbeatInterval)
		}

		if config.Notifications.Workers != 4 {
			t.Errorf("expected 4 notification workers, got %d", config.Notifications.Workers)
		}

		if len(config.Notifications.Webhooks) != 0 {
			t.Errorf("expected no default webhooks, got %d", len(config.Notifications.Webhooks))
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[tracker]
catalog_path = "/etc/migtrack/catalog.json"
heartbeat_interval = "2s"

[server]
host = "0.0.0.0"
port = 9090

[[notifications.webhooks]]
name = "team"
url = "https://hooks.example.com/abc"
kind = "slack"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Tracker.CatalogPath != "/etc/migtrack/catalog.json" {
			t.Errorf("expected catalog path /etc/migtrack/catalog.json, got %s", config.Tracker.CatalogPath)
		}

		if config.Tracker.HeartbeatInterval != 2*time.Second {
			t.Errorf("expected heartbeat 2s, got %v", config.Tracker.HeartbeatInterval)
		}

		if config.Server.Addr() != "0.0.0.0:9090" {
			t.Errorf("expected addr 0.0.0.0:9090, got %s", config.Server.Addr())
		}

		if config.Database.Path != "./migtrack.db" {
			t.Errorf("unset keys should keep defaults, got database path %s", config.Database.Path)
		}

		if len(config.Notifications.Webhooks) != 1 || config.Notifications.Webhooks[0].Kind != "slack" {
			t.Errorf("expected one slack webhook, got %+v", config.Notifications.Webhooks)
		}
	})

	t.Run("LoadConfig rejects invalid values", func(t *testing.T) {
		tt := []struct {
			name    string
			content string
		}{
			{name: "bad port", content: "[server]\nport = 70000\n"},
			{name: "webhook without url", content: "[[notifications.webhooks]]\nname = \"x\"\n"},
			{name: "unknown webhook kind", content: "[[notifications.webhooks]]\nname = \"x\"\nurl = \"http://x\"\nkind = \"pager\"\n"},
			{name: "malformed toml", content: "[server\nport = 1"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				configPath := filepath.Join(t.TempDir(), "config.toml")
				if err := os.WriteFile(configPath, []byte(tc.content), 0644); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}

				_, err := LoadConfig(configPath)
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		in   string
		want string
	}{
		{in: "debug", want: "debug"},
		{in: " WARN ", want: "warn"},
		{in: "", want: "info"},
		{in: "verbose", want: "info"},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in).String(); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
