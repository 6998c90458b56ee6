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

		if config.Database.Path != "./sesh.db" {
			t.Errorf("expected database path ./sesh.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.API.RefreshPath != "/api/refresh" {
			t.Errorf("expected refresh path /api/refresh, got %s", config.API.RefreshPath)
		}

		if config.Session.MonitorInterval.Duration != time.Minute {
			t.Errorf("expected monitor interval 1m, got %v", config.Session.MonitorInterval)
		}

		if config.Session.RedirectDelay.Duration != 2*time.Second {
			t.Errorf("expected redirect delay 2s, got %v", config.Session.RedirectDelay)
		}

		if config.Store.Driver != StoreSQLite {
			t.Errorf("expected store driver sqlite, got %s", config.Store.Driver)
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

		testConfig := `[api]
base_url = "https://api.example.com"
request_timeout = "5s"

[session]
refresh_timeout = "3s"
monitor_interval = "15s"

[store]
driver = "redis"

[redis]
addr = "10.0.0.5:6379"
db = 2
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://api.example.com" {
			t.Errorf("expected base url https://api.example.com, got %s", config.API.BaseURL)
		}

		if config.API.RequestTimeout.Duration != 5*time.Second {
			t.Errorf("expected request timeout 5s, got %v", config.API.RequestTimeout)
		}

		if config.Session.MonitorInterval.Duration != 15*time.Second {
			t.Errorf("expected monitor interval 15s, got %v", config.Session.MonitorInterval)
		}

		if config.API.LoginPath != "/api/login" {
			t.Errorf("expected unset login path to keep default, got %s", config.API.LoginPath)
		}

		if config.Redis.Addr != "10.0.0.5:6379" || config.Redis.DB != 2 {
			t.Errorf("unexpected redis config %+v", config.Redis)
		}
	})

	t.Run("LoadConfig rejects invalid values", func(t *testing.T) {
		tt := []struct {
			name string
			body string
		}{
			{name: "relative base url", body: "[api]\nbase_url = \"localhost\"\n"},
			{name: "bad duration", body: "[session]\nrefresh_timeout = \"soon\"\n"},
			{name: "zero monitor interval", body: "[session]\nmonitor_interval = \"0s\"\n"},
			{name: "unknown driver", body: "[store]\ndriver = \"etcd\"\n"},
			{name: "path without slash", body: "[api]\nrefresh_path = \"api/refresh\"\n"},
			{name: "bad log level", body: "[log]\nlevel = \"loud\"\n"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				configPath := filepath.Join(t.TempDir(), "config.toml")
				if err := os.WriteFile(configPath, []byte(tc.body), 0644); err != nil {
					t.Fatalf("failed to write test config: %v", err)
				}

				_, err := LoadConfig(configPath)
				if err == nil {
					t.Fatal("expected error")
				}
				if tc.name != "bad duration" && !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Server Addr", func(t *testing.T) {
		s := ServerConfig{Host: "0.0.0.0", Port: 8080}
		if got := s.Addr(); got != "0.0.0.0:8080" {
			t.Errorf("Addr() = %s, want 0.0.0.0:8080", got)
		}
	})
}
