package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "butaca.db" {
			t.Errorf("expected database path butaca.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 8484 {
			t.Errorf("expected server port 8484, got %d", config.Server.Port)
		}
		if config.Catalog.URL != "https://api.themoviedb.org/3" {
			t.Errorf("unexpected catalog URL %s", config.Catalog.URL)
		}
		if config.Catalog.Language != "en-US" {
			t.Errorf("unexpected catalog language %s", config.Catalog.Language)
		}
	})

	t.Run("RedirectURL", func(t *testing.T) {
		server := ServerConfig{Host: "127.0.0.1", Port: 8484}
		want := "http://127.0.0.1:8484/approved"
		if got := server.RedirectURL(); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

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
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Error("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[backend]
url = "http://localhost:9999/api"
jwt_secret = "secret"

[catalog]
url = "https://catalog.example.com/3"
app_key = "app-key"
rate_limit = 2.5

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatal(err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.Backend.JWTSecret != "secret" {
			t.Errorf("unexpected jwt secret %q", config.Backend.JWTSecret)
		}
		if config.Catalog.RateLimit != 2.5 {
			t.Errorf("unexpected rate limit %v", config.Catalog.RateLimit)
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("unexpected database path %s", config.Database.Path)
		}

		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("SaveConfig roundtrip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		config := DefaultConfig()
		config.Catalog.AppKey = "app-key"
		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Catalog.AppKey != "app-key" {
			t.Errorf("app key did not survive the roundtrip, got %q", loaded.Catalog.AppKey)
		}
	})
}
