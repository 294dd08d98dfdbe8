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

		if config.Database.Path != "./cinematch.db" {
			t.Errorf("expected database path ./cinematch.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Credentials.TMDB.BaseURL != "https://api.themoviedb.org/3" {
			t.Errorf("unexpected tmdb base url %s", config.Credentials.TMDB.BaseURL)
		}

		if config.Credentials.TMDB.ImageBaseURL != "https://image.tmdb.org/t/p/w200" {
			t.Errorf("unexpected image base url %s", config.Credentials.TMDB.ImageBaseURL)
		}

		if config.Store.Driver != "sqlite" || config.Auth.Provider != "google" {
			t.Errorf("unexpected defaults: store=%s auth=%s", config.Store.Driver, config.Auth.Provider)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("Validate redirect_uri", func(t *testing.T) {
		tests := []struct {
			name     string
			provider string
			redirect string
			port     int
			wantErr  bool
		}{
			{"matching port", "google", "http://127.0.0.1:3000/callback", 3000, false},
			{"empty redirect", "google", "", 3000, false},
			{"default http port", "google", "http://localhost/callback", 80, false},
			{"port mismatch", "google", "http://127.0.0.1:8080/callback", 3000, true},
			{"implicit port mismatch", "google", "http://localhost/callback", 3000, true},
			{"relative uri", "google", "/callback", 3000, true},
			{"dev provider ignores redirect", "dev", "http://127.0.0.1:8080/callback", 3000, false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				config.Auth.Provider = tt.provider
				config.Credentials.Google.RedirectURI = tt.redirect
				config.Server.Port = tt.port

				err := config.Validate()
				if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				if !tt.wantErr && err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			})
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[credentials.tmdb]
access_token = "tmdb_token"

[store]
driver = "mongo"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}
		if config.Credentials.TMDB.AccessToken != "tmdb_token" {
			t.Errorf("expected tmdb token, got %s", config.Credentials.TMDB.AccessToken)
		}
		if config.Store.Driver != "mongo" {
			t.Errorf("expected mongo driver, got %s", config.Store.Driver)
		}
		if config.Credentials.TMDB.BaseURL != "https://api.themoviedb.org/3" {
			t.Errorf("unset keys should keep defaults, got base url %q", config.Credentials.TMDB.BaseURL)
		}
	})

	t.Run("LoadConfig YAML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")

		testConfig := `auth:
  provider: dev
  dev_uid: alice
  timeout: 30s
store:
  driver: memory
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Auth.Provider != "dev" || config.Auth.DevUID != "alice" {
			t.Errorf("unexpected auth config %+v", config.Auth)
		}
		if config.AuthTimeout() != 30*time.Second {
			t.Errorf("expected 30s timeout, got %v", config.AuthTimeout())
		}
		if config.Store.Driver != "memory" {
			t.Errorf("expected memory driver, got %s", config.Store.Driver)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		config.Store.Driver = "redis"
		if err := config.Validate(); !errors.Is(err, ErrUnknownDriver) {
			t.Errorf("expected ErrUnknownDriver, got %v", err)
		}

		config = DefaultConfig()
		config.Auth.Provider = "github"
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("AuthTimeout fallback", func(t *testing.T) {
		config := DefaultConfig()
		config.Auth.Timeout = "soon"
		if config.AuthTimeout() != 2*time.Minute {
			t.Errorf("expected 2m fallback, got %v", config.AuthTimeout())
		}
	})
}

func TestEnv(t *testing.T) {
	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv(EnvTMDBToken, "env_token")
		t.Setenv(EnvStoreDriver, "postgres")
		t.Setenv(EnvDatabaseURL, "postgres://env")

		config := DefaultConfig()
		ApplyEnv(config)

		if config.Credentials.TMDB.AccessToken != "env_token" {
			t.Errorf("expected env token, got %s", config.Credentials.TMDB.AccessToken)
		}
		if config.Store.Driver != "postgres" || config.Store.PostgresURL != "postgres://env" {
			t.Errorf("unexpected store config %+v", config.Store)
		}
		if config.Credentials.Google.ClientID != "your_google_client_id" {
			t.Errorf("unset variables should not override, got %s", config.Credentials.Google.ClientID)
		}
	})

	t.Run("LoadEnv file", func(t *testing.T) {
		t.Setenv(EnvMongoURI, "")
		os.Unsetenv(EnvMongoURI)
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("MONGO_URI=mongodb://from-file:27017\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		config := DefaultConfig()
		if err := LoadEnv(config, envPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Store.MongoURI != "mongodb://from-file:27017" {
			t.Errorf("expected uri from env file, got %s", config.Store.MongoURI)
		}
	})

	t.Run("LoadEnv missing file", func(t *testing.T) {
		config := DefaultConfig()
		if err := LoadEnv(config, filepath.Join(t.TempDir(), "nope.env")); err != nil {
			t.Errorf("missing env file should be ignored, got %v", err)
		}
	})
}
