package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() unexpected error: %v", err)
	}
}

func TestLoadConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("LoadConfig() did not create the default file: %v", err)
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
[server]
port = "9090"
host = "127.0.0.1"

[music]
library_path = "/srv/music"
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() unexpected error: %v", err)
	}
	if cfg.GetAddress() != "127.0.0.1:9090" {
		t.Errorf("GetAddress() = %s, want 127.0.0.1:9090", cfg.GetAddress())
	}
	if cfg.Music.LibraryPath != "/srv/music" {
		t.Errorf("Music.LibraryPath = %s", cfg.Music.LibraryPath)
	}
	// Untouched sections keep their defaults.
	if cfg.Player.DefaultVolume != 70 {
		t.Errorf("Player.DefaultVolume = %.1f, want 70", cfg.Player.DefaultVolume)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"empty host", func(c *Config) { c.Server.Host = "" }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"empty library path", func(c *Config) { c.Music.LibraryPath = "" }},
		{"empty playlist file", func(c *Config) { c.Music.PlaylistFile = "" }},
		{"volume too high", func(c *Config) { c.Player.DefaultVolume = 150 }},
		{"negative poll interval", func(c *Config) { c.Player.PositionPollMs = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected an error")
			}
		})
	}
}
