package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./segue.db" {
			t.Errorf("expected database path ./segue.db, got %s", config.Database.Path)
		}

		if config.Playback.HeadSlice != 2 {
			t.Errorf("expected head_slice 2, got %d", config.Playback.HeadSlice)
		}

		if config.Playback.MinTracks != 50 {
			t.Errorf("expected min_tracks 50, got %d", config.Playback.MinTracks)
		}

		if config.Playback.RestartThresholdMS != 5000 {
			t.Errorf("expected restart_threshold_ms 5000, got %d", config.Playback.RestartThresholdMS)
		}

		if config.Backends.Subsonic.Enabled || config.Backends.Plex.Enabled {
			t.Error("no backend should be enabled by default")
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

		testConfig := `[playback]
head_slice = 3
min_tracks = 25
restart_threshold_ms = 4000
prefer_high_bitrate = true
backend_priority = ["plex", "subsonic"]

[backends.subsonic]
enabled = true
url = "http://music.local:4533"
user = "listener"
password = "hunter2"

[backends.plex]
enabled = true
url = "http://plex.local:32400"
token = "abc123"
section = "3"

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10
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

		if config.Playback.HeadSlice != 3 {
			t.Errorf("expected head_slice 3, got %d", config.Playback.HeadSlice)
		}

		if !config.Playback.PreferHighBitrate {
			t.Error("expected prefer_high_bitrate true")
		}

		if len(config.Playback.BackendPriority) != 2 || config.Playback.BackendPriority[0] != "plex" {
			t.Errorf("unexpected backend_priority: %v", config.Playback.BackendPriority)
		}

		if got := config.EnabledBackends(); len(got) != 2 || got[0] != "subsonic" || got[1] != "plex" {
			t.Errorf("unexpected enabled backends: %v", got)
		}
	})

	t.Run("Environment Overrides", func(t *testing.T) {
		t.Setenv("SEGUE_SUBSONIC_ENABLED", "true")
		t.Setenv("SEGUE_SUBSONIC_URL", "http://override.local:4533")
		t.Setenv("SEGUE_SUBSONIC_USER", "env-user")
		t.Setenv("SEGUE_SUBSONIC_PASS", "env-pass")
		t.Setenv("SEGUE_MIN_TRACKS", "10")

		config := DefaultConfig()

		if !config.Backends.Subsonic.Enabled {
			t.Error("expected subsonic enabled via environment")
		}
		if config.Backends.Subsonic.URL != "http://override.local:4533" {
			t.Errorf("expected env URL override, got %s", config.Backends.Subsonic.URL)
		}
		if config.Playback.MinTracks != 10 {
			t.Errorf("expected min_tracks 10 from env, got %d", config.Playback.MinTracks)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()

		if err := config.Validate(); !errors.Is(err, ErrNoBackends) {
			t.Errorf("expected ErrNoBackends with no enabled backend, got %v", err)
		}

		config.Backends.Plex.Enabled = true
		config.Backends.Plex.URL = "http://plex.local:32400"
		config.Backends.Plex.Token = ""
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials for tokenless plex, got %v", err)
		}

		config.Backends.Plex.Token = "abc123"
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})
}
