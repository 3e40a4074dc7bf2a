package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file,
// overlaid with SEGUE_* environment variables.
type Config struct {
	Playback PlaybackConfig `toml:"playback"`
	Backends BackendsConfig `toml:"backends"`
	Database DatabaseConfig `toml:"database"`
}

// PlaybackConfig tunes resolution, ranking and queue behavior.
type PlaybackConfig struct {
	HeadSlice          int      `toml:"head_slice" env:"SEGUE_HEAD_SLICE"`
	MinTracks          int      `toml:"min_tracks" env:"SEGUE_MIN_TRACKS"`
	RestartThresholdMS int      `toml:"restart_threshold_ms" env:"SEGUE_RESTART_THRESHOLD_MS"`
	PreferHighBitrate  bool     `toml:"prefer_high_bitrate" env:"SEGUE_PREFER_HIGH_BITRATE"`
	FillRandom         bool     `toml:"fill_random" env:"SEGUE_FILL_RANDOM"`
	SuppressDuplicates bool     `toml:"suppress_duplicates" env:"SEGUE_SUPPRESS_DUPLICATES"`
	ResolveRate        float64  `toml:"resolve_rate" env:"SEGUE_RESOLVE_RATE"`
	BackendPriority    []string `toml:"backend_priority" env:"SEGUE_BACKEND_PRIORITY" envSeparator:","`
}

// BackendsConfig contains per-backend connection settings.
// Declaration order here is the configured enable order.
type BackendsConfig struct {
	Subsonic SubsonicConfig `toml:"subsonic"`
	Plex     PlexConfig     `toml:"plex"`
}

// SubsonicConfig contains Subsonic-protocol server settings (Navidrome, Airsonic, ...).
type SubsonicConfig struct {
	Enabled  bool   `toml:"enabled" env:"SEGUE_SUBSONIC_ENABLED"`
	URL      string `toml:"url" env:"SEGUE_SUBSONIC_URL"`
	User     string `toml:"user" env:"SEGUE_SUBSONIC_USER"`
	Password string `toml:"password" env:"SEGUE_SUBSONIC_PASS"`
}

// PlexConfig contains Plex media server settings.
type PlexConfig struct {
	Enabled bool   `toml:"enabled" env:"SEGUE_PLEX_ENABLED"`
	URL     string `toml:"url" env:"SEGUE_PLEX_URL"`
	Token   string `toml:"token" env:"SEGUE_PLEX_TOKEN"`
	Section string `toml:"section" env:"SEGUE_PLEX_SECTION"`
}

// DatabaseConfig contains track-cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"SEGUE_DB_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path,
// then applies environment variable overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded
// example config, with environment variable overrides applied.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	if err := env.Parse(&config); err != nil {
		panic(fmt.Sprintf("failed to apply environment overrides: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidArgument)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// EnabledBackends returns the names of enabled backends in configured enable order.
func (c *Config) EnabledBackends() []string {
	var names []string
	if c.Backends.Subsonic.Enabled {
		names = append(names, "subsonic")
	}
	if c.Backends.Plex.Enabled {
		names = append(names, "plex")
	}
	return names
}

// Validate checks that the configuration can drive a session: at least one backend
// enabled, each enabled backend fully specified.
func (c *Config) Validate() error {
	if len(c.EnabledBackends()) == 0 {
		return ErrNoBackends
	}
	if s := c.Backends.Subsonic; s.Enabled {
		if s.URL == "" || s.User == "" || s.Password == "" {
			return fmt.Errorf("%w: subsonic requires url, user and password", ErrMissingCredentials)
		}
	}
	if p := c.Backends.Plex; p.Enabled {
		if p.URL == "" || p.Token == "" {
			return fmt.Errorf("%w: plex requires url and token", ErrMissingCredentials)
		}
	}
	if c.Playback.HeadSlice < 1 {
		return fmt.Errorf("%w: head_slice must be at least 1", ErrInvalidConfig)
	}
	return nil
}
