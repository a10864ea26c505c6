// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   defaults, optional YAML file, and environment variables.
// - External errors are wrapped via this package's sentinel errors.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory play-event queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize bounds the ingest-boundary duplicate cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// PersistenceBackend selects the gateway: "file" or "redis".
	PersistenceBackend string `koanf:"persistence_backend"`

	// DataDir is where the file gateway stores progress and milestone documents.
	DataDir string `koanf:"data_dir"`

	// RedisAddr and RedisKeyPrefix configure the redis gateway.
	RedisAddr      string `koanf:"redis_addr"`
	RedisKeyPrefix string `koanf:"redis_key_prefix"`

	// PersistQuietPeriodMS is the debounce window for streaming persistence.
	PersistQuietPeriodMS int `koanf:"persist_quiet_period_ms"`

	// HistoryDBPath points at the flat listening-history SQLite store
	// consumed by batch backfills.
	HistoryDBPath string `koanf:"history_db_path"`

	// ArtistAliases extends the built-in alias table: raw name -> canonical.
	ArtistAliases map[string]string `koanf:"artist_aliases"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		QueueSize:            10_000,
		DedupeSize:           50_000,
		MaxLeaderboardLimit:  100,
		PersistenceBackend:   "file",
		DataDir:              "data",
		RedisKeyPrefix:       "milestones",
		PersistQuietPeriodMS: 5_000,
		ArtistAliases:        map[string]string{},
	}
}

// PersistQuietPeriod returns the debounce window as a duration.
func (c *Config) PersistQuietPeriod() time.Duration {
	return time.Duration(c.PersistQuietPeriodMS) * time.Millisecond
}
