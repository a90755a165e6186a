// Package config loads the echoverse configuration from a TOML file,
// an optional .env file and ECHOVERSE_* environment variables.
package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Auth    AuthConfig    `toml:"auth"`
	Storage StorageConfig `toml:"storage"`
	SQLite  SQLiteConfig  `toml:"sqlite"`
	Redis   RedisConfig   `toml:"redis"`
	S3      S3Config      `toml:"s3"`
	IPFS    IPFSConfig    `toml:"ipfs"`
	Rates   RatesConfig   `toml:"rates"`
	Player  PlayerConfig  `toml:"player"`
	Server  ServerConfig  `toml:"server"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// AuthConfig selects the auth provider variant.
type AuthConfig struct {
	Provider string        `toml:"provider"`
	Secret   string        `toml:"secret"`
	Issuer   string        `toml:"issuer"`
	TokenTTL time.Duration `toml:"token_ttl"`
}

// StorageConfig selects the key-value backend behind playlists and preferences.
type StorageConfig struct {
	Backend string `toml:"backend"`
}

// SQLiteConfig holds the sqlite backend settings.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// RedisConfig holds the redis backend settings.
type RedisConfig struct {
	Addr     string        `toml:"addr"`
	Password string        `toml:"password"`
	DB       int           `toml:"db"`
	Prefix   string        `toml:"prefix"`
	TTL      time.Duration `toml:"ttl"`
}

// S3Config holds the object store settings. s3:// locators are only
// routable when Endpoint is set.
type S3Config struct {
	Endpoint      string        `toml:"endpoint"`
	AccessKey     string        `toml:"access_key"`
	SecretKey     string        `toml:"secret_key"`
	Region        string        `toml:"region"`
	Bucket        string        `toml:"bucket"`
	UseSSL        bool          `toml:"use_ssl"`
	Expiry        time.Duration `toml:"expiry"`
	VerifyObjects bool          `toml:"verify_objects"`
}

// Enabled reports whether an object store is configured.
func (c S3Config) Enabled() bool { return c.Endpoint != "" }

// IPFSConfig holds the simulated IPFS gateway settings.
type IPFSConfig struct {
	GatewayURL   string        `toml:"gateway_url"`
	NoLatency    bool          `toml:"no_latency"`
	ConnectDelay time.Duration `toml:"connect_delay"`
	FetchDelay   time.Duration `toml:"fetch_delay"`
	UploadDelay  time.Duration `toml:"upload_delay"`
	PinDelay     time.Duration `toml:"pin_delay"`
}

// RatesConfig points at an optional rate file. Without one the builtin tiers apply.
type RatesConfig struct {
	File  string `toml:"file"`
	Watch bool   `toml:"watch"`
}

// PlayerConfig holds playback defaults.
type PlayerConfig struct {
	// ResolveTimeout bounds locator resolution; zero waits indefinitely.
	ResolveTimeout   time.Duration `toml:"resolve_timeout"`
	ProgressInterval time.Duration `toml:"progress_interval"`
	Volume           float64       `toml:"volume"`
	Repeat           string        `toml:"repeat"`

	// BufferDelay and TrackLength drive the simulated media engine.
	BufferDelay time.Duration `toml:"buffer_delay"`
	TrackLength time.Duration `toml:"track_length"`
}

// ServerConfig holds the HTTP shell settings.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	AllowedOrigins  []string      `toml:"allowed_origins"`
}
