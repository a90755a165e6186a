package config

import "time"

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Auth: AuthConfig{
			Provider: "mock",
			Issuer:   "echoverse",
			TokenTTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		SQLite: SQLiteConfig{
			Path: "echoverse.db",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "echoverse:",
		},
		S3: S3Config{
			Region: "us-east-1",
			Bucket: "echoverse",
			Expiry: time.Hour,
		},
		IPFS: IPFSConfig{
			GatewayURL:   "https://ipfs.io/ipfs/",
			ConnectDelay: 500 * time.Millisecond,
			FetchDelay:   300 * time.Millisecond,
			UploadDelay:  1500 * time.Millisecond,
			PinDelay:     800 * time.Millisecond,
		},
		Player: PlayerConfig{
			ProgressInterval: 250 * time.Millisecond,
			Volume:           0.5,
			Repeat:           "all",
			BufferDelay:      300 * time.Millisecond,
			TrackLength:      60 * time.Second,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = d.Log.MaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = d.Log.MaxBackups
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = d.Log.MaxAgeDays
	}

	// Auth
	if c.Auth.Provider == "" {
		c.Auth.Provider = d.Auth.Provider
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = d.Auth.Issuer
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = d.Auth.TokenTTL
	}

	// Storage
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = d.SQLite.Path
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = d.Redis.Addr
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = d.Redis.Prefix
	}

	// S3
	if c.S3.Region == "" {
		c.S3.Region = d.S3.Region
	}
	if c.S3.Bucket == "" {
		c.S3.Bucket = d.S3.Bucket
	}
	if c.S3.Expiry == 0 {
		c.S3.Expiry = d.S3.Expiry
	}

	// IPFS
	if c.IPFS.GatewayURL == "" {
		c.IPFS.GatewayURL = d.IPFS.GatewayURL
	}
	if c.IPFS.NoLatency {
		c.IPFS.ConnectDelay, c.IPFS.FetchDelay, c.IPFS.UploadDelay, c.IPFS.PinDelay = 0, 0, 0, 0
	} else {
		if c.IPFS.ConnectDelay == 0 {
			c.IPFS.ConnectDelay = d.IPFS.ConnectDelay
		}
		if c.IPFS.FetchDelay == 0 {
			c.IPFS.FetchDelay = d.IPFS.FetchDelay
		}
		if c.IPFS.UploadDelay == 0 {
			c.IPFS.UploadDelay = d.IPFS.UploadDelay
		}
		if c.IPFS.PinDelay == 0 {
			c.IPFS.PinDelay = d.IPFS.PinDelay
		}
	}

	// Player
	if c.Player.ProgressInterval == 0 {
		c.Player.ProgressInterval = d.Player.ProgressInterval
	}
	if c.Player.Volume == 0 {
		c.Player.Volume = d.Player.Volume
	}
	if c.Player.Repeat == "" {
		c.Player.Repeat = d.Player.Repeat
	}
	if c.Player.BufferDelay == 0 {
		c.Player.BufferDelay = d.Player.BufferDelay
	}
	if c.Player.TrackLength == 0 {
		c.Player.TrackLength = d.Player.TrackLength
	}

	// Server
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
}
