package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvConfigFile names the environment variable pointing at the config file.
const EnvConfigFile = "ECHOVERSE_CONFIG"

// Load reads configuration from standard locations with environment overrides.
// A .env file in the working directory is loaded first; it never overrides
// variables already set in the environment.
// Search order: $ECHOVERSE_CONFIG, ./echoverse.toml, $XDG_CONFIG_HOME/echoverse/config.toml,
// ~/.config/echoverse/config.toml
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	path := os.Getenv(EnvConfigFile)
	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		cfg := &Config{}
		cfg.ApplyDefaults()
		applyEnvOverrides(cfg)
		return cfg, cfg.Validate()
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, cfg.Validate()
}

// LoadDotEnv loads the given .env files (default ".env"). Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	paths := []string{"echoverse.toml"}

	if home, err := os.UserHomeDir(); err == nil {
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig == "" {
			xdgConfig = filepath.Join(home, ".config")
		}
		paths = append(paths, filepath.Join(xdgConfig, "echoverse", "config.toml"))
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Log
	envString("ECHOVERSE_LOG_LEVEL", &cfg.Log.Level)
	envString("ECHOVERSE_LOG_FORMAT", &cfg.Log.Format)
	envString("ECHOVERSE_LOG_FILE", &cfg.Log.File)

	// Auth
	envString("ECHOVERSE_AUTH_PROVIDER", &cfg.Auth.Provider)
	envString("ECHOVERSE_AUTH_SECRET", &cfg.Auth.Secret)
	envDuration("ECHOVERSE_AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL)

	// Storage
	envString("ECHOVERSE_STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("ECHOVERSE_SQLITE_PATH", &cfg.SQLite.Path)
	envString("ECHOVERSE_REDIS_ADDR", &cfg.Redis.Addr)
	envString("ECHOVERSE_REDIS_PASSWORD", &cfg.Redis.Password)
	if v := os.Getenv("ECHOVERSE_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = i
		}
	}

	// S3
	envString("ECHOVERSE_S3_ENDPOINT", &cfg.S3.Endpoint)
	envString("ECHOVERSE_S3_ACCESS_KEY", &cfg.S3.AccessKey)
	envString("ECHOVERSE_S3_SECRET_KEY", &cfg.S3.SecretKey)
	envString("ECHOVERSE_S3_BUCKET", &cfg.S3.Bucket)
	if v := os.Getenv("ECHOVERSE_S3_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.S3.UseSSL = b
		}
	}

	// IPFS
	envString("ECHOVERSE_IPFS_GATEWAY", &cfg.IPFS.GatewayURL)

	// Rates
	envString("ECHOVERSE_RATES_FILE", &cfg.Rates.File)

	// Player
	envDuration("ECHOVERSE_PLAYER_RESOLVE_TIMEOUT", &cfg.Player.ResolveTimeout)
	envString("ECHOVERSE_PLAYER_REPEAT", &cfg.Player.Repeat)

	// Server
	envString("ECHOVERSE_SERVER_ADDR", &cfg.Server.Addr)
	if v := os.Getenv("ECHOVERSE_SERVER_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
