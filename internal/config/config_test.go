package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "echoverse.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "mock", cfg.Auth.Provider)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Player.ProgressInterval)
	assert.Zero(t, cfg.Player.ResolveTimeout, "resolution waits indefinitely by default")
	assert.False(t, cfg.S3.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFrom(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"
format = "pretty"

[storage]
backend = "sqlite"

[sqlite]
path = "/tmp/echo.db"

[s3]
endpoint = "localhost:9000"
bucket = "tracks"

[player]
resolve_timeout = "5s"
repeat = "one"

[rates]
file = "rates.toml"
watch = true
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "pretty", cfg.Log.Format)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/echo.db", cfg.SQLite.Path)
	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, "tracks", cfg.S3.Bucket)
	assert.Equal(t, "us-east-1", cfg.S3.Region, "defaults fill unset fields")
	assert.Equal(t, 5*time.Second, cfg.Player.ResolveTimeout)
	assert.Equal(t, "one", cfg.Player.Repeat)
	assert.Equal(t, "rates.toml", cfg.Rates.File)
	assert.True(t, cfg.Rates.Watch)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[auth]
provider = "mock"
`)
	t.Setenv("ECHOVERSE_AUTH_PROVIDER", "token")
	t.Setenv("ECHOVERSE_AUTH_SECRET", "0123456789abcdef")
	t.Setenv("ECHOVERSE_REDIS_DB", "3")
	t.Setenv("ECHOVERSE_PLAYER_RESOLVE_TIMEOUT", "750ms")
	t.Setenv("ECHOVERSE_SERVER_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.Auth.Provider)
	assert.Equal(t, "0123456789abcdef", cfg.Auth.Secret)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 750*time.Millisecond, cfg.Player.ResolveTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
}

func TestLoadFromRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"log level", "[log]\nlevel = \"loud\""},
		{"backend", "[storage]\nbackend = \"mysql\""},
		{"short secret", "[auth]\nprovider = \"token\"\nsecret = \"short\""},
		{"volume", "[player]\nvolume = 1.5"},
		{"repeat", "[player]\nrepeat = \"shuffle\""},
		{"syntax", "[player\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestIPFSNoLatency(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "[ipfs]\nno_latency = true\nfetch_delay = \"1s\""))
	require.NoError(t, err)

	assert.Zero(t, cfg.IPFS.FetchDelay)
	assert.Zero(t, cfg.IPFS.UploadDelay)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "ECHOVERSE_DOTENV_TEST"
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o644))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv(key))

	t.Setenv(key, "from-env")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv(key), "existing variables win")
}

func TestLoadUsesConfigEnvVar(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfigFile, writeConfig(t, "[server]\naddr = \":9999\""))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}
