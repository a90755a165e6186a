package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultConfigHonorsEnv(t *testing.T) {
	t.Setenv(EnvLevel, "DEBUG")
	assert.Equal(t, slog.LevelDebug, DefaultConfig().Level)

	t.Setenv(EnvLevel, "nonsense")
	assert.Equal(t, slog.LevelInfo, DefaultConfig().Level)
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log, closer := newLogger(Config{Level: slog.LevelInfo, Format: "json"}, &buf)
	defer closer.Close()

	log.Debug("hidden")
	log.With(slog.String("service", "playback")).Info("track started", slog.String("track_id", "song1"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "track started", rec["msg"])
	assert.Equal(t, "playback", rec["service"])
	assert.Equal(t, "song1", rec["track_id"])
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	log, closer := newLogger(Config{Level: slog.LevelInfo, Format: "pretty"}, &buf)
	defer closer.Close()

	log.Info("accrual tick", slog.String("total", "0.000300 ETH"))
	assert.Contains(t, buf.String(), "accrual tick")
	assert.Contains(t, buf.String(), "0.000300 ETH")
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echoverse.log")
	var buf bytes.Buffer
	log, closer := newLogger(Config{Level: slog.LevelInfo, Format: "text", File: path, MaxSizeMB: 1}, &buf)

	log.Warn("resolve failed", slog.String("locator", "ipfs://Qm404"))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"locator":"ipfs://Qm404"`)
	assert.Contains(t, buf.String(), "resolve failed")
}
