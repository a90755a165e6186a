package ratetable

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/logger"
	"github.com/echoverse/echoverse/internal/testutil"
)

func TestBuiltin(t *testing.T) {
	table := New(Builtin())

	tests := []struct {
		id   string
		rate domain.Amount
		tier domain.Tier
	}{
		{"song1", 100_000, domain.TierStandard},
		{"song2", 300_000, domain.TierPremium},
		{"song3", 500_000, domain.TierExclusive},
		{"song6", 300_000, domain.TierPremium},
		{"song7", 500_000, domain.TierExclusive},
		{"song8", 100_000, domain.TierStandard},
	}
	for _, tt := range tests {
		entry, ok := table.Lookup(tt.id)
		require.True(t, ok, tt.id)
		assert.Equal(t, tt.rate, entry.Rate, tt.id)
		assert.Equal(t, tt.tier, entry.Tier, tt.id)
	}

	_, ok := table.Lookup("upload-1")
	assert.False(t, ok)
}

func TestReplaceCopies(t *testing.T) {
	src := map[string]domain.RateEntry{"a": {Rate: 1, Tier: domain.TierStandard}}
	table := New(src)
	src["b"] = domain.RateEntry{Rate: 2, Tier: domain.TierPremium}

	_, ok := table.Lookup("b")
	assert.False(t, ok)

	entries := table.Entries()
	delete(entries, "a")
	_, ok = table.Lookup("a")
	assert.True(t, ok)

	table.Replace(nil)
	assert.Empty(t, table.Entries())
}

func TestParse(t *testing.T) {
	entries, err := Parse(`
[tracks.song1]
rate = 0.0002
tier = "PREMIUM"

[tracks.upload-1]
rate = 0.001
tier = "EXCLUSIVE"
`)
	require.NoError(t, err)
	assert.Equal(t, domain.RateEntry{Rate: 200_000, Tier: domain.TierPremium}, entries["song1"])
	assert.Equal(t, domain.RateEntry{Rate: 1_000_000, Tier: domain.TierExclusive}, entries["upload-1"])
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse("[tracks.a]\nrate = 0\ntier = \"STANDARD\"\n")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Parse("[tracks.a]\nrate = 0.1\ntier = \"GOLD\"\n")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Parse("not toml [")
	assert.Error(t, err)

	_, err = Parse("")
	assert.ErrorIs(t, err, domain.ErrValidation, "a truncated file must not clear the table")
}

func TestWatchReloads(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "rates.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tracks.song1]\nrate = 0.0001\ntier = \"STANDARD\"\n"), 0o644))

	var reloads atomic.Int32
	table := New(nil)
	w, err := Watch(context.Background(), logger.NewTestLogger(), table, path,
		OnReload(func(int) { reloads.Add(1) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	entry, ok := table.Lookup("song1")
	require.True(t, ok)
	assert.Equal(t, domain.Amount(100_000), entry.Rate)

	require.NoError(t, os.WriteFile(path, []byte("[tracks.song1]\nrate = 0.0005\ntier = \"EXCLUSIVE\"\n"), 0o644))
	require.Eventually(t, func() bool {
		e, _ := table.Lookup("song1")
		return e.Rate == 500_000
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))

	require.NoError(t, os.WriteFile(path, []byte("garbage ["), 0o644))
	time.Sleep(50 * time.Millisecond)
	e, ok := table.Lookup("song1")
	assert.True(t, ok, "invalid file keeps previous entries")
	assert.Equal(t, domain.TierExclusive, e.Tier)
}

func TestWatchMissingFile(t *testing.T) {
	_, err := Watch(context.Background(), logger.NewTestLogger(), New(nil), filepath.Join(t.TempDir(), "none.toml"))
	assert.Error(t, err)
}
