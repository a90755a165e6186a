// Package ratetable provides the per-track rate table used by the accrual meter.
// Tables come from the built-in tiers or a TOML file, which can be hot reloaded.
package ratetable

import (
	"fmt"
	"maps"
	"sync/atomic"

	"github.com/BurntSushi/toml"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// Builtin returns the tiers of the built-in catalog.
func Builtin() map[string]domain.RateEntry {
	standard := domain.RateEntry{Rate: domain.ETH(0.0001), Tier: domain.TierStandard}
	premium := domain.RateEntry{Rate: domain.ETH(0.0003), Tier: domain.TierPremium}
	exclusive := domain.RateEntry{Rate: domain.ETH(0.0005), Tier: domain.TierExclusive}

	return map[string]domain.RateEntry{
		"song1": standard,
		"song2": premium,
		"song3": exclusive,
		"song4": standard,
		"song5": standard,
		"song6": premium,
		"song7": exclusive,
		"song8": standard,
	}
}

// Table is a concurrent, swappable rate table. Lookups never block.
type Table struct {
	entries atomic.Pointer[map[string]domain.RateEntry]
}

// New creates a table holding a copy of entries.
func New(entries map[string]domain.RateEntry) *Table {
	t := &Table{}
	t.Replace(entries)
	return t
}

// Lookup implements ports.RateTable.
func (t *Table) Lookup(trackID string) (domain.RateEntry, bool) {
	entry, ok := (*t.entries.Load())[trackID]
	return entry, ok
}

// Replace swaps in a copy of entries.
func (t *Table) Replace(entries map[string]domain.RateEntry) {
	m := maps.Clone(entries)
	if m == nil {
		m = map[string]domain.RateEntry{}
	}
	t.entries.Store(&m)
}

// Entries returns a copy of the current entries.
func (t *Table) Entries() map[string]domain.RateEntry {
	return maps.Clone(*t.entries.Load())
}

// fileEntry is one [tracks.<id>] table of a rate file.
type fileEntry struct {
	Rate float64 `toml:"rate"`
	Tier string  `toml:"tier"`
}

type file struct {
	Tracks map[string]fileEntry `toml:"tracks"`
}

// LoadFile parses a rate file:
//
//	[tracks.song1]
//	rate = 0.0001   # ETH per second
//	tier = "STANDARD"
func LoadFile(path string) (map[string]domain.RateEntry, error) {
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode rate file %s: %w", path, err)
	}
	return parse(f)
}

// Parse parses rate file content.
func Parse(data string) (map[string]domain.RateEntry, error) {
	var f file
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	return parse(f)
}

func parse(f file) (map[string]domain.RateEntry, error) {
	if len(f.Tracks) == 0 {
		return nil, domain.NewValidationError("tracks", nil, "rate file lists no tracks")
	}
	out := make(map[string]domain.RateEntry, len(f.Tracks))
	for id, e := range f.Tracks {
		rate := domain.ETH(e.Rate)
		if rate <= 0 {
			return nil, domain.NewValidationError("tracks."+id+".rate", e.Rate, "must be positive")
		}
		tier := domain.Tier(e.Tier)
		if !tier.Valid() {
			return nil, domain.NewValidationError("tracks."+id+".tier", e.Tier, "must be STANDARD, PREMIUM or EXCLUSIVE")
		}
		out[id] = domain.RateEntry{Rate: rate, Tier: tier}
	}
	return out, nil
}

var _ ports.RateTable = (*Table)(nil)
