// Package catalog holds the built-in song catalog shown on the home and library pages.
package catalog

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/echoverse/echoverse/internal/domain"
)

// CoverLocator returns the placeholder artwork locator for a title.
func CoverLocator(title string) string {
	return "/placeholder.svg?height=300&width=300&text=" + url.QueryEscape(title)
}

func song(id, title, artist, album string, seconds int, cid string) domain.Track {
	return domain.Track{
		ID:           id,
		Title:        title,
		Artist:       artist,
		Album:        album,
		Duration:     time.Duration(seconds) * time.Second,
		CoverLocator: CoverLocator(title),
		AudioLocator: "ipfs://" + cid,
	}
}

var featured = []domain.Track{
	song("song1", "Midnight Serenade", "Luna Echo", "Moonlight Sonatas", 237, "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"),
	song("song2", "Electric Dreams", "Neon Pulse", "Synthwave Nights", 198, "QmZTR5bcpQD7cFgTorqxZDYaew1Wqgfbd2ud9QqGPAkK2V"),
	song("song3", "Ocean Waves", "Coastal Vibes", "Seaside Sessions", 264, "QmSgvgwxZGaBLqkGyWemEDqikCqU52XxsYLKtdy3vGZ8uq"),
	song("song4", "Mountain High", "Alpine Echoes", "Summit Sounds", 215, "QmPChd2hVbrJ6bfo3WBcTW4iZnpHm8TEzWkLHmLpXhF68A"),
}

var newReleases = []domain.Track{
	song("song5", "Urban Jungle", "City Beats", "Metropolitan", 183, "QmTDMoVqvyBkNMRhzvukTDznntByUNDwyNdSfV8dZ3VKRC"),
	song("song6", "Desert Wind", "Sahara Sound", "Oasis", 227, "QmPCawMTd7csXKf7QVrAFbHGiLPPn3qcjNBg1g6gWHkF3m"),
	song("song7", "Neon Lights", "Cyber Punk", "Digital Dreams", 192, "QmTkzDwWqPbnAh5YiV5VwcTLnGdwSNsNTn2aDxdXBFca7D"),
	song("song8", "Rainy Day", "Melancholy Mood", "Umbrella Sessions", 245, "QmbtFKnBuyUmRoFAoxEJxqZBCTamYeGnZ4MrHCLehWkHre"),
}

// Featured returns the featured songs.
func Featured() []domain.Track { return slices.Clone(featured) }

// NewReleases returns the new releases.
func NewReleases() []domain.Track { return slices.Clone(newReleases) }

// Library returns every catalog song, featured first.
func Library() []domain.Track { return slices.Concat(featured, newReleases) }

// Find returns the catalog song with the given id.
func Find(id string) (domain.Track, bool) {
	for _, t := range Library() {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Track{}, false
}

// Search returns the songs whose title, artist or album contains query, ignoring case.
// An empty query matches nothing.
func Search(query string) []domain.Track {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []domain.Track
	for _, t := range Library() {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Artist), q) ||
			strings.Contains(strings.ToLower(t.Album), q) {
			out = append(out, t)
		}
	}
	return out
}
