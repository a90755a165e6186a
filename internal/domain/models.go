// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the Echoverse player.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Track represents a single streamable song.
// A Track is immutable once it has been placed in a queue.
type Track struct {
	// ID is the catalog identifier of the track (also the rate table key)
	ID string `json:"id"`

	// Title is the song title
	Title string `json:"title"`

	// Artist is the performing artist name
	Artist string `json:"artist"`

	// Album is the album name (optional)
	Album string `json:"album,omitempty"`

	// Duration is the advertised length of the track
	Duration time.Duration `json:"duration"`

	// CoverLocator identifies the cover artwork (URL or ipfs:// locator)
	CoverLocator string `json:"coverLocator,omitempty"`

	// AudioLocator identifies the audio content; it must be resolved before playback
	AudioLocator string `json:"audioLocator"`
}

// Playlist represents a user-owned collection of tracks.
type Playlist struct {
	// ID is a unique identifier for the playlist (UUID)
	ID string `json:"id"`

	// Name is the playlist name
	Name string `json:"name"`

	// Description is an optional free-form description
	Description string `json:"description,omitempty"`

	// CoverLocator is the playlist artwork
	CoverLocator string `json:"coverLocator,omitempty"`

	// Tracks is the ordered list of tracks in the playlist
	Tracks []Track `json:"songs"`

	// UserID is the storage identity of the owner
	UserID string `json:"userId"`

	// CreatedAt is when the playlist was created
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the playlist was last modified
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so callers cannot mutate service state.
func (p Playlist) Clone() Playlist {
	tracks := make([]Track, len(p.Tracks))
	copy(tracks, p.Tracks)
	p.Tracks = tracks
	return p
}

// IndexOfTrack returns the position of the first track with the given id, or -1.
func (p Playlist) IndexOfTrack(trackID string) int {
	for i, t := range p.Tracks {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}

// PlaylistPatch carries the fields to merge into a playlist on update.
// Nil fields are left untouched.
type PlaylistPatch struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	CoverLocator *string `json:"coverLocator,omitempty"`
}

// PlaybackStatus represents the engine state machine position.
type PlaybackStatus int

const (
	// StatusIdle indicates no track is loaded
	StatusIdle PlaybackStatus = iota

	// StatusLoading indicates locator resolution or media buffering is in progress
	StatusLoading

	// StatusPaused indicates a track is ready (or failed) and not playing
	StatusPaused

	// StatusPlaying indicates playback is active
	StatusPlaying
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusPaused:
		return "paused"
	case StatusPlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// MarshalText lets the status travel as a string in JSON payloads.
func (s PlaybackStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RepeatMode controls what happens when a track ends naturally.
type RepeatMode int

const (
	// RepeatAll wraps around to the first track after the last one
	RepeatAll RepeatMode = iota

	// RepeatOff stops (Idle) after the last track
	RepeatOff

	// RepeatOne replays the current track
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "all"
	case RepeatOff:
		return "off"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// MarshalText lets the mode travel as a string in JSON payloads.
func (m RepeatMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseRepeatMode parses the textual form produced by String.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return RepeatAll, nil
	case "off":
		return RepeatOff, nil
	case "one":
		return RepeatOne, nil
	default:
		return RepeatAll, NewValidationError("repeat", s, "must be one of all, off, one")
	}
}

// PlaybackState is a snapshot of the engine.
type PlaybackState struct {
	// CurrentTrack is the current track (nil if Idle)
	CurrentTrack *Track `json:"currentTrack"`

	// CurrentIndex is the index in the queue (-1 if none)
	CurrentIndex int `json:"currentIndex"`

	// QueueLength is the number of queued tracks
	QueueLength int `json:"queueLength"`

	// Status is the state machine position
	Status PlaybackStatus `json:"status"`

	// IsPlaying reports the play intent: true while playing, and while loading a track that will autoplay
	IsPlaying bool `json:"isPlaying"`

	// CurrentTime is the playback position
	CurrentTime time.Duration `json:"currentTime"`

	// Duration is the media duration (0 if unknown)
	Duration time.Duration `json:"duration"`

	// Volume is the stored volume level (0.0 to 1.0)
	Volume float64 `json:"volume"`

	// IsMuted indicates if audio is muted
	IsMuted bool `json:"isMuted"`

	// IsBuffering is true while no playable data is ready for CurrentTrack
	IsBuffering bool `json:"isBuffering"`

	// Repeat is the end-of-track behavior
	Repeat RepeatMode `json:"repeat"`
}

// Tier is the display classification attached to a rate.
type Tier string

const (
	TierStandard  Tier = "STANDARD"
	TierPremium   Tier = "PREMIUM"
	TierExclusive Tier = "EXCLUSIVE"
)

// Valid reports whether the tier is one of the known labels.
func (t Tier) Valid() bool {
	switch t {
	case TierStandard, TierPremium, TierExclusive:
		return true
	}
	return false
}

// Amount is a quantity of ETH expressed in gwei (1 ETH = 1e9 gwei).
// Integer units keep per-second accrual exact.
type Amount int64

// GweiPerETH is the number of gwei in one ETH.
const GweiPerETH = 1_000_000_000

// ETH converts a floating ETH value into gwei, rounding to the nearest unit.
func ETH(v float64) Amount {
	if v < 0 {
		return Amount(v*GweiPerETH - 0.5)
	}
	return Amount(v*GweiPerETH + 0.5)
}

// ETH returns the amount as a floating ETH value (display only).
func (a Amount) ETH() float64 {
	return float64(a) / GweiPerETH
}

// String formats the amount the way the player displays it.
func (a Amount) String() string {
	return fmt.Sprintf("%.6f ETH", a.ETH())
}

// DefaultRate is applied to tracks absent from the rate table (0.0001 ETH/s).
const DefaultRate Amount = 100_000

// RateEntry is the rate table record for a track.
type RateEntry struct {
	Rate Amount `json:"rate"`
	Tier Tier   `json:"tier"`
}

// AccrualState is the simulated pay-per-second meter.
type AccrualState struct {
	// Rate is the per-second rate of the current track (nil until resolved)
	Rate *Amount `json:"rate"`

	// Tier is the tier label of the current rate, empty for the default rate
	Tier Tier `json:"tier,omitempty"`

	// Total is the amount accrued this session
	Total Amount `json:"total"`
}

// Wallet is a linked wallet account.
type Wallet struct {
	Address   string `json:"address"`
	ChainID   string `json:"chainId"`
	Connector string `json:"connector"`
}

// User is an authenticated listener.
type User struct {
	ID            string   `json:"id"`
	Email         string   `json:"email,omitempty"`
	DisplayName   string   `json:"displayName,omitempty"`
	Wallet        *Wallet  `json:"wallet,omitempty"`
	LinkedWallets []Wallet `json:"linkedWallets,omitempty"`
	EmailVerified bool     `json:"emailVerified,omitempty"`
}

// GuestIdentity is the storage identity used when nobody is signed in.
const GuestIdentity = "guest-user"

// StorageKey returns the identity used to key persisted data.
func (u *User) StorageKey() string {
	if u == nil {
		return GuestIdentity
	}
	if u.ID != "" {
		return u.ID
	}
	if addr := u.WalletAddress(); addr != "" {
		return addr
	}
	return GuestIdentity
}

// WalletAddress returns the primary wallet address, falling back to the first linked one.
func (u *User) WalletAddress() string {
	if u == nil {
		return ""
	}
	if u.Wallet != nil && u.Wallet.Address != "" {
		return u.Wallet.Address
	}
	if len(u.LinkedWallets) > 0 {
		return u.LinkedWallets[0].Address
	}
	return ""
}

// DisplayIdentifier returns the label shown for the user.
func (u *User) DisplayIdentifier() string {
	if u == nil {
		return "Guest"
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	if addr := u.WalletAddress(); len(addr) > 10 {
		return addr[:6] + "..." + addr[len(addr)-4:]
	} else if addr != "" {
		return addr
	}
	return "Guest"
}

// ScanProgress represents the progress of a library import.
type ScanProgress struct {
	// CurrentFile is the file currently being scanned
	CurrentFile string

	// FilesScanned is the number of files processed so far
	FilesScanned int

	// TotalFiles is the total number of files to scan (may be -1 if unknown)
	TotalFiles int

	// TracksFound is the number of valid tracks imported
	TracksFound int
}

// Percentage returns the completion percentage (0-100), or -1 if total is unknown.
func (p ScanProgress) Percentage() float64 {
	if p.TotalFiles <= 0 {
		return -1
	}
	return float64(p.FilesScanned) / float64(p.TotalFiles) * 100.0
}
