package httpapi

import (
	"math"
	"net/http"
	"time"

	"github.com/echoverse/echoverse/internal/catalog"
	"github.com/echoverse/echoverse/internal/domain"
)

type loadQueueRequest struct {
	Tracks     []domain.Track `json:"tracks"`
	TrackIDs   []string       `json:"trackIds"`
	PlaylistID string         `json:"playlistId"`
	StartIndex int            `json:"startIndex"`
}

type seekRequest struct {
	Position float64 `json:"position"` // seconds
}

type volumeRequest struct {
	Volume float64 `json:"volume"`
}

type muteRequest struct {
	Muted *bool `json:"muted"` // nil toggles
}

type repeatRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Playback.State())
}

func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Playback.Queue())
}

// handleLoadQueue replaces the queue with explicit tracks, a playlist or catalog ids,
// in that order of precedence.
func (s *Server) handleLoadQueue(w http.ResponseWriter, r *http.Request) {
	var req loadQueueRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	tracks := req.Tracks
	switch {
	case len(tracks) > 0:
	case req.PlaylistID != "":
		pl, err := s.deps.Playlists.Get(req.PlaylistID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		tracks = pl.Tracks
	default:
		for _, id := range req.TrackIDs {
			t, ok := catalog.Find(id)
			if !ok {
				s.writeError(w, r, domain.NewNotFoundError("track", id))
				return
			}
			tracks = append(tracks, t)
		}
	}

	if err := s.deps.Playback.LoadQueue(tracks, req.StartIndex); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Playback.State())
}

// transport adapts a no-argument player control to a handler returning the new state.
func (s *Server) transport(control func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := control(); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.deps.Playback.State())
	}
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	position, err := seekPosition(req.Position)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Playback.Seek(position); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Playback.State())
}

// maxSeekSeconds is the longest position a time.Duration can hold.
const maxSeekSeconds = float64(math.MaxInt64 / int64(time.Second))

// seekPosition converts a position in seconds. Negative positions are left
// for the engine to clamp.
func seekPosition(seconds float64) (time.Duration, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || math.Abs(seconds) > maxSeekSeconds {
		return 0, domain.NewValidationError("position", seconds, "position is out of range")
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Playback.SetVolume(req.Volume); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Playback.State())
}

func (s *Server) handleMute(w http.ResponseWriter, r *http.Request) {
	var req muteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Muted == nil {
		s.deps.Playback.ToggleMute()
	} else {
		s.deps.Playback.SetMuted(*req.Muted)
	}
	writeJSON(w, http.StatusOK, s.deps.Playback.State())
}

func (s *Server) handleRepeat(w http.ResponseWriter, r *http.Request) {
	var req repeatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	mode, err := domain.ParseRepeatMode(req.Mode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.deps.Playback.SetRepeat(mode)
	writeJSON(w, http.StatusOK, s.deps.Playback.State())
}

func (s *Server) handleAccrual(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Playback.Accrual())
}

func (s *Server) handleResetAccrual(w http.ResponseWriter, r *http.Request) {
	previous := s.deps.Playback.ResetAccrual()
	writeJSON(w, http.StatusOK, map[string]domain.Amount{"previous": previous})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default": domain.DefaultRate,
		"tracks":  s.deps.Rates.Entries(),
	})
}
