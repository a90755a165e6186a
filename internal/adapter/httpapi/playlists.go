package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/echoverse/echoverse/internal/catalog"
	"github.com/echoverse/echoverse/internal/domain"
)

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type addTrackRequest struct {
	TrackID string        `json:"trackId"`
	Track   *domain.Track `json:"track"`
}

type addTrackResponse struct {
	Added    bool            `json:"added"`
	Playlist domain.Playlist `json:"playlist"`
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Playlists.List())
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	pl, err := s.deps.Playlists.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pl)
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	pl, err := s.deps.Playlists.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	var patch domain.PlaylistPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	pl, err := s.deps.Playlists.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Playlists.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddTrack adds an explicit track or a catalog song by id.
func (s *Server) handleAddTrack(w http.ResponseWriter, r *http.Request) {
	var req addTrackRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var track domain.Track
	switch {
	case req.Track != nil:
		track = *req.Track
	case req.TrackID != "":
		t, ok := catalog.Find(req.TrackID)
		if !ok {
			s.writeError(w, r, domain.NewNotFoundError("track", req.TrackID))
			return
		}
		track = t
	default:
		s.writeError(w, r, domain.NewValidationError("trackId", "", "a track or track id is required"))
		return
	}

	id := mux.Vars(r)["id"]
	added, err := s.deps.Playlists.AddTrack(r.Context(), id, track)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pl, err := s.deps.Playlists.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, addTrackResponse{Added: added, Playlist: pl})
}

func (s *Server) handleRemoveTrack(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.deps.Playlists.RemoveTrack(r.Context(), vars["id"], vars["trackId"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
