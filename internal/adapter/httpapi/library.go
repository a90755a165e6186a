package httpapi

import (
	"net/http"

	"github.com/echoverse/echoverse/internal/catalog"
	"github.com/echoverse/echoverse/internal/domain"
)

type catalogResponse struct {
	Featured    []domain.Track `json:"featured"`
	NewReleases []domain.Track `json:"newReleases"`
	Library     []domain.Track `json:"library"`
}

type importRequest struct {
	Folder string   `json:"folder"`
	Files  []string `json:"files"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalogResponse{
		Featured:    catalog.Featured(),
		NewReleases: catalog.NewReleases(),
		Library:     catalog.Library(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results := catalog.Search(r.URL.Query().Get("q"))
	if results == nil {
		results = []domain.Track{}
	}
	writeJSON(w, http.StatusOK, results)
}

// handleImport runs a folder scan or a file import to completion.
// Progress is streamed on /api/events.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		tracks []domain.Track
		err    error
	)
	switch {
	case req.Folder != "":
		tracks, err = s.deps.Library.ScanFolder(r.Context(), req.Folder)
	case len(req.Files) > 0:
		tracks, err = s.deps.Library.ImportFiles(r.Context(), req.Files)
	default:
		err = domain.NewValidationError("folder", "", "a folder or files are required")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleCancelImport(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Library.CancelScan(); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Library.SupportedFormats())
}
