package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/echoverse/echoverse/internal/domain"
)

type loginRequest struct {
	Email  string         `json:"email"`
	Wallet *domain.Wallet `json:"wallet"`
}

type sessionResponse struct {
	User          *domain.User `json:"user"`
	Display       string       `json:"display"`
	StorageKey    string       `json:"storageKey"`
	Authenticated bool         `json:"authenticated"`
	Provider      string       `json:"provider"`
	Token         string       `json:"token,omitempty"`
}

type profileRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type sidebarRequest struct {
	Collapsed bool `json:"collapsed"`
}

func (s *Server) session(withToken bool) sessionResponse {
	user := s.deps.Session.User()
	resp := sessionResponse{
		User:          user,
		Display:       user.DisplayIdentifier(),
		StorageKey:    user.StorageKey(),
		Authenticated: user != nil,
		Provider:      s.deps.Session.Provider().Name(),
	}
	if withToken {
		resp.Token = s.deps.Session.Token()
	}
	return resp
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session(false))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var err error
	if req.Wallet != nil {
		_, err = s.deps.Session.LoginWithWallet(r.Context(), *req.Wallet)
	} else {
		_, err = s.deps.Session.Login(r.Context(), req.Email)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session(true))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Session.Logout(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session(false))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.deps.Session.UpdateProfile(r.Context(), req.DisplayName, req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session(false))
}

func (s *Server) handleLinkWallet(w http.ResponseWriter, r *http.Request) {
	var wallet domain.Wallet
	if err := decodeJSON(r, &wallet); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.deps.Session.LinkWallet(r.Context(), wallet); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session(false))
}

func (s *Server) handleUnlinkWallet(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deps.Session.UnlinkWallet(r.Context(), mux.Vars(r)["address"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session(false))
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Prefs.Preferences())
}

func (s *Server) handleResetPreferences(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Prefs.Reset(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Prefs.Preferences())
}

func (s *Server) handleSetSidebar(w http.ResponseWriter, r *http.Request) {
	var req sidebarRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.deps.Prefs.SetSidebarCollapsed(r.Context(), req.Collapsed)
	writeJSON(w, http.StatusOK, s.deps.Prefs.Preferences())
}

func (s *Server) handleToggleSidebar(w http.ResponseWriter, r *http.Request) {
	s.deps.Prefs.ToggleSidebar(r.Context())
	writeJSON(w, http.StatusOK, s.deps.Prefs.Preferences())
}
