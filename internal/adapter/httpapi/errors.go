package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/echoverse/echoverse/internal/domain"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var serr *domain.ServiceError
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidIndex),
		errors.Is(err, domain.ErrInvalidVolume),
		errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNoTrackLoaded),
		errors.Is(err, domain.ErrTrackLoading),
		errors.Is(err, domain.ErrScanCancelled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.As(err, &serr) && serr.Err == nil:
		// a precondition of the operation failed, e.g. a scan already running
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}

	body := errorBody{Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return domain.NewValidationError("body", nil, "malformed JSON: "+err.Error())
}
