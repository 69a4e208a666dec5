package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"dccpipe/internal/logging"
	"dccpipe/internal/services"
)

const maxBodyBytes = 1 << 20

// StatusForError maps a services sentinel to an HTTP status code.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyExists), errors.Is(err, services.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrExternalTool):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.WithContext(r.Context(), s.logger).Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, r, status, ErrorResponse{Error: message})
}

// fail writes err with the status its sentinel maps to. Unclassified errors
// are logged since the client only sees a 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "request_failed",
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
	}
	s.writeJSON(w, r, status, ErrorResponse{Error: err.Error(), Kind: services.Kind(err)})
}

// decode reads a JSON body into dst. Malformed bodies are invalid requests.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return services.Wrap(services.ErrInvalidConfiguration, "api", "decode", fmt.Sprintf("request body: %v", err), nil)
	}
	return nil
}
