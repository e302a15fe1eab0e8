// Package api is the HTTP surface: a chi router translating requests into
// orchestrator calls and typed errors into the response envelope.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
)

// respond writes the {ok:true, ...payload} envelope.
func respond(w http.ResponseWriter, status int, payload map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError maps an error kind to its status and writes the failure
// envelope. Internal detail is exposed only in development mode.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindBusinessRule:
		status = http.StatusBadRequest
	case apperr.KindAuth:
		status = http.StatusUnauthorized
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindPersistence, apperr.KindInternal:
		status = http.StatusInternalServerError
		if !s.dev {
			message = "internal server error"
		}
	}

	logEvent := s.log.Warn()
	if status >= 500 {
		logEvent = s.log.Error()
	}
	logEvent.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": message})
}

// decodeJSON parses a request body into dst, mapping malformed input to a
// validation error. An empty body leaves dst at its zero value.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "malformed request body")
	}
	return nil
}
