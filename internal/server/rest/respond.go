package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

const maxRequestBody = 1 << 20

var errMalformedBody = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeOAuthError writes the RFC 6749 section 5.2 error envelope.
func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}

func statusOf(kind common.Kind) int {
	switch kind {
	case common.KindUnauthorized:
		return http.StatusUnauthorized
	case common.KindConflict:
		return http.StatusConflict
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := common.KindOf(err)
	status := statusOf(kind)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "kind", kind.String(), "error", err)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
	}
	writeDetail(w, status, common.DetailOf(err))
}

// writeGrantError reports login and refresh failures. The description never
// says which check failed.
func (s *Server) writeGrantError(w http.ResponseWriter, r *http.Request, err error) {
	switch common.KindOf(err) {
	case common.KindUnauthorized:
		writeOAuthError(w, http.StatusUnauthorized, "invalid_grant", common.DetailOf(err))
	case common.KindInvalid:
		writeOAuthError(w, http.StatusUnprocessableEntity, "invalid_request", common.DetailOf(err))
	default:
		s.logger.Error(r.Context(), "token endpoint failed", "path", r.URL.Path, "error", err)
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		return errMalformedBody
	}
	return nil
}
