package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kaspaclash/arena-server/internal/duel"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain error kinds onto HTTP statuses. External failures
// surface as a bare 500; their cause stays in the logs, not the response.
func (h *handler) writeError(w http.ResponseWriter, err error) {
	var de *duel.Error
	if errors.As(err, &de) {
		status := http.StatusInternalServerError
		switch de.Kind {
		case duel.KindValidation:
			status = http.StatusBadRequest
		case duel.KindConflict:
			status = http.StatusConflict
		case duel.KindNotFound:
			status = http.StatusNotFound
		case duel.KindExternal:
			h.logger.Error("request failed on dependency", zap.Error(err))
		}
		writeJSON(w, status, errorBody{Error: errorDetail{Code: de.Code, Message: de.Message}})
		return
	}

	h.logger.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError,
		errorBody{Error: errorDetail{Code: "internal", Message: "internal error"}})
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func badRequest(w http.ResponseWriter, code, message string) {
	writeErrorCode(w, http.StatusBadRequest, code, message)
}

// decodeBody parses a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "bad_request", "malformed JSON body")
		return false
	}
	return true
}
