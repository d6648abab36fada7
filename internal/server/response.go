package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"
)

// apiError is the JSON error envelope returned by every endpoint.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	status  int
}

func newError(status int, code, message string) apiError {
	return apiError{Code: code, Message: sanitize(message, 512), status: status}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err apiError) {
	status := err.status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]apiError{"error": err})
}

func sanitize(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}
	return value
}
