package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/speechfoundry/chorus/internal/tts"
)

// envelope is the uniform JSON response wrapper.
type envelope struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message,omitempty"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
	Timestamp  string     `json:"timestamp"`
	StatusCode int        `json:"status_code"`
}

type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		StatusCode: status,
	})
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, envelope{
		Success:    false,
		Error:      &errorBody{Message: message, Type: errType, Code: status},
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		StatusCode: status,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusForKind maps the error taxonomy onto HTTP status codes.
func statusForKind(kind tts.Kind) int {
	switch kind {
	case tts.KindInvalidInput:
		return http.StatusBadRequest
	case tts.KindAuth:
		return http.StatusUnauthorized
	case tts.KindQuota:
		return http.StatusTooManyRequests
	case tts.KindTimeout:
		return http.StatusGatewayTimeout
	case tts.KindStorage, tts.KindCombine:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeKindError renders a synthesis pipeline error with the right status.
func writeKindError(w http.ResponseWriter, err error) {
	kind := tts.KindOf(err)
	writeError(w, statusForKind(kind), string(kind), tts.MessageOf(err))
}
