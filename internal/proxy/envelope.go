package proxy

import (
	"encoding/json"
	"net/http"
)

// Messages of the locally synthesized responses.
const (
	MessageMissingPath        = "Missing API path."
	MessageBackendUnreachable = "Backend is unreachable."
)

// ErrorEnvelope mirrors the backend response envelope for the 502 the
// gateway produces itself. Data is always null.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// MissingPathBody is the body returned when no path segments are given.
type MissingPathBody struct {
	Message string `json:"message"`
}

// UnreachableEnvelope returns the fixed 502 body.
func UnreachableEnvelope() ErrorEnvelope {
	return ErrorEnvelope{
		Success: false,
		Status:  http.StatusBadGateway,
		Message: MessageBackendUnreachable,
		Data:    nil,
	}
}

// WriteMissingPath writes the 400 response for an empty path.
func WriteMissingPath(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, MissingPathBody{Message: MessageMissingPath})
}

// WriteUnreachable writes the 502 envelope.
func WriteUnreachable(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadGateway, UnreachableEnvelope())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
