package handler

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeAck acknowledges a webhook delivery. Vapi retries anything but a 2xx,
// so the processing outcome never changes the response.
func writeAck(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
