package http

import (
	"encoding/json"
	"net/http"
)

// Every response is wrapped in the {success, ...} envelope the client
// expects. Extra keys (data, user, habit, token, message, deleted_checks)
// ride alongside per endpoint.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, fields map[string]any) {
	payload := map[string]any{"success": true}
	for k, v := range fields {
		payload[k] = v
	}
	writeJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
