package mw

import (
	"encoding/json"
	"net/http"
)

// deny writes a JSON error body with the status text as message, matching
// the handlers' error shape.
func deny(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
}
