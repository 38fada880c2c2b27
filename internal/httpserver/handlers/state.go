package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
)

// State returns bubbles, links and the pending selection read together.
func State(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := d.Facade.Snapshot(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if snap.Bubbles == nil {
			snap.Bubbles = []*domain.Bubble{}
		}
		if snap.Links == nil {
			snap.Links = []domain.LinkView{}
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
