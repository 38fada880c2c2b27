package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Backend string `json:"backend,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Pending string `json:"pending,omitempty"`
	Error   string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the store backend and domain counters.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"store": checkStore(r, d),
		}

		snap, err := d.Facade.Snapshot(r.Context())
		if err != nil {
			components["domain"] = componentStatus{OK: false, Error: "snapshot unavailable"}
		} else {
			nb, nl := len(snap.Bubbles), len(snap.Links)
			components["bubbles"] = componentStatus{OK: true, Count: &nb}
			components["links"] = componentStatus{OK: true, Count: &nl}
			components["selection"] = componentStatus{OK: true, Pending: snap.Pending}
		}
		nz := len(d.Facade.Zones())
		components["zones"] = componentStatus{OK: nz > 0, Count: &nz}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "ok"
}

func checkStore(r *http.Request, d deps.Deps) componentStatus {
	if err := pingStore(r.Context(), d); err != nil {
		return componentStatus{OK: false, Backend: string(d.StoreKind), Error: "ping failed"}
	}
	return componentStatus{OK: true, Backend: string(d.StoreKind)}
}
