package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
)

// defaultZoneLimit caps search results when no limit is given.
const defaultZoneLimit = 20

type zonesResponse struct {
	Query string   `json:"query,omitempty"`
	Zones []string `json:"zones"`
}

// Zones lists every zone, or searches them when q is set.
func Zones(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))

		if query == "" {
			limit, err := queryInt(r, "limit", 0)
			if err != nil {
				writeError(w, r, d, err)
				return
			}
			zones := d.Facade.Zones()
			if limit > 0 && len(zones) > limit {
				zones = zones[:limit]
			}
			writeJSON(w, http.StatusOK, zonesResponse{Zones: zones})
			return
		}

		limit, err := queryInt(r, "limit", defaultZoneLimit)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		zones := d.Facade.SearchZones(query, limit)
		if zones == nil {
			zones = []string{}
		}
		writeJSON(w, http.StatusOK, zonesResponse{Query: query, Zones: zones})
	}
}
