package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
)

type addBubbleRequest struct {
	Zone string `json:"zone"`
	Name string `json:"name"`
}

type renameBubbleRequest struct {
	Name string `json:"name"`
}

type removeBubbleResponse struct {
	Removed      string `json:"removed"`
	LinksRemoved int    `json:"links_removed"`
}

func ListBubbles(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs, err := d.Facade.Bubbles(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if bs == nil {
			bs = []*domain.Bubble{}
		}
		writeJSON(w, http.StatusOK, bs)
	}
}

func GetBubble(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Facade.Bubble(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// AddBubble creates a bubble from {"zone", "name"}; name is optional.
func AddBubble(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addBubbleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		b, err := d.Facade.AddBubble(r.Context(), req.Zone, req.Name)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		w.Header().Set("Location", "/bubbles/"+b.ID)
		writeJSON(w, http.StatusCreated, b)
	}
}

// RenameBubble applies {"name"}; an empty name restores the default.
func RenameBubble(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req renameBubbleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		b, err := d.Facade.RenameBubble(r.Context(), chi.URLParam(r, "id"), req.Name)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func RemoveBubble(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		n, err := d.Facade.RemoveBubble(r.Context(), id)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, removeBubbleResponse{Removed: id, LinksRemoved: n})
	}
}
