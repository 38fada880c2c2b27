package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
)

type createLinkRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

func ListLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := d.Facade.Links(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if views == nil {
			views = []domain.LinkView{}
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// CreateLink links {"a", "b"} directly. An existing pair is a conflict.
func CreateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLinkRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		l, err := d.Facade.LinkBubbles(r.Context(), req.A, req.B)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

func RemoveLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Facade.RemoveLink(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
