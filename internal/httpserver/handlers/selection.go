package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bubbletime/internal/selection"
)

type selectionResponse struct {
	Pending string `json:"pending,omitempty"`
}

type selectFailedResponse struct {
	selection.Result
	Error string `json:"error"`
}

// SelectBubble toggles a bubble in the selection. When the second click
// fails to link, the selection is already reset: the response carries the
// failed result together with the error.
func SelectBubble(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Facade.ToggleSelection(r.Context(), chi.URLParam(r, "id"))
		switch {
		case err == nil:
			status := http.StatusOK
			if res.Outcome == selection.Linked {
				status = http.StatusCreated
			}
			writeJSON(w, status, res)
		case res.Outcome == selection.Failed && statusFor(err) != http.StatusInternalServerError:
			writeJSON(w, statusFor(err), selectFailedResponse{Result: res, Error: err.Error()})
		default:
			writeError(w, r, d, err)
		}
	}
}

func GetSelection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, _ := d.Facade.Selection()
		writeJSON(w, http.StatusOK, selectionResponse{Pending: pending})
	}
}

func ClearSelection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Facade.ClearSelection()
		w.WriteHeader(http.StatusNoContent)
	}
}
