package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/handlers"
)

func init() { Register(registerState) }

func registerState(r chi.Router, d deps.Deps) {
	r.Get("/state", handlers.State(d))
	r.Get("/selection", handlers.GetSelection(d))
	writes(r, d).Delete("/selection", handlers.ClearSelection(d))
	writes(r, d).Post("/refresh", handlers.Refresh(d))
}
