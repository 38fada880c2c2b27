package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/handlers"
)

func init() { Register(registerZones) }

func registerZones(r chi.Router, d deps.Deps) {
	r.Get("/zones", handlers.Zones(d))
}
