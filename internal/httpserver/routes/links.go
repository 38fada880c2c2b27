package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/handlers"
)

func init() { Register(registerLinks) }

func registerLinks(r chi.Router, d deps.Deps) {
	r.Get("/links", handlers.ListLinks(d))

	w := writes(r, d)
	w.Post("/links", handlers.CreateLink(d))
	w.Delete("/links/{id}", handlers.RemoveLink(d))
}
