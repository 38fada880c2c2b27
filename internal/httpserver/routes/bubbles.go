package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/handlers"
)

func init() { Register(registerBubbles) }

func registerBubbles(r chi.Router, d deps.Deps) {
	r.Get("/bubbles", handlers.ListBubbles(d))
	r.Get("/bubbles/{id}", handlers.GetBubble(d))

	w := writes(r, d)
	w.Post("/bubbles", handlers.AddBubble(d))
	w.Patch("/bubbles/{id}", handlers.RenameBubble(d))
	w.Delete("/bubbles/{id}", handlers.RemoveBubble(d))
	w.Post("/bubbles/{id}/select", handlers.SelectBubble(d))
}
