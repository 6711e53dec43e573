package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gieok/internal/httpserver/handlers"
)

// authRoutes sit outside the API session requirement: they are how a
// session is obtained.
func authRoutes(d deps.Deps) func(chi.Router) {
	return func(r chi.Router) {
		r.With(writeLimit(d)).Post("/login", handlers.Login(d))
		r.Post("/logout", handlers.Logout(d))
		r.Get("/session", handlers.Session(d))
	}
}
