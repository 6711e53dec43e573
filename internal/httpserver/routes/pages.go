package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gieok/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/gieok/internal/session"
)

func init() { Register("pages", registerPages) }

// Every other GET is a page and goes through the session guard.
func registerPages(r chi.Router, d deps.Deps) {
	r.Get("/sitemap.xml", handlers.Sitemap(d))
	r.With(session.Pages(d.Guard, d.Sessions)).Get("/*", handlers.Pages(d))
}
