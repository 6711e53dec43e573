package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gieok/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/gieok/internal/session"
)

func init() { Register("api", registerAPI) }

// registerAPI mounts the data routes. Reads only need what the session
// switch demands; every mutating route also passes the write limiter.
// The access key itself is checked by the data layer.
func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", authRoutes(d))
		r.Group(func(r chi.Router) {
			r.Use(session.API(d.APIRequiresSession, d.Sessions))
			dataRoutes(r, d)
		})
	})
}

func dataRoutes(r chi.Router, d deps.Deps) {
	r.Get("/tags", handlers.Tags(d))
	r.Get("/feed", handlers.Feed(d))

	r.Route("/links", func(r chi.Router) {
		r.Get("/", handlers.ListBookmarks(d))
		r.Get("/{id}", handlers.GetBookmark(d))

		w := r.With(writeLimit(d))
		w.Post("/", handlers.CreateBookmark(d))
		w.Patch("/{id}", handlers.UpdateBookmark(d))
		w.Put("/{id}/pin", handlers.PinBookmark(d))
		w.Delete("/{id}", handlers.DeleteBookmark(d))
	})

	r.Route("/keywords", func(r chi.Router) {
		r.Get("/", handlers.ListKeywords(d))
		r.Get("/by-name/{name}", handlers.GetKeywordByName(d))
		r.Get("/{id}", handlers.GetKeyword(d))
		r.Get("/{id}/entries", handlers.ListKeywordEntries(d))

		w := r.With(writeLimit(d))
		w.Post("/", handlers.CreateKeyword(d))
		w.Delete("/{id}", handlers.DeleteKeyword(d))
	})

	r.Route("/entries", func(r chi.Router) {
		r.Get("/{id}", handlers.GetEntry(d))

		w := r.With(writeLimit(d))
		w.Post("/", handlers.CreateEntry(d))
		w.Patch("/{id}", handlers.UpdateEntry(d))
		w.Delete("/{id}", handlers.DeleteEntry(d))
	})
}

func writeLimit(d deps.Deps) Middleware {
	if d.WriteLimiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return d.WriteLimiter
}
