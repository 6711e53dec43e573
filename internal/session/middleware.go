package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/identity"
	"github.com/MrSnakeDoc/gieok/internal/logger"
)

// Resolver looks up the caller's session from the request.
type Resolver struct {
	Provider identity.Provider
	Cookies  identity.Cookies
	Log      logger.Logger
}

// Resolve fails closed: any provider error is an absent session.
func (res Resolver) Resolve(r *http.Request) identity.Session {
	token := res.Cookies.Token(r)
	if token == "" {
		return identity.Session{}
	}
	s, err := res.Provider.GetSession(r.Context(), token)
	if err != nil {
		if !errors.Is(err, identity.ErrNoSession) && res.Log != nil {
			res.Log.Warn("session lookup failed, treating as signed out",
				logger.String("path", r.URL.Path),
				logger.Error(err),
			)
		}
		return identity.Session{}
	}
	return s
}

// Pages applies the guard to page routes. Protected responses are marked
// no-store so back-navigation cannot restore them from cache.
func Pages(g *Guard, res Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.Applies(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			s := res.Resolve(r)
			d := g.Decide(r.URL.Path, r.URL.Query(), s.Valid)
			if d.Protected {
				w.Header().Set("Cache-Control", "no-store")
			}
			if d.Action == Redirect {
				http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
				return
			}
			if s.Valid {
				r = r.WithContext(WithSession(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// API requires a session on JSON routes when required is true. With
// required false the session is still resolved when a token is present
// but never enforced.
func API(required bool, res Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := res.Resolve(r)
			if !s.Valid && required {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": domain.ErrUnauthenticated.Error()})
				return
			}
			if s.Valid {
				r = r.WithContext(WithSession(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}
