package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gieok/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/gieok/internal/httpserver/mw"
)

func init() { Register("probes", registerProbes) }

func registerProbes(r chi.Router, d deps.Deps) {
	probe := r.With(mw.AllowOnlyCIDRS(d.ProbeAllowedCIDRS, d.TrustProxy, d.Logger))
	probe.Get("/healthz", handlers.Healthz(d))
	probe.Get("/readyz", handlers.Readyz(d))
	probe.Method("GET", "/metrics", handlers.Metrics(d))
}
