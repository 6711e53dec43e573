// Package routes holds the route table. Each file registers its group
// from init(); server.NewRouter mounts them all on one chi router.
package routes

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var registry = map[string]entry{}

// Register adds a named route group with optional group middlewares.
// Registering the same name twice is a programming error.
func Register(name string, reg Registrar, mws ...Middleware) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("routes: group %q registered twice", name))
	}
	registry[name] = entry{name: name, reg: reg, mws: mws}
}

// Groups lists the registered group names in mount order.
func Groups() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterAll mounts every group, in name order so startup is
// deterministic.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, name := range Groups() {
		e := registry[name]
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		r.Group(func(sub chi.Router) {
			sub.Use(e.mws...)
			e.reg(sub, d)
		})
	}
}
