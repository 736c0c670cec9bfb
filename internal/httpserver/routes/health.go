package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/gitmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gitmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/gitmark/internal/httpserver/mw"
)

func init() { Register("health", registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	infra := r.With(mw.AllowCIDRs(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	infra.Get("/healthz", handlers.Healthz(d))
	infra.Get("/readyz", handlers.Readyz(d))
	infra.Get("/infra", handlers.Infra(d))
}
