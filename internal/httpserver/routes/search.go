package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/gitmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gitmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/gitmark/internal/httpserver/mw"
)

func init() {
	Register("search", registerSearch)
}

// Search routes spend the unauthenticated GitHub quota, so they are rate
// limited per client.
func registerSearch(r chi.Router, d deps.Deps) {
	api := r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.SearchBurst,
			RefillPerIPPerMin: d.SearchPerMin,
			MaxEntries:        10000,
			TrustProxy:        d.TrustProxy,
		}),
	)
	api.Get("/api/search/repositories", handlers.SearchRepositories(d))
	api.Get("/api/search/users", handlers.SearchUsers(d))
	api.Get("/api/users/{login}/repos", handlers.UserRepositories(d))
}
