package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/gitmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gitmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/gitmark/internal/httpserver/mw"
)

func init() { Register("auth", registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	api := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))
	api.Post("/api/auth/signup", handlers.Signup(d))
	api.Post("/api/auth/login", handlers.Login(d))
	api.Post("/api/auth/logout", handlers.Logout(d))
	api.Get("/api/session", handlers.Session(d))
}
