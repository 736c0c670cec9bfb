package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/gitmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gitmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/gitmark/internal/httpserver/mw"
)

func init() { Register("bookmarks", registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Use(mw.RequireSession(d.Session.Current, d.Logger))

		r.Get("/", handlers.ListBookmarks(d))
		r.Post("/", handlers.AddBookmark(d))
		r.Get("/stats", handlers.BookmarkStats(d))
		r.Get("/export", handlers.ExportBookmarks(d))
		r.Post("/import", handlers.StartImport(d))
		r.Get("/import", handlers.ImportStatus(d))
		r.Delete("/{id}", handlers.RemoveBookmark(d))
	})
}
