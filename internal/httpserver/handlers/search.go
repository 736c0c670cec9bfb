package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
)

func SearchRepositories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing q parameter"})
			return
		}

		d.Logger.Info("search request",
			logger.String("kind", "repositories"),
			logger.String("query", query))

		page, err := d.GitHub.SearchRepositories(r.Context(), query, pageParam(r))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		flagBookmarked(d, page.Items)
		writeJSON(w, http.StatusOK, page)
	}
}

func SearchUsers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing q parameter"})
			return
		}

		d.Logger.Info("search request",
			logger.String("kind", "users"),
			logger.String("query", query))

		page, err := d.GitHub.SearchUsers(r.Context(), query, pageParam(r))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// UserRepositories lists a user's repositories, most recently updated first,
// each flagged with whether it is already bookmarked.
func UserRepositories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		login := strings.TrimSpace(chi.URLParam(r, "login"))

		page, err := d.GitHub.UserRepositories(r.Context(), login, pageParam(r))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		flagBookmarked(d, page.Items)
		writeJSON(w, http.StatusOK, page)
	}
}

func flagBookmarked(d deps.Deps, repos []domain.Repository) {
	for i := range repos {
		repos[i].IsBookmarked = d.Bookmarks.IsBookmarked(repos[i].ID)
	}
}
