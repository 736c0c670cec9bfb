package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/homepage"
	"github.com/MrSnakeDoc/gitmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
)

type bookmarkListResponse struct {
	Bookmarks []domain.BookmarkEntry `json:"bookmarks"`
	Count     int                    `json:"count"`
	Loading   bool                   `json:"loading"`
}

type addBookmarkRequest struct {
	FullName string `json:"full_name"`
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := d.Bookmarks.List()
		writeJSON(w, http.StatusOK, bookmarkListResponse{
			Bookmarks: list,
			Count:     len(list),
			Loading:   d.Bookmarks.Loading(),
		})
	}
}

// AddBookmark looks the repository up on GitHub and bookmarks it.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addBookmarkRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		fullName := strings.TrimSpace(req.FullName)

		repo, err := d.Lookup.GetRepository(r.Context(), fullName)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if repo == nil {
			writeError(w, r, d, fmt.Errorf("%s: %w", fullName, domain.ErrRepoNotFound))
			return
		}

		entry, err := d.Bookmarks.Add(r.Context(), repo)
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

func RemoveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid bookmark id"})
			return
		}
		if err := d.Bookmarks.Remove(r.Context(), id); err != nil {
			writeError(w, r, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func BookmarkStats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Bookmarks.Stats())
	}
}

// ExportBookmarks serves the active list as a Homepage bookmarks.yaml.
func ExportBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := homepage.Marshal(d.Bookmarks.List())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Content-Disposition", `attachment; filename="bookmarks.yaml"`)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
