package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/gitmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gitmark/internal/storage"
)

type componentStatus struct {
	OK       bool   `json:"ok"`
	Mode     string `json:"mode,omitempty"`
	Accounts *int   `json:"accounts,omitempty"`
	Count    *int   `json:"count,omitempty"`
	LastSave string `json:"last_save,omitempty"`
	State    string `json:"state,omitempty"`
	Impact   string `json:"impact,omitempty"`
	Error    string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts := d.Credentials.Count()
		bookmarks := len(d.Bookmarks.List())
		snap := d.Session.Snapshot()
		imp := d.Importer.Status()

		components := map[string]componentStatus{
			"storage": checkStorage(r.Context(), d, accounts),
			"session": {
				OK:    snap.State != "uninitialized",
				State: snap.State,
			},
			"bookmarks": {
				OK:    !d.Bookmarks.Loading(),
				Count: &bookmarks,
			},
			"import": {
				OK:    true,
				State: imp.Phase.String(),
				Error: imp.Message,
			},
		}
		if d.RedisClient != nil {
			components["redis"] = checkRedis(r.Context(), d)
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     determineStatus(components),
			Components: components,
		})
	}
}

func determineStatus(components map[string]componentStatus) string {
	if st, ok := components["storage"]; ok && !st.OK {
		return "critical" // nothing can be persisted
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "ok"
}

func checkStorage(parent context.Context, d deps.Deps, accounts int) componentStatus {
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.Backend.Ping(ctx); err != nil {
		return componentStatus{
			OK:    false,
			Mode:  d.StorageKind,
			Error: err.Error(),
		}
	}
	st := componentStatus{
		OK:       true,
		Mode:     d.StorageKind,
		Accounts: &accounts,
	}
	if stamped, ok := d.Backend.(storage.Stamped); ok {
		if ts, found, err := stamped.UpdatedAt(ctx, storage.KeyBookmarks); err == nil && found {
			st.LastSave = ts.UTC().Format(time.RFC3339)
		}
	}
	return st
}

func checkRedis(parent context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "lookup-cache-disabled",
			Error:  "timeout",
		}
	}
	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "lookup-cache-enabled",
	}
}
