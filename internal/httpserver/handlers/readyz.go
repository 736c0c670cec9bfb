package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/gitmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gitmark/internal/session"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz is ready once the session has been restored and storage answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch d.Session.State() {
		case session.StateUninitialized, session.StateRestoring:
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Reason: "session not restored"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.Backend.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Reason: "storage unavailable"})
			return
		}

		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
