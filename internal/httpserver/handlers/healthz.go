package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/gitmark/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go,omitempty"`
}

type healthzResponse struct {
	Status        string    `json:"status"`
	Storage       string    `json:"storage"`
	Session       string    `json:"session"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Build         buildInfo `json:"build"`
}

// Healthz is the liveness probe. It never touches storage; /readyz does.
func Healthz(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		Date:      d.BuildDate,
		GoVersion: d.GoVersion,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		session := "unknown"
		if d.Session != nil {
			session = d.Session.State().String()
		}
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Storage:       d.StorageKind,
			Session:       session,
			UptimeSeconds: now().Sub(d.StartTime).Seconds(),
			Build:         build,
		})
	}
}
