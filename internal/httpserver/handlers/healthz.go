package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status        string    `json:"status"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Build         buildInfo `json:"build"`
	FeedClients   int       `json:"feed_clients"`
	RedisEnabled  bool      `json:"redis_enabled"`
}

// Healthz is liveness only: it never touches the store or Redis.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        "ok",
			StartedAt:     d.StartTime.UTC(),
			UptimeSeconds: int64(time.Since(d.StartTime).Seconds()),
			Build:         build,
			RedisEnabled:  d.RedisClient != nil,
		}
		if d.Feed != nil {
			resp.FeedClients = d.Feed.Count()
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, resp)
	}
}
