package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gieok/internal/logger"
	redisconn "github.com/MrSnakeDoc/gieok/internal/redis"
)

const readyTimeout = 2 * time.Second

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz is ready when the store answers. Redis is optional: when it is
// down the server is degraded but still serves every request.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		components := map[string]componentStatus{
			"store": checkStore(ctx, d),
			"redis": checkRedis(ctx, d),
		}
		resp := readyzResponse{
			Ready:      components["store"].OK,
			Components: components,
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if err := d.Data.Ping(ctx); err != nil {
		d.Logger.Warn("readiness: store ping failed", logger.Error(err))
		return componentStatus{OK: false, Error: "unreachable"}
	}
	return componentStatus{OK: true}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "no list cache, feed is in-process only",
		}
	}
	if err := redisconn.Ping(ctx, d.RedisClient, readyTimeout); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "list cache bypassed",
			Error:  "timeout",
		}
	}
	return componentStatus{OK: true, Mode: "optimal"}
}
