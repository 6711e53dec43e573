package deps

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/gieok/internal/data"
	"github.com/MrSnakeDoc/gieok/internal/feed"
	"github.com/MrSnakeDoc/gieok/internal/identity"
	"github.com/MrSnakeDoc/gieok/internal/logger"
	"github.com/MrSnakeDoc/gieok/internal/metrics"
	"github.com/MrSnakeDoc/gieok/internal/session"
	"github.com/MrSnakeDoc/gieok/internal/vocabulary"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	Data        *data.Service          // data access layer, the only path to the store
	Guard       *session.Guard         // page route decisions
	Sessions    session.Resolver       // token -> session, fails closed
	Identity    identity.Provider      // sign in / sign out
	Cookies     identity.Cookies       // session cookie settings
	Feed        *feed.Hub              // change events for /api/feed
	Vocabulary  *vocabulary.Vocabulary // recommended tags
	Metrics     *metrics.Metrics       // nil-safe
	Gatherer    prometheus.Gatherer    // served on /metrics
	RedisClient *redis.Client          // nil when Redis is disabled

	APIRequiresSession bool                            // JSON API needs a session on top of the access key
	WriteLimiter       func(http.Handler) http.Handler // shared rate limiter for mutating routes
	ProbeAllowedCIDRS  []string                        // IPs allowed to access healthz/readyz/metrics
	TrustProxy         bool                            // true if running behind a trusted reverse proxy
	StaticDir          string                          // optional prebuilt frontend
	PublicURL          string                          // absolute base for sitemap.xml
}
