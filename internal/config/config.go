package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	// DefaultTenantID is the single owner marker every row carries.
	DefaultTenantID = "00000000-0000-0000-0000-000000000000"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline applied by chi

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Access control
	AccessKey          string   // shared mutation secret, empty => every mutation denied
	TenantID           string   // owner marker stamped on every row
	ProtectedPrefixes  []string // page prefixes that require a session
	LoginPath          string   // ex: "/login"
	APIRequiresSession bool     // true => JSON API also needs a session

	// Validation limits
	MaxTagsPerLink       int
	MaxTitleLength       int
	MaxDescriptionLength int

	// Relational store
	Store             string // "postgres" | "memory"
	DatabaseURL       string // postgres DSN or URL
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	AutoMigrate       bool

	// Identity provider
	AuthURL       string        // base URL of the GoTrue compatible auth service
	AuthAPIKey    string        // anon api key sent on every provider call
	AuthJWTSecret string        // optional, enables local token verification
	AuthTimeout   time.Duration // per provider call
	SessionCookie string        // cookie carrying the access token
	CookieSecure  bool

	// Redis (optional: list cache and cross-process change feed)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisWarnThreshold  int
	ListCacheTTL        time.Duration

	// Presentation
	StaticDir string // optional prebuilt frontend bundle
	PublicURL string // used by sitemap.xml
	TagsFile  string // optional YAML tag vocabulary override

	// Write throttling and network filters
	RateLimitBurst    int
	RateLimitPerMin   int
	TrustProxy        bool
	ProbeAllowedCIDRS []string // IPs allowed on /healthz, /readyz and /metrics, empty => everyone
	AllowedHosts      []string // Host headers accepted, empty => any
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("GIEOK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("GIEOK_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("GIEOK_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("GIEOK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("GIEOK_PRETTY_LOG", true),

		// Access control
		AccessKey:          os.Getenv("GIEOK_ACCESS_KEY"),
		TenantID:           getenv("GIEOK_TENANT_ID", DefaultTenantID),
		ProtectedPrefixes:  splitAndTrim(getenv("GIEOK_PROTECTED_PREFIXES", "/link,/docs")),
		LoginPath:          getenv("GIEOK_LOGIN_PATH", "/login"),
		APIRequiresSession: mustBool("GIEOK_API_REQUIRES_SESSION", true),

		// Validation limits
		MaxTagsPerLink:       getenvInt("GIEOK_MAX_TAGS_PER_LINK", 5),
		MaxTitleLength:       getenvInt("GIEOK_MAX_TITLE_LENGTH", 200),
		MaxDescriptionLength: getenvInt("GIEOK_MAX_DESCRIPTION_LENGTH", 500),

		// Store
		Store:             strings.ToLower(getenv("GIEOK_STORE", StorePostgres)),
		DBMaxOpenConns:    getenvInt("GIEOK_DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    getenvInt("GIEOK_DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: mustDuration("GIEOK_DB_CONN_MAX_LIFETIME", 30*time.Minute),
		AutoMigrate:       mustBool("GIEOK_AUTO_MIGRATE", false),

		// Identity provider
		AuthURL:       strings.TrimRight(requireEnv("GIEOK_AUTH_URL"), "/"),
		AuthAPIKey:    getenv("GIEOK_AUTH_API_KEY", ""),
		AuthJWTSecret: getenv("GIEOK_AUTH_JWT_SECRET", ""),
		AuthTimeout:   mustDuration("GIEOK_AUTH_TIMEOUT", 5*time.Second),
		SessionCookie: getenv("GIEOK_SESSION_COOKIE", "gieok_session"),
		CookieSecure:  mustBool("GIEOK_COOKIE_SECURE", true),

		// Redis settings
		RedisAddr:           getenv("GIEOK_REDIS_ADDR", ""),
		RedisUser:           getenv("GIEOK_REDIS_USERNAME", ""),
		RedisPassword:       getenv("GIEOK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("GIEOK_REDIS_DB", 0),
		RedisDT:             mustDuration("GIEOK_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("GIEOK_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("GIEOK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("GIEOK_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("GIEOK_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("GIEOK_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("GIEOK_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("GIEOK_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("GIEOK_REDIS_WARN_THRESHOLD", 3),
		ListCacheTTL:        mustDuration("GIEOK_LIST_CACHE_TTL", 30*time.Second),

		// Presentation
		StaticDir: getenv("GIEOK_STATIC_DIR", ""),
		PublicURL: strings.TrimRight(getenv("GIEOK_PUBLIC_URL", "https://gieok.app"), "/"),
		TagsFile:  getenv("GIEOK_TAGS_FILE", ""),

		// Write throttling and network filters
		RateLimitBurst:    getenvInt("GIEOK_RATE_LIMIT_BURST", 20),
		RateLimitPerMin:   getenvInt("GIEOK_RATE_LIMIT_PER_MIN", 60),
		TrustProxy:        mustBool("GIEOK_TRUST_PROXY", false),
		ProbeAllowedCIDRS: splitAndTrim(getenv("GIEOK_PROBE_ALLOWED_CIDRS", "")),
		AllowedHosts:      splitAndTrim(getenv("GIEOK_ALLOWED_HOSTS", "")),
	}

	switch cfg.Store {
	case StorePostgres:
		cfg.DatabaseURL = requireEnv("GIEOK_DATABASE_URL")
	case StoreMemory:
		cfg.DatabaseURL = getenv("GIEOK_DATABASE_URL", "")
	default:
		panic(fmt.Sprintf("❌ FATAL: GIEOK_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.Store))
	}

	cfg.ProtectedPrefixes = normalizePrefixes(cfg.ProtectedPrefixes)
	if len(cfg.ProtectedPrefixes) == 0 {
		panic("❌ FATAL: GIEOK_PROTECTED_PREFIXES must list at least one path prefix")
	}

	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// LoadMigrate reads only what schema migrations need. The identity
// provider and the HTTP settings are not required.
func LoadMigrate() *Config {
	return &Config{
		LogLevel:    getenv("GIEOK_LOG_LEVEL", "info"),
		PrettyLog:   mustBool("GIEOK_PRETTY_LOG", true),
		TenantID:    getenv("GIEOK_TENANT_ID", DefaultTenantID),
		Store:       StorePostgres,
		DatabaseURL: requireEnv("GIEOK_DATABASE_URL"),
	}
}

// Redacted returns a copy safe to print: every secret is masked.
func (c *Config) Redacted() Config {
	cp := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***REDACTED***"
	}
	cp.AccessKey = mask(c.AccessKey)
	cp.DatabaseURL = mask(c.DatabaseURL)
	cp.AuthAPIKey = mask(c.AuthAPIKey)
	cp.AuthJWTSecret = mask(c.AuthJWTSecret)
	cp.RedisPassword = mask(c.RedisPassword)
	cp.RedisUser = mask(c.RedisUser)
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// normalizePrefixes forces a leading slash, drops trailing slashes and
// duplicates. "/" itself is rejected since it would protect the login page.
func normalizePrefixes(prefixes []string) []string {
	out := make([]string, 0, len(prefixes))
	seen := make(map[string]bool, len(prefixes))
	for _, p := range prefixes {
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		p = strings.TrimRight(p, "/")
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
