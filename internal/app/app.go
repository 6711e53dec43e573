package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/gieok/internal/accesskey"
	"github.com/MrSnakeDoc/gieok/internal/config"
	"github.com/MrSnakeDoc/gieok/internal/data"
	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/feed"
	"github.com/MrSnakeDoc/gieok/internal/httpserver"
	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gieok/internal/identity"
	"github.com/MrSnakeDoc/gieok/internal/logger"
	"github.com/MrSnakeDoc/gieok/internal/metrics"
	"github.com/MrSnakeDoc/gieok/internal/redis"
	"github.com/MrSnakeDoc/gieok/internal/session"
	"github.com/MrSnakeDoc/gieok/internal/store"
	"github.com/MrSnakeDoc/gieok/internal/store/memory"
	"github.com/MrSnakeDoc/gieok/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/gieok/internal/store/redis"
	"github.com/MrSnakeDoc/gieok/internal/utils"
	"github.com/MrSnakeDoc/gieok/internal/version"
	"github.com/MrSnakeDoc/gieok/internal/vocabulary"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	store       store.Store
	redisClient *goredis.Client
	hub         *feed.Hub
}

// New wires every component from cfg. Redis is optional: when it is not
// configured or cannot be reached the cache and the cross-process feed
// are disabled and the server still starts.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	st, err := OpenStore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	redisClient := connectRedis(ctx, cfg, loggerClient)

	var cache data.Cache
	if redisClient != nil {
		cache = redisstore.NewStore(redisClient, cfg.TenantID, cfg.ListCacheTTL, loggerClient.Component("cache"))
	}
	feedLog := loggerClient.Component("feed")
	hub := feed.NewHub(cfg.TenantID, feed.NewRedisBus(redisClient, cfg.TenantID, feedLog), feedLog, m)

	vocab, err := vocabulary.Load(cfg.TagsFile)
	if err != nil {
		utils.MustClose(st, "store", loggerClient)
		return nil, fmt.Errorf("load tag vocabulary: %w", err)
	}

	gate := accesskey.New(cfg.AccessKey, loggerClient, m)
	if !gate.Configured() {
		loggerClient.Warn("⚠️ GIEOK_ACCESS_KEY is empty, the API is read-only")
	}

	svc := data.New(data.Options{
		Tenant: cfg.TenantID,
		Store:  st,
		Gate:   gate,
		Validator: domain.NewValidator(domain.Limits{
			MaxTagsPerLink:       cfg.MaxTagsPerLink,
			MaxTitleLength:       cfg.MaxTitleLength,
			MaxDescriptionLength: cfg.MaxDescriptionLength,
		}),
		Cache:    cache,
		Notifier: hub,
		Metrics:  m,
		Log:      loggerClient,
	})

	provider := identity.NewGoTrue(identity.Options{
		BaseURL:   cfg.AuthURL,
		APIKey:    cfg.AuthAPIKey,
		JWTSecret: cfg.AuthJWTSecret,
		Timeout:   cfg.AuthTimeout,
	}, loggerClient.Component("identity"))
	cookies := identity.Cookies{Name: cfg.SessionCookie, Secure: cfg.CookieSecure}

	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: version.GoVersion,

		Data:        svc,
		Guard:       session.NewGuard(cfg.ProtectedPrefixes, cfg.LoginPath),
		Sessions:    session.Resolver{Provider: provider, Cookies: cookies, Log: loggerClient},
		Identity:    provider,
		Cookies:     cookies,
		Feed:        hub,
		Vocabulary:  vocab,
		Metrics:     m,
		Gatherer:    reg,
		RedisClient: redisClient,

		APIRequiresSession: cfg.APIRequiresSession,
		ProbeAllowedCIDRS:  cfg.ProbeAllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		StaticDir:          cfg.StaticDir,
		PublicURL:          cfg.PublicURL,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		store:       st,
		redisClient: redisClient,
		hub:         hub,
	}, nil
}

// OpenStore returns the configured relational backend, migrating the
// schema first when GIEOK_AUTO_MIGRATE is set.
func OpenStore(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (store.Store, error) {
	if cfg.Store == config.StoreMemory {
		loggerClient.Warn("⚠️ using the in-memory store, data is lost on restart")
		return memory.New(cfg.TenantID), nil
	}

	pg, err := postgres.Open(ctx, postgres.Options{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, cfg.TenantID, loggerClient.Component("store"))
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	if cfg.AutoMigrate {
		mg, err := postgres.NewMigrator(pg.DB(), loggerClient)
		if err != nil {
			utils.MustClose(pg, "postgres", loggerClient)
			return nil, err
		}
		defer utils.MustClose(mg, "migrator", loggerClient)
		if err := mg.Up(); err != nil {
			utils.MustClose(pg, "postgres", loggerClient)
			return nil, err
		}
	}
	return pg, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) *goredis.Client {
	if cfg.RedisAddr == "" {
		loggerClient.Info("redis not configured, list cache and cross-process feed disabled")
		return nil
	}
	client, err := redis.New(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient.Component("redis"))
	if err != nil {
		loggerClient.Warn("redis unreachable, continuing without cache and cross-process feed",
			logger.String("addr", cfg.RedisAddr),
			logger.Error(err))
		return nil
	}
	return client
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting gieok v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("gieok %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feedCtx, stopFeed := context.WithCancel(context.Background())
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		if err := a.hub.Run(feedCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("change feed stopped", logger.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// Closing the feed first ends every websocket so Shutdown does not
	// wait on them.
	stopFeed()
	<-feedDone

	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	utils.MustClose(a.store, "store", a.logger)
	if a.redisClient != nil {
		utils.MustClose(a.redisClient, "redis", a.logger)
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ gieok stopped cleanly")
	return nil
}
