package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/anihub/internal/platform/analytics"
	"github.com/example/anihub/internal/platform/config"
	"github.com/example/anihub/internal/platform/db"
	"github.com/example/anihub/internal/platform/httpserver"
	"github.com/example/anihub/internal/platform/logging"
	"github.com/example/anihub/internal/platform/natsconn"
	"github.com/example/anihub/internal/platform/run"
	"github.com/example/anihub/services/api/internal/anilist"
	"github.com/example/anihub/services/api/internal/cache"
	apiconfig "github.com/example/anihub/services/api/internal/config"
	apihttp "github.com/example/anihub/services/api/internal/http"
	"github.com/example/anihub/services/api/internal/provider"
	"github.com/example/anihub/services/api/internal/provider/animesonline"
	"github.com/example/anihub/services/api/internal/store"
	"github.com/example/anihub/services/api/internal/tokens"
	"github.com/example/anihub/services/api/internal/video"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("service", cfg.ServiceName))

	apiCfg, err := apiconfig.Load()
	if err != nil {
		log.Error("load api config", zap.Error(err))
		run.Exit(1)
	}

	// store
	var (
		st   store.Store
		pool *pgxpool.Pool
	)
	if apiCfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err = db.Open(ctx, apiCfg.DatabaseURL)
		if err == nil {
			pg := store.NewPostgresStore(pool)
			err = pg.Migrate(ctx)
			st = pg
		}
		cancel()
		if err != nil {
			log.Error("db open", zap.Error(err))
			run.Exit(1)
		}
		defer pool.Close()
	} else {
		log.Warn("DATABASE_URL not set, accounts are kept in memory")
		st = store.NewMemoryStore()
	}

	// metadata cache
	var metaCache cache.Cache
	if apiCfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(apiCfg.RedisURL, apiCfg.CacheTTL)
		if err != nil {
			log.Error("redis", zap.Error(err))
			run.Exit(1)
		}
		defer func() { _ = rc.Close() }()
		metaCache = rc
	} else {
		metaCache = cache.NewMemoryCache(apiCfg.CacheTTL)
	}

	// analytics
	var sink analytics.Sink
	if apiCfg.NATSURL != "" {
		nc, err := natsconn.Connect(natsconn.Options{URL: apiCfg.NATSURL, Name: cfg.ServiceName})
		if err != nil {
			log.Error("nats connect", zap.Error(err))
			run.Exit(1)
		}
		defer nc.Close()
		js, err := nc.JetStream()
		if err != nil {
			log.Error("jetstream", zap.Error(err))
			run.Exit(1)
		}
		analytics.EnsureStream(js, log)
		sink = js
	} else {
		log.Warn("NATS_URL not set, analytics events will not be published")
	}
	ap := analytics.New(sink, log)

	// metadata source
	cb := gobreaker.NewCircuitBreaker(withStateLog(anilist.BreakerSettings(
		"anilist", apiCfg.CBMaxRequests, apiCfg.CBInterval, apiCfg.CBTimeout, apiCfg.CBFailureThreshold,
	), log))
	catalog := anilist.New(apiCfg.AniListURL, anilist.ClientConfig{
		MaxRetries:     apiCfg.MaxRetries,
		RetryBaseDelay: apiCfg.RetryBaseDelay,
	}, anilist.WithCircuitBreaker(cb), anilist.WithCache(metaCache), anilist.WithLogger(log))

	// video provider
	throttle := provider.NewThrottle(apiCfg.ProviderMaxConcurrency, apiCfg.ProviderRPS)
	registry := provider.NewRegistry(
		animesonline.New(animesonline.Config{
			BaseURL:        apiCfg.ProviderBaseURL,
			UserAgent:      apiCfg.ProviderUserAgent,
			RequestTimeout: apiCfg.ProviderRequestTimeout,
		}, animesonline.WithThrottle(throttle), animesonline.WithLogger(log)),
	)
	active, err := registry.Get(apiCfg.VideoProvider)
	if err != nil {
		log.Error("video provider", zap.Error(err))
		run.Exit(1)
	}
	log.Info("video provider selected",
		zap.String("provider", active.Identity().Name),
		zap.String("base_url", active.Identity().BaseURL))

	watchLimiter := apihttp.NewRateLimiter(apiCfg.WatchRateLimitRPS, apiCfg.WatchRateLimitBurst)
	if watchLimiter == nil {
		log.Warn("WATCH_RATE_LIMIT_RPS <= 0, /watch is not rate limited")
	}

	r := apihttp.NewRouter(apihttp.Deps{
		Store:        st,
		Tokens:       tokens.Service{Secret: apiCfg.JWTSecret, AccessTokenTTL: apiCfg.AccessTokenTTL},
		Catalog:      catalog,
		Video:        video.New(active, log, ap),
		Analytics:    ap,
		Log:          log,
		WatchLimiter: watchLimiter,
		Ready: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return st.Ping(ctx)
		},
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go runner.Graceful(ctx, srv.Shutdown)
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

func withStateLog(s gobreaker.Settings, log *zap.Logger) gobreaker.Settings {
	s.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info("circuit-breaker state change", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
	}
	return s
}
