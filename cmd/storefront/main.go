package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/beauty-storefront/internal/config"
	"github.com/Sternrassler/beauty-storefront/pkg/browse"
	"github.com/Sternrassler/beauty-storefront/pkg/cache"
	"github.com/Sternrassler/beauty-storefront/pkg/cart"
	"github.com/Sternrassler/beauty-storefront/pkg/catalog"
	"github.com/Sternrassler/beauty-storefront/pkg/client"
	"github.com/Sternrassler/beauty-storefront/pkg/events"
	"github.com/Sternrassler/beauty-storefront/pkg/logging"
	"github.com/Sternrassler/beauty-storefront/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load(config.Options{
		ConfigFile: os.Getenv("STOREFRONT_CONFIG_FILE"),
		EnvFile:    ".env",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := logging.Setup(logging.ForEnvironment(cfg.Environment, cfg.LogLevel, cfg.LogPretty))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatal().Err(err).Str("component", logging.ComponentServer).Msg("Server failed")
	}
}

// app is the wired storefront.
type app struct {
	redis   *redis.Client
	hub     *events.Hub
	store   *cart.Store
	badge   *cart.Badge
	page    *cart.Page
	loader  *browse.Loader
	api     *client.Client
	handler http.Handler
}

// newApp connects to Redis and builds the storefront components. Each
// component tags logger with its own name.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	srvLogger := logger.With().Str("component", logging.ComponentServer).Logger()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, err
	}
	srvLogger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")

	gateway := storage.NewGateway(redisClient, logger)
	hub := events.NewHub(logger)

	store, err := cart.NewStore(ctx, gateway,
		cart.WithLogger(logger),
		cart.WithHub(hub),
		cart.WithRemote(events.NewRedisTransport(redisClient, cfg.CartChannel, logger)),
	)
	if err != nil {
		hub.Close()
		redisClient.Close()
		return nil, err
	}

	badge := cart.NewBadge(store)
	badge.OnChange(func() {
		srvLogger.Debug().Int("items", badge.Count()).Msg("Cart badge updated")
	})
	if err := badge.Mount(); err != nil {
		store.Close()
		hub.Close()
		redisClient.Close()
		return nil, err
	}

	page := cart.NewPage(store)
	if err := page.Mount(); err != nil {
		badge.Close()
		store.Close()
		hub.Close()
		redisClient.Close()
		return nil, err
	}

	apiConfig := client.DefaultConfig(cfg.APIBaseURL)
	apiConfig.UserAgent = cfg.UserAgent
	apiConfig.Timeout = cfg.RequestTimeout
	apiConfig.MaxRetries = cfg.MaxRetries
	apiConfig.InitialBackoff = cfg.InitialBackoff

	api, err := client.New(apiConfig)
	if err != nil {
		page.Close()
		badge.Close()
		store.Close()
		hub.Close()
		redisClient.Close()
		return nil, err
	}

	cacheManager := cache.NewManager(gateway, cache.WithTTL(cfg.CacheTTL), cache.WithLogger(logger))
	loader := browse.NewLoader(cacheManager, api, logger)

	srv := &server{
		redis:    redisClient,
		page:     page,
		badge:    badge,
		loader:   loader,
		products: api,
		pageSize: cfg.PageSize,
		logger:   srvLogger,

		viewLogger:    logger,
		periodicSweep: cfg.SweepInterval > 0,
	}

	return &app{
		redis:   redisClient,
		hub:     hub,
		store:   store,
		badge:   badge,
		page:    page,
		loader:  loader,
		api:     api,
		handler: srv.routes(),
	}, nil
}

func (a *app) Close() {
	a.page.Close()
	a.badge.Close()
	a.store.Close()
	a.hub.Close()
	a.api.Close()
	a.redis.Close()
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger = logger.With().Str("component", logging.ComponentServer).Logger()

	if cfg.WarmCategories {
		go func() {
			if err := a.loader.Warm(ctx, categorySlugs(), cfg.WarmConcurrency); err != nil {
				logger.Warn().Err(err).Msg("Cache warm-up failed")
			}
		}()
	}

	go sweepLoop(ctx, a.loader, cfg.SweepInterval, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Str("api", cfg.APIBaseURL).Msg("Starting storefront server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// sweepLoop removes stale category cache entries every interval until ctx
// is done. A non-positive interval disables it.
func sweepLoop(ctx context.Context, loader *browse.Loader, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := loader.Sweep(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("Periodic cache sweep failed")
				continue
			}
			logger.Debug().Int("removed", removed).Msg("Periodic cache sweep completed")
		}
	}
}

func categorySlugs() []string {
	slugs := make([]string, 0, len(catalog.Categories))
	for _, c := range catalog.Categories {
		slugs = append(slugs, c.Slug)
	}
	return slugs
}
