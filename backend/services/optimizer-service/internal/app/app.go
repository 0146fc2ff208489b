package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "chargeroute/backend/libs/db"
	libredis "chargeroute/backend/libs/redis"
	"chargeroute/backend/services/optimizer-service/internal/cache"
	"chargeroute/backend/services/optimizer-service/internal/clients"
	"chargeroute/backend/services/optimizer-service/internal/config"
	httpserver "chargeroute/backend/services/optimizer-service/internal/http"
	"chargeroute/backend/services/optimizer-service/internal/http/handlers"
	"chargeroute/backend/services/optimizer-service/internal/http/middleware"
	"chargeroute/backend/services/optimizer-service/internal/metrics"
	"chargeroute/backend/services/optimizer-service/internal/ranking"
	"chargeroute/backend/services/optimizer-service/internal/service"
)

// App wires optimizer-service dependencies.
type App struct {
	server      *httpserver.Server
	optimizer   *service.Optimizer
	db          *sql.DB
	redisClient *redis.Client
	memory      *cache.MemoryStore
	logger      *zap.Logger
}

// New constructs the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.New(registry)
	if err != nil {
		return nil, err
	}

	httpClient := clients.NewDefaultHTTPClient(cfg.HTTPTimeout())

	var stations clients.StationSource = clients.NewOpenChargeClient(clients.OpenChargeOptions{
		BaseURL:    cfg.OpenCharge.BaseURL,
		APIKey:     cfg.OpenCharge.APIKey,
		MaxResults: cfg.OpenCharge.MaxResults,
		DistanceKm: cfg.OpenCharge.DistanceKm,
	}, httpClient, recorder, logger)

	records, err := a.recordSource(ctx, cfg, httpClient, recorder)
	if err != nil {
		a.Close()
		return nil, err
	}

	routes, err := routeSource(cfg, httpClient, recorder, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := a.cacheStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if store != nil {
		stations = cache.NewCachedStations(stations, store, recorder, logger)
		records = cache.NewCachedRecords(records, store, recorder, logger)
	}

	a.optimizer = service.NewOptimizer(stations, records, routes, ranking.NewEngine(logger), service.Options{
		Tables: service.Tables{
			Users:           cfg.Profiles.UsersTable,
			UserIDColumn:    cfg.Profiles.UserIDColumn,
			Vehicles:        cfg.Profiles.VehiclesTable,
			VehicleIDColumn: cfg.Profiles.VehicleIDColumn,
		},
		RouteConcurrency: cfg.RoutingConcurrency(),
	}, recorder, logger)

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = metrics.Handler(registry)
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		OptimizeHandler: handlers.NewOptimizeHandler(a.optimizer, logger),
		HealthHandler:   handlers.NewHealthHandler(),
		HelloHandler:    handlers.NewHelloHandler(),
		MetricsHandler:  metricsHandler,
	})

	a.server = httpserver.NewServer(
		cfg.HTTPAddress(),
		router,
		logger,
		middleware.LoggingMiddleware(logger),
		middleware.RecoveryMiddleware(logger),
	)

	return a, nil
}

func (a *App) recordSource(ctx context.Context, cfg *config.Config, httpClient *http.Client, rec *metrics.Recorder) (clients.RecordSource, error) {
	if cfg.Profiles.Backend == config.ProfilesPostgres {
		sqlDB, err := libdb.NewPostgresDB(ctx, cfg.Profiles.DSN, libdb.PoolOptions{
			ApplicationName: "optimizer-service",
			ReadOnly:        true,
		})
		if err != nil {
			return nil, fmt.Errorf("profiles db: %w", err)
		}
		a.db = sqlDB
		return clients.NewPostgresRecords(sqlDB, cfg.HTTPTimeout(), rec, a.logger), nil
	}
	return clients.NewProfilesClient(clients.ProfilesOptions{
		BaseURL:   cfg.Profiles.BaseURL,
		APIKey:    cfg.Profiles.APIKey,
		AuthToken: cfg.Profiles.AuthToken,
	}, httpClient, rec, a.logger), nil
}

func routeSource(cfg *config.Config, httpClient *http.Client, rec *metrics.Recorder, logger *zap.Logger) (clients.RouteSource, error) {
	if cfg.Routing.Provider == config.RoutingGoogle {
		return clients.NewGoogleRoutesClient(clients.GoogleRoutesOptions{
			APIKey:   cfg.Routing.GoogleAPIKey,
			Language: cfg.Routing.Language,
		}, httpClient, rec, logger)
	}
	return clients.NewMapboxClient(clients.MapboxOptions{
		BaseURL:     cfg.Routing.BaseURL,
		AccessToken: cfg.Routing.AccessToken,
		Language:    cfg.Routing.Language,
	}, httpClient, rec, logger), nil
}

// cacheStore returns nil when caching is disabled.
func (a *App) cacheStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		client, err := libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("cache redis: %w", err)
		}
		a.redisClient = client
		return cache.NewRedisStore(client, cfg.CacheTTL()), nil
	case config.CacheMemory:
		a.memory = cache.NewMemoryStore(cfg.CacheTTL())
		return a.memory, nil
	default:
		return nil, nil
	}
}

// Optimizer returns the pipeline for one-shot use outside HTTP.
func (a *App) Optimizer() *service.Optimizer {
	return a.optimizer
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.memory != nil {
		a.memory.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
