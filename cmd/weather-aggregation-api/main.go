package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	httpapi "github.com/dkotenko/weather-aggregation-api/internal/api/http"
	"github.com/dkotenko/weather-aggregation-api/internal/cache"
	"github.com/dkotenko/weather-aggregation-api/internal/config"
	"github.com/dkotenko/weather-aggregation-api/internal/geo"
	"github.com/dkotenko/weather-aggregation-api/internal/scheduler"
	"github.com/dkotenko/weather-aggregation-api/internal/store"
	"github.com/dkotenko/weather-aggregation-api/internal/weather"
	"github.com/dkotenko/weather-aggregation-api/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()

	// Durable tier: connection pool plus schema migrations.
	pool, err := pgxpool.New(initCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(initCtx); err != nil {
		log.Fatalf("failed to reach database: %v", err)
	}
	if err := store.Migrate(initCtx, cfg.DatabaseURL); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	repo := store.New(pool)

	// Fast tier: Redis when configured and reachable, otherwise an in-process
	// TTL map. Either way the pipeline sees the same best-effort Store.
	var fastCache cache.Store = cache.NewMemory()
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Printf("redis unavailable, falling back to in-memory cache: %v", err)
		} else {
			fastCache = redisCache
		}
	}
	defer fastCache.Close()

	// Shared HTTP client for outbound upstream calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	resolver := geo.NewResolver(httpClient, cfg.APINinjasKey, fastCache, cfg.GeocodingTTL)

	service := weather.NewService(weather.ServiceConfig{
		Cache:    fastCache,
		Store:    repo,
		Resolver: resolver,
		Providers: []weather.Provider{
			providers.NewOpenMeteoProvider(httpClient),
			providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey),
		},
		Archive: providers.NewOpenMeteoArchiveProvider(httpClient),
		TTL: weather.TTLConfig{
			Current:  cfg.CacheTTLCurrent,
			Forecast: cfg.CacheTTLForecast,
			History:  cfg.CacheTTLHistory,
		},
		ProviderTimeout: cfg.ProviderTimeout,
	})

	// Retention sweeper runs independently of the serving path.
	sweeper := scheduler.NewSweeper(repo, cfg.SweepInterval, cfg.Retention())
	if err := sweeper.Start(); err != nil {
		log.Fatalf("failed to start retention sweeper: %v", err)
	}
	defer sweeper.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-aggregation-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(httpapi.MetricsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "API is running",
		})
	})
	app.Get("/metrics", httpapi.MetricsHandler())

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
