package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"go.uber.org/zap"

	"github.com/vivek-vibhuti/linkshrink/internal/analytics"
	"github.com/vivek-vibhuti/linkshrink/internal/auth"
	"github.com/vivek-vibhuti/linkshrink/internal/cache"
	"github.com/vivek-vibhuti/linkshrink/internal/config"
	"github.com/vivek-vibhuti/linkshrink/internal/database"
	httpdelivery "github.com/vivek-vibhuti/linkshrink/internal/delivery/http"
	"github.com/vivek-vibhuti/linkshrink/internal/eventbus"
	"github.com/vivek-vibhuti/linkshrink/internal/geoip"
	"github.com/vivek-vibhuti/linkshrink/internal/links"
	"github.com/vivek-vibhuti/linkshrink/internal/qr"
	"github.com/vivek-vibhuti/linkshrink/internal/repository/sqlite"
	"github.com/vivek-vibhuti/linkshrink/internal/shortener"
)

const aggregationInterval = 500 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger, err := newLogger(cfg.DevMode)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		logger.Fatal("failed to create data directory", zap.Error(err))
	}

	db, err := database.OpenDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database initialized", zap.String("path", cfg.DatabasePath))

	// GeoIP is best-effort: without a database every click lands in the
	// Unknown bucket.
	var geo geoip.Resolver = geoip.Unresolved{}
	if resolver, err := geoip.NewMaxMindResolver(cfg.GeoIPDBPath); err != nil {
		logger.Warn("GeoIP database not available, country resolution disabled",
			zap.String("path", cfg.GeoIPDBPath),
			zap.Error(err),
		)
	} else {
		defer resolver.Close()
		geo = resolver
	}

	// Repositories
	linkRepo := sqlite.NewLinkRepository(db)
	clickRepo := sqlite.NewClickRepository(db)
	snapshotRepo := sqlite.NewSnapshotRepository(db)

	// Optional redirect cache
	var directoryRepo links.Repository = linkRepo
	if cfg.RedisAddr != "" {
		linkCache, err := cache.NewRedisLinkCache(cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL, logger)
		if err != nil {
			logger.Warn("redis unavailable, redirect cache disabled",
				zap.String("addr", cfg.RedisAddr),
				zap.Error(err),
			)
		} else {
			defer linkCache.Close()
			directoryRepo = cache.NewCachedLinkRepository(linkRepo, linkCache)
			logger.Info("redirect cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	// Services
	allocator := shortener.NewAllocator(directoryRepo)
	linkSvc := links.NewService(directoryRepo, allocator, logger)
	aggregator := analytics.NewAggregator(clickRepo, snapshotRepo, logger)
	scheduler := analytics.NewScheduler(aggregator, aggregationInterval, logger)
	recorder := analytics.NewRecorder(clickRepo, geo, scheduler, logger)

	// Click pipeline
	busLogger := eventbus.NewZapLoggerAdapter(logger)
	bus := eventbus.NewEventBus(busLogger)
	router, err := eventbus.NewRouter(bus, busLogger)
	if err != nil {
		logger.Fatal("failed to create event router", zap.Error(err))
	}
	router.AddHandler(recorder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := router.Run(ctx); err != nil {
			logger.Error("event router stopped", zap.Error(err))
		}
	}()
	<-router.Running()
	go scheduler.Run(ctx)

	tokens := auth.NewTokenManager(cfg.JWTSecret, 24*time.Hour)
	handler := httpdelivery.NewHandler(
		linkSvc, aggregator, clickRepo, bus,
		qr.NewDataURIProvider(256), tokens,
		logger, cfg.BaseURL, cfg.DevMode, db,
	)
	authMW := httpdelivery.NewAuthMiddleware(tokens)
	rateLimiter := httpdelivery.NewRateLimiter(cfg.RateLimit)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpdelivery.NewRouter(handler, authMW, rateLimiter, logger),
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("base_url", cfg.BaseURL),
			zap.Int("rate_limit", cfg.RateLimit),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Drain the click pipeline, then flush pending aggregations.
	if err := router.Close(); err != nil {
		logger.Error("failed to close event router", zap.Error(err))
	}
	if err := bus.Close(); err != nil {
		logger.Error("failed to close event bus", zap.Error(err))
	}
	scheduler.Stop()
	scheduler.Flush(context.Background())

	logger.Info("server stopped")
}

func newLogger(devMode bool) (*zap.Logger, error) {
	if devMode {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
