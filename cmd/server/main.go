// Command server runs the room history API.
//
// @title       Room History API
// @version     1.0
// @description Cursor-paginated, duplicate-free history of room chat and stake events.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tbourn/room-history/internal/cache"
	"github.com/tbourn/room-history/internal/config"
	httpapi "github.com/tbourn/room-history/internal/http"
	"github.com/tbourn/room-history/internal/observability"
	"github.com/tbourn/room-history/internal/repo"
	"github.com/tbourn/room-history/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger := sysutil.ConfigureLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenDB(cfg.DB)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("database open failed")
	}
	if cfg.DB.AutoMigrate {
		logger.Info().Msg("running database migrations...")
		if err := repo.AutoMigrate(db); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}
	if sysutil.IsTruthy(os.Getenv("MIGRATE_ONLY")) {
		logger.Info().Msg("migrations completed, exiting")
		return
	}

	pageCache, err := newPageCache(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer pageCache.Close()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, pageCache, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("version", appVersion).
			Str("db_driver", cfg.DB.Driver).
			Msg("starting room history server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("otel shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info().Msg("server stopped")
}

// newPageCache returns the Redis page cache when REDIS_ADDR is set and the
// in-process cache otherwise. The in-process cache is swept once a minute
// until ctx is done.
func newPageCache(ctx context.Context, rc config.RedisConfig, logger zerolog.Logger) (cache.PageCache, error) {
	if rc.Addr != "" {
		c, err := cache.NewRedisPageCache(rc)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("addr", rc.Addr).Msg("connected to Redis")
		return c, nil
	}

	mc := cache.NewMemoryPageCache()
	go sweepLoop(ctx, mc, time.Minute, logger)
	logger.Info().Msg("REDIS_ADDR not set, using in-process page cache")
	return mc, nil
}

func sweepLoop(ctx context.Context, mc *cache.MemoryPageCache, every time.Duration, logger zerolog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := mc.Sweep(); n > 0 {
				logger.Debug().Int("evicted", n).Msg("page cache swept")
			}
		}
	}
}
