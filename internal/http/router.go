// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/room-history/docs"
	"github.com/tbourn/room-history/internal/cache"
	"github.com/tbourn/room-history/internal/config"
	"github.com/tbourn/room-history/internal/domain"
	"github.com/tbourn/room-history/internal/http/handlers"
	"github.com/tbourn/room-history/internal/http/middleware"
	"github.com/tbourn/room-history/internal/repo"
	"github.com/tbourn/room-history/internal/services"
)

// historyRepoShim adapts the repository free functions to the
// services.HistoryRepo interface expected by the HistoryService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type historyRepoShim struct{}

// ListIndexPage proxies repo.ListIndexPage.
func (historyRepoShim) ListIndexPage(ctx context.Context, db *gorm.DB, roomID int64, after domain.Cursor, limit int) ([]domain.MessageIndexEntry, error) {
	return repo.ListIndexPage(ctx, db, roomID, after, limit)
}

// LoadContent proxies repo.LoadContent.
func (historyRepoShim) LoadContent(ctx context.Context, db *gorm.DB, tag domain.TypeTag, ids []int64) (map[int64]domain.ContentRow, error) {
	return repo.LoadContent(ctx, db, tag, ids)
}

// LoadUsers proxies repo.LoadUsers.
func (historyRepoShim) LoadUsers(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]domain.User, error) {
	return repo.LoadUsers(ctx, db, ids)
}

// LoadAgents proxies repo.LoadAgents.
func (historyRepoShim) LoadAgents(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]domain.Agent, error) {
	return repo.LoadAgents(ctx, db, ids)
}

// roomRepoShim adapts repo.ListActiveRooms to services.RoomRepo.
type roomRepoShim struct{}

// ListActiveRooms proxies repo.ListActiveRooms.
func (roomRepoShim) ListActiveRooms(ctx context.Context, db *gorm.DB, parentIDs []int64) ([]domain.Room, error) {
	return repo.ListActiveRooms(ctx, db, parentIDs)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// compression, CORS and security headers, health and metrics endpoints, and
// then mounts the history API under cfg.APIBasePath.
//
// pageCache may be nil, in which case every page is read from the store.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing, request-scoped logger
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per client IP, probes exempt)
//  8. Gzip
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, pageCache cache.PageCache, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
		PlainParams: middleware.HistoryQueryParams,
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB); the API is read-only
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per client IP
	r.Use(middleware.BypassPaths("/health", "/metrics"))
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 8) History pages are JSON-heavy
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/cache
	historySvc := newHistoryService(db, pageCache, cfg.History)
	roomSvc := &services.RoomService{
		DB:        db,
		Repo:      roomRepoShim{},
		ParentIDs: cfg.Rooms.ParentIDs,
		WSURLs:    cfg.Rooms.WSURLs,
		WSDefault: cfg.Rooms.WSDefault,
	}
	h := handlers.New(historySvc, roomSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		api.GET("/chathistory/history", middleware.CacheablePages(historySvc.CacheTTL), h.GetHistory)
		api.GET("/chathistory/rooms", h.ListRooms)
	}
}

// newHistoryService builds the HistoryService from the history settings.
// Zero values keep the service defaults.
func newHistoryService(db *gorm.DB, pageCache cache.PageCache, hc config.HistoryConfig) *services.HistoryService {
	svc := services.NewHistoryService(db, historyRepoShim{}, pageCache)
	if hc.CacheTTL > 0 {
		svc.CacheTTL = hc.CacheTTL
	}
	if hc.CachePrefix != "" {
		svc.CachePrefix = hc.CachePrefix
	}
	svc.Limits = services.PageLimits{Default: hc.DefaultPerPage, Max: hc.MaxPerPage}

	if hc.AgentPrefix != "" {
		svc.Assembler.AgentPrefix = hc.AgentPrefix
	}
	if hc.DisplayTZ != "" {
		loc, err := time.LoadLocation(hc.DisplayTZ)
		if err != nil {
			log.Warn().Err(err).Str("tz", hc.DisplayTZ).Msg("unknown display timezone, using UTC")
			loc = time.UTC
		}
		svc.Assembler.Location = loc
	}
	if hc.StakeAmount == "structured" {
		svc.Assembler.Amount = services.StructuredAmount{}
	}
	return svc
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
