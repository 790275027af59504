// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database and cache connections, history
// pagination, rate limiting, and observability.
//
// Values are resolved through a viper instance bound to the environment.
// When CONFIG_FILE names a YAML/TOML/JSON file, its keys (same names as the
// environment variables, case-insensitive) act as a base layer that
// environment variables override.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "room-history")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects and addresses the relational store.
type DBConfig struct {
	Driver      string // sqlite|mysql|postgres
	DSN         string // file path for sqlite, DSN otherwise
	AutoMigrate bool   // create tables on startup (dev/sqlite)
}

// RedisConfig addresses the page cache. An empty Addr selects the
// in-process cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// HistoryConfig holds pagination and formatting settings for the history
// endpoint.
type HistoryConfig struct {
	DefaultPerPage int
	MaxPerPage     int
	CacheTTL       time.Duration
	CachePrefix    string
	AgentPrefix    string // prefix of agent sender ids, e.g. "robot_"
	DisplayTZ      string // IANA zone used for H:i:s rendering
	StakeAmount    string // trailing|structured
}

// RoomsConfig controls the active-room listing.
type RoomsConfig struct {
	ParentIDs []int64
	WSURLs    map[int64]string
	WSDefault string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Stores
	DB    DBConfig
	Redis RedisConfig

	// App
	History HistoryConfig
	Rooms   RoomsConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables (and the optional
// CONFIG_FILE), applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if path := strings.TrimSpace(v.GetString("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	src := source{v: v}

	cfg := Config{
		// Server
		Port:              src.getenv("PORT", "8080"),
		ReadTimeout:       src.getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: src.getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      src.getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       src.getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    src.getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(src.getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(src.getenv("LOG_LEVEL", "info")),
		LogPretty:      src.getbool("LOG_PRETTY", false),
		SwaggerEnabled: src.getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(src.getenv("API_BASE_PATH", "/api/v1")),

		// Stores
		DB: DBConfig{
			Driver:      strings.ToLower(src.getenv("DB_DRIVER", "sqlite")),
			DSN:         src.getenv("DB_DSN", "app.db"),
			AutoMigrate: src.getbool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Addr:     src.getenv("REDIS_ADDR", ""),
			Password: src.getenv("REDIS_PASSWORD", ""),
			DB:       src.getint("REDIS_DB", 0),
		},

		// App
		History: HistoryConfig{
			DefaultPerPage: src.getint("HISTORY_DEFAULT_PER_PAGE", 20),
			MaxPerPage:     src.getint("HISTORY_MAX_PER_PAGE", 50),
			CacheTTL:       src.getdur("HISTORY_CACHE_TTL", 5*time.Minute),
			CachePrefix:    src.getenv("HISTORY_CACHE_PREFIX", "chat_history:"),
			AgentPrefix:    src.getenv("AGENT_ID_PREFIX", "robot_"),
			DisplayTZ:      src.getenv("DISPLAY_TIMEZONE", "UTC"),
			StakeAmount:    strings.ToLower(src.getenv("HISTORY_STAKE_AMOUNT", "trailing")),
		},
		Rooms: RoomsConfig{
			WSDefault: src.getenv("ROOM_WS_DEFAULT", "wss://localhost:2999"),
		},

		// Rate limiting
		RateRPS:   src.getfloat("RATE_RPS", 5.0),
		RateBurst: src.getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(src.getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: src.getbool("ENABLE_HSTS", false),
			HSTSMaxAge: src.getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     src.getbool("OTEL_ENABLED", false),
			Endpoint:    src.getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    src.getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: src.getenv("OTEL_SERVICE_NAME", "room-history"),
			SampleRatio: src.getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	parents, err := parseIDList(src.getenv("ROOM_PARENT_IDS", "16,17,19"))
	if err != nil {
		return cfg, fmt.Errorf("ROOM_PARENT_IDS: %w", err)
	}
	cfg.Rooms.ParentIDs = parents
	wsURLs, err := parseIDMap(src.getenv("ROOM_WS_URLS", ""))
	if err != nil {
		return cfg, fmt.Errorf("ROOM_WS_URLS: %w", err)
	}
	cfg.Rooms.WSURLs = wsURLs

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "sqlite3" {
		cfg.DB.Driver = "sqlite"
	}
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, mysql, postgres")
	}
	if strings.TrimSpace(cfg.DB.DSN) == "" {
		return cfg, errors.New("DB_DSN must not be empty")
	}
	if cfg.Redis.DB < 0 {
		return cfg, errors.New("REDIS_DB must be >= 0")
	}
	if cfg.History.MaxPerPage < 1 {
		return cfg, errors.New("HISTORY_MAX_PER_PAGE must be >= 1")
	}
	if cfg.History.DefaultPerPage < 1 || cfg.History.DefaultPerPage > cfg.History.MaxPerPage {
		return cfg, errors.New("HISTORY_DEFAULT_PER_PAGE must be in [1, HISTORY_MAX_PER_PAGE]")
	}
	if cfg.History.CacheTTL <= 0 {
		return cfg, errors.New("HISTORY_CACHE_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.History.AgentPrefix) == "" {
		return cfg, errors.New("AGENT_ID_PREFIX must not be empty")
	}
	if _, err := time.LoadLocation(cfg.History.DisplayTZ); err != nil {
		return cfg, fmt.Errorf("DISPLAY_TIMEZONE: %w", err)
	}
	switch cfg.History.StakeAmount {
	case "trailing", "structured":
	default:
		return cfg, errors.New("HISTORY_STAKE_AMOUNT must be one of: trailing, structured")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

// source wraps the viper instance so the typed getters keep the
// "default on missing or unparsable" behavior.
type source struct {
	v *viper.Viper
}

func (s source) getenv(k, def string) string {
	if v := strings.TrimSpace(s.v.GetString(k)); v != "" {
		return s.v.GetString(k)
	}
	return def
}

func (s source) getfloat(k string, def float64) float64 {
	if v := s.getenv(k, ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (s source) getint(k string, def int) int {
	if v := s.getenv(k, ""); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) getbool(k string, def bool) bool {
	if v := s.getenv(k, ""); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func (s source) getdur(k string, def time.Duration) time.Duration {
	if v := s.getenv(k, ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseIDList parses "16,17,19" into ids.
func parseIDList(s string) ([]int64, error) {
	parts := splitCSV(s)
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", p)
		}
		out = append(out, id)
	}
	return out, nil
}

// parseIDMap parses "1=wss://a,2=wss://b" into an id -> value map.
func parseIDMap(s string) (map[int64]string, error) {
	out := make(map[int64]string)
	for _, p := range splitCSV(s) {
		k, val, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q must be id=value", p)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", k)
		}
		out[id] = strings.TrimSpace(val)
	}
	return out, nil
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
