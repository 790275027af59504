package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// Stores
	t.Setenv("DB_DRIVER", "SQLite3")
	t.Setenv("DB_DSN", "db.sqlite")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")

	// History
	t.Setenv("HISTORY_DEFAULT_PER_PAGE", "10")
	t.Setenv("HISTORY_MAX_PER_PAGE", "40")
	t.Setenv("HISTORY_CACHE_TTL", "90s")
	t.Setenv("AGENT_ID_PREFIX", "bot_")
	t.Setenv("DISPLAY_TIMEZONE", "Asia/Shanghai")
	t.Setenv("HISTORY_STAKE_AMOUNT", "Structured")

	// Rooms
	t.Setenv("ROOM_PARENT_IDS", "1, 2")
	t.Setenv("ROOM_WS_URLS", "1=wss://a:1, 2 = wss://b:2")
	t.Setenv("ROOM_WS_DEFAULT", "wss://fallback")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// Stores
	if cfg.DB.Driver != "sqlite" || cfg.DB.DSN != "db.sqlite" || !cfg.DB.AutoMigrate {
		t.Fatalf("db unexpected: %+v", cfg.DB)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("redis unexpected: %+v", cfg.Redis)
	}

	// History
	h := cfg.History
	if h.DefaultPerPage != 10 || h.MaxPerPage != 40 || h.CacheTTL != 90*time.Second ||
		h.AgentPrefix != "bot_" || h.DisplayTZ != "Asia/Shanghai" || h.CachePrefix != "chat_history:" || h.StakeAmount != "structured" {
		t.Fatalf("history unexpected: %+v", h)
	}

	// Rooms
	if !reflect.DeepEqual(cfg.Rooms.ParentIDs, []int64{1, 2}) {
		t.Fatalf("room parents unexpected: %#v", cfg.Rooms.ParentIDs)
	}
	if cfg.Rooms.WSURLs[1] != "wss://a:1" || cfg.Rooms.WSURLs[2] != "wss://b:2" || cfg.Rooms.WSDefault != "wss://fallback" {
		t.Fatalf("room ws unexpected: %+v", cfg.Rooms)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_ConfigFileLayer_EnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	body := "port: \"9191\"\nhistory_max_per_page: 30\ndb_driver: mysql\ndb_dsn: \"u:p@tcp(db:3306)/feed\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("env should override file, got port %q", cfg.Port)
	}
	if cfg.History.MaxPerPage != 30 || cfg.DB.Driver != "mysql" || cfg.DB.DSN != "u:p@tcp(db:3306)/feed" {
		t.Fatalf("file values not applied: %+v %+v", cfg.History, cfg.DB)
	}
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil || !containsErr(err, "read config file") {
		t.Fatalf("expected config file error, got %v", err)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name, key, val, want string
	}{
		{"invalid LOG_LEVEL", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"empty PORT via spaces", "PORT", "   ", "PORT must not be empty"},
		{"non-positive timeouts", "READ_TIMEOUT", "0s", "timeouts must be positive"},
		{"max header bytes <= 0", "MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"unknown db driver", "DB_DRIVER", "oracle", "DB_DRIVER"},
		{"negative redis db", "REDIS_DB", "-1", "REDIS_DB"},
		{"max per page < 1", "HISTORY_MAX_PER_PAGE", "0", "HISTORY_MAX_PER_PAGE"},
		{"default per page above max", "HISTORY_DEFAULT_PER_PAGE", "51", "HISTORY_DEFAULT_PER_PAGE"},
		{"cache ttl non-positive", "HISTORY_CACHE_TTL", "0s", "HISTORY_CACHE_TTL"},
		{"bad timezone", "DISPLAY_TIMEZONE", "Mars/Olympus", "DISPLAY_TIMEZONE"},
		{"unknown stake amount", "HISTORY_STAKE_AMOUNT", "regex", "HISTORY_STAKE_AMOUNT"},
		{"bad room parents", "ROOM_PARENT_IDS", "16,x", "ROOM_PARENT_IDS"},
		{"bad ws map", "ROOM_WS_URLS", "1:wss://a", "ROOM_WS_URLS"},
		{"rate rps negative", "RATE_RPS", "-1", "RATE_RPS"},
		{"rate burst < 1", "RATE_BURST", "0", "RATE_BURST"},
		{"hsts max age negative", "HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE"},
		{"otel sample ratio out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil || !containsErr(err, tc.want) {
				t.Fatalf("expected %s validation error, got: %v", tc.want, err)
			}
		})
	}
}

// --- helpers ---

func newSource() source {
	v := viper.New()
	v.AutomaticEnv()
	return source{v: v}
}

func TestHelpers_getenv(t *testing.T) {
	s := newSource()
	t.Setenv("X_EMPTY", "")
	if s.getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if s.getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	s := newSource()
	t.Setenv("F_VALID", "3.14")
	if s.getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if s.getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}

	t.Setenv("I_VALID", "42")
	if s.getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if s.getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}

	t.Setenv("D_VALID", "150ms")
	if s.getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if s.getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	s := newSource()
	trueVals := []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"}
	for i, v := range trueVals {
		k := "B_T_" + config_strconv(i)
		t.Setenv(k, v)
		if !s.getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	falseVals := []string{"0", "false", "FALSE", " no ", "N", "off", "Off"}
	for i, v := range falseVals {
		k := "B_F_" + config_strconv(i)
		t.Setenv(k, v)
		if s.getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	// default on unset/empty
	t.Setenv("B_EMPTY", "")
	if !s.getbool("B_EMPTY", true) || s.getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	in := " a, ,b ,  c  ,"
	want := []string{"a", "b", "c"}
	if got := splitCSV(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("splitCSV mismatch: got %#v want %#v", got, want)
	}

	// normalizeBasePath
	if normalizeBasePath("") != "/" {
		t.Fatalf("normalizeBasePath empty -> '/' failed")
	}
	if normalizeBasePath("v1") != "/v1" {
		t.Fatalf("normalizeBasePath missing leading slash failed")
	}
	if normalizeBasePath("/v1/") != "/v1" {
		t.Fatalf("normalizeBasePath trailing slash trim failed")
	}
	if normalizeBasePath(" / ") != "/" {
		t.Fatalf("normalizeBasePath whitespace failed")
	}
}

func TestHelpers_parseIDList_parseIDMap(t *testing.T) {
	ids, err := parseIDList(" 16,17 , 19 ")
	if err != nil || !reflect.DeepEqual(ids, []int64{16, 17, 19}) {
		t.Fatalf("parseIDList: %v %v", ids, err)
	}
	if ids, err := parseIDList(""); err != nil || len(ids) != 0 {
		t.Fatalf("parseIDList empty: %v %v", ids, err)
	}
	m, err := parseIDMap("1=wss://a:2999,3=wss://b")
	if err != nil || m[1] != "wss://a:2999" || m[3] != "wss://b" {
		t.Fatalf("parseIDMap: %v %v", m, err)
	}
	if _, err := parseIDMap("x=wss://a"); err == nil {
		t.Fatalf("parseIDMap should reject non-numeric ids")
	}
}

// small helper (avoid fmt just for ints)
func config_strconv(i int) string { return string('a' + rune(i)) }

// Ensure tests don't leak env to others.
func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Unsetenv("CONFIG_FILE")
	os.Exit(m.Run())
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("API_BASE_PATH default expected '/api/v1', got %q", cfg.APIBasePath)
	}
	if cfg.History.DefaultPerPage != 20 || cfg.History.MaxPerPage != 50 || cfg.History.CacheTTL != 5*time.Minute {
		t.Fatalf("history defaults unexpected: %+v", cfg.History)
	}
	if !reflect.DeepEqual(cfg.Rooms.ParentIDs, []int64{16, 17, 19}) {
		t.Fatalf("room parent defaults unexpected: %v", cfg.Rooms.ParentIDs)
	}
	if cfg.DB.Driver != "sqlite" || cfg.Redis.Addr != "" {
		t.Fatalf("store defaults unexpected: %+v %+v", cfg.DB, cfg.Redis)
	}
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	// No special env needed; defaults are valid.
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath == "" {
		t.Fatalf("unexpected empty config from MustLoad")
	}
}
