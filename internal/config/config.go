// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the bot settings
// (token, access lists, timezone, schedules, intake limits) together with
// the ops HTTP server, logging, rate limiting and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // embedded zoneinfo for TIMEZONE
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "scooter-intake")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// BotConfig holds the Telegram side. It is immutable once loaded.
type BotConfig struct {
	Token          string        // BOT_TOKEN; the bot is disabled when empty
	AdminIDs       []int64       // ADMIN_IDS
	AllowedChatIDs []int64       // ALLOWED_CHAT_IDS
	ReportChatIDs  []int64       // REPORT_CHAT_IDS
	SendRPS        float64       // SEND_RPS, outbound messages per second
	SendBurst      int           // SEND_BURST
	Workers        int           // BOT_WORKERS, concurrently handled updates
	DedupTTL       time.Duration // UPDATE_DEDUP_TTL
}

// ScheduleConfig holds the timed shift reports.
type ScheduleConfig struct {
	Enabled   bool   // SCHEDULER_ENABLED
	MorningAt string // MORNING_REPORT_AT, "HH:MM"
	EveningAt string // EVENING_REPORT_AT, "HH:MM"
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
	APIToken       string // bearer token for the admin API; admin routes are off when empty

	// App
	DBPath      string         // SQLite path
	Timezone    string         // IANA name
	Location    *time.Location // resolved Timezone
	BulkMax     int            // largest bulk quantity
	ChunkLimit  int            // chat message size limit
	AliasesFile string         // optional YAML with extra alias tokens

	Bot      BotConfig
	Schedule ScheduleConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// IsAdmin reports whether userID is listed in ADMIN_IDS.
func (c BotConfig) IsAdmin(userID int64) bool { return contains(c.AdminIDs, userID) }

// IsAllowedChat reports whether chatID is listed in ALLOWED_CHAT_IDS.
func (c BotConfig) IsAllowedChat(chatID int64) bool { return contains(c.AllowedChatIDs, chatID) }

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),
		APIToken:       strings.TrimSpace(os.Getenv("API_TOKEN")),

		// App
		DBPath:      getenv("DB_PATH", "scooters.db"),
		Timezone:    getenv("TIMEZONE", "Asia/Almaty"),
		BulkMax:     getint("BULK_MAX", 200),
		ChunkLimit:  getint("CHUNK_LIMIT", 4000),
		AliasesFile: getenv("ALIASES_FILE", ""),

		Bot: BotConfig{
			Token:     strings.TrimSpace(os.Getenv("BOT_TOKEN")),
			SendRPS:   getfloat("SEND_RPS", 20),
			SendBurst: getint("SEND_BURST", 5),
			Workers:   getint("BOT_WORKERS", 4),
			DedupTTL:  getdur("UPDATE_DEDUP_TTL", 24*time.Hour),
		},
		Schedule: ScheduleConfig{
			Enabled:   getbool("SCHEDULER_ENABLED", true),
			MorningAt: getenv("MORNING_REPORT_AT", "15:00"),
			EveningAt: getenv("EVENING_REPORT_AT", "23:00"),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "scooter-intake"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	var err error
	if cfg.Bot.AdminIDs, err = getids("ADMIN_IDS"); err != nil {
		return cfg, err
	}
	if cfg.Bot.AllowedChatIDs, err = getids("ALLOWED_CHAT_IDS"); err != nil {
		return cfg, err
	}
	if cfg.Bot.ReportChatIDs, err = getids("REPORT_CHAT_IDS"); err != nil {
		return cfg, err
	}
	if cfg.Location, err = time.LoadLocation(cfg.Timezone); err != nil {
		return cfg, fmt.Errorf("TIMEZONE: %w", err)
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
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.BulkMax < 1 {
		return cfg, errors.New("BULK_MAX must be >= 1")
	}
	if cfg.ChunkLimit < 100 {
		return cfg, errors.New("CHUNK_LIMIT must be >= 100")
	}
	if cfg.Bot.SendRPS <= 0 {
		return cfg, errors.New("SEND_RPS must be > 0")
	}
	if cfg.Bot.SendBurst < 1 {
		return cfg, errors.New("SEND_BURST must be >= 1")
	}
	if cfg.Bot.Workers < 1 {
		return cfg, errors.New("BOT_WORKERS must be >= 1")
	}
	if cfg.Bot.DedupTTL <= 0 {
		return cfg, errors.New("UPDATE_DEDUP_TTL must be > 0")
	}
	if !validClock(cfg.Schedule.MorningAt) {
		return cfg, errors.New("MORNING_REPORT_AT must be HH:MM")
	}
	if !validClock(cfg.Schedule.EveningAt) {
		return cfg, errors.New("EVENING_REPORT_AT must be HH:MM")
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
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getids parses a CSV of chat or user ids. Unlike the other getters a
// malformed entry is an error, not a fallback.
func getids(k string) ([]int64, error) {
	parts := splitCSV(os.Getenv(k))
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a comma-separated list of integers, got %q", k, p)
		}
		out = append(out, id)
	}
	return out, nil
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
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
