package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
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
	t.Setenv("API_TOKEN", " s3cret ")

	// App
	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("TIMEZONE", "Europe/Moscow")
	t.Setenv("BULK_MAX", "50")
	t.Setenv("CHUNK_LIMIT", "3000")
	t.Setenv("ALIASES_FILE", "aliases.yaml")

	// Bot
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", "1, 2")
	t.Setenv("ALLOWED_CHAT_IDS", "-1001")
	t.Setenv("REPORT_CHAT_IDS", "-1001,-1002")
	t.Setenv("SEND_RPS", "10")
	t.Setenv("SEND_BURST", "2")
	t.Setenv("UPDATE_DEDUP_TTL", "1h")

	// Schedule
	t.Setenv("SCHEDULER_ENABLED", "off")
	t.Setenv("MORNING_REPORT_AT", "15:05")
	t.Setenv("EVENING_REPORT_AT", "23:30")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Idempotency
	t.Setenv("IDEMPOTENCY_TTL", "48h")

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
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" || cfg.APIToken != "s3cret" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// App
	if cfg.DBPath != "db.sqlite" || cfg.BulkMax != 50 || cfg.ChunkLimit != 3000 || cfg.AliasesFile != "aliases.yaml" {
		t.Fatalf("app fields unexpected: %+v", cfg)
	}
	if cfg.Location == nil || cfg.Location.String() != "Europe/Moscow" {
		t.Fatalf("location unexpected: %v", cfg.Location)
	}

	// Bot
	if cfg.Bot.Token != "123:abc" || cfg.Bot.SendRPS != 10 || cfg.Bot.SendBurst != 2 || cfg.Bot.DedupTTL != time.Hour {
		t.Fatalf("bot fields unexpected: %+v", cfg.Bot)
	}
	if !reflect.DeepEqual(cfg.Bot.AdminIDs, []int64{1, 2}) ||
		!reflect.DeepEqual(cfg.Bot.AllowedChatIDs, []int64{-1001}) ||
		!reflect.DeepEqual(cfg.Bot.ReportChatIDs, []int64{-1001, -1002}) {
		t.Fatalf("bot ids unexpected: %+v", cfg.Bot)
	}
	if !cfg.Bot.IsAdmin(2) || cfg.Bot.IsAdmin(3) || !cfg.Bot.IsAllowedChat(-1001) || cfg.Bot.IsAllowedChat(-1002) {
		t.Fatalf("bot access helpers unexpected")
	}

	// Schedule
	if cfg.Schedule.Enabled || cfg.Schedule.MorningAt != "15:05" || cfg.Schedule.EveningAt != "23:30" {
		t.Fatalf("schedule unexpected: %+v", cfg.Schedule)
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

	// Idempotency
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name, key, value, want string
	}{
		{"invalid LOG_LEVEL", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"empty PORT via spaces", "PORT", "   ", "PORT must not be empty"},
		{"non-positive timeouts", "READ_TIMEOUT", "0s", "timeouts must be positive"},
		{"max header bytes <= 0", "MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"empty DB_PATH", "DB_PATH", "   ", "DB_PATH must not be empty"},
		{"unknown TIMEZONE", "TIMEZONE", "Mars/Olympus", "TIMEZONE"},
		{"bulk max < 1", "BULK_MAX", "0", "BULK_MAX"},
		{"chunk limit too small", "CHUNK_LIMIT", "10", "CHUNK_LIMIT"},
		{"bad admin id", "ADMIN_IDS", "1,bob", "ADMIN_IDS"},
		{"bad allowed chat id", "ALLOWED_CHAT_IDS", "x", "ALLOWED_CHAT_IDS"},
		{"bad report chat id", "REPORT_CHAT_IDS", "1.5", "REPORT_CHAT_IDS"},
		{"send rps <= 0", "SEND_RPS", "0", "SEND_RPS"},
		{"send burst < 1", "SEND_BURST", "0", "SEND_BURST"},
		{"workers < 1", "BOT_WORKERS", "0", "BOT_WORKERS"},
		{"dedup ttl non-positive", "UPDATE_DEDUP_TTL", "0s", "UPDATE_DEDUP_TTL"},
		{"bad morning time", "MORNING_REPORT_AT", "25:00", "MORNING_REPORT_AT"},
		{"bad evening time", "EVENING_REPORT_AT", "late", "EVENING_REPORT_AT"},
		{"rate rps negative", "RATE_RPS", "-1", "RATE_RPS"},
		{"rate burst < 1", "RATE_BURST", "0", "RATE_BURST"},
		{"hsts max age negative", "HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE"},
		{"idempotency ttl non-positive", "IDEMPOTENCY_TTL", "0s", "IDEMPOTENCY_TTL"},
		{"otel sample ratio out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); !containsErr(err, tc.want) {
				t.Fatalf("expected %s validation error, got: %v", tc.want, err)
			}
		})
	}
}

// --- aliases file ---

func TestLoadAliases(t *testing.T) {
	if m, err := LoadAliases(""); err != nil || m != nil {
		t.Fatalf("empty path should yield nil, nil; got %v, %v", m, err)
	}

	dir := t.TempDir()
	good := filepath.Join(dir, "aliases.yaml")
	writeFile(t, good, "aliases:\n  whoosh: [WH, вуш-вуш]\n  bolt: [bt]\n")
	m, err := LoadAliases(good)
	if err != nil {
		t.Fatalf("LoadAliases: %v", err)
	}
	want := map[string]string{"wh": "whoosh", "вуш-вуш": "whoosh", "bt": "bolt"}
	if !reflect.DeepEqual(m, want) {
		t.Fatalf("aliases mismatch: got %#v want %#v", m, want)
	}

	conflict := filepath.Join(dir, "conflict.yaml")
	writeFile(t, conflict, "aliases:\n  whoosh: [x]\n  bolt: [X]\n")
	if _, err := LoadAliases(conflict); !containsErr(err, "listed for both") {
		t.Fatalf("expected conflict error, got %v", err)
	}

	broken := filepath.Join(dir, "broken.yaml")
	writeFile(t, broken, "aliases: [\n")
	if _, err := LoadAliases(broken); err == nil {
		t.Fatalf("expected yaml error")
	}

	if _, err := LoadAliases(filepath.Join(dir, "missing.yaml")); !containsErr(err, "ALIASES_FILE") {
		t.Fatalf("expected read error, got %v", err)
	}
}

// --- helpers ---

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}

	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}

	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	trueVals := []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"}
	for i, v := range trueVals {
		k := "B_T_" + keySuffix(i)
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	falseVals := []string{"0", "false", "FALSE", " no ", "N", "off", "Off"}
	for i, v := range falseVals {
		k := "B_F_" + keySuffix(i)
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	// default on unset/empty
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_getids_and_validClock(t *testing.T) {
	t.Setenv("IDS_EMPTY", "")
	if ids, err := getids("IDS_EMPTY"); err != nil || ids != nil {
		t.Fatalf("getids empty: %v %v", ids, err)
	}
	t.Setenv("IDS", " -100, 7 ,,")
	if ids, err := getids("IDS"); err != nil || !reflect.DeepEqual(ids, []int64{-100, 7}) {
		t.Fatalf("getids parse: %v %v", ids, err)
	}
	for _, s := range []string{"00:00", "07:30", "23:59"} {
		if !validClock(s) {
			t.Fatalf("validClock(%q) = false", s)
		}
	}
	for _, s := range []string{"", "7", "24:00", "12:60", "noon"} {
		if validClock(s) {
			t.Fatalf("validClock(%q) = true", s)
		}
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

func keySuffix(i int) string { return string('a' + rune(i)) }

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Ensure tests don't leak env to others.
func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "BOT_TOKEN", "ADMIN_IDS", "ALLOWED_CHAT_IDS", "REPORT_CHAT_IDS", "TIMEZONE", "API_TOKEN"} {
		os.Unsetenv(k)
	}
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
	if cfg.Timezone != "Asia/Almaty" || cfg.Location == nil {
		t.Fatalf("timezone default unexpected: %q %v", cfg.Timezone, cfg.Location)
	}
	if cfg.BulkMax != 200 || cfg.ChunkLimit != 4000 || cfg.DBPath != "scooters.db" {
		t.Fatalf("app defaults unexpected: %+v", cfg)
	}
	if !cfg.Schedule.Enabled || cfg.Schedule.MorningAt != "15:00" || cfg.Schedule.EveningAt != "23:00" {
		t.Fatalf("schedule defaults unexpected: %+v", cfg.Schedule)
	}
	if cfg.Bot.Token != "" || cfg.Bot.AdminIDs != nil {
		t.Fatalf("bot defaults unexpected: %+v", cfg.Bot)
	}
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
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
