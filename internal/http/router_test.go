package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/scooter-intake/internal/config"
	"github.com/tbourn/scooter-intake/internal/http/middleware"
	"github.com/tbourn/scooter-intake/internal/intake"
	"github.com/tbourn/scooter-intake/internal/repo"
	"github.com/tbourn/scooter-intake/internal/services"
	"github.com/tbourn/scooter-intake/internal/shift"
)

const testToken = "t0ken"

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routerdb_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newServices(db *gorm.DB) Services {
	eng := intake.NewEngine(intake.DefaultRegistry(), intake.WithLocation(time.UTC))
	return Services{
		Intake:  services.NewIntakeService(db, eng),
		Reports: services.NewReportService(db, shift.NewCalculator(time.UTC)),
	}
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/api/v1",
		RateRPS:        100,
		RateBurst:      10,
		IdempotencyTTL: time.Hour,
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	r := gin.New()
	RegisterRoutes(r, db, newServices(db), cfg)
	return r, db
}

func serve(r *gin.Engine, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://dash.local"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("GET /health = %d %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("missing request id or no-store: %v", w.Header())
	}

	w = serve(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	if w = serve(r, http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w = serve(r, http.MethodPost, "/health", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
	if w = serve(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger must be off by default, got %d", w.Code)
	}
}

func TestRegisterRoutes_Health_DatabaseDown(t *testing.T) {
	r, db := newRouter(t, testConfig())
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	_ = sqlDB.Close()

	if w := serve(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with a closed database, got %d", w.Code)
	}
}

func TestRegisterRoutes_AdminOffWithoutToken(t *testing.T) {
	r, _ := newRouter(t, testConfig())
	w := serve(r, http.MethodGet, "/api/v1/shifts/current", "", map[string]string{"Authorization": "Bearer anything"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("admin routes must not exist without API_TOKEN, got %d", w.Code)
	}
}

func TestRegisterRoutes_AdminAuth(t *testing.T) {
	cfg := testConfig()
	cfg.APIToken = testToken
	r, _ := newRouter(t, cfg)

	if w := serve(r, http.MethodGet, "/api/v1/shifts/current", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/api/v1/shifts/current", "", map[string]string{"Authorization": "Bearer " + testToken})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("ETag"), `W/"shift:`) {
		t.Fatalf("expected shift ETag, got %q", w.Header().Get("ETag"))
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r, _ := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://example.com"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
	w = serve(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://evil.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected ACAO for foreign origin: %q", got)
	}
}

func TestRegisterRoutes_IdempotentReplayBypassesRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.APIToken = testToken
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r, db := newRouter(t, cfg)

	hdr := map[string]string{
		"Authorization":                 "Bearer " + testToken,
		"Content-Type":                  "application/json",
		middleware.HeaderIdempotencyKey: "k-1",
	}
	body := `{"text":"AB1234","user_id":5,"username":"ann"}`

	w := serve(r, http.MethodPost, "/api/v1/intake", body, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("first POST = %d %s", w.Code, w.Body.String())
	}

	// The bucket is empty now: a replay still passes, a fresh request does not.
	w = serve(r, http.MethodPost, "/api/v1/intake", body, hdr)
	if w.Code != http.StatusCreated || w.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay = %d replayed=%q", w.Code, w.Header().Get(middleware.HeaderIdempotencyReplayed))
	}
	hdr[middleware.HeaderIdempotencyKey] = "k-2"
	if w = serve(r, http.MethodPost, "/api/v1/intake", body, hdr); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for a new key, got %d", w.Code)
	}

	var n int64
	db.Table("accepted_scooters").Count(&n)
	if n != 1 {
		t.Fatalf("rows=%d; want 1", n)
	}
}

func Test_idempotencyLookup(t *testing.T) {
	db := newTestDB(t)
	lookup := idempotencyLookup(db)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	now := time.Now().UTC()

	if hit, err := lookup(ctx, "POST /api/v1/intake", "k", now); hit || err != nil {
		t.Fatalf("miss: hit=%v err=%v", hit, err)
	}
	if _, err := repo.CreateIdempotency(ctx, db, "POST /api/v1/intake", "k", "{}", http.StatusCreated, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	if hit, err := lookup(ctx, "POST /api/v1/intake", "k", now); !hit || err != nil {
		t.Fatalf("hit: hit=%v err=%v", hit, err)
	}
	if hit, _ := lookup(ctx, "POST /api/v1/intake", "k", now.Add(2*time.Hour)); hit {
		t.Fatalf("expired record must miss")
	}

	sqlDB, _ := db.DB()
	_ = sqlDB.Close()
	if _, err := lookup(ctx, "POST /api/v1/intake", "k", now); err == nil {
		t.Fatalf("expected error from closed database")
	}
	if hit, err := idempotencyLookup(nil)(ctx, "s", "k", now); hit || err != nil {
		t.Fatalf("nil db: hit=%v err=%v", hit, err)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for target, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", target, w.Code, w.Body.String())
		}
	}
}
