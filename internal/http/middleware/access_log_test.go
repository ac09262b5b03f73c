package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestRedact(t *testing.T) {
	in := "bot123456:AAH-secret_token_value_abcdefghijklmn 550e8400-e29b-41d4-a716-446655440000 ops@example.com"
	out := redact(in)
	for _, leak := range []string{"AAH-secret", "550e8400", "ops@example.com"} {
		if strings.Contains(out, leak) {
			t.Fatalf("%q leaked in %q", leak, out)
		}
	}
	if !strings.Contains(out, "[REDACTED:id]") || !strings.Contains(out, "[REDACTED:email]") {
		t.Fatalf("expected markers in %q", out)
	}
}

func TestAccessLog_LineLevelsAndMasking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLog(t)

	r := gin.New()
	r.Use(RequestID(), AccessLog(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/api/v1/acceptances/:identifier", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("inside")
		c.Status(http.StatusNotFound)
	})
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(http.ErrHandlerTimeout)
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/acceptances/AB1234?contact=ops@example.com", nil)
	req.Header.Set("Authorization", "Bearer topsecret")
	req.Header.Set("X-Api-Key", "k-123")
	req.Header.Set(requestIDHeader, "rid-log")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 log lines, got %d: %s", len(lines), buf.String())
	}
	if strings.Contains(buf.String(), "topsecret") || strings.Contains(buf.String(), "k-123") || strings.Contains(buf.String(), "ops@example.com") {
		t.Fatalf("secret leaked: %s", buf.String())
	}

	var inner, access, failed map[string]any
	for i, dst := range []*map[string]any{&inner, &access, &failed} {
		if err := json.Unmarshal([]byte(lines[i]), dst); err != nil {
			t.Fatalf("line %d not JSON: %v", i, err)
		}
	}
	if inner["request_id"] != "rid-log" || inner["path"] != "/api/v1/acceptances/:identifier" {
		t.Fatalf("scoped logger fields missing: %v", inner)
	}
	if access["message"] != "http_request" || access["level"] != "warn" || access["status"] != float64(404) {
		t.Fatalf("unexpected access line: %v", access)
	}
	if failed["level"] != "error" || failed["errors"] == nil {
		t.Fatalf("unexpected error line: %v", failed)
	}
}
