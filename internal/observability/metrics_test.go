package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danmuck/fixconv/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(conversions.WithLabelValues("44", "convert", "ok"))
	RecordHTTPRequest("GET", "/health", 200, 12*time.Millisecond)
	RecordConversion("44", "convert", "ok", 2*time.Millisecond)
	RecordValidation("44", "ok")

	if got := testutil.ToFloat64(conversions.WithLabelValues("44", "convert", "ok")); got != before+1 {
		t.Fatalf("conversions_total = %v want %v", got, before+1)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zerolog.Nop()), RequestMetricsMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFrom(c))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil || rec.Body.String() != id {
		t.Fatalf("unexpected request id %q body %q", id, rec.Body.String())
	}

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, given)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != given {
		t.Fatalf("expected caller request id to be kept")
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) == "not-a-uuid" {
		t.Fatalf("malformed request id must be replaced")
	}
}
