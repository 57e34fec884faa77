package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/guttosm/brokerflow/internal/logger"
	"github.com/guttosm/brokerflow/internal/metrics"
)

func TestToString(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{123, ""},
	}
	for _, tc := range cases {
		if got := toString(tc.in); got != tc.want {
			t.Fatalf("toString(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRequestLogger_LogsRouteAndCounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger.InitWithWriter(&buf)
	t.Cleanup(logger.Init)

	router := gin.New()
	router.Use(RequestID(), RequestLogger())
	router.GET("/api/v1/jobs/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	counter := metrics.HTTPRequests.WithLabelValues("/api/v1/jobs/:id", "200")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/abc", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("expected request counter to grow by 1, got %f -> %f", before, got)
	}

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if line["route"] != "/api/v1/jobs/:id" || line["path"] != "/api/v1/jobs/abc" {
		t.Fatalf("unexpected log line %v", line)
	}
	if line["request_id"] != w.Header().Get(RequestIDHeader) {
		t.Fatalf("request id not logged: %v", line)
	}
}

func TestRequestLogger_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter(&bytes.Buffer{})
	t.Cleanup(logger.Init)

	router := gin.New()
	router.Use(RequestLogger())

	counter := metrics.HTTPRequests.WithLabelValues("unmatched", "404")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("expected unmatched counter to grow by 1")
	}
}
