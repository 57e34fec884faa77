package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/brokerflow/internal/domain/dto"
)

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body is not an ErrorResponse: %v (%q)", err, w.Body.String())
	}
	return resp
}

func TestErrorHandler(t *testing.T) {
	cases := []struct {
		name    string
		handler gin.HandlerFunc
		code    int
		message string
	}{
		{
			name:    "plain error becomes 500",
			handler: func(c *gin.Context) { _ = c.Error(assertErr{}) },
			code:    http.StatusInternalServerError,
			message: "Internal server error",
		},
		{
			name: "error response keeps status and message",
			handler: func(c *gin.Context) {
				c.Status(http.StatusConflict)
				_ = c.Error(dto.NewErrorResponse("already running", nil))
			},
			code:    http.StatusConflict,
			message: "already running",
		},
		{
			name: "written response untouched",
			handler: func(c *gin.Context) {
				c.String(http.StatusAccepted, "done")
				_ = c.Error(assertErr{})
			},
			code: http.StatusAccepted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(ErrorHandler)
			r.GET("/", tc.handler)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != tc.code {
				t.Fatalf("code=%d want %d", w.Code, tc.code)
			}
			if tc.message != "" {
				if got := decodeError(t, w).Message; got != tc.message {
					t.Fatalf("message=%q want %q", got, tc.message)
				}
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code=%d", w.Code)
	}
	if resp := decodeError(t, w); resp.ErrorDetails != "boom" {
		t.Fatalf("unexpected body %+v", resp)
	}
}

func TestRateLimiter(t *testing.T) {
	cases := []struct {
		name   string
		reqs   int
		lim    int
		expect int
	}{
		{name: "within limit", reqs: 2, lim: 3, expect: http.StatusOK},
		{name: "at limit", reqs: 3, lim: 3, expect: http.StatusOK},
		{name: "exceed limit", reqs: 5, lim: 3, expect: http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(RateLimiter(tc.lim, time.Minute))
			r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
			var last int
			for i := 0; i < tc.reqs; i++ {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
				last = w.Code
			}
			if last != tc.expect {
				t.Fatalf("expected %d, got %d", tc.expect, last)
			}
		})
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimiter(1, 20*time.Millisecond))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	codes := make([]int, 0, 3)
	for _, wait := range []time.Duration{0, 0, 40 * time.Millisecond} {
		time.Sleep(wait)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusOK {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	l := newIPLimiters(2, time.Minute)
	start := time.Now()

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if !l.allow(ip, start) {
			t.Fatalf("first request from %s denied", ip)
		}
	}
	if l.size() != 3 {
		t.Fatalf("expected 3 tracked clients, got %d", l.size())
	}

	if !l.allow("10.0.0.4", start.Add(2*time.Minute)) {
		t.Fatalf("request after idle window denied")
	}
	if l.size() != 1 {
		t.Fatalf("idle clients not evicted, tracked=%d", l.size())
	}
}

func TestAbortWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/err", func(c *gin.Context) {
		AbortWithError(c, http.StatusBadRequest, "bad stuff", assertErr{})
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/err", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Message != "bad stuff" || resp.ErrorDetails != "boom" {
		t.Fatalf("unexpected body %+v", resp)
	}
}
