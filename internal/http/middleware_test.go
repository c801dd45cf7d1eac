package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TestCorrelationIDMiddleware_GeneratesID verifies a correlation ID is minted
// when the request carries none, and is echoed in the response header.
func TestCorrelationIDMiddleware_GeneratesID(t *testing.T) {
	logger := zap.NewNop()
	var seenCorrID string
	var seenLogger *zap.Logger

	handler := CorrelationIDMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Context().Value("correlation_id"); v != nil {
			seenCorrID = v.(string)
		}
		if l, ok := r.Context().Value("logger").(*zap.Logger); ok {
			seenLogger = l
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/rover-data/1000", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seenCorrID == "" {
		t.Error("correlation_id not set in request context")
	}
	if seenLogger == nil {
		t.Error("logger not set in request context")
	}
	if got := w.Header().Get("X-Correlation-ID"); got != seenCorrID {
		t.Errorf("X-Correlation-ID header = %q, want %q", got, seenCorrID)
	}
}

// TestCorrelationIDMiddleware_PropagatesID verifies an inbound header is reused.
func TestCorrelationIDMiddleware_PropagatesID(t *testing.T) {
	logger := zap.NewNop()
	var seenCorrID string

	handler := CorrelationIDMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCorrID, _ = r.Context().Value("correlation_id").(string)
	}))

	req := httptest.NewRequest("GET", "/api/rover-data", nil)
	req.Header.Set("X-Correlation-ID", "caller-supplied-id")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seenCorrID != "caller-supplied-id" {
		t.Errorf("correlation_id = %q, want caller-supplied-id", seenCorrID)
	}
}

// TestGetRoute verifies path templating used for metric labels, keeping sol
// values out of the label space.
func TestGetRoute(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/api/rover-data", "/api/rover-data"},
		{"/api/rover-data/", "/api/rover-data"},
		{"/api/rover-data/1000", "/api/rover-data/{sol}"},
		{"/api/rover-data/99999", "/api/rover-data/{sol}"},
		{"/test", "/test"},
		{"/test/load", "/test"},
		{"/api/", "/api/"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.path, nil)
		if got := getRoute(req); got != tc.want {
			t.Errorf("getRoute(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

// TestStatusRecorder verifies the wrapped writer captures the handler's code.
func TestStatusRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	recorder.WriteHeader(http.StatusBadRequest)
	if recorder.statusCode != http.StatusBadRequest {
		t.Errorf("statusCode = %d, want %d", recorder.statusCode, http.StatusBadRequest)
	}
	if statusCodeString(recorder.statusCode) != "4xx" {
		t.Errorf("statusCodeString = %q, want 4xx", statusCodeString(recorder.statusCode))
	}
}

// TestTimeoutMiddleware verifies a deadline is applied to the request context.
func TestTimeoutMiddleware(t *testing.T) {
	var hadDeadline bool
	handler := TimeoutMiddleware(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadDeadline = r.Context().Deadline()
	}))

	req := httptest.NewRequest("GET", "/api/rover-data/1", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !hadDeadline {
		t.Error("request context has no deadline")
	}
}

// TestTimeoutMiddleware_Expires verifies downstream sees cancellation once the
// deadline passes.
func TestTimeoutMiddleware_Expires(t *testing.T) {
	var ctxErr error
	handler := TimeoutMiddleware(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		ctxErr = r.Context().Err()
	}))

	req := httptest.NewRequest("GET", "/api/rover-data/1", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if ctxErr != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want context.DeadlineExceeded", ctxErr)
	}
}

// TestRateLimitMiddleware_Denies verifies exhausting the bucket yields 429
// with the standard error envelope.
func TestRateLimitMiddleware_Denies(t *testing.T) {
	resetTrackers()
	limiter := rate.NewLimiter(rate.Limit(1), 1)
	var served int

	router := mux.NewRouter()
	router.Use(RateLimitMiddleware(limiter))
	router.HandleFunc("/api/rover-data", func(w http.ResponseWriter, r *http.Request) {
		served++
		w.WriteHeader(http.StatusOK)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest("GET", "/api/rover-data", nil))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest("GET", "/api/rover-data", nil))

	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if served != 1 {
		t.Errorf("handler served %d requests, want 1", served)
	}
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(second.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode 429 body: %v", err)
	}
	if resp.Error.Code != "RATE_LIMITED" {
		t.Errorf("error.code = %q, want RATE_LIMITED", resp.Error.Code)
	}
}

// TestRateLimitMiddleware_NilLimiter verifies the middleware is a no-op when
// rate limiting is disabled.
func TestRateLimitMiddleware_NilLimiter(t *testing.T) {
	handler := RateLimitMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/rover-data", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, w.Code)
		}
	}
}
