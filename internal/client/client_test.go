package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marsmission/rover-status-service/internal/circuitbreaker"
)

const testAPIKey = "test-api-key-12345"

// newTestClient returns a NASAClient pointed at the given test server.
func newTestClient(t *testing.T, serverURL string) *NASAClient {
	t.Helper()
	c, err := NewNASAClient(testAPIKey, serverURL, "perseverance", 2*time.Second)
	if err != nil {
		t.Fatalf("NewNASAClient() error: %v", err)
	}
	return c
}

// TestNewNASAClient_RejectsBadKeys verifies constructor validation of the API key.
func TestNewNASAClient_RejectsBadKeys(t *testing.T) {
	if _, err := NewNASAClient("", "http://example.com", "perseverance", time.Second); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("empty key error = %v, want ErrInvalidAPIKey", err)
	}
	if _, err := NewNASAClient("short", "http://example.com", "perseverance", time.Second); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("short key error = %v, want ErrInvalidAPIKey", err)
	}
}

// TestGetPhotos_Success verifies the request shape (path, sol and api_key
// query params) and the decoding of a normal photos payload.
func TestGetPhotos_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rovers/perseverance/photos" {
			t.Errorf("request path = %q, want /rovers/perseverance/photos", r.URL.Path)
		}
		if got := r.URL.Query().Get("sol"); got != "1000" {
			t.Errorf("sol query = %q, want 1000", got)
		}
		if got := r.URL.Query().Get("api_key"); got != testAPIKey {
			t.Errorf("api_key query = %q, want %q", got, testAPIKey)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"photos":[
			{"id":1,"sol":1000,"img_src":"https://img/1.jpg","earth_date":"2023-06-08","camera":{"name":"NAVCAM","full_name":"Navigation Camera"}},
			{"id":2,"sol":1000,"img_src":"https://img/2.jpg","earth_date":"2023-06-08","camera":{"name":"MCZ_LEFT","full_name":"Mast Camera Zoom - Left"}}
		]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	photos, err := c.GetPhotos(context.Background(), 1000)
	if err != nil {
		t.Fatalf("GetPhotos() error: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("GetPhotos() returned %d photos, want 2", len(photos))
	}
	if photos[0].ImgSrc != "https://img/1.jpg" {
		t.Errorf("photos[0].ImgSrc = %q", photos[0].ImgSrc)
	}
	if photos[1].Camera.FullName != "Mast Camera Zoom - Left" {
		t.Errorf("photos[1].Camera.FullName = %q", photos[1].Camera.FullName)
	}
}

// TestGetPhotos_SanitizesRecords verifies boundary validation: records with
// no img_src are dropped and a missing full_name falls back to the short
// camera name.
func TestGetPhotos_SanitizesRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"photos":[
			{"id":1,"sol":5,"img_src":"","earth_date":"2021-03-01","camera":{"name":"NAVCAM","full_name":"Navigation Camera"}},
			{"id":2,"sol":5,"img_src":"https://img/2.jpg","earth_date":"2021-03-01","camera":{"name":"NAVCAM"}},
			{"id":3,"sol":5,"img_src":"https://img/3.jpg","earth_date":"2021-03-01","camera":{}}
		]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	photos, err := c.GetPhotos(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetPhotos() error: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("GetPhotos() returned %d photos, want 2 (empty img_src dropped)", len(photos))
	}
	if photos[0].Camera.FullName != "NAVCAM" {
		t.Errorf("photos[0].Camera.FullName = %q, want fallback to short name", photos[0].Camera.FullName)
	}
	if photos[1].Camera.FullName != "Unknown Camera" {
		t.Errorf("photos[1].Camera.FullName = %q, want Unknown Camera", photos[1].Camera.FullName)
	}
}

// TestGetPhotos_EmptyList verifies that an empty photo list is not an error;
// the service layer decides what to substitute.
func TestGetPhotos_EmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"photos":[]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	photos, err := c.GetPhotos(context.Background(), 99999)
	if err != nil {
		t.Fatalf("GetPhotos() error: %v", err)
	}
	if len(photos) != 0 {
		t.Errorf("GetPhotos() returned %d photos, want 0", len(photos))
	}
}

// TestGetPhotos_ErrorStatuses verifies the mapping of upstream HTTP statuses
// to sentinel errors.
func TestGetPhotos_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: ErrInvalidAPIKey},
		{name: "forbidden", status: http.StatusForbidden, wantErr: ErrInvalidAPIKey},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "server error", status: http.StatusInternalServerError, wantErr: ErrUpstreamFailure},
		{name: "bad gateway", status: http.StatusBadGateway, wantErr: ErrUpstreamFailure},
		{name: "teapot", status: http.StatusTeapot, wantErr: ErrUpstreamFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := newTestClient(t, server.URL)
			_, err := c.GetPhotos(context.Background(), 1000)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GetPhotos() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestGetPhotos_Timeout verifies that a hung upstream fails within the
// configured timeout, with no retry.
func TestGetPhotos_Timeout(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	c, err := NewNASAClient(testAPIKey, server.URL, "perseverance", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewNASAClient() error: %v", err)
	}

	start := time.Now()
	_, err = c.GetPhotos(context.Background(), 1000)
	if err == nil {
		t.Fatal("GetPhotos() error = nil, want timeout")
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("GetPhotos() took %v, want to fail within the timeout", elapsed)
	}
	if calls != 1 {
		t.Errorf("upstream called %d times, want exactly 1 (no retries)", calls)
	}
}

// TestGetPhotos_MalformedPayload verifies that an unparseable body is an error.
func TestGetPhotos_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"photos": not json`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if _, err := c.GetPhotos(context.Background(), 1000); err == nil {
		t.Error("GetPhotos() error = nil, want parse error")
	}
}

// TestGetPhotos_CircuitBreakerOpens verifies that sustained failures open
// the breaker and subsequent calls fail fast without reaching upstream.
func TestGetPhotos_CircuitBreakerOpens(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	c.SetCircuitBreaker(circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
		Component:        "nasa_api",
	}))

	for i := 0; i < 2; i++ {
		if _, err := c.GetPhotos(context.Background(), 1000); err == nil {
			t.Fatalf("call %d: error = nil, want upstream failure", i)
		}
	}
	if calls != 2 {
		t.Fatalf("upstream called %d times, want 2", calls)
	}

	_, err := c.GetPhotos(context.Background(), 1000)
	if !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Errorf("GetPhotos() error = %v, want circuit breaker open", err)
	}
	if calls != 2 {
		t.Errorf("upstream called %d times after breaker opened, want still 2", calls)
	}
}

// TestValidateAPIKey verifies validation of accepted and rejected keys.
func TestValidateAPIKey(t *testing.T) {
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"photos":[]}`))
	}))
	defer okServer.Close()

	c := newTestClient(t, okServer.URL)
	if err := c.ValidateAPIKey(context.Background()); err != nil {
		t.Errorf("ValidateAPIKey() error = %v, want nil", err)
	}

	deniedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer deniedServer.Close()

	c = newTestClient(t, deniedServer.URL)
	if err := c.ValidateAPIKey(context.Background()); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("ValidateAPIKey() error = %v, want ErrInvalidAPIKey", err)
	}
}
