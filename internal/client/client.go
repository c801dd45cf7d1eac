package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marsmission/rover-status-service/internal/circuitbreaker"
	"github.com/marsmission/rover-status-service/internal/observability"
)

// PhotoClient fetches rover photos by sol from the upstream photo service.
type PhotoClient interface {
	GetPhotos(ctx context.Context, sol int) ([]Photo, error)
	ValidateAPIKey(ctx context.Context) error
}

var (
	ErrInvalidAPIKey   = errors.New("invalid API key")
	ErrRateLimited     = errors.New("rate limited")
	ErrUpstreamFailure = errors.New("upstream failure")
)

// Photo is one photo record as returned by the Mars Photos API. Optional
// upstream fields stay zero-valued; records are validated at this boundary
// before they cross into the service layer.
type Photo struct {
	ID        int         `json:"id"`
	Sol       int         `json:"sol"`
	ImgSrc    string      `json:"img_src"`
	EarthDate string      `json:"earth_date"`
	Camera    PhotoCamera `json:"camera"`
}

// PhotoCamera identifies the camera that took a photo.
type PhotoCamera struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// photosResponse is the wire envelope of the photos endpoint.
type photosResponse struct {
	Photos []Photo `json:"photos"`
}

// NASAClient calls the NASA Mars Photos API. One attempt per call, bounded
// by the configured timeout; the caller owns the fallback policy. An
// optional circuit breaker fails fast during sustained upstream outages.
type NASAClient struct {
	apiKey  string
	baseURL string
	rover   string
	timeout time.Duration
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewNASAClient creates a NASAClient. baseURL is the API root (e.g.
// https://api.nasa.gov/mars-photos/api/v1) and rover the rover slug whose
// photos are fetched.
func NewNASAClient(apiKey, baseURL, rover string, timeout time.Duration) (*NASAClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}
	if rover == "" {
		rover = "perseverance"
	}

	return &NASAClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		rover:   rover,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SetCircuitBreaker attaches a circuit breaker to photo fetches. Call before
// serving traffic.
func (c *NASAClient) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	c.breaker = cb
}

// GetPhotos fetches the photo list for the given sol. A single attempt is
// made; there is no retry, so failures surface immediately for the caller
// to substitute fallback imagery.
func (c *NASAClient) GetPhotos(ctx context.Context, sol int) ([]Photo, error) {
	if c.breaker == nil {
		return c.callAPI(ctx, sol)
	}

	var photos []Photo
	err := c.breaker.Call(func() error {
		var callErr error
		photos, callErr = c.callAPI(ctx, sol)
		return callErr
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			observability.NASAAPIErrorsTotal.WithLabelValues(string(ErrorCategoryCircuitOpen)).Inc()
		}
		return nil, err
	}
	return photos, nil
}

func (c *NASAClient) callAPI(ctx context.Context, sol int) ([]Photo, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, sol)
	if err != nil {
		observability.NASAAPICallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	corrID := extractCorrelationID(ctx)
	if corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.NASAAPICallsTotal.WithLabelValues("error").Inc()
		observability.NASAAPIDuration.WithLabelValues("error").Observe(duration)
		observability.NASAAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.NASAAPICallsTotal.WithLabelValues(status).Inc()
	observability.NASAAPIDuration.WithLabelValues(status).Observe(duration)

	if err := c.handleErrorResponse(resp); err != nil {
		observability.NASAAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var apiResp photosResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		observability.NASAAPIErrorsTotal.WithLabelValues(string(ErrorCategoryParsing)).Inc()
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return sanitizePhotos(apiResp.Photos), nil
}

// sanitizePhotos drops records unusable downstream (no image URL) and fills
// in a camera name when the upstream omitted full_name.
func sanitizePhotos(photos []Photo) []Photo {
	out := photos[:0]
	for _, p := range photos {
		if p.ImgSrc == "" {
			continue
		}
		if p.Camera.FullName == "" {
			if p.Camera.Name != "" {
				p.Camera.FullName = p.Camera.Name
			} else {
				p.Camera.FullName = "Unknown Camera"
			}
		}
		out = append(out, p)
	}
	return out
}

func (c *NASAClient) buildRequest(ctx context.Context, sol int) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/rovers/%s/photos", c.baseURL, c.rover)
	baseURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("sol", fmt.Sprintf("%d", sol))
	params.Set("api_key", c.apiKey)
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *NASAClient) handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrInvalidAPIKey, resp.StatusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	return nil
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

// ValidateAPIKey probes the photos endpoint to confirm the key is accepted.
// Used by the health handler.
func (c *NASAClient) ValidateAPIKey(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := c.buildRequest(ctx, 1000)
	if err != nil {
		return fmt.Errorf("build validation request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: API key is invalid or not activated", ErrInvalidAPIKey)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("validation failed: HTTP %d", resp.StatusCode)
	}

	return nil
}
