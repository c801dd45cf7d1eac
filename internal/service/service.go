package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marsmission/rover-status-service/internal/cache"
	"github.com/marsmission/rover-status-service/internal/client"
	"github.com/marsmission/rover-status-service/internal/models"
	"github.com/marsmission/rover-status-service/internal/observability"
	"github.com/marsmission/rover-status-service/internal/synth"
)

// Fixed placeholder imagery substituted when the upstream photo service is
// unavailable or returns nothing for the requested sol.
const (
	fallbackCameraName = "Navigation Camera"
	fallbackImageURL   = "https://mars.nasa.gov/msl-raw-images/proj/msl/redops/ods/surface/sol/01000/opgs/edr/ncam/NLB_486265257EDR_F0481570NCAM00323M_.JPG"
)

// Error strings recorded in the response when imagery degrades. These are
// part of the response contract, not log lines.
const (
	errNoUpstreamData = "No data available from NASA API"
	errNoPhotosFormat = "No photos available for sol %d"
)

// imageTimeOfDay is appended to the upstream earth_date to form an image
// timestamp; the photo API only reports a date.
const imageTimeOfDay = "T12:00:00Z"

// RoverService assembles rover status responses: deterministic telemetry and
// route synthesis merged with live imagery from the photo client, degrading
// to fixed fallback imagery on any upstream failure. Uses a cache-aside
// pattern keyed by sol.
type RoverService struct {
	client     client.PhotoClient
	cache      cache.Cache
	ttl        time.Duration // <= 0 disables the cache
	photoLimit int
	stampede   *stampedeTracker
	coalescer  *requestCoalescer // optional request coalescing (nil if disabled)
	now        func() time.Time  // injectable for tests
}

// NewRoverService creates a RoverService with the provided dependencies.
// ttl specifies the cache expiration for assembled responses (<= 0 disables
// caching). photoLimit bounds how many upstream photos are merged.
// coalesceEnabled and coalesceTimeout configure request coalescing (disabled
// if timeout is 0).
func NewRoverService(client client.PhotoClient, cache cache.Cache, ttl time.Duration, photoLimit int, coalesceEnabled bool, coalesceTimeout time.Duration) *RoverService {
	var coalescer *requestCoalescer
	if coalesceEnabled && coalesceTimeout > 0 {
		coalescer = newRequestCoalescer(coalesceTimeout)
	}
	if photoLimit <= 0 {
		photoLimit = 20
	}
	return &RoverService{
		client:     client,
		cache:      cache,
		ttl:        ttl,
		photoLimit: photoLimit,
		stampede:   newStampedeTracker(),
		coalescer:  coalescer,
		now:        time.Now,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// GetRoverData returns the assembled rover status for the sol, serving from
// cache when possible. Upstream imagery failures never surface as errors:
// they degrade the response (fallback camera + errors entry). The returned
// error is reserved for internal faults such as a coalescing wait that
// outlives the request context.
func (s *RoverService) GetRoverData(ctx context.Context, sol int) (models.RoverData, error) {
	key := solKey(sol)
	start := time.Now()
	logger := loggerFromContext(ctx)

	if s.ttl > 0 {
		getStart := time.Now()
		cached, ok, err := s.cache.Get(ctx, key)
		getDuration := time.Since(getStart).Seconds()
		if err != nil {
			observability.CacheErrorsTotal.WithLabelValues("get", categorizeCacheError(err)).Inc()
			observability.CacheOperationDurationSeconds.WithLabelValues("get", "error").Observe(getDuration)
		} else if ok {
			observability.CacheOperationDurationSeconds.WithLabelValues("get", "success").Observe(getDuration)
			observability.CacheHitsTotal.WithLabelValues("rover_data").Inc()
			if logger != nil {
				logger.Debug("cache hit", zap.Int("sol", sol))
				logger.Debug("rover data served", zap.Int("sol", sol), zap.Bool("cached", true), zap.Duration("duration", time.Since(start)))
			}
			return cached, nil
		}

		concurrentMisses := s.stampede.RecordMiss(key)
		defer s.stampede.RecordHit(key)
		solLabel := observability.MetricSolLabel(sol)
		if concurrentMisses > 1 {
			observability.CacheStampedeDetectedTotal.WithLabelValues(solLabel).Inc()
			observability.CacheStampedeConcurrency.WithLabelValues(solLabel).Observe(float64(concurrentMisses))
		}

		if logger != nil {
			logger.Debug("cache miss, assembling", zap.Int("sol", sol))
		}
	}

	var data models.RoverData
	var err error
	if s.coalescer != nil {
		coalesceStart := time.Now()
		data, err = s.coalescer.GetOrDo(ctx, key, func() (models.RoverData, error) {
			return s.assemble(ctx, sol), nil
		})
		coalesceWait := time.Since(coalesceStart)
		if err == nil {
			// Approximation: a measurable wait means we piggybacked on
			// another request's assembly rather than initiating our own.
			if coalesceWait > 10*time.Millisecond {
				observability.RequestCoalescingHitsTotal.WithLabelValues(observability.MetricSolLabel(sol)).Inc()
			}
			observability.RequestCoalescingWaitSeconds.Observe(coalesceWait.Seconds())
		}
	} else {
		data = s.assemble(ctx, sol)
	}
	if err != nil {
		return models.RoverData{}, fmt.Errorf("assemble rover data for sol %d: %w", sol, err)
	}

	// Degraded assemblies (fallback imagery) are not cached: a transient
	// upstream blip must not pin fallback data for the full TTL, and
	// re-assembly is cheap. Only clean responses are worth keeping.
	if s.ttl > 0 && len(data.Errors) == 0 {
		setStart := time.Now()
		if setErr := s.cache.Set(ctx, key, data, s.ttl); setErr != nil {
			observability.CacheErrorsTotal.WithLabelValues("set", categorizeCacheError(setErr)).Inc()
			observability.CacheOperationDurationSeconds.WithLabelValues("set", "error").Observe(time.Since(setStart).Seconds())
			if logger != nil {
				logger.Warn("cache set failed", zap.Int("sol", sol), zap.Error(setErr))
			}
		} else {
			observability.CacheOperationDurationSeconds.WithLabelValues("set", "success").Observe(time.Since(setStart).Seconds())
		}
	}
	if logger != nil {
		logger.Debug("rover data served", zap.Int("sol", sol), zap.Bool("cached", false), zap.Duration("duration", time.Since(start)))
	}
	return data, nil
}

// assemble builds the full aggregate for the sol. Synthesis is pure and
// cannot fail; the single suspension point is the upstream photo fetch,
// whose failure degrades the cameras section rather than the response.
func (s *RoverService) assemble(ctx context.Context, sol int) models.RoverData {
	logger := loggerFromContext(ctx)

	metrics := synth.Metrics(sol)
	route := synth.Route(sol)
	current := synth.CurrentPosition(route)

	errs := []string{}
	var cameras []models.Camera

	photos, err := s.client.GetPhotos(ctx, sol)
	switch {
	case err != nil:
		errs = append(errs, errNoUpstreamData)
		if logger != nil {
			logger.Warn("photo fetch failed, using fallback imagery", zap.Int("sol", sol), zap.Error(err))
		}
	case len(photos) == 0:
		errs = append(errs, fmt.Sprintf(errNoPhotosFormat, sol))
	default:
		cameras = s.groupCameras(photos, current)
	}

	if len(cameras) == 0 {
		cameras = []models.Camera{s.fallbackCamera(current)}
	}

	return models.RoverData{
		Header: models.Header{
			EarthTime: s.now().UTC().Format(time.RFC3339),
			Status:    synth.Status(sol),
			Sol:       sol,
		},
		Timeline: synth.Timeline(sol),
		Map: models.MapData{
			Route:           route,
			CurrentPosition: current,
		},
		Overlays: models.Overlays{Metrics: metrics},
		Cameras:  cameras,
		Errors:   errs,
	}
}

// groupCameras takes up to photoLimit photos and groups them by camera name,
// preserving the order in which each camera first appears. Each image gets a
// synthesized location near the current position, offset by its index within
// its camera group, and a timestamp built from the upstream earth date.
func (s *RoverService) groupCameras(photos []client.Photo, current models.Location) []models.Camera {
	if len(photos) > s.photoLimit {
		photos = photos[:s.photoLimit]
	}

	index := make(map[string]int)
	cameras := make([]models.Camera, 0)
	for _, p := range photos {
		name := p.Camera.FullName
		i, ok := index[name]
		if !ok {
			i = len(cameras)
			index[name] = i
			cameras = append(cameras, models.Camera{Name: name})
		}
		n := len(cameras[i].Images)
		cameras[i].Images = append(cameras[i].Images, models.CameraImage{
			URL:       p.ImgSrc,
			Timestamp: p.EarthDate + imageTimeOfDay,
			Location: models.Location{
				Lat: current.Lat + float64(n)*0.0001,
				Lon: current.Lon + float64(n)*0.0001,
			},
		})
	}
	return cameras
}

// fallbackCamera returns the single deterministic placeholder camera entry
// used when no live imagery is available.
func (s *RoverService) fallbackCamera(current models.Location) models.Camera {
	return models.Camera{
		Name: fallbackCameraName,
		Images: []models.CameraImage{
			{
				URL:       fallbackImageURL,
				Timestamp: s.now().UTC().Format(time.RFC3339),
				Location:  models.Location{Lat: current.Lat, Lon: current.Lon},
			},
		},
	}
}

// categorizeCacheError returns a stable label for cache error metrics (timeout, connection, unknown).
func categorizeCacheError(err error) string {
	if err == nil {
		return "unknown"
	}
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") {
		return "timeout"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") {
		return "connection"
	}
	return "unknown"
}

// solKey builds the cache/coalescing key for a sol.
func solKey(sol int) string {
	return fmt.Sprintf("sol:%d", sol)
}
