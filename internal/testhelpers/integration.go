//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/marsmission/rover-status-service/internal/cache"
	"github.com/marsmission/rover-status-service/internal/client"
	"github.com/marsmission/rover-status-service/internal/service"
)

// IntegrationTestConfig holds configuration for integration tests that hit
// the real NASA Mars Photos API.
type IntegrationTestConfig struct {
	APIKey        string
	APIURL        string
	Rover         string
	CacheBackend  string // "in_memory" or "memcached"
	MemcachedAddr string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test if NASA_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	apiKey := os.Getenv("NASA_API_KEY")
	if apiKey == "" {
		t.Skip("NASA_API_KEY not set, skipping integration test")
	}

	apiURL := os.Getenv("NASA_API_URL")
	if apiURL == "" {
		apiURL = "https://api.nasa.gov/mars-photos/api/v1"
	}
	rover := os.Getenv("NASA_API_ROVER")
	if rover == "" {
		rover = "perseverance"
	}

	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}

	return IntegrationTestConfig{
		APIKey:        apiKey,
		APIURL:        apiURL,
		Rover:         rover,
		CacheBackend:  os.Getenv("INTEGRATION_CACHE_BACKEND"),
		MemcachedAddr: memcachedAddr,
	}
}

// SetupIntegrationService creates a fully configured rover service for
// integration tests. Returns the service, cache instance, and cleanup function.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) (*service.RoverService, cache.Cache, func()) {
	nasaClient, err := client.NewNASAClient(cfg.APIKey, cfg.APIURL, cfg.Rover, 10*time.Second)
	if err != nil {
		t.Fatalf("NewNASAClient() error = %v", err)
	}

	var cacheSvc cache.Cache
	var cleanup func()

	if cfg.CacheBackend == "memcached" {
		memcachedCache, err := cache.NewMemcachedCache(cfg.MemcachedAddr, 500*time.Millisecond, 2)
		if err == nil {
			cacheSvc = memcachedCache
			cleanup = func() { memcachedCache.Close() }
			t.Logf("Using Memcached cache at %s", cfg.MemcachedAddr)
		} else {
			t.Logf("Memcached not available (%v), using in-memory cache", err)
			cacheSvc = cache.NewInMemoryCache()
			cleanup = func() {}
		}
	} else {
		cacheSvc = cache.NewInMemoryCache()
		cleanup = func() {}
	}

	roverService := service.NewRoverService(nasaClient, cacheSvc, 5*time.Minute, 20, false, 0)

	return roverService, cacheSvc, cleanup
}

// SetupIntegrationClient creates a NASA photo client for integration tests.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) client.PhotoClient {
	nasaClient, err := client.NewNASAClient(cfg.APIKey, cfg.APIURL, cfg.Rover, 10*time.Second)
	if err != nil {
		t.Fatalf("NewNASAClient() error = %v", err)
	}
	return nasaClient
}
