package service

import (
	"context"
	"sync"
	"time"

	"github.com/marsmission/rover-status-service/internal/models"
)

// inFlightAssembly tracks a single assembly that multiple callers may wait for.
type inFlightAssembly struct {
	mu      sync.Mutex
	result  models.RoverData
	err     error
	done    bool
	waiters []chan struct{} // channels to notify waiters when the result is ready
}

// requestCoalescer collapses concurrent assemblies for the same sol key.
// Assembly is deterministic apart from the upstream fetch, so sharing one
// in-flight result across requests is always safe.
type requestCoalescer struct {
	mu       sync.Mutex
	inFlight map[string]*inFlightAssembly
	timeout  time.Duration
}

// newRequestCoalescer creates a requestCoalescer with the specified timeout.
func newRequestCoalescer(timeout time.Duration) *requestCoalescer {
	return &requestCoalescer{
		inFlight: make(map[string]*inFlightAssembly),
		timeout:  timeout,
	}
}

// GetOrDo checks if an assembly for key is already in flight. If yes, waits
// for its result. If no, executes fn and registers the assembly. Respects
// context cancellation and the coalescer timeout to prevent indefinite
// blocking.
func (rc *requestCoalescer) GetOrDo(ctx context.Context, key string, fn func() (models.RoverData, error)) (models.RoverData, error) {
	rc.mu.Lock()
	req, exists := rc.inFlight[key]
	if exists {
		rc.mu.Unlock()
		return rc.wait(ctx, req)
	}

	req = &inFlightAssembly{}
	rc.inFlight[key] = req
	rc.mu.Unlock()

	go func() {
		result, err := fn()

		req.mu.Lock()
		req.result = result
		req.err = err
		req.done = true
		waiters := req.waiters
		req.waiters = nil
		req.mu.Unlock()

		for _, notify := range waiters {
			close(notify)
		}

		rc.mu.Lock()
		delete(rc.inFlight, key)
		rc.mu.Unlock()
	}()

	return rc.wait(ctx, req)
}

// wait blocks until the assembly completes, the context is done, or the
// coalescer timeout elapses.
func (rc *requestCoalescer) wait(ctx context.Context, req *inFlightAssembly) (models.RoverData, error) {
	req.mu.Lock()
	if req.done {
		result := req.result
		err := req.err
		req.mu.Unlock()
		return result, err
	}
	notify := make(chan struct{})
	req.waiters = append(req.waiters, notify)
	req.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()
	select {
	case <-notify:
		req.mu.Lock()
		result := req.result
		err := req.err
		req.mu.Unlock()
		return result, err
	case <-waitCtx.Done():
		return models.RoverData{}, waitCtx.Err()
	}
}
