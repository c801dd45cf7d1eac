package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marsmission/rover-status-service/internal/models"
)

// TestGetOrDo_SingleCaller verifies the trivial path: one caller executes fn
// and receives its result.
func TestGetOrDo_SingleCaller(t *testing.T) {
	rc := newRequestCoalescer(time.Second)

	data, err := rc.GetOrDo(context.Background(), "sol:1", func() (models.RoverData, error) {
		return models.RoverData{Header: models.Header{Sol: 1}}, nil
	})
	if err != nil {
		t.Fatalf("GetOrDo() error: %v", err)
	}
	if data.Header.Sol != 1 {
		t.Errorf("GetOrDo() sol = %d, want 1", data.Header.Sol)
	}
}

// TestGetOrDo_CoalescesConcurrentCallers verifies that concurrent callers
// for the same key share one fn execution and all see its result.
func TestGetOrDo_CoalescesConcurrentCallers(t *testing.T) {
	rc := newRequestCoalescer(5 * time.Second)
	var executions int32
	started := make(chan struct{})
	release := make(chan struct{})

	fn := func() (models.RoverData, error) {
		atomic.AddInt32(&executions, 1)
		close(started)
		<-release
		return models.RoverData{Header: models.Header{Sol: 9}}, nil
	}

	var wg sync.WaitGroup
	results := make([]models.RoverData, 6)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = rc.GetOrDo(context.Background(), "sol:9", fn)
	}()
	<-started

	for i := 1; i < 6; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = rc.GetOrDo(context.Background(), "sol:9", fn)
		}()
	}
	time.Sleep(20 * time.Millisecond) // let waiters queue up
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&executions); got != 1 {
		t.Errorf("fn executed %d times, want 1", got)
	}
	for i, r := range results {
		if r.Header.Sol != 9 {
			t.Errorf("caller %d sol = %d, want 9", i, r.Header.Sol)
		}
	}
}

// TestGetOrDo_DifferentKeysRunIndependently verifies no coalescing across keys.
func TestGetOrDo_DifferentKeysRunIndependently(t *testing.T) {
	rc := newRequestCoalescer(time.Second)
	var executions int32

	fn := func() (models.RoverData, error) {
		atomic.AddInt32(&executions, 1)
		return models.RoverData{}, nil
	}

	_, _ = rc.GetOrDo(context.Background(), "sol:1", fn)
	_, _ = rc.GetOrDo(context.Background(), "sol:2", fn)

	if got := atomic.LoadInt32(&executions); got != 2 {
		t.Errorf("fn executed %d times for distinct keys, want 2", got)
	}
}

// TestGetOrDo_PropagatesError verifies that fn errors reach all callers.
func TestGetOrDo_PropagatesError(t *testing.T) {
	rc := newRequestCoalescer(time.Second)
	wantErr := errors.New("assembly failed")

	_, err := rc.GetOrDo(context.Background(), "sol:3", func() (models.RoverData, error) {
		return models.RoverData{}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("GetOrDo() error = %v, want %v", err, wantErr)
	}
}

// TestGetOrDo_TimeoutWhileWaiting verifies waiters are released when the
// coalescer timeout elapses before the assembly completes.
func TestGetOrDo_TimeoutWhileWaiting(t *testing.T) {
	rc := newRequestCoalescer(30 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)

	go func() {
		_, _ = rc.GetOrDo(context.Background(), "sol:4", func() (models.RoverData, error) {
			<-release
			return models.RoverData{}, nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	_, err := rc.GetOrDo(context.Background(), "sol:4", func() (models.RoverData, error) {
		return models.RoverData{}, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("GetOrDo() error = %v, want context.DeadlineExceeded", err)
	}
}
