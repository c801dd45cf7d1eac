package traffic

import (
	"sync"
	"time"
)

// outcomeKind classifies a recorded request outcome.
type outcomeKind uint8

const (
	kindSuccess outcomeKind = iota
	kindError
	kindDenied
)

// outcome is one recorded request result.
type outcome struct {
	at   time.Time
	kind outcomeKind
}

var defaultTracker Tracker

// RecordSuccess records a successful request outcome.
func RecordSuccess() {
	defaultTracker.record(kindSuccess, 1)
}

// RecordError records a failed request outcome (upstream error, timeout, etc.).
func RecordError() {
	defaultTracker.record(kindError, 1)
}

// RecordDenied records a rate-limit denial (429).
func RecordDenied() {
	defaultTracker.record(kindDenied, 1)
}

// RecordSuccessN records N successful outcomes. For synthetic load injection.
func RecordSuccessN(n int) {
	defaultTracker.record(kindSuccess, n)
}

// RecordErrorN records N error outcomes. For synthetic error injection.
func RecordErrorN(n int) {
	defaultTracker.record(kindError, n)
}

// RequestCount returns the number of outcomes (success + error + denied) within the window.
func RequestCount(window time.Duration) int {
	return defaultTracker.RequestCount(window)
}

// DenialCount returns the number of denials within the window.
func DenialCount(window time.Duration) int {
	return defaultTracker.DenialCount(window)
}

// ErrorRate returns (errorCount, totalCount) within the window. totalCount = successes + errors (denied excluded).
func ErrorRate(window time.Duration) (errors, total int) {
	return defaultTracker.ErrorRate(window)
}

// Reset clears all recorded outcomes. For tests only.
func Reset() {
	defaultTracker.Reset()
}

// maxAge bounds how long outcomes are retained; must exceed every window the
// health checks query over.
const maxAge = 30 * time.Minute

// Tracker maintains a sliding window of request outcomes. Single source of
// truth for overload (RequestCount, DenialCount) and degraded (ErrorRate).
type Tracker struct {
	mu       sync.Mutex
	outcomes []outcome
}

func (t *Tracker) record(kind outcomeKind, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	for i := 0; i < n; i++ {
		t.outcomes = append(t.outcomes, outcome{at: now, kind: kind})
	}
	t.pruneLocked(now)
}

// RequestCount returns the total number of outcomes within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	success, errs, denied := t.countsInWindow(window)
	return success + errs + denied
}

// DenialCount returns the number of rate-limit denials within the window.
func (t *Tracker) DenialCount(window time.Duration) int {
	_, _, denied := t.countsInWindow(window)
	return denied
}

// ErrorRate returns (errorCount, totalCount) within the window.
// totalCount includes successes and errors only; denials are excluded.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	success, errs, _ := t.countsInWindow(window)
	return errs, errs + success
}

// Reset clears all recorded outcomes from the tracker.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes = nil
}

func (t *Tracker) countsInWindow(window time.Duration) (success, errs, denied int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-window)
	for _, o := range t.outcomes {
		if o.at.Before(cutoff) {
			continue
		}
		switch o.kind {
		case kindSuccess:
			success++
		case kindError:
			errs++
		case kindDenied:
			denied++
		}
	}
	return success, errs, denied
}

// pruneLocked drops outcomes older than maxAge. Must be called with mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-maxAge)
	i := 0
	for ; i < len(t.outcomes) && t.outcomes[i].at.Before(cutoff); i++ {
	}
	if i > 0 {
		t.outcomes = append(t.outcomes[:0], t.outcomes[i:]...)
	}
}
