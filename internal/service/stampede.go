package service

import "sync"

// stampedeTracker counts concurrent cache misses per sol key. When several
// requests miss the same sol simultaneously the concurrent count exceeds 1,
// which is surfaced as a stampede metric.
type stampedeTracker struct {
	mu           sync.Mutex
	activeMisses map[string]int // key -> misses currently being resolved
}

// newStampedeTracker returns a new stampedeTracker.
func newStampedeTracker() *stampedeTracker {
	return &stampedeTracker{
		activeMisses: make(map[string]int),
	}
}

// RecordMiss records a cache miss for key and returns the concurrent miss
// count after incrementing. Caller should defer RecordHit(key) for when the
// miss is resolved.
func (st *stampedeTracker) RecordMiss(key string) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.activeMisses[key]++
	return st.activeMisses[key]
}

// RecordHit records completion of a miss for key.
func (st *stampedeTracker) RecordHit(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if count, ok := st.activeMisses[key]; ok && count > 0 {
		st.activeMisses[key]--
		if st.activeMisses[key] == 0 {
			delete(st.activeMisses, key)
		}
	}
}
