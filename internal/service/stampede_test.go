package service

import "testing"

// TestStampedeTracker verifies concurrent miss counting and cleanup.
func TestStampedeTracker(t *testing.T) {
	st := newStampedeTracker()

	if got := st.RecordMiss("sol:1000"); got != 1 {
		t.Errorf("first RecordMiss = %d, want 1", got)
	}
	if got := st.RecordMiss("sol:1000"); got != 2 {
		t.Errorf("second RecordMiss = %d, want 2", got)
	}
	if got := st.RecordMiss("sol:2000"); got != 1 {
		t.Errorf("RecordMiss for other key = %d, want 1", got)
	}

	st.RecordHit("sol:1000")
	st.RecordHit("sol:1000")
	if got := st.RecordMiss("sol:1000"); got != 1 {
		t.Errorf("RecordMiss after hits = %d, want 1 (count reset)", got)
	}

	// RecordHit for an unknown key must not panic or go negative.
	st.RecordHit("sol:9999")
	if got := st.RecordMiss("sol:9999"); got != 1 {
		t.Errorf("RecordMiss after stray hit = %d, want 1", got)
	}
}
