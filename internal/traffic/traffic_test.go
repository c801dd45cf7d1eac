package traffic

import (
	"testing"
	"time"
)

// TestTracker_ErrorRate verifies error/total counting within the window and
// that denials are excluded from the error-rate denominator.
func TestTracker_ErrorRate(t *testing.T) {
	var tr Tracker
	tr.record(kindSuccess, 3)
	tr.record(kindError, 1)
	tr.record(kindDenied, 2)

	errs, total := tr.ErrorRate(time.Minute)
	if errs != 1 {
		t.Errorf("ErrorRate errors = %d, want 1", errs)
	}
	if total != 4 {
		t.Errorf("ErrorRate total = %d, want 4 (denials excluded)", total)
	}
}

// TestTracker_RequestCount verifies that all outcome kinds count toward the
// request total.
func TestTracker_RequestCount(t *testing.T) {
	var tr Tracker
	tr.record(kindSuccess, 2)
	tr.record(kindError, 1)
	tr.record(kindDenied, 1)

	if got := tr.RequestCount(time.Minute); got != 4 {
		t.Errorf("RequestCount = %d, want 4", got)
	}
	if got := tr.DenialCount(time.Minute); got != 1 {
		t.Errorf("DenialCount = %d, want 1", got)
	}
}

// TestTracker_WindowExcludesOld verifies that outcomes outside the queried
// window are not counted.
func TestTracker_WindowExcludesOld(t *testing.T) {
	var tr Tracker
	old := time.Now().Add(-2 * time.Minute)
	tr.outcomes = append(tr.outcomes, outcome{at: old, kind: kindError})
	tr.record(kindSuccess, 1)

	errs, total := tr.ErrorRate(time.Minute)
	if errs != 0 {
		t.Errorf("ErrorRate errors = %d, want 0 (outcome outside window)", errs)
	}
	if total != 1 {
		t.Errorf("ErrorRate total = %d, want 1", total)
	}
}

// TestTracker_Reset verifies that Reset clears all recorded outcomes.
func TestTracker_Reset(t *testing.T) {
	var tr Tracker
	tr.record(kindSuccess, 5)
	tr.Reset()

	if got := tr.RequestCount(time.Minute); got != 0 {
		t.Errorf("RequestCount after Reset = %d, want 0", got)
	}
}

// TestPackageLevelHelpers verifies the default tracker wiring used by the
// overload and degraded packages.
func TestPackageLevelHelpers(t *testing.T) {
	Reset()
	defer Reset()

	RecordSuccess()
	RecordErrorN(2)
	RecordDenied()

	errs, total := ErrorRate(time.Minute)
	if errs != 2 || total != 3 {
		t.Errorf("ErrorRate = (%d, %d), want (2, 3)", errs, total)
	}
	if got := RequestCount(time.Minute); got != 4 {
		t.Errorf("RequestCount = %d, want 4", got)
	}
	if got := DenialCount(time.Minute); got != 1 {
		t.Errorf("DenialCount = %d, want 1", got)
	}
}
