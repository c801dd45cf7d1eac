package overload

import (
	"testing"
	"time"

	"github.com/marsmission/rover-status-service/internal/traffic"
)

// TestRecordDenial verifies denials are counted in both the denial and
// request windows.
func TestRecordDenial(t *testing.T) {
	Reset()
	defer Reset()

	RecordDenial()
	RecordDenial()
	traffic.RecordSuccess()

	if got := DenialCount(time.Minute); got != 2 {
		t.Errorf("DenialCount = %d, want 2", got)
	}
	if got := RequestCount(time.Minute); got != 3 {
		t.Errorf("RequestCount = %d, want 3", got)
	}
}
