package degraded

import (
	"time"

	"github.com/marsmission/rover-status-service/internal/traffic"
)

// RecordSuccess records a rover-data request that was served with live
// upstream imagery.
func RecordSuccess() {
	traffic.RecordSuccess()
}

// RecordError records a rover-data request that degraded to fallback imagery
// or failed outright. The request itself may still have returned 200.
func RecordError() {
	traffic.RecordError()
}

// ErrorRate returns (errorCount, totalCount) within the window. totalCount = successes + errors.
func ErrorRate(window time.Duration) (errors, total int) {
	return traffic.ErrorRate(window)
}

// Reset clears all recorded data. For tests only.
func Reset() {
	traffic.Reset()
}
