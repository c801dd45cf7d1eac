package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/marsmission/rover-status-service/internal/circuitbreaker"
)

// TestCategorizeError verifies stable metric labels for each error class.
func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{name: "nil", err: nil, want: ""},
		{name: "deadline", err: context.DeadlineExceeded, want: ErrorCategoryTimeout},
		{name: "wrapped deadline", err: fmt.Errorf("request timeout: %w", context.DeadlineExceeded), want: ErrorCategoryTimeout},
		{name: "invalid key", err: fmt.Errorf("%w: HTTP 403", ErrInvalidAPIKey), want: ErrorCategoryInvalidAPIKey},
		{name: "rate limited", err: ErrRateLimited, want: ErrorCategoryRateLimited},
		{name: "upstream", err: fmt.Errorf("%w: HTTP 502", ErrUpstreamFailure), want: ErrorCategoryUpstream5xx},
		{name: "parse", err: errors.New("parse response: unexpected token"), want: ErrorCategoryParsing},
		{name: "connection", err: errors.New("dial tcp: connection refused"), want: ErrorCategoryNetwork},
		{name: "breaker open", err: circuitbreaker.ErrOpen, want: ErrorCategoryCircuitOpen},
		{name: "unknown", err: errors.New("mystery"), want: ErrorCategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategorizeError(tt.err); got != tt.want {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
