// Package checks implements the per-service preflight probes. Each probe
// verifies one external dependency of the daily pipeline and reports a
// typed result within a bounded time; retries belong to the underlying
// clients, never to the probes.
package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/dailycast/dailycast/internal/health"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 30 * time.Second

// probeFunc does the actual work of one probe. It returns the observed
// status plus service-specific metadata; a non-nil error always means a
// failed check.
type probeFunc func(ctx context.Context) (health.Status, map[string]any, error)

// guard races fn against the per-check timeout and converts every failure
// mode into a failed check: errors become the check's error string, timer
// expiry synthesizes a timeout message, and panics are recovered. The
// deadline is propagated through the context so a well-behaved call is
// cancelled; a call that ignores it is abandoned and its eventual result
// discarded.
func guard(ctx context.Context, svc health.Service, timeout time.Duration, fn probeFunc) health.Check {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		status   health.Status
		metadata map[string]any
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("probe panic: %v", r)}
			}
		}()
		status, metadata, err := fn(probeCtx)
		done <- outcome{status: status, metadata: metadata, err: err}
	}()

	select {
	case out := <-done:
		check := health.Check{
			Service:   svc,
			Status:    out.status,
			LatencyMs: time.Since(start).Milliseconds(),
			Metadata:  out.metadata,
		}
		if out.err != nil {
			check.Status = health.StatusFailed
			check.Error = out.err.Error()
		}
		return check
	case <-time.After(timeout):
		return health.Check{
			Service:   svc,
			Status:    health.StatusFailed,
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     fmt.Sprintf("Timeout after %dms", timeout.Milliseconds()),
		}
	}
}
