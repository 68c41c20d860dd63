package health

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Checker probes a single external service.
//
// Check must never panic past its boundary and must never block past its
// own timeout race; any internal error is converted into a failed Check
// with a human-readable error string.
type Checker interface {
	// Service returns the service this checker probes.
	Service() Service

	// Check runs the probe. The context carries the per-check deadline.
	Check(ctx context.Context) Check
}

// Orchestrator timing defaults.
const (
	// DefaultCheckTimeout bounds each individual check.
	DefaultCheckTimeout = 30 * time.Second

	// DefaultSoftDeadline is the soft ceiling on a full preflight run.
	// Exceeding it is logged at error level but never enforced.
	DefaultSoftDeadline = 120 * time.Second

	// settleGrace is how long past the check timeout the orchestrator
	// waits for a checker before synthesizing a failed entry for it. The
	// abandoned goroutine's eventual result is discarded.
	settleGrace = 2 * time.Second
)

// OrchestratorConfig holds configuration for the orchestrator.
type OrchestratorConfig struct {
	// Checkers are the per-service probes, in service declaration order.
	Checkers []Checker

	// Repository persists aggregate results (optional; when nil, results
	// are not persisted).
	Repository Repository

	// Logger for orchestration operations.
	Logger zerolog.Logger

	// Meter records check metrics (optional).
	Meter metric.Meter

	// CheckTimeout overrides DefaultCheckTimeout (tests only).
	CheckTimeout time.Duration

	// SoftDeadline overrides DefaultSoftDeadline (tests only).
	SoftDeadline time.Duration
}

// Orchestrator fans all service checks out concurrently, classifies the
// results against the criticality policy, and persists the aggregate.
type Orchestrator struct {
	checkers     []Checker
	repo         Repository
	logger       zerolog.Logger
	checkTimeout time.Duration
	softDeadline time.Duration

	checksCounter metric.Int64Counter
	durationHist  metric.Int64Histogram
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	o := &Orchestrator{
		checkers:     cfg.Checkers,
		repo:         cfg.Repository,
		logger:       cfg.Logger,
		checkTimeout: cfg.CheckTimeout,
		softDeadline: cfg.SoftDeadline,
	}
	if o.checkTimeout == 0 {
		o.checkTimeout = DefaultCheckTimeout
	}
	if o.softDeadline == 0 {
		o.softDeadline = DefaultSoftDeadline
	}

	if cfg.Meter != nil {
		var err error
		o.checksCounter, err = cfg.Meter.Int64Counter("preflight.checks",
			metric.WithDescription("Service health checks by service and status"))
		if err != nil {
			return nil, fmt.Errorf("creating checks counter: %w", err)
		}
		o.durationHist, err = cfg.Meter.Int64Histogram("preflight.duration_ms",
			metric.WithDescription("Total preflight duration in milliseconds"),
			metric.WithUnit("ms"))
		if err != nil {
			return nil, fmt.Errorf("creating duration histogram: %w", err)
		}
	}

	return o, nil
}

// PerformHealthCheck runs all checks concurrently and returns the
// classified aggregate. It never returns an error: every failure mode,
// including a misbehaving checker, ends up as a failed entry in the
// result. Total wall-clock duration tracks the slowest single check.
func (o *Orchestrator) PerformHealthCheck(ctx context.Context, pipelineID string) *Result {
	start := time.Now()

	o.logger.Info().
		Str("pipeline_id", pipelineID).
		Int("services", len(o.checkers)).
		Msg("starting preflight health check")

	checks := make([]Check, len(o.checkers))
	var wg sync.WaitGroup
	for i, checker := range o.checkers {
		wg.Add(1)
		go func(i int, checker Checker) {
			defer wg.Done()
			checks[i] = o.runChecker(ctx, checker, start)
		}(i, checker)
	}
	wg.Wait()

	result := o.classify(checks, start)
	o.record(ctx, result)
	o.persist(ctx, pipelineID, result)

	if time.Duration(result.TotalDurationMs)*time.Millisecond > o.softDeadline {
		o.logger.Error().
			Str("pipeline_id", pipelineID).
			Int64("duration_ms", result.TotalDurationMs).
			Dur("soft_deadline", o.softDeadline).
			Msg("preflight exceeded soft deadline")
	}

	o.logger.Info().
		Str("pipeline_id", pipelineID).
		Bool("all_passed", result.AllPassed).
		Int("critical_failures", len(result.CriticalFailures)).
		Int("warnings", len(result.Warnings)).
		Int64("duration_ms", result.TotalDurationMs).
		Msg("preflight health check completed")

	return result
}

// runChecker guards one checker invocation: the per-check deadline is
// propagated through the context, panics become failed entries, and a
// checker that does not settle within timeout plus grace is abandoned with
// a synthesized failed entry. Latency for synthesized entries is measured
// from batch start.
func (o *Orchestrator) runChecker(ctx context.Context, checker Checker, batchStart time.Time) Check {
	svc := checker.Service()

	checkCtx, cancel := context.WithTimeout(ctx, o.checkTimeout)
	defer cancel()

	done := make(chan Check, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Check{
					Service:   svc,
					Status:    StatusFailed,
					LatencyMs: time.Since(batchStart).Milliseconds(),
					Error:     fmt.Sprintf("checker panic: %v", r),
				}
			}
		}()
		done <- checker.Check(checkCtx)
	}()

	select {
	case check := <-done:
		return check
	case <-time.After(o.checkTimeout + settleGrace):
		o.logger.Error().
			Str("service", string(svc)).
			Msg("checker did not settle, abandoning")
		return Check{
			Service:   svc,
			Status:    StatusFailed,
			LatencyMs: time.Since(batchStart).Milliseconds(),
			Error:     fmt.Sprintf("Timeout after %dms", o.checkTimeout.Milliseconds()),
		}
	}
}

// classify buckets each check by the criticality policy: a failed critical
// service blocks the run; a failed non-critical service or any degraded
// service is a warning.
func (o *Orchestrator) classify(checks []Check, start time.Time) *Result {
	result := &Result{
		Timestamp:        start.UTC(),
		Checks:           checks,
		CriticalFailures: []Service{},
		Warnings:         []Service{},
		TotalDurationMs:  time.Since(start).Milliseconds(),
	}

	for _, check := range checks {
		switch check.Status {
		case StatusFailed:
			if CriticalityFor(check.Service) == CriticalityCritical {
				result.CriticalFailures = append(result.CriticalFailures, check.Service)
			} else {
				result.Warnings = append(result.Warnings, check.Service)
			}
		case StatusDegraded:
			result.Warnings = append(result.Warnings, check.Service)
		}
	}

	result.AllPassed = len(result.CriticalFailures) == 0
	return result
}

func (o *Orchestrator) record(ctx context.Context, result *Result) {
	if o.checksCounter == nil {
		return
	}
	for _, check := range result.Checks {
		o.checksCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("service", string(check.Service)),
			attribute.String("status", string(check.Status)),
		))
	}
	o.durationHist.Record(ctx, result.TotalDurationMs)
}

// persist writes the aggregate result; storage problems are logged and
// swallowed so they can never alter the returned result.
func (o *Orchestrator) persist(ctx context.Context, pipelineID string, result *Result) {
	if o.repo == nil {
		return
	}
	doc := &Document{PipelineID: pipelineID, Result: *result}
	if err := o.repo.SaveResult(ctx, pipelineID, doc); err != nil {
		o.logger.Error().
			Err(err).
			Str("pipeline_id", pipelineID).
			Msg("failed to persist health check result")
	}
}

// Summary renders a one-line status string for logs and dashboards.
func Summary(result *Result) string {
	var healthy int
	var degraded, failed []string
	for _, check := range result.Checks {
		switch check.Status {
		case StatusHealthy:
			healthy++
		case StatusDegraded:
			degraded = append(degraded, string(check.Service))
		case StatusFailed:
			failed = append(failed, string(check.Service))
		}
	}

	total := len(result.Checks)
	if len(result.CriticalFailures) > 0 {
		return fmt.Sprintf("CRITICAL: %d of %d checks failed (%s) (%dms)",
			len(failed), total, strings.Join(failed, ", "), result.TotalDurationMs)
	}
	if len(degraded) == 0 && len(failed) == 0 {
		return fmt.Sprintf("All %d services healthy (%dms)", total, result.TotalDurationMs)
	}

	parts := []string{fmt.Sprintf("%d healthy", healthy)}
	if len(degraded) > 0 {
		parts = append(parts, fmt.Sprintf("%d degraded (%s)", len(degraded), strings.Join(degraded, ", ")))
	}
	if len(failed) > 0 {
		parts = append(parts, fmt.Sprintf("%d failed (%s)", len(failed), strings.Join(failed, ", ")))
	}
	return fmt.Sprintf("%s (%dms)", strings.Join(parts, ", "), result.TotalDurationMs)
}
