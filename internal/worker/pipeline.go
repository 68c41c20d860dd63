// Package worker runs the daily pipeline entrypoint: it consumes the
// scheduled trigger, gates the run behind the preflight health check, and
// hands off to the content stages or the failure path.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dailycast/dailycast/internal/health"
)

// HealthGate is the preflight contract the entrypoint consumes.
type HealthGate interface {
	PerformHealthCheck(ctx context.Context, pipelineID string) *health.Result
}

// FailureHandler consumes a gate result that blocks or degrades the run.
type FailureHandler interface {
	HandleFailure(ctx context.Context, pipelineID string, result *health.Result) *health.FailureHandlerResult
}

// Publisher publishes messages for the downstream content stages.
type Publisher interface {
	Publish(ctx context.Context, data []byte) error
}

// ProceedMessage tells the content stages the gate passed.
type ProceedMessage struct {
	JobType    string   `json:"job_type"`
	PipelineID string   `json:"pipeline_id"`
	Summary    string   `json:"summary"`
	Warnings   []string `json:"warnings,omitempty"`
}

// JobTypeProceed is the ProceedMessage job type.
const JobTypeProceed = "pipeline_proceed"

// RunOutcome is the result of one entrypoint invocation.
type RunOutcome struct {
	PipelineID string
	Skipped    bool
	Summary    string
	Handler    *health.FailureHandlerResult
}

// RunMetrics tracks entrypoint statistics.
type RunMetrics struct {
	mu sync.RWMutex

	TotalRuns    int64
	Proceeded    int64
	Skipped      int64
	LastRunAt    time.Time
	LastDuration time.Duration
}

// PipelineRunnerConfig holds configuration for the entrypoint.
type PipelineRunnerConfig struct {
	Gate     HealthGate
	Failures FailureHandler
	Proceed  Publisher
	Logger   zerolog.Logger

	// Now overrides the clock (tests only).
	Now func() time.Time
}

// PipelineRunner is the pipeline entrypoint.
type PipelineRunner struct {
	gate     HealthGate
	failures FailureHandler
	proceed  Publisher
	logger   zerolog.Logger
	now      func() time.Time
	metrics  *RunMetrics
}

// NewPipelineRunner creates a new entrypoint.
func NewPipelineRunner(cfg PipelineRunnerConfig) *PipelineRunner {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &PipelineRunner{
		gate:     cfg.Gate,
		failures: cfg.Failures,
		proceed:  cfg.Proceed,
		logger:   cfg.Logger,
		now:      now,
		metrics:  &RunMetrics{},
	}
}

// RunDaily gates today's pipeline run. On critical failure the run is
// skipped for the day with alerts sent; warnings alert but do not block.
// The proceed message is only published when the gate passes.
func (r *PipelineRunner) RunDaily(ctx context.Context) (*RunOutcome, error) {
	start := r.now()
	pipelineID := health.PipelineIDForDate(start)

	result := r.gate.PerformHealthCheck(ctx, pipelineID)
	summary := health.Summary(result)
	outcome := &RunOutcome{PipelineID: pipelineID, Summary: summary}

	r.logger.Info().
		Str("pipeline_id", pipelineID).
		Str("summary", summary).
		Msg("preflight gate evaluated")

	if !result.AllPassed {
		outcome.Skipped = true
		outcome.Handler = r.failures.HandleFailure(ctx, pipelineID, result)
		r.record(start, true)
		r.logger.Warn().
			Str("pipeline_id", pipelineID).
			Bool("buffer_deployed", outcome.Handler.BufferDeploymentTriggered).
			Msg("pipeline run skipped for the day")
		return outcome, nil
	}

	if len(result.Warnings) > 0 {
		outcome.Handler = r.failures.HandleFailure(ctx, pipelineID, result)
	}

	warnings := make([]string, 0, len(result.Warnings))
	for _, svc := range result.Warnings {
		warnings = append(warnings, string(svc))
	}
	data, err := json.Marshal(ProceedMessage{
		JobType:    JobTypeProceed,
		PipelineID: pipelineID,
		Summary:    summary,
		Warnings:   warnings,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding proceed message: %w", err)
	}
	if err := r.proceed.Publish(ctx, data); err != nil {
		return nil, fmt.Errorf("publishing proceed message: %w", err)
	}

	r.record(start, false)
	return outcome, nil
}

// Probe runs the gate without pipeline side effects, for manual checks.
func (r *PipelineRunner) Probe(ctx context.Context, pipelineID string) *health.Result {
	return r.gate.PerformHealthCheck(ctx, pipelineID)
}

func (r *PipelineRunner) record(start time.Time, skipped bool) {
	r.metrics.mu.Lock()
	defer r.metrics.mu.Unlock()

	r.metrics.TotalRuns++
	if skipped {
		r.metrics.Skipped++
	} else {
		r.metrics.Proceeded++
	}
	r.metrics.LastRunAt = start
	r.metrics.LastDuration = r.now().Sub(start)
}

// MetricsSnapshot returns a snapshot of the run metrics as a map.
func (r *PipelineRunner) MetricsSnapshot() map[string]interface{} {
	r.metrics.mu.RLock()
	defer r.metrics.mu.RUnlock()

	return map[string]interface{}{
		"total_runs":    r.metrics.TotalRuns,
		"proceeded":     r.metrics.Proceeded,
		"skipped":       r.metrics.Skipped,
		"last_run_at":   r.metrics.LastRunAt,
		"last_duration": r.metrics.LastDuration.String(),
	}
}
