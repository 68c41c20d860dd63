package health

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dailycast/dailycast/internal/alert"
)

// AlertDispatcher is the alert contract the failure handler relies on.
type AlertDispatcher interface {
	Send(ctx context.Context, a alert.Alert) alert.DispatchResult
}

// Deployment deploys pre-produced fallback content when the pipeline run
// is blocked. Candidates are addressed by opaque identifier.
type Deployment interface {
	// Candidate returns the next buffer item eligible for deployment.
	Candidate(ctx context.Context) (string, error)

	// Deploy publishes the given buffer item in place of today's run.
	Deploy(ctx context.Context, candidateID string) error
}

// AlertRecord captures one dispatched alert for the handler result.
type AlertRecord struct {
	Severity alert.Severity `json:"severity"`
	Services []Service      `json:"services"`
}

// FailureHandlerResult is the outcome of one failure-handling pass. It is
// not persisted; persistence of the input result already happened upstream.
type FailureHandlerResult struct {
	ShouldSkipPipeline        bool          `json:"shouldSkipPipeline"`
	BufferDeploymentTriggered bool          `json:"bufferDeploymentTriggered"`
	AlertsSent                []AlertRecord `json:"alertsSent"`
}

// FailureHandlerConfig holds configuration for the failure handler.
type FailureHandlerConfig struct {
	// Alerts dispatches severity-routed alerts.
	Alerts AlertDispatcher

	// Deployment triggers the fallback-content deployment (optional).
	Deployment Deployment

	// Logger for handler operations.
	Logger zerolog.Logger
}

// FailureHandler consumes an aggregate health result and applies the
// per-service response policy.
type FailureHandler struct {
	alerts     AlertDispatcher
	deployment Deployment
	logger     zerolog.Logger
}

// NewFailureHandler creates a new failure handler.
func NewFailureHandler(cfg FailureHandlerConfig) *FailureHandler {
	return &FailureHandler{
		alerts:     cfg.Alerts,
		deployment: cfg.Deployment,
		logger:     cfg.Logger,
	}
}

// HandleFailure decides whether the pipeline run is skipped and performs
// the policy side effects: buffer deployment and severity-routed alerts on
// critical failure, a warning alert on warnings only, nothing when both
// lists are empty. All side effects are best effort; none of them change
// the skip decision.
func (h *FailureHandler) HandleFailure(ctx context.Context, pipelineID string, result *Result) *FailureHandlerResult {
	out := &FailureHandlerResult{
		ShouldSkipPipeline: len(result.CriticalFailures) > 0,
		AlertsSent:         []AlertRecord{},
	}

	if out.ShouldSkipPipeline {
		out.BufferDeploymentTriggered = h.triggerBufferDeployment(ctx, pipelineID)
		h.sendAlert(ctx, pipelineID, result.CriticalFailures, alert.SeverityCritical,
			fmt.Sprintf("Pipeline %s blocked by failed critical services", pipelineID), out)
		return out
	}

	if len(result.Warnings) > 0 {
		h.sendAlert(ctx, pipelineID, result.Warnings, alert.SeverityWarning,
			fmt.Sprintf("Pipeline %s proceeding with degraded services", pipelineID), out)
	}

	return out
}

// triggerBufferDeployment is best effort: its failure is logged and leaves
// the skip decision untouched.
func (h *FailureHandler) triggerBufferDeployment(ctx context.Context, pipelineID string) bool {
	if h.deployment == nil {
		h.logger.Warn().
			Str("pipeline_id", pipelineID).
			Msg("no buffer deployment configured, skipping fallback")
		return false
	}

	candidateID, err := h.deployment.Candidate(ctx)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("pipeline_id", pipelineID).
			Msg("failed to select buffer candidate")
		return false
	}

	if err := h.deployment.Deploy(ctx, candidateID); err != nil {
		h.logger.Error().
			Err(err).
			Str("pipeline_id", pipelineID).
			Str("candidate_id", candidateID).
			Msg("failed to deploy buffer candidate")
		return false
	}

	h.logger.Info().
		Str("pipeline_id", pipelineID).
		Str("candidate_id", candidateID).
		Msg("buffer deployment triggered")
	return true
}

// sendAlert builds one alert covering the implicated services, routing to
// email as soon as any implicated service's policy requires it.
func (h *FailureHandler) sendAlert(ctx context.Context, pipelineID string, services []Service, severity alert.Severity, message string, out *FailureHandlerResult) {
	var discord, email bool
	names := make([]string, 0, len(services))
	for _, svc := range services {
		resp := FailureResponseFor(svc)
		discord = discord || resp.ShouldAlertDiscord
		email = email || resp.ShouldAlertEmail
		names = append(names, string(svc))
	}

	dispatch := h.alerts.Send(ctx, alert.Alert{
		Severity: severity,
		Title:    "Daily pipeline preflight",
		Message:  message + ": " + strings.Join(names, ", "),
		Services: names,
		Discord:  discord,
		Email:    email,
	})
	if !dispatch.Success {
		h.logger.Error().
			Str("pipeline_id", pipelineID).
			Str("severity", string(severity)).
			Str("error", dispatch.Error).
			Msg("alert dispatch failed on all channels")
	}

	out.AlertsSent = append(out.AlertsSent, AlertRecord{
		Severity: severity,
		Services: services,
	})
}
