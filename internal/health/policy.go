package health

import (
	"github.com/dailycast/dailycast/internal/alert"
)

// Criticality is the business-assigned severity tier of a service. It
// determines whether the service's failure can block the pipeline run.
type Criticality string

// Criticality tiers.
const (
	// CriticalityCritical blocks the pipeline when the service fails.
	CriticalityCritical Criticality = "CRITICAL"

	// CriticalityDegraded lets the pipeline continue with reduced output.
	CriticalityDegraded Criticality = "DEGRADED"

	// CriticalityRecoverable lets the pipeline continue normally; the
	// dependent step is retried on a later run.
	CriticalityRecoverable Criticality = "RECOVERABLE"
)

// CriticalityFor maps a service to its criticality tier. The switch is
// exhaustive over the declared services; a new service must be given an
// entry here before it can be checked. Unknown services are treated as
// critical so a wiring mistake blocks the run instead of passing silently.
func CriticalityFor(s Service) Criticality {
	switch s {
	case ServiceGemini:
		// No LLM, no content.
		return CriticalityCritical
	case ServiceYouTube:
		return CriticalityCritical
	case ServiceTwitter:
		// Social posting is nice-to-have; the announcement can be re-run.
		return CriticalityRecoverable
	case ServiceFirestore:
		return CriticalityCritical
	case ServiceStorage:
		// Media assets can be re-rendered; publish proceeds without them.
		return CriticalityDegraded
	case ServiceSecrets:
		// No credentials access is fatal for every downstream stage.
		return CriticalityCritical
	default:
		return CriticalityCritical
	}
}

// Action is what the pipeline entrypoint does in response to a failure of
// a given service.
type Action string

// Failure-response actions.
const (
	ActionSkipPipeline     Action = "skip-pipeline"
	ActionContinueDegraded Action = "continue-degraded"
	ActionContinueNormal   Action = "continue-normal"
)

// FailureResponse is the static per-service response policy.
type FailureResponse struct {
	Action             Action         `json:"action"`
	AlertType          alert.Severity `json:"alertType"`
	ShouldAlertDiscord bool           `json:"shouldAlertDiscord"`
	ShouldAlertEmail   bool           `json:"shouldAlertEmail"`
}

// FailureResponseFor maps a service to its response policy. Like
// CriticalityFor, the switch is exhaustive over the declared services.
//
// Firestore is the one deliberate escalation: its action is skip-pipeline
// like the other critical services, but it additionally requires email.
// Losing the document store means losing run history and buffer state,
// which on-call must see even when Discord is down.
func FailureResponseFor(s Service) FailureResponse {
	switch s {
	case ServiceGemini:
		return FailureResponse{
			Action:             ActionSkipPipeline,
			AlertType:          alert.SeverityCritical,
			ShouldAlertDiscord: true,
		}
	case ServiceYouTube:
		return FailureResponse{
			Action:             ActionSkipPipeline,
			AlertType:          alert.SeverityCritical,
			ShouldAlertDiscord: true,
		}
	case ServiceTwitter:
		return FailureResponse{
			Action:             ActionContinueNormal,
			AlertType:          alert.SeverityWarning,
			ShouldAlertDiscord: true,
		}
	case ServiceFirestore:
		return FailureResponse{
			Action:             ActionSkipPipeline,
			AlertType:          alert.SeverityCritical,
			ShouldAlertDiscord: true,
			ShouldAlertEmail:   true,
		}
	case ServiceStorage:
		return FailureResponse{
			Action:             ActionContinueDegraded,
			AlertType:          alert.SeverityWarning,
			ShouldAlertDiscord: true,
		}
	case ServiceSecrets:
		return FailureResponse{
			Action:             ActionSkipPipeline,
			AlertType:          alert.SeverityCritical,
			ShouldAlertDiscord: true,
		}
	default:
		return FailureResponse{
			Action:             ActionSkipPipeline,
			AlertType:          alert.SeverityCritical,
			ShouldAlertDiscord: true,
		}
	}
}
