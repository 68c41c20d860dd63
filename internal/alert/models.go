// Package alert provides severity-routed alert dispatch over independent
// delivery channels.
package alert

// Severity classifies an alert for routing and formatting.
type Severity string

// Alert severities.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeveritySuccess  Severity = "SUCCESS"
	SeverityInfo     Severity = "INFO"
)

// Alert is a single notification to be fanned out to the configured
// channels.
type Alert struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`

	// Services lists the service names implicated by the alert.
	Services []string `json:"services,omitempty"`

	// Channel routing. At least one must be set; a dispatcher falls back
	// to Discord when neither is.
	Discord bool `json:"discord"`
	Email   bool `json:"email"`
}

// DispatchResult reports the outcome of fanning an alert out. Success is
// true when at least one attempted channel delivered.
type DispatchResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
