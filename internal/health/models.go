// Package health implements the preflight gate for the daily content
// pipeline: service health checks are fanned out, classified by business
// criticality, routed to a failure response, and kept as rolling history.
package health

import (
	"time"
)

// Service identifies one of the fixed external dependencies checked before
// each pipeline run.
type Service string

// The six checked services. Declaration order is canonical: the checks
// slice of a Result preserves this order regardless of completion order.
const (
	ServiceGemini    Service = "gemini"
	ServiceYouTube   Service = "youtube"
	ServiceTwitter   Service = "twitter"
	ServiceFirestore Service = "firestore"
	ServiceStorage   Service = "storage"
	ServiceSecrets   Service = "secrets"
)

// Services returns all checked services in declaration order.
func Services() []Service {
	return []Service{
		ServiceGemini,
		ServiceYouTube,
		ServiceTwitter,
		ServiceFirestore,
		ServiceStorage,
		ServiceSecrets,
	}
}

// Status is the outcome of a single service check.
type Status string

// Check statuses.
const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// Check is the result of probing a single service.
type Check struct {
	Service   Service        `json:"service" firestore:"service"`
	Status    Status         `json:"status" firestore:"status"`
	LatencyMs int64          `json:"latencyMs" firestore:"latencyMs"`
	Error     string         `json:"error,omitempty" firestore:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty" firestore:"metadata,omitempty"`
}

// Result is the aggregate outcome of one preflight run. It is built once
// by the orchestrator and never mutated afterward.
type Result struct {
	Timestamp        time.Time `json:"timestamp" firestore:"timestamp"`
	AllPassed        bool      `json:"allPassed" firestore:"allPassed"`
	Checks           []Check   `json:"checks" firestore:"checks"`
	CriticalFailures []Service `json:"criticalFailures" firestore:"criticalFailures"`
	Warnings         []Service `json:"warnings" firestore:"warnings"`
	TotalDurationMs  int64     `json:"totalDurationMs" firestore:"totalDurationMs"`
}

// Document is the persisted form of a Result, keyed by pipeline run.
type Document struct {
	PipelineID string `json:"pipelineId" firestore:"pipelineId"`
	Result
}

// PipelineIDForDate returns the date-keyed pipeline run identifier. The
// history analyzer relies on this to address one run per calendar day.
func PipelineIDForDate(t time.Time) string {
	return "daily-" + t.UTC().Format("2006-01-02")
}
