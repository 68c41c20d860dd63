package health

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no result exists for a pipeline run.
var ErrNotFound = errors.New("health check result not found")

// Repository persists aggregate health check results, one per pipeline
// run. Results are written once after aggregation and never updated.
type Repository interface {
	// SaveResult stores the aggregate result under the pipeline key.
	SaveResult(ctx context.Context, pipelineID string, doc *Document) error

	// GetResult returns the stored result for a pipeline run, or
	// ErrNotFound when the run has no persisted result.
	GetResult(ctx context.Context, pipelineID string) (*Document, error)
}
