package health

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// pipelinesCollection is the Firestore collection holding one document per
// pipeline run; the aggregate health result lives under its "health" field.
const pipelinesCollection = "pipelines"

// FirestoreRepository stores health check results in Firestore.
type FirestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Firestore-backed repository.
func NewFirestoreRepository(client *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{client: client}
}

// SaveResult writes the aggregate result under pipelines/{pipelineID},
// merging so other pipeline fields written by downstream stages survive.
func (r *FirestoreRepository) SaveResult(ctx context.Context, pipelineID string, doc *Document) error {
	_, err := r.client.Collection(pipelinesCollection).Doc(pipelineID).Set(ctx, map[string]any{
		"health": doc,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("writing health result for pipeline %s: %w", pipelineID, err)
	}
	return nil
}

// GetResult reads the stored result for a pipeline run.
func (r *FirestoreRepository) GetResult(ctx context.Context, pipelineID string) (*Document, error) {
	snap, err := r.client.Collection(pipelinesCollection).Doc(pipelineID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading health result for pipeline %s: %w", pipelineID, err)
	}

	var wrapper struct {
		Health *Document `firestore:"health"`
	}
	if err := snap.DataTo(&wrapper); err != nil {
		return nil, fmt.Errorf("decoding health result for pipeline %s: %w", pipelineID, err)
	}
	if wrapper.Health == nil {
		return nil, ErrNotFound
	}
	return wrapper.Health, nil
}
