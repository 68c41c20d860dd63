package buffer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// bufferCollection is the Firestore collection holding buffer items.
const bufferCollection = "buffer"

// FirestoreStore is the production item store.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a Firestore-backed item store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Next returns the oldest undeployed item.
func (s *FirestoreStore) Next(ctx context.Context) (*Item, error) {
	iter := s.client.Collection(bufferCollection).
		Where("deployed", "==", false).
		OrderBy("createdAt", firestore.Asc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, ErrNoCandidate
	}
	if err != nil {
		return nil, fmt.Errorf("querying buffer items: %w", err)
	}

	return itemFromSnapshot(snap)
}

// Get returns an item by ID.
func (s *FirestoreStore) Get(ctx context.Context, id string) (*Item, error) {
	snap, err := s.client.Collection(bufferCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("buffer item %s not found", id)
		}
		return nil, fmt.Errorf("reading buffer item %s: %w", id, err)
	}
	return itemFromSnapshot(snap)
}

// MarkDeployed flags an item as consumed.
func (s *FirestoreStore) MarkDeployed(ctx context.Context, id string, at time.Time) error {
	_, err := s.client.Collection(bufferCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "deployed", Value: true},
		{Path: "deployedAt", Value: at},
	})
	if err != nil {
		return fmt.Errorf("updating buffer item %s: %w", id, err)
	}
	return nil
}

func itemFromSnapshot(snap *firestore.DocumentSnapshot) (*Item, error) {
	var item Item
	if err := snap.DataTo(&item); err != nil {
		return nil, fmt.Errorf("decoding buffer item %s: %w", snap.Ref.ID, err)
	}
	item.ID = snap.Ref.ID
	return &item, nil
}
