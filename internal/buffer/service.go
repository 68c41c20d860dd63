package buffer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoCandidate is returned when every buffer item has already been
// deployed.
var ErrNoCandidate = errors.New("no undeployed buffer item available")

// ItemStore provides access to the persisted buffer items.
type ItemStore interface {
	// Next returns the oldest undeployed item, or ErrNoCandidate.
	Next(ctx context.Context) (*Item, error)

	// Get returns an item by ID.
	Get(ctx context.Context, id string) (*Item, error)

	// MarkDeployed flags an item as consumed.
	MarkDeployed(ctx context.Context, id string, at time.Time) error
}

// Publisher publishes deploy messages for the downstream publishing stage.
type Publisher interface {
	Publish(ctx context.Context, data []byte) error
}

// ServiceConfig holds configuration for the buffer service.
type ServiceConfig struct {
	// Store provides the buffer items.
	Store ItemStore

	// Publisher delivers deploy messages.
	Publisher Publisher

	// Logger for service operations.
	Logger zerolog.Logger

	// Now overrides the clock (tests only).
	Now func() time.Time
}

// Service selects and deploys fallback items. It satisfies the failure
// handler's deployment contract.
type Service struct {
	store     ItemStore
	publisher Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a new buffer service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     cfg.Store,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		now:       now,
	}
}

// Candidate returns the ID of the oldest undeployed buffer item.
func (s *Service) Candidate(ctx context.Context) (string, error) {
	item, err := s.store.Next(ctx)
	if err != nil {
		return "", err
	}
	return item.ID, nil
}

// Deploy marks the item consumed and publishes the deploy message. The
// item is marked before publishing so a redelivered trigger cannot deploy
// the same item twice.
func (s *Service) Deploy(ctx context.Context, candidateID string) error {
	item, err := s.store.Get(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("loading buffer item %s: %w", candidateID, err)
	}
	if item.Deployed {
		return fmt.Errorf("buffer item %s already deployed", candidateID)
	}

	deployedAt := s.now().UTC()
	if err := s.store.MarkDeployed(ctx, candidateID, deployedAt); err != nil {
		return fmt.Errorf("marking buffer item %s deployed: %w", candidateID, err)
	}

	data, err := json.Marshal(DeployMessage{
		JobType:    JobTypeDeploy,
		ItemID:     item.ID,
		Title:      item.Title,
		MediaPath:  item.MediaPath,
		DeployedAt: deployedAt,
	})
	if err != nil {
		return fmt.Errorf("encoding deploy message: %w", err)
	}
	if err := s.publisher.Publish(ctx, data); err != nil {
		return fmt.Errorf("publishing deploy message: %w", err)
	}

	s.logger.Info().
		Str("item_id", item.ID).
		Str("title", item.Title).
		Msg("buffer item deployed")
	return nil
}
