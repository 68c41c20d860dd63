package checks

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dailycast/dailycast/internal/health"
)

// scratchCollection holds the dated scratch documents the round-trip probe
// writes; one document per calendar day, overwritten on every check.
const scratchCollection = "health-checks"

// ScratchProbe abstracts the write/read pair the round trip uses.
type ScratchProbe interface {
	Write(ctx context.Context, key string, doc map[string]any) error
	Read(ctx context.Context, key string) (map[string]any, error)
}

// FirestoreConfig holds configuration for the Firestore checker.
type FirestoreConfig struct {
	// Client is the Firestore client (required unless Probe is set).
	Client *firestore.Client

	// Probe overrides the scratch-document probe (tests only).
	Probe ScratchProbe

	// Timeout overrides the per-check timeout (optional).
	Timeout time.Duration

	// Now overrides the clock (tests only).
	Now func() time.Time

	// Logger for checker operations.
	Logger zerolog.Logger
}

// FirestoreChecker proves the document store works in both directions by
// writing a scratch document and reading it back. A random marker rules
// out stale-read false positives: reading yesterday's document, or a
// cached copy, fails the check rather than degrading it.
type FirestoreChecker struct {
	probe   ScratchProbe
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewFirestoreChecker creates a new Firestore checker.
func NewFirestoreChecker(cfg FirestoreConfig) *FirestoreChecker {
	probe := cfg.Probe
	if probe == nil {
		probe = &firestoreScratchProbe{client: cfg.Client}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &FirestoreChecker{
		probe:   probe,
		timeout: cfg.Timeout,
		now:     now,
		logger:  cfg.Logger,
	}
}

// Service returns the checked service.
func (c *FirestoreChecker) Service() health.Service {
	return health.ServiceFirestore
}

// Check performs the write-then-read round trip on the dated scratch key.
func (c *FirestoreChecker) Check(ctx context.Context) health.Check {
	return guard(ctx, health.ServiceFirestore, c.timeout, func(ctx context.Context) (health.Status, map[string]any, error) {
		key := c.now().UTC().Format("2006-01-02")
		marker := uuid.NewString()

		if err := c.probe.Write(ctx, key, map[string]any{
			"healthCheck": true,
			"marker":      marker,
			"checkedAt":   c.now().UTC(),
		}); err != nil {
			return "", nil, fmt.Errorf("writing scratch document: %w", err)
		}

		doc, err := c.probe.Read(ctx, key)
		if err != nil {
			return "", nil, fmt.Errorf("reading scratch document: %w", err)
		}
		if doc == nil {
			return "", nil, fmt.Errorf("scratch document missing after write")
		}
		if v, _ := doc["healthCheck"].(bool); !v {
			return "", nil, fmt.Errorf("scratch document corrupt after write")
		}
		if doc["marker"] != marker {
			return "", nil, fmt.Errorf("stale read: marker mismatch")
		}

		return health.StatusHealthy, map[string]any{
			"document": scratchCollection + "/" + key,
		}, nil
	})
}

// firestoreScratchProbe is the production probe.
type firestoreScratchProbe struct {
	client *firestore.Client
}

func (p *firestoreScratchProbe) Write(ctx context.Context, key string, doc map[string]any) error {
	_, err := p.client.Collection(scratchCollection).Doc(key).Set(ctx, doc)
	return err
}

func (p *firestoreScratchProbe) Read(ctx context.Context, key string) (map[string]any, error) {
	snap, err := p.client.Collection(scratchCollection).Doc(key).Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Data(), nil
}
