package checks

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"

	"github.com/dailycast/dailycast/internal/health"
)

// BucketProbe abstracts the bucket metadata read the probe performs.
type BucketProbe interface {
	Attrs(ctx context.Context) (*storage.BucketAttrs, error)
}

// StorageConfig holds configuration for the object store checker.
type StorageConfig struct {
	// Client is the Cloud Storage client (required unless Probe is set).
	Client *storage.Client

	// Bucket is the media bucket the pipeline renders into (required).
	Bucket string

	// Probe overrides the bucket probe (tests only).
	Probe BucketProbe

	// Timeout overrides the per-check timeout (optional).
	Timeout time.Duration

	// Logger for checker operations.
	Logger zerolog.Logger
}

// StorageChecker verifies the media bucket exists and is reachable.
type StorageChecker struct {
	bucket  string
	probe   BucketProbe
	timeout time.Duration
	logger  zerolog.Logger
}

// NewStorageChecker creates a new object store checker.
func NewStorageChecker(cfg StorageConfig) *StorageChecker {
	probe := cfg.Probe
	if probe == nil {
		probe = &gcsBucketProbe{bucket: cfg.Client.Bucket(cfg.Bucket)}
	}

	return &StorageChecker{
		bucket:  cfg.Bucket,
		probe:   probe,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

// Service returns the checked service.
func (c *StorageChecker) Service() health.Service {
	return health.ServiceStorage
}

// Check reads the bucket metadata.
func (c *StorageChecker) Check(ctx context.Context) health.Check {
	return guard(ctx, health.ServiceStorage, c.timeout, func(ctx context.Context) (health.Status, map[string]any, error) {
		attrs, err := c.probe.Attrs(ctx)
		if err != nil {
			return "", nil, fmt.Errorf("reading bucket %s: %w", c.bucket, err)
		}

		return health.StatusHealthy, map[string]any{
			"bucket":   attrs.Name,
			"location": attrs.Location,
		}, nil
	})
}

// gcsBucketProbe is the production probe.
type gcsBucketProbe struct {
	bucket *storage.BucketHandle
}

func (p *gcsBucketProbe) Attrs(ctx context.Context) (*storage.BucketAttrs, error) {
	return p.bucket.Attrs(ctx)
}
