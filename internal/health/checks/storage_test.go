package checks_test

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/dailycast/dailycast/internal/health"
	"github.com/dailycast/dailycast/internal/health/checks"
)

// fakeBucketProbe returns fixed bucket attributes.
type fakeBucketProbe struct {
	attrs *storage.BucketAttrs
	err   error
}

func (f *fakeBucketProbe) Attrs(ctx context.Context) (*storage.BucketAttrs, error) {
	return f.attrs, f.err
}

func TestStorageChecker_Healthy(t *testing.T) {
	checker := checks.NewStorageChecker(checks.StorageConfig{
		Bucket: "dailycast-media",
		Probe: &fakeBucketProbe{attrs: &storage.BucketAttrs{
			Name:     "dailycast-media",
			Location: "EU",
		}},
		Logger: zerolog.Nop(),
	})

	assert.Equal(t, health.ServiceStorage, checker.Service())

	check := checker.Check(context.Background())
	assert.Equal(t, health.StatusHealthy, check.Status)
	assert.Equal(t, "dailycast-media", check.Metadata["bucket"])
	assert.Equal(t, "EU", check.Metadata["location"])
}

func TestStorageChecker_BucketUnreachable(t *testing.T) {
	checker := checks.NewStorageChecker(checks.StorageConfig{
		Bucket: "dailycast-media",
		Probe:  &fakeBucketProbe{err: errors.New("bucket doesn't exist")},
		Logger: zerolog.Nop(),
	})

	check := checker.Check(context.Background())
	assert.Equal(t, health.StatusFailed, check.Status)
	assert.Contains(t, check.Error, "reading bucket dailycast-media")
}
