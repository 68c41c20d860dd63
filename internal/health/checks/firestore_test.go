package checks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/dailycast/dailycast/internal/health"
	"github.com/dailycast/dailycast/internal/health/checks"
)

// fakeScratchProbe simulates the scratch-document round trip.
type fakeScratchProbe struct {
	docs map[string]map[string]any

	writeErr error
	readErr  error

	// onRead rewrites the stored document before it is returned, to
	// simulate stale or corrupt reads.
	onRead func(doc map[string]any) map[string]any
}

func (f *fakeScratchProbe) Write(ctx context.Context, key string, doc map[string]any) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.docs == nil {
		f.docs = make(map[string]map[string]any)
	}
	f.docs[key] = doc
	return nil
}

func (f *fakeScratchProbe) Read(ctx context.Context, key string) (map[string]any, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	doc := f.docs[key]
	if f.onRead != nil {
		doc = f.onRead(doc)
	}
	return doc, nil
}

func newFirestoreChecker(probe checks.ScratchProbe) *checks.FirestoreChecker {
	return checks.NewFirestoreChecker(checks.FirestoreConfig{
		Probe:  probe,
		Now:    func() time.Time { return time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC) },
		Logger: zerolog.Nop(),
	})
}

func TestFirestoreChecker_RoundTrip(t *testing.T) {
	probe := &fakeScratchProbe{}
	checker := newFirestoreChecker(probe)

	assert.Equal(t, health.ServiceFirestore, checker.Service())

	check := checker.Check(context.Background())
	assert.Equal(t, health.StatusHealthy, check.Status)
	assert.Equal(t, "health-checks/2025-01-10", check.Metadata["document"])

	// The dated scratch document was written.
	doc := probe.docs["2025-01-10"]
	assert.Equal(t, true, doc["healthCheck"])
	assert.NotEmpty(t, doc["marker"])
}

func TestFirestoreChecker_WriteError(t *testing.T) {
	checker := newFirestoreChecker(&fakeScratchProbe{writeErr: errors.New("permission denied")})

	check := checker.Check(context.Background())
	assert.Equal(t, health.StatusFailed, check.Status)
	assert.Contains(t, check.Error, "writing scratch document")
}

func TestFirestoreChecker_ReadError(t *testing.T) {
	checker := newFirestoreChecker(&fakeScratchProbe{readErr: errors.New("unavailable")})

	check := checker.Check(context.Background())
	assert.Equal(t, health.StatusFailed, check.Status)
	assert.Contains(t, check.Error, "reading scratch document")
}

func TestFirestoreChecker_MissingDocument(t *testing.T) {
	probe := &fakeScratchProbe{
		onRead: func(doc map[string]any) map[string]any { return nil },
	}
	checker := newFirestoreChecker(probe)

	check := checker.Check(context.Background())
	assert.Equal(t, health.StatusFailed, check.Status)
	assert.Contains(t, check.Error, "missing after write")
}

func TestFirestoreChecker_CorruptDocument(t *testing.T) {
	probe := &fakeScratchProbe{
		onRead: func(doc map[string]any) map[string]any {
			return map[string]any{"healthCheck": false}
		},
	}
	checker := newFirestoreChecker(probe)

	check := checker.Check(context.Background())
	assert.Equal(t, health.StatusFailed, check.Status)
	assert.Contains(t, check.Error, "corrupt after write")
}

func TestFirestoreChecker_StaleRead(t *testing.T) {
	// A read that returns yesterday's marker must fail, not pass.
	probe := &fakeScratchProbe{
		onRead: func(doc map[string]any) map[string]any {
			return map[string]any{"healthCheck": true, "marker": "stale-marker"}
		},
	}
	checker := newFirestoreChecker(probe)

	check := checker.Check(context.Background())
	assert.Equal(t, health.StatusFailed, check.Status)
	assert.Contains(t, check.Error, "marker mismatch")
}
