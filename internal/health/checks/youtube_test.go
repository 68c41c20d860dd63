package checks_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailycast/dailycast/internal/health"
	"github.com/dailycast/dailycast/internal/health/checks"
)

// fakeQuotaSource returns fixed quota numbers.
type fakeQuotaSource struct {
	used  int64
	limit int64
	err   error
}

func (f *fakeQuotaSource) Quota(ctx context.Context) (int64, int64, error) {
	return f.used, f.limit, f.err
}

func newChannelServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels", r.URL.Path)
		assert.Equal(t, "UC123", r.URL.Query().Get("id"))
		w.Write([]byte(`{"items":[{"id":"UC123"}]}`))
	}))
}

func newYouTubeChecker(server *httptest.Server, quota checks.QuotaSource) *checks.YouTubeChecker {
	return checks.NewYouTubeChecker(checks.YouTubeConfig{
		APIKey:      "test-key",
		ChannelID:   "UC123",
		QuotaSource: quota,
		BaseURL:     server.URL,
		HTTPClient:  testHTTPClient(),
		Logger:      zerolog.Nop(),
	})
}

func TestYouTubeChecker_QuotaTiers(t *testing.T) {
	tests := []struct {
		name       string
		used       int64
		wantStatus health.Status
		wantErr    string
	}{
		{name: "healthy below low watermark", used: 3000, wantStatus: health.StatusHealthy},
		{name: "healthy just under 80", used: 7999, wantStatus: health.StatusHealthy},
		{name: "degraded at 80", used: 8000, wantStatus: health.StatusDegraded},
		{name: "degraded just under 95", used: 9499, wantStatus: health.StatusDegraded},
		{name: "failed at 95", used: 9500, wantStatus: health.StatusFailed, wantErr: "quota at 95.0% (9500/10000 units)"},
		{name: "failed when exhausted", used: 10000, wantStatus: health.StatusFailed, wantErr: "quota at 100.0% (10000/10000 units)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newChannelServer(t)
			defer server.Close()

			checker := newYouTubeChecker(server, &fakeQuotaSource{used: tt.used, limit: 10000})
			check := checker.Check(context.Background())

			assert.Equal(t, tt.wantStatus, check.Status)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, check.Error)
			}

			// Quota metadata is reported for every settled check.
			require.NotNil(t, check.Metadata)
			assert.Equal(t, tt.used, check.Metadata["quotaUsed"])
			assert.Equal(t, int64(10000), check.Metadata["quotaLimit"])
		})
	}
}

func TestYouTubeChecker_ZeroLimitFallsBackToDefault(t *testing.T) {
	server := newChannelServer(t)
	defer server.Close()

	checker := newYouTubeChecker(server, &fakeQuotaSource{used: 500, limit: 0})
	check := checker.Check(context.Background())

	assert.Equal(t, health.StatusHealthy, check.Status)
	assert.Equal(t, int64(checks.DefaultQuotaLimit), check.Metadata["quotaLimit"])
}

func TestYouTubeChecker_QuotaSourceError(t *testing.T) {
	server := newChannelServer(t)
	defer server.Close()

	checker := newYouTubeChecker(server, &fakeQuotaSource{err: errors.New("counter missing")})
	check := checker.Check(context.Background())

	assert.Equal(t, health.StatusFailed, check.Status)
	assert.Contains(t, check.Error, "reading quota")
}

func TestYouTubeChecker_ChannelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	checker := newYouTubeChecker(server, &fakeQuotaSource{used: 0, limit: 10000})
	check := checker.Check(context.Background())

	assert.Equal(t, health.StatusFailed, check.Status)
	assert.Contains(t, check.Error, "channel UC123 not found")
}

func TestYouTubeChecker_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	checker := newYouTubeChecker(server, &fakeQuotaSource{used: 0, limit: 10000})
	check := checker.Check(context.Background())

	assert.Equal(t, health.StatusFailed, check.Status)
	assert.Contains(t, check.Error, "unexpected status code: 403")
}
