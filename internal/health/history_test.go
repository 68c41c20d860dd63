package health_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailycast/dailycast/internal/health"
)

// seedDay persists one full six-service result for the given day, with the
// listed services failed.
func seedDay(t *testing.T, repo health.Repository, day time.Time, failed ...health.Service) {
	t.Helper()

	failedSet := make(map[health.Service]bool, len(failed))
	for _, svc := range failed {
		failedSet[svc] = true
	}

	checks := make([]health.Check, 0, len(health.Services()))
	var criticals []health.Service
	for _, svc := range health.Services() {
		status := health.StatusHealthy
		if failedSet[svc] {
			status = health.StatusFailed
			if health.CriticalityFor(svc) == health.CriticalityCritical {
				criticals = append(criticals, svc)
			}
		}
		checks = append(checks, health.Check{Service: svc, Status: status, LatencyMs: 100})
	}

	doc := &health.Document{PipelineID: health.PipelineIDForDate(day)}
	doc.Timestamp = day
	doc.AllPassed = len(criticals) == 0
	doc.Checks = checks
	doc.CriticalFailures = criticals
	require.NoError(t, repo.SaveResult(context.Background(), doc.PipelineID, doc))
}

func newTestAnalyzer(repo health.Repository, now time.Time) *health.Analyzer {
	return health.NewAnalyzer(health.AnalyzerConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return now },
	})
}

func TestAnalyzer_EmptyHistory(t *testing.T) {
	repo := health.NewInMemoryRepository()
	a := newTestAnalyzer(repo, time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))

	summary, err := a.History(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalChecks)
	assert.Equal(t, float64(100), summary.OverallHealth)
	assert.Empty(t, summary.RecurringIssues)
	for _, svc := range health.Services() {
		stats := summary.Services[svc]
		require.NotNil(t, stats, "service %s has no stats bucket", svc)
		assert.Equal(t, float64(100), stats.UptimePercentage)
		assert.Equal(t, health.PatternNone, stats.FailurePattern)
	}
}

func TestAnalyzer_SingleFailureUptime(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := health.NewInMemoryRepository()

	// Seven days of results with one twitter failure.
	for i := 0; i < 7; i++ {
		day := now.AddDate(0, 0, -i)
		if i == 3 {
			seedDay(t, repo, day, health.ServiceTwitter)
		} else {
			seedDay(t, repo, day)
		}
	}

	a := newTestAnalyzer(repo, now)
	summary, err := a.History(context.Background(), 7)
	require.NoError(t, err)

	stats := summary.Services[health.ServiceTwitter]
	assert.Equal(t, 7, stats.TotalChecks)
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, 85.7, stats.UptimePercentage)
	assert.Equal(t, health.PatternIntermittent, stats.FailurePattern)
	require.NotNil(t, stats.LastFailure)
}

func TestAnalyzer_ConsecutiveFailuresAreConsistent(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := health.NewInMemoryRepository()

	// Ten days of history: gemini failed on three consecutive days. The
	// rate is well under 50%, so the run length alone drives the pattern.
	for i := 0; i < 10; i++ {
		day := now.AddDate(0, 0, -i)
		if i >= 4 && i <= 6 {
			seedDay(t, repo, day, health.ServiceGemini)
		} else {
			seedDay(t, repo, day)
		}
	}

	a := newTestAnalyzer(repo, now)
	summary, err := a.History(context.Background(), 10)
	require.NoError(t, err)

	stats := summary.Services[health.ServiceGemini]
	assert.Equal(t, 3, stats.Failures)
	assert.Equal(t, health.PatternConsistent, stats.FailurePattern)
}

func TestAnalyzer_HighRateIsConsistent(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := health.NewInMemoryRepository()

	// Failures on alternating days, 3 of 5: over 50% without any
	// consecutive run.
	for i := 0; i < 5; i++ {
		day := now.AddDate(0, 0, -i)
		if i%2 == 0 {
			seedDay(t, repo, day, health.ServiceYouTube)
		} else {
			seedDay(t, repo, day)
		}
	}

	a := newTestAnalyzer(repo, now)
	summary, err := a.History(context.Background(), 4)
	require.NoError(t, err)

	stats := summary.Services[health.ServiceYouTube]
	assert.Equal(t, health.PatternConsistent, stats.FailurePattern)
}

func TestAnalyzer_MissingDaysAreSkipped(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := health.NewInMemoryRepository()

	// Only two of seven days have results.
	seedDay(t, repo, now)
	seedDay(t, repo, now.AddDate(0, 0, -3), health.ServiceStorage)

	a := newTestAnalyzer(repo, now)
	summary, err := a.History(context.Background(), 7)
	require.NoError(t, err)

	stats := summary.Services[health.ServiceStorage]
	assert.Equal(t, 2, stats.TotalChecks)
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, float64(50), stats.UptimePercentage)
}

func TestAnalyzer_RecurringIssuesSortedByFrequency(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := health.NewInMemoryRepository()

	// twitter fails 5 times, storage 3 times over 10 days.
	for i := 0; i < 10; i++ {
		day := now.AddDate(0, 0, -i)
		switch {
		case i < 3:
			seedDay(t, repo, day, health.ServiceTwitter, health.ServiceStorage)
		case i < 5:
			seedDay(t, repo, day, health.ServiceTwitter)
		default:
			seedDay(t, repo, day)
		}
	}

	a := newTestAnalyzer(repo, now)
	summary, err := a.History(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, summary.RecurringIssues, 2)
	assert.Equal(t, health.ServiceTwitter, summary.RecurringIssues[0].Service)
	assert.Equal(t, 5, summary.RecurringIssues[0].Frequency)
	assert.Equal(t, health.ServiceStorage, summary.RecurringIssues[1].Service)
	assert.Equal(t, 3, summary.RecurringIssues[1].Frequency)
	assert.NotEmpty(t, summary.RecurringIssues[0].Description)
}

func TestAnalyzer_SingleFailureIsNotRecurring(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	repo := health.NewInMemoryRepository()

	for i := 0; i < 10; i++ {
		day := now.AddDate(0, 0, -i)
		if i == 2 {
			seedDay(t, repo, day, health.ServiceGemini)
		} else {
			seedDay(t, repo, day)
		}
	}

	a := newTestAnalyzer(repo, now)
	summary, err := a.History(context.Background(), 10)
	require.NoError(t, err)

	// 1 of 10 is neither frequent (>2) nor a high rate (>20%).
	assert.Empty(t, summary.RecurringIssues)
}

func TestAnalyzer_QuickStatus(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	t.Run("healthy", func(t *testing.T) {
		repo := health.NewInMemoryRepository()
		for i := 0; i < 7; i++ {
			seedDay(t, repo, now.AddDate(0, 0, -i))
		}

		status, err := newTestAnalyzer(repo, now).QuickStatus(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, health.QuickHealthy, status)
	})

	t.Run("degraded when a service dips below 90", func(t *testing.T) {
		repo := health.NewInMemoryRepository()
		for i := 0; i < 7; i++ {
			day := now.AddDate(0, 0, -i)
			if i == 0 {
				seedDay(t, repo, day, health.ServiceTwitter)
			} else {
				seedDay(t, repo, day)
			}
		}

		status, err := newTestAnalyzer(repo, now).QuickStatus(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, health.QuickDegraded, status)
	})

	t.Run("critical when a service dips below 50", func(t *testing.T) {
		repo := health.NewInMemoryRepository()
		for i := 0; i < 4; i++ {
			day := now.AddDate(0, 0, -i)
			if i < 3 {
				seedDay(t, repo, day, health.ServiceFirestore)
			} else {
				seedDay(t, repo, day)
			}
		}

		status, err := newTestAnalyzer(repo, now).QuickStatus(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, health.QuickCritical, status)
	})

	t.Run("healthy with no history", func(t *testing.T) {
		repo := health.NewInMemoryRepository()
		status, err := newTestAnalyzer(repo, now).QuickStatus(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, health.QuickHealthy, status)
	})
}

func TestAnalyzer_DateRange(t *testing.T) {
	now := time.Date(2025, 1, 10, 18, 45, 0, 0, time.UTC)
	a := newTestAnalyzer(health.NewInMemoryRepository(), now)

	summary, err := a.History(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), summary.DateRange.From)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), summary.DateRange.To)
}
