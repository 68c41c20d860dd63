package health

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// FailurePattern classifies how a service has been failing over an
// analysis window.
type FailurePattern string

// Failure patterns.
const (
	PatternNone         FailurePattern = "none"
	PatternIntermittent FailurePattern = "intermittent"
	PatternConsistent   FailurePattern = "consistent"
)

// Recurring-issue and pattern thresholds.
const (
	// consistentFailureRate marks a service as consistently failing.
	consistentFailureRate = 0.5

	// consistentRunDays marks a service as consistently failing when it
	// failed on this many calendar-consecutive days.
	consistentRunDays = 3

	// recurringFailureCount and recurringFailureRate gate the recurring
	// issues report.
	recurringFailureCount = 2
	recurringFailureRate  = 0.2
)

// ServiceStats are per-service statistics over an analysis window.
type ServiceStats struct {
	TotalChecks      int            `json:"totalChecks"`
	Failures         int            `json:"failures"`
	UptimePercentage float64        `json:"uptimePercentage"`
	AvgLatencyMs     float64        `json:"avgLatencyMs"`
	LastFailure      *time.Time     `json:"lastFailure,omitempty"`
	FailurePattern   FailurePattern `json:"failurePattern"`
}

// RecurringIssue is a service whose failure frequency or rate crossed the
// reporting threshold.
type RecurringIssue struct {
	Service        Service   `json:"service"`
	Frequency      int       `json:"frequency"`
	LastOccurrence time.Time `json:"lastOccurrence"`
	Description    string    `json:"description"`
}

// DateRange is the inclusive window an analysis covers.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// HistorySummary is the derived, read-only view over a window of persisted
// results. It is recomputed on every call; nothing is cached.
type HistorySummary struct {
	DateRange       DateRange                 `json:"dateRange"`
	Services        map[Service]*ServiceStats `json:"services"`
	RecurringIssues []RecurringIssue          `json:"recurringIssues"`
	TotalChecks     int                       `json:"totalChecks"`
	OverallHealth   float64                   `json:"overallHealth"`
}

// QuickStatus is the coarse health classification for dashboards.
type QuickStatus string

// Quick statuses.
const (
	QuickHealthy  QuickStatus = "healthy"
	QuickDegraded QuickStatus = "degraded"
	QuickCritical QuickStatus = "critical"
)

// AnalyzerConfig holds configuration for the history analyzer.
type AnalyzerConfig struct {
	// Repository provides the persisted per-run results.
	Repository Repository

	// Logger for analysis operations.
	Logger zerolog.Logger

	// Now overrides the clock (tests only).
	Now func() time.Time
}

// Analyzer computes uptime, latency, and failure-pattern statistics over a
// rolling window of persisted results.
type Analyzer struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

// NewAnalyzer creates a new history analyzer.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Analyzer{
		repo:   cfg.Repository,
		logger: cfg.Logger,
		now:    now,
	}
}

// History fetches one persisted document per calendar day in
// [today-days, today] and computes the summary. Reads are issued
// sequentially to avoid bursting the document store; a missing day is
// skipped, not an error.
func (a *Analyzer) History(ctx context.Context, days int) (*HistorySummary, error) {
	today := a.now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -days)

	summary := &HistorySummary{
		DateRange:       DateRange{From: from, To: today},
		Services:        make(map[Service]*ServiceStats, len(Services())),
		RecurringIssues: []RecurringIssue{},
	}

	type serviceWindow struct {
		latencySum   int64
		failureDays  []time.Time
		lastFailure  time.Time
		totalsByDay  int
		failureCount int
	}
	windows := make(map[Service]*serviceWindow, len(Services()))
	for _, svc := range Services() {
		windows[svc] = &serviceWindow{}
	}

	var totalChecks, totalFailures int
	for day := from; !day.After(today); day = day.AddDate(0, 0, 1) {
		doc, err := a.repo.GetResult(ctx, PipelineIDForDate(day))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("reading history for %s: %w", day.Format("2006-01-02"), err)
		}

		for _, check := range doc.Checks {
			win, ok := windows[check.Service]
			if !ok {
				// A service that has since been removed; count it
				// nowhere rather than inventing a stats bucket.
				continue
			}
			win.totalsByDay++
			win.latencySum += check.LatencyMs
			totalChecks++
			if check.Status == StatusFailed {
				win.failureCount++
				win.failureDays = append(win.failureDays, day)
				win.lastFailure = doc.Timestamp
				totalFailures++
			}
		}
	}

	for _, svc := range Services() {
		win := windows[svc]
		stats := &ServiceStats{
			TotalChecks:      win.totalsByDay,
			Failures:         win.failureCount,
			UptimePercentage: 100,
			FailurePattern:   classifyPattern(win.failureCount, win.totalsByDay, win.failureDays),
		}
		if win.totalsByDay > 0 {
			stats.UptimePercentage = round1((1 - float64(win.failureCount)/float64(win.totalsByDay)) * 100)
			stats.AvgLatencyMs = round1(float64(win.latencySum) / float64(win.totalsByDay))
		}
		if win.failureCount > 0 {
			last := win.lastFailure
			stats.LastFailure = &last

			rate := float64(win.failureCount) / float64(win.totalsByDay)
			if win.failureCount > recurringFailureCount || rate > recurringFailureRate {
				summary.RecurringIssues = append(summary.RecurringIssues, RecurringIssue{
					Service:        svc,
					Frequency:      win.failureCount,
					LastOccurrence: last,
					Description:    describeIssue(svc, stats),
				})
			}
		}
		summary.Services[svc] = stats
	}

	sort.SliceStable(summary.RecurringIssues, func(i, j int) bool {
		return summary.RecurringIssues[i].Frequency > summary.RecurringIssues[j].Frequency
	})

	summary.TotalChecks = totalChecks
	summary.OverallHealth = 100
	if totalChecks > 0 {
		summary.OverallHealth = round1((1 - float64(totalFailures)/float64(totalChecks)) * 100)
	}

	a.logger.Debug().
		Int("days", days).
		Int("total_checks", totalChecks).
		Float64("overall_health", summary.OverallHealth).
		Int("recurring_issues", len(summary.RecurringIssues)).
		Msg("health history computed")

	return summary, nil
}

// QuickStatus maps the window's per-service uptime into a coarse tier for
// dashboard consumption.
func (a *Analyzer) QuickStatus(ctx context.Context, days int) (QuickStatus, error) {
	summary, err := a.History(ctx, days)
	if err != nil {
		return "", err
	}

	status := QuickHealthy
	if summary.OverallHealth < 95 {
		status = QuickDegraded
	}
	for _, stats := range summary.Services {
		if stats.UptimePercentage < 50 {
			return QuickCritical, nil
		}
		if stats.UptimePercentage < 90 {
			status = QuickDegraded
		}
	}
	return status, nil
}

// classifyPattern combines a global rate threshold with a
// consecutive-days threshold via OR, rate checked first. The two criteria
// have no stated precedence; candidate for product clarification.
func classifyPattern(failures, total int, failureDays []time.Time) FailurePattern {
	if failures == 0 {
		return PatternNone
	}
	if float64(failures)/float64(total) > consistentFailureRate {
		return PatternConsistent
	}
	if maxConsecutiveDays(failureDays) >= consistentRunDays {
		return PatternConsistent
	}
	return PatternIntermittent
}

// maxConsecutiveDays returns the longest run of calendar-consecutive days
// in the given dates.
func maxConsecutiveDays(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}

	sorted := make([]time.Time, len(days))
	for i, d := range days {
		sorted[i] = d.UTC().Truncate(24 * time.Hour)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		switch sorted[i].Sub(sorted[i-1]) {
		case 24 * time.Hour:
			run++
			if run > longest {
				longest = run
			}
		case 0:
			// Same day, ignore duplicates.
		default:
			run = 1
		}
	}
	return longest
}

func describeIssue(svc Service, stats *ServiceStats) string {
	switch stats.FailurePattern {
	case PatternConsistent:
		return fmt.Sprintf("%s is failing consistently: %d failures over %d checks", svc, stats.Failures, stats.TotalChecks)
	default:
		return fmt.Sprintf("%s fails intermittently: %d failures over %d checks", svc, stats.Failures, stats.TotalChecks)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
