package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"

	"github.com/dailycast/dailycast/internal/health"
	"github.com/dailycast/dailycast/internal/resilience"
)

const (
	// DefaultYouTubeBaseURL is the YouTube Data API base URL.
	DefaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

	// DefaultQuotaLimit is the daily YouTube Data API unit budget.
	DefaultQuotaLimit = 10000

	// Quota watermarks. Below the low watermark the service is healthy;
	// between the two it is degraded; at or above the high watermark it is
	// failed regardless of reachability, because the publish step's upload
	// cost would blow the remaining budget.
	quotaDegradedPercent = 80.0
	quotaFailedPercent   = 95.0
)

// QuotaSource reports the publishing API's current quota consumption.
type QuotaSource interface {
	// Quota returns units used and the daily unit limit.
	Quota(ctx context.Context) (used, limit int64, err error)
}

// YouTubeConfig holds configuration for the YouTube checker.
type YouTubeConfig struct {
	// APIKey is the YouTube Data API key (required).
	APIKey string

	// ChannelID is the channel the pipeline publishes to (required).
	ChannelID string

	// QuotaSource reports quota consumption (required).
	QuotaSource QuotaSource

	// BaseURL is the API base URL (optional).
	BaseURL string

	// Timeout overrides the per-check timeout (optional).
	Timeout time.Duration

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for checker operations.
	Logger zerolog.Logger
}

// YouTubeChecker verifies the publishing API is reachable and that enough
// of the daily quota budget remains for today's upload.
type YouTubeChecker struct {
	apiKey     string
	channelID  string
	quota      QuotaSource
	baseURL    string
	timeout    time.Duration
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewYouTubeChecker creates a new YouTube checker.
func NewYouTubeChecker(cfg YouTubeConfig) *YouTubeChecker {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultYouTubeBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("youtube"))
	}

	return &YouTubeChecker{
		apiKey:     cfg.APIKey,
		channelID:  cfg.ChannelID,
		quota:      cfg.QuotaSource,
		baseURL:    baseURL,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Service returns the checked service.
func (c *YouTubeChecker) Service() health.Service {
	return health.ServiceYouTube
}

// Check probes channel metadata for reachability, then derives the status
// from the quota percentage tiers rather than reachability alone. The
// quota metadata is always present on a settled check.
func (c *YouTubeChecker) Check(ctx context.Context) health.Check {
	return guard(ctx, health.ServiceYouTube, c.timeout, func(ctx context.Context) (health.Status, map[string]any, error) {
		if err := c.probeChannel(ctx); err != nil {
			return "", nil, err
		}

		used, limit, err := c.quota.Quota(ctx)
		if err != nil {
			return "", nil, fmt.Errorf("reading quota: %w", err)
		}
		if limit <= 0 {
			limit = DefaultQuotaLimit
		}

		percentage := float64(used) / float64(limit) * 100
		metadata := map[string]any{
			"quotaUsed":  used,
			"quotaLimit": limit,
			"percentage": percentage,
		}

		switch {
		case percentage >= quotaFailedPercent:
			return "", metadata, fmt.Errorf("quota at %.1f%% (%d/%d units)", percentage, used, limit)
		case percentage >= quotaDegradedPercent:
			return health.StatusDegraded, metadata, nil
		default:
			return health.StatusHealthy, metadata, nil
		}
	})
}

func (c *YouTubeChecker) probeChannel(ctx context.Context) error {
	url := fmt.Sprintf("%s/channels?part=id&id=%s&key=%s", c.baseURL, c.channelID, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var channels youtubeChannelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&channels); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(channels.Items) == 0 {
		return fmt.Errorf("channel %s not found", c.channelID)
	}

	return nil
}

// YouTube Data API response structure.

type youtubeChannelListResponse struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
}

// FirestoreQuotaSource reads quota consumption from the usage counter the
// publish stage maintains at quota/youtube.
type FirestoreQuotaSource struct {
	client *firestore.Client
}

// NewFirestoreQuotaSource creates a quota source backed by Firestore.
func NewFirestoreQuotaSource(client *firestore.Client) *FirestoreQuotaSource {
	return &FirestoreQuotaSource{client: client}
}

// Quota returns the tracked units used and the configured daily limit.
func (s *FirestoreQuotaSource) Quota(ctx context.Context) (int64, int64, error) {
	snap, err := s.client.Collection("quota").Doc("youtube").Get(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("reading quota counter: %w", err)
	}

	var counter struct {
		Used  int64 `firestore:"used"`
		Limit int64 `firestore:"limit"`
	}
	if err := snap.DataTo(&counter); err != nil {
		return 0, 0, fmt.Errorf("decoding quota counter: %w", err)
	}
	if counter.Limit == 0 {
		counter.Limit = DefaultQuotaLimit
	}
	return counter.Used, counter.Limit, nil
}
