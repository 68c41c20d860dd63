package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dailycast/dailycast/internal/health"
	"github.com/dailycast/dailycast/internal/resilience"
)

// DefaultTwitterBaseURL is the Twitter API v2 base URL.
const DefaultTwitterBaseURL = "https://api.twitter.com"

// TwitterConfig holds configuration for the Twitter checker.
type TwitterConfig struct {
	// BearerToken is the OAuth2 bearer token of the posting account
	// (required).
	BearerToken string

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

// TwitterChecker verifies the social API accepts the posting account's
// credentials.
type TwitterChecker struct {
	bearerToken string
	baseURL     string
	timeout     time.Duration
	httpClient  *resilience.Client
	logger      zerolog.Logger
}

// NewTwitterChecker creates a new Twitter checker.
func NewTwitterChecker(cfg TwitterConfig) *TwitterChecker {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultTwitterBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("twitter"))
	}

	return &TwitterChecker{
		bearerToken: cfg.BearerToken,
		baseURL:     baseURL,
		timeout:     cfg.Timeout,
		httpClient:  httpClient,
		logger:      cfg.Logger,
	}
}

// Service returns the checked service.
func (c *TwitterChecker) Service() health.Service {
	return health.ServiceTwitter
}

// Check probes the authenticated-user endpoint.
func (c *TwitterChecker) Check(ctx context.Context) health.Check {
	return guard(ctx, health.ServiceTwitter, c.timeout, func(ctx context.Context) (health.Status, map[string]any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/2/users/me", http.NoBody)
		if err != nil {
			return "", nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", nil, fmt.Errorf("executing request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		var me twitterUsersMeResponse
		if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
			return "", nil, fmt.Errorf("decoding response: %w", err)
		}
		if me.Data.ID == "" {
			return "", nil, fmt.Errorf("authenticated user missing from response")
		}

		return health.StatusHealthy, map[string]any{
			"userId":   me.Data.ID,
			"username": me.Data.Username,
		}, nil
	})
}

// Twitter API v2 response structure.

type twitterUsersMeResponse struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}
