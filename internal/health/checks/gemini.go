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

const (
	// DefaultGeminiBaseURL is the Generative Language API base URL.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultGeminiModel is the model the pipeline generates with; probing
	// its metadata proves both API reachability and model availability.
	DefaultGeminiModel = "gemini-2.0-flash"
)

// GeminiConfig holds configuration for the Gemini checker.
type GeminiConfig struct {
	// APIKey is the Generative Language API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// Model is the model name to probe (optional).
	Model string

	// Timeout overrides the per-check timeout (optional).
	Timeout time.Duration

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for checker operations.
	Logger zerolog.Logger
}

// GeminiChecker verifies the LLM API is reachable and the pipeline's model
// is served.
type GeminiChecker struct {
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewGeminiChecker creates a new Gemini checker.
func NewGeminiChecker(cfg GeminiConfig) *GeminiChecker {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("gemini"))
	}

	return &GeminiChecker{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Service returns the checked service.
func (c *GeminiChecker) Service() health.Service {
	return health.ServiceGemini
}

// Check probes the model metadata endpoint.
func (c *GeminiChecker) Check(ctx context.Context) health.Check {
	return guard(ctx, health.ServiceGemini, c.timeout, func(ctx context.Context) (health.Status, map[string]any, error) {
		url := fmt.Sprintf("%s/models/%s?key=%s", c.baseURL, c.model, c.apiKey)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return "", nil, fmt.Errorf("creating request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", nil, fmt.Errorf("executing request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		var model geminiModelResponse
		if err := json.NewDecoder(resp.Body).Decode(&model); err != nil {
			return "", nil, fmt.Errorf("decoding response: %w", err)
		}
		if model.Name == "" {
			return "", nil, fmt.Errorf("model %s not found", c.model)
		}

		return health.StatusHealthy, map[string]any{
			"model":   model.Name,
			"version": model.Version,
		}, nil
	})
}

// Generative Language API response structure.

type geminiModelResponse struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	DisplayName string `json:"displayName"`
}
