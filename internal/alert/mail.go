package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dailycast/dailycast/internal/resilience"
)

// DefaultMailBaseURL is the transactional mail API base URL.
const DefaultMailBaseURL = "https://api.mailchannel.dev/v1"

// MailConfig holds configuration for the email channel.
type MailConfig struct {
	// APIKey is the mail API key (required).
	APIKey string

	// From is the sender address (required).
	From string

	// To are the on-call recipient addresses (required).
	To []string

	// BaseURL is the mail API base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for channel operations.
	Logger zerolog.Logger
}

// MailChannel delivers alerts over a transactional mail API.
type MailChannel struct {
	apiKey     string
	from       string
	to         []string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewMailChannel creates a new mail channel.
func NewMailChannel(cfg MailConfig) *MailChannel {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultMailBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("mail"))
	}

	return &MailChannel{
		apiKey:     cfg.APIKey,
		from:       cfg.From,
		to:         cfg.To,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the channel name.
func (c *MailChannel) Name() string {
	return "email"
}

// Send delivers the alert as a plain-text email to all recipients.
func (c *MailChannel) Send(ctx context.Context, a Alert) error {
	text := a.Message
	if len(a.Services) > 0 {
		text += "\n\nServices: " + strings.Join(a.Services, ", ")
	}

	body, err := json.Marshal(mailSendRequest{
		From:    c.from,
		To:      c.to,
		Subject: fmt.Sprintf("[%s] %s", a.Severity, a.Title),
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// Mail API request structure.

type mailSendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}
