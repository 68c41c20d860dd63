package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dailycast/dailycast/internal/resilience"
)

// Discord embed colors per severity.
const (
	colorCritical = 0xe74c3c
	colorWarning  = 0xf39c12
	colorSuccess  = 0x2ecc71
	colorInfo     = 0x3498db
)

// DiscordConfig holds configuration for the Discord webhook channel.
type DiscordConfig struct {
	// WebhookURL is the Discord webhook URL (required).
	WebhookURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for channel operations.
	Logger zerolog.Logger
}

// DiscordChannel delivers alerts to a Discord webhook.
type DiscordChannel struct {
	webhookURL string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewDiscordChannel creates a new Discord webhook channel.
func NewDiscordChannel(cfg DiscordConfig) *DiscordChannel {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig("discord"))
	}

	return &DiscordChannel{
		webhookURL: cfg.WebhookURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the channel name.
func (c *DiscordChannel) Name() string {
	return "discord"
}

// Send posts the alert as a single embed to the webhook.
func (c *DiscordChannel) Send(ctx context.Context, a Alert) error {
	embed := discordEmbed{
		Title:       fmt.Sprintf("[%s] %s", a.Severity, a.Title),
		Description: a.Message,
		Color:       severityColor(a.Severity),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if len(a.Services) > 0 {
		embed.Fields = []discordField{
			{Name: "Services", Value: strings.Join(a.Services, ", ")},
		}
	}

	body, err := json.Marshal(discordWebhookPayload{Embeds: []discordEmbed{embed}})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

func severityColor(s Severity) int {
	switch s {
	case SeverityCritical:
		return colorCritical
	case SeverityWarning:
		return colorWarning
	case SeveritySuccess:
		return colorSuccess
	default:
		return colorInfo
	}
}

// Discord webhook payload structures.

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
