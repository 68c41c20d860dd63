package alert

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Channel delivers an alert over one transport.
type Channel interface {
	// Name returns the channel name for logging and diagnostics.
	Name() string

	// Send delivers the alert. Transport-level retries belong to the
	// underlying client, not to callers.
	Send(ctx context.Context, a Alert) error
}

// DispatcherConfig holds configuration for the dispatcher.
type DispatcherConfig struct {
	// Discord is the chat-webhook channel (optional).
	Discord Channel

	// Email is the mail channel (optional).
	Email Channel

	// Logger for dispatch operations.
	Logger zerolog.Logger
}

// Dispatcher fans alerts out to the channels the alert's routing flags
// select. Channels fail independently; dispatch succeeds when at least one
// attempted channel delivers.
type Dispatcher struct {
	discord Channel
	email   Channel
	logger  zerolog.Logger
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		discord: cfg.Discord,
		email:   cfg.Email,
		logger:  cfg.Logger,
	}
}

// Send delivers the alert to every selected channel and aggregates the
// outcome. Failures from all channels are concatenated into a single
// diagnostic string.
func (d *Dispatcher) Send(ctx context.Context, a Alert) DispatchResult {
	if !a.Discord && !a.Email {
		a.Discord = true
	}

	var attempted, delivered int
	var failures []string

	send := func(ch Channel, name string) {
		attempted++
		if ch == nil {
			failures = append(failures, name+": channel not configured")
			return
		}
		if err := ch.Send(ctx, a); err != nil {
			d.logger.Error().
				Err(err).
				Str("channel", name).
				Str("severity", string(a.Severity)).
				Msg("alert channel failed")
			failures = append(failures, name+": "+err.Error())
			return
		}
		delivered++
	}

	if a.Discord {
		send(d.discord, "discord")
	}
	if a.Email {
		send(d.email, "email")
	}

	result := DispatchResult{Success: delivered > 0}
	if len(failures) > 0 {
		result.Error = strings.Join(failures, "; ")
	}

	d.logger.Info().
		Str("severity", string(a.Severity)).
		Strs("services", a.Services).
		Int("attempted", attempted).
		Int("delivered", delivered).
		Bool("success", result.Success).
		Msg("alert dispatched")

	return result
}
