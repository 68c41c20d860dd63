package alert_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailycast/dailycast/internal/alert"
)

// fakeChannel records sent alerts and optionally fails.
type fakeChannel struct {
	name string
	err  error
	sent []alert.Alert
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Send(ctx context.Context, a alert.Alert) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, a)
	return nil
}

func newTestDispatcher(discord, email alert.Channel) *alert.Dispatcher {
	return alert.NewDispatcher(alert.DispatcherConfig{
		Discord: discord,
		Email:   email,
		Logger:  zerolog.Nop(),
	})
}

func TestDispatcher_RoutesToSelectedChannels(t *testing.T) {
	discord := &fakeChannel{name: "discord"}
	email := &fakeChannel{name: "email"}
	d := newTestDispatcher(discord, email)

	result := d.Send(context.Background(), alert.Alert{
		Severity: alert.SeverityCritical,
		Title:    "Daily pipeline preflight",
		Discord:  true,
		Email:    true,
	})

	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Len(t, discord.sent, 1)
	assert.Len(t, email.sent, 1)
}

func TestDispatcher_DiscordOnly(t *testing.T) {
	discord := &fakeChannel{name: "discord"}
	email := &fakeChannel{name: "email"}
	d := newTestDispatcher(discord, email)

	result := d.Send(context.Background(), alert.Alert{
		Severity: alert.SeverityWarning,
		Discord:  true,
	})

	assert.True(t, result.Success)
	assert.Len(t, discord.sent, 1)
	assert.Empty(t, email.sent)
}

func TestDispatcher_DefaultsToDiscord(t *testing.T) {
	// An alert with no routing flags still goes somewhere.
	discord := &fakeChannel{name: "discord"}
	email := &fakeChannel{name: "email"}
	d := newTestDispatcher(discord, email)

	result := d.Send(context.Background(), alert.Alert{Severity: alert.SeverityInfo})

	assert.True(t, result.Success)
	assert.Len(t, discord.sent, 1)
	assert.Empty(t, email.sent)
}

func TestDispatcher_OneChannelFailingStillSucceeds(t *testing.T) {
	discord := &fakeChannel{name: "discord", err: errors.New("webhook 404")}
	email := &fakeChannel{name: "email"}
	d := newTestDispatcher(discord, email)

	result := d.Send(context.Background(), alert.Alert{
		Severity: alert.SeverityCritical,
		Discord:  true,
		Email:    true,
	})

	assert.True(t, result.Success)
	assert.Equal(t, "discord: webhook 404", result.Error)
	require.Len(t, email.sent, 1)
}

func TestDispatcher_AllChannelsFailing(t *testing.T) {
	discord := &fakeChannel{name: "discord", err: errors.New("webhook 404")}
	email := &fakeChannel{name: "email", err: errors.New("550 rejected")}
	d := newTestDispatcher(discord, email)

	result := d.Send(context.Background(), alert.Alert{
		Severity: alert.SeverityCritical,
		Discord:  true,
		Email:    true,
	})

	assert.False(t, result.Success)
	assert.Equal(t, "discord: webhook 404; email: 550 rejected", result.Error)
}

func TestDispatcher_UnconfiguredChannelCountsAsFailure(t *testing.T) {
	d := newTestDispatcher(nil, &fakeChannel{name: "email"})

	result := d.Send(context.Background(), alert.Alert{
		Severity: alert.SeverityCritical,
		Discord:  true,
		Email:    true,
	})

	assert.True(t, result.Success, "email delivered")
	assert.Equal(t, "discord: channel not configured", result.Error)
}

func TestDispatcher_NothingConfigured(t *testing.T) {
	d := newTestDispatcher(nil, nil)

	result := d.Send(context.Background(), alert.Alert{Severity: alert.SeverityWarning, Discord: true})

	assert.False(t, result.Success)
	assert.Equal(t, "discord: channel not configured", result.Error)
}
