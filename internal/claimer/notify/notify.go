// Package notify delivers human-readable messages about claimer activity
// to the configured chat channels. Pure presentation glue: it formats and
// sends, nothing else.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
)

// Notifier is one delivery channel.
type Notifier interface {
	Name() string

	// Send delivers a plain text message.
	Send(ctx context.Context, text string) error

	// OfferClaimed delivers a channel-appropriate rendering of a
	// successful claim.
	OfferClaimed(ctx context.Context, offer domain.Offer) error
}

// Manager fans a message out to every configured channel. Delivery succeeds
// when at least one channel accepted the message.
type Manager struct {
	Notifiers []Notifier
	Logger    *slog.Logger
}

func NewManager(logger *slog.Logger, notifiers ...Notifier) *Manager {
	if len(notifiers) == 0 {
		logger.Warn("no notification channels configured")
	}
	return &Manager{Notifiers: notifiers, Logger: logger}
}

// Startup announces that the claimer came up.
func (m *Manager) Startup(ctx context.Context) {
	if err := m.send(ctx, "🚀 Freebie auto-claimer started"); err != nil {
		m.Logger.Error("failed to deliver startup notification", "error", err)
	}
}

// OfferClaimed announces a successful claim on every channel.
func (m *Manager) OfferClaimed(ctx context.Context, offer domain.Offer) error {
	if len(m.Notifiers) == 0 {
		return nil
	}

	var delivered bool
	var errs []error
	for _, n := range m.Notifiers {
		if err := n.OfferClaimed(ctx, offer); err != nil {
			m.Logger.Error("claim notification failed", "channel", n.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		delivered = true
	}

	if delivered {
		return nil
	}
	return errors.Join(errs...)
}

// Error announces a failure the operator should know about.
func (m *Manager) Error(ctx context.Context, msg string) error {
	return m.send(ctx, "❌ "+msg)
}

// TwoFactorPrompt asks the operator to supply a step-up code.
func (m *Manager) TwoFactorPrompt(ctx context.Context, method string) error {
	msg := fmt.Sprintf("🔐 Two-factor authentication required (%s). Use the /tfa command to enter your code.", method)
	return m.send(ctx, msg)
}

func (m *Manager) send(ctx context.Context, text string) error {
	if len(m.Notifiers) == 0 {
		return nil
	}

	var delivered bool
	var errs []error
	for _, n := range m.Notifiers {
		if err := n.Send(ctx, text); err != nil {
			m.Logger.Error("notification failed", "channel", n.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		delivered = true
	}

	if delivered {
		return nil
	}
	return errors.Join(errs...)
}
