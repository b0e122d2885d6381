package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
)

// storefrontBlue is the embed accent color.
const storefrontBlue = 5814783

// DiscordNotifier posts messages to a webhook.
type DiscordNotifier struct {
	WebhookURL string
	HTTPClient *http.Client
}

func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		WebhookURL: webhookURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) Send(ctx context.Context, text string) error {
	return d.post(ctx, map[string]any{"content": text})
}

func (d *DiscordNotifier) OfferClaimed(ctx context.Context, offer domain.Offer) error {
	embed := map[string]any{
		"title":       offer.Title,
		"description": truncate(offer.Description, 200),
		"url":         offer.URL,
		"color":       storefrontBlue,
		"footer":      map[string]any{"text": "Freebie auto-claimer"},
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}

	return d.post(ctx, map[string]any{
		"content": "🎮 **Free Game Claimed!**",
		"embeds":  []map[string]any{embed},
	})
}

func (d *DiscordNotifier) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	// Webhooks answer 204 on success.
	if resp.StatusCode != http.StatusNoContent {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord webhook returned %d: %s", resp.StatusCode, raw)
	}
	return nil
}
