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

// TelegramNotifier posts messages to one chat through the bot API.
type TelegramNotifier struct {
	Token  string
	ChatID string

	// APIBase overrides the Telegram API origin, for tests.
	APIBase string

	HTTPClient *http.Client
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		Token:      token,
		ChatID:     chatID,
		APIBase:    "https://api.telegram.org",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	payload := map[string]any{
		"chat_id":                  t.ChatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API returned %d: %s", resp.StatusCode, raw)
	}
	return nil
}

func (t *TelegramNotifier) OfferClaimed(ctx context.Context, offer domain.Offer) error {
	msg := fmt.Sprintf(
		"🎮 <b>Free Game Claimed!</b>\n\n<b>%s</b>\n%s\n\n🔗 <a href=\"%s\">View in store</a>",
		offer.Title, truncate(offer.Description, 100), offer.URL,
	)
	return t.Send(ctx, msg)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
