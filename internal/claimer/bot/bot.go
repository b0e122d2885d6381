// Package bot exposes the claimer over a Telegram chat: status queries,
// manual cycle triggers and the step-up code hand-off. Only chats on the
// configured allowlist are served.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
	"github.com/sagelock/freeclaim/internal/claimer/service"
)

const (
	pollTimeoutSec   = 30
	pollErrorBackoff = 5 * time.Second
)

const helpText = `🎮 Freebie auto-claimer

/status - session and ledger state
/check - list unclaimed free offers
/claim - run a claim cycle now
/tfa - enter a two-factor code
/cancel - abandon code entry
/help - this message`

// Claimer is the slice of the claim service the chat surface drives.
type Claimer interface {
	EnsureAuthenticated(ctx context.Context) bool
	CompleteTwoFactor(ctx context.Context, code string) bool
	TwoFactorPending() (string, bool)
	FreeOffers(ctx context.Context) ([]domain.Offer, error)
	ClaimedCount(ctx context.Context) (int, error)
	RunCycle(ctx context.Context) (*service.CycleReport, error)
}

// Bot long-polls the Telegram API and dispatches commands from authorized
// chats to the claimer.
type Bot struct {
	api     *API
	claimer Claimer
	logger  *slog.Logger

	// allowed is the chat-id allowlist. Messages from any other chat are
	// dropped without a reply.
	allowed map[int64]bool

	// awaitingCode marks chats whose next plain message is treated as a
	// step-up code.
	awaitingCode map[int64]bool

	stopCh chan struct{}
	doneCh chan struct{}
}

func New(api *API, claimer Claimer, logger *slog.Logger, chatIDs []int64) *Bot {
	allowed := make(map[int64]bool, len(chatIDs))
	for _, id := range chatIDs {
		allowed[id] = true
	}

	return &Bot{
		api:          api,
		claimer:      claimer,
		logger:       logger,
		allowed:      allowed,
		awaitingCode: make(map[int64]bool),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start begins the background poll loop. Non-blocking; call Stop to shut it
// down gracefully.
func (b *Bot) Start() {
	go b.run()
	b.logger.Info("telegram bot started", "authorized_chats", len(b.allowed))
}

// Stop shuts the poll loop down, waiting for an in-flight command to finish.
func (b *Bot) Stop() {
	close(b.stopCh)
	<-b.doneCh
	b.logger.Info("telegram bot stopped")
}

func (b *Bot) run() {
	defer close(b.doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-b.stopCh
		cancel()
	}()

	var offset int64
	for {
		select {
		case <-b.stopCh:
			return
		default:
		}

		updates, err := b.api.GetUpdates(ctx, offset, pollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("failed to poll updates", "error", err)

			select {
			case <-time.After(pollErrorBackoff):
			case <-b.stopCh:
				return
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil {
				continue
			}
			b.handleMessage(ctx, *u.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg Message) {
	chatID := msg.Chat.ID
	if !b.allowed[chatID] {
		b.logger.Warn("message from unauthorized chat dropped", "chat_id", chatID)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	// A chat that asked for /tfa hands over the code as a plain message.
	if b.awaitingCode[chatID] && !strings.HasPrefix(text, "/") {
		delete(b.awaitingCode, chatID)
		b.handleCode(ctx, chatID, text)
		return
	}

	// Strip the @botname suffix Telegram appends in group chats.
	command, _, _ := strings.Cut(text, " ")
	command, _, _ = strings.Cut(command, "@")

	switch command {
	case "/start", "/help":
		b.reply(ctx, chatID, helpText)
	case "/status":
		b.handleStatus(ctx, chatID)
	case "/check":
		b.handleCheck(ctx, chatID)
	case "/claim":
		b.handleClaim(ctx, chatID)
	case "/tfa":
		b.handleTFA(ctx, chatID)
	case "/cancel":
		delete(b.awaitingCode, chatID)
		b.reply(ctx, chatID, "Cancelled.")
	default:
		b.reply(ctx, chatID, "Unknown command. Send /help for the command list.")
	}
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) {
	var sb strings.Builder
	sb.WriteString("📊 *Status*\n\n")

	if b.claimer.EnsureAuthenticated(ctx) {
		sb.WriteString("Session: ✅ authenticated\n")
	} else if method, ok := b.claimer.TwoFactorPending(); ok {
		fmt.Fprintf(&sb, "Session: 🔐 waiting for a two-factor code (%s), send /tfa\n", method)
	} else {
		sb.WriteString("Session: ❌ not authenticated\n")
	}

	count, err := b.claimer.ClaimedCount(ctx)
	if err != nil {
		b.logger.Error("failed to read ledger count", "error", err)
		sb.WriteString("Claimed games: unavailable\n")
	} else {
		fmt.Fprintf(&sb, "Claimed games: %d\n", count)
	}

	b.replyMarkdown(ctx, chatID, sb.String())
}

func (b *Bot) handleCheck(ctx context.Context, chatID int64) {
	offers, err := b.claimer.FreeOffers(ctx)
	if err != nil {
		b.reply(ctx, chatID, fmt.Sprintf("Check failed: %v", err))
		return
	}
	if len(offers) == 0 {
		b.reply(ctx, chatID, "No unclaimed free offers right now.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎁 %d unclaimed free offer(s):\n\n", len(offers))
	for _, offer := range offers {
		fmt.Fprintf(&sb, "• %s\n", offer.Title)
	}
	sb.WriteString("\nSend /claim to claim them.")
	b.reply(ctx, chatID, sb.String())
}

func (b *Bot) handleClaim(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, "⏳ Running a claim cycle...")
	b.runCycle(ctx, chatID)
}

func (b *Bot) handleTFA(ctx context.Context, chatID int64) {
	if _, ok := b.claimer.TwoFactorPending(); !ok {
		b.reply(ctx, chatID, "No two-factor challenge is pending.")
		return
	}
	b.awaitingCode[chatID] = true
	b.reply(ctx, chatID, "Send your two-factor code as the next message, or /cancel.")
}

func (b *Bot) handleCode(ctx context.Context, chatID int64, code string) {
	if !b.claimer.CompleteTwoFactor(ctx, code) {
		b.reply(ctx, chatID, "❌ Code rejected. The next cycle will restart the login.")
		return
	}

	// The suspended cycle never got past login; run a fresh one now that
	// the session is live.
	b.reply(ctx, chatID, "✅ Code accepted, resuming the claim cycle...")
	b.runCycle(ctx, chatID)
}

func (b *Bot) runCycle(ctx context.Context, chatID int64) {
	report, err := b.claimer.RunCycle(ctx)
	if err != nil {
		b.reply(ctx, chatID, fmt.Sprintf("Claim cycle failed: %v", err))
		return
	}

	if report.TwoFactorMethod != "" {
		b.reply(ctx, chatID, fmt.Sprintf(
			"🔐 Two-factor authentication required (%s). Send /tfa to enter your code.",
			report.TwoFactorMethod))
		return
	}

	if len(report.Claimed) == 0 && len(report.Failed) == 0 {
		b.reply(ctx, chatID, "Nothing to claim.")
		return
	}

	var sb strings.Builder
	for _, offer := range report.Claimed {
		fmt.Fprintf(&sb, "✅ Claimed %s\n", offer.Title)
	}
	for _, failure := range report.Failed {
		fmt.Fprintf(&sb, "❌ %s: %v\n", failure.Offer.Title, failure.Err)
	}
	b.reply(ctx, chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.api.SendMessage(ctx, chatID, text, ""); err != nil {
		b.logger.Error("failed to send reply", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) replyMarkdown(ctx context.Context, chatID int64, text string) {
	if err := b.api.SendMessage(ctx, chatID, text, "Markdown"); err != nil {
		b.logger.Error("failed to send reply", "chat_id", chatID, "error", err)
	}
}
