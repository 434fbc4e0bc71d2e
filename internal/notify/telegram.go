package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alias1177/fastloop/internal/journal"
)

// Telegram posts a short message to a chat for every executed trade. It
// satisfies journal.Journal so it can sit next to the other sinks.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram authorizes the bot token against the default Telegram endpoint.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, chatID, tgbotapi.APIEndpoint)
}

// NewTelegramWithEndpoint is NewTelegram against a custom Bot API endpoint
// of the form "https://host/bot%s/%s".
func NewTelegramWithEndpoint(token string, chatID int64, endpoint string) (*Telegram, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram: empty bot token")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram: chat id required")
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) LogTrade(_ context.Context, e journal.Entry) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatTrade(e))
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func (t *Telegram) Close() error { return nil }

// FormatTrade renders a trade as a one-screen chat message.
func FormatTrade(e journal.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bought %s $%.2f (%.2f shares @ %.3f)\n", strings.ToUpper(string(e.Side)), e.Amount, e.Shares, e.Price)
	fmt.Fprintf(&b, "%s\n", e.Question)
	fmt.Fprintf(&b, "momentum %+.3f%%, confidence %.2f", e.MomentumPct, e.Confidence)
	if e.TradeID != "" {
		fmt.Fprintf(&b, "\ntrade %s", e.TradeID)
	}
	return b.String()
}
