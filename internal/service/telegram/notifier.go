// Package telegram delivers alert messages to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"StructBreak/pkg/logger"
)

// Config holds bot credentials and rate limits.
type Config struct {
	Token       string
	ChatID      int64
	HTTPTimeout time.Duration
	RatePerSec  float64 // Telegram allows ~1 msg/sec per chat
	Burst       int
}

// Notifier sends Markdown messages to a single chat, rate limited so a busy
// scan day does not trip the Bot API.
type Notifier struct {
	api     *tgbotapi.BotAPI
	chatID  int64
	limiter *rate.Limiter
	l       *logger.Logger
}

// New creates a Telegram notifier and verifies the token against the API.
func New(cfg Config, l *logger.Logger) (*Notifier, error) {
	if cfg.Token == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram: token and chat_id are required")
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 3
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}

	l.Info("telegram notifier ready", logger.String("account", api.Self.UserName))

	return &Notifier{
		api:     api,
		chatID:  cfg.ChatID,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		l:       l,
	}, nil
}

// Send delivers one Markdown message to the configured chat.
func (n *Notifier) Send(ctx context.Context, message string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate wait: %w", err)
	}

	msg := tgbotapi.NewMessage(n.chatID, message)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Console is a Notifier that writes alerts to the log. Used when Telegram is
// not configured, so local runs still show what would have gone out.
type Console struct {
	L *logger.Logger
}

// Send logs the alert text.
func (c Console) Send(_ context.Context, message string) error {
	c.L.Info("alert (console)", logger.String("message", message))
	return nil
}
