package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"NewsHarvester/internal/ports"
)

const defaultAPIURL = "https://api.telegram.org"

// ErrMisconfigured is returned when token or chat id is missing.
var ErrMisconfigured = errors.New("telegram notifier misconfigured")

// Notifier sends operator alerts to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	client   *resty.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return NewNotifierWithURL(defaultAPIURL, botToken, chatID)
}

// NewNotifierWithURL points the notifier at a custom bot API base URL.
func NewNotifierWithURL(apiURL, botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		client:   resty.New().SetBaseURL(apiURL).SetTimeout(5 * time.Second),
	}
}

// Notify posts a plain-text message to the configured chat.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return ErrMisconfigured
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetPathParam("token", n.botToken).
		SetFormData(map[string]string{
			"chat_id": n.chatID,
			"text":    message,
		}).
		Post("/bot{token}/sendMessage")
	if err != nil {
		// The request URL embeds the bot token; keep it out of the error.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("send telegram message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram error: %s", resp.Status())
	}

	return nil
}
