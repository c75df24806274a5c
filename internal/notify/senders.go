package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
	"golang.org/x/time/rate"
)

// Webhook payload kinds.
const (
	KindGeneric = "generic"
	KindSlack   = "slack"
	KindDiscord = "discord"
)

// WebhookSender POSTs notifications to a webhook URL.
//
// Slack and Discord receive their text payload shape; generic hooks receive the notification itself.
type WebhookSender struct {
	name    string
	url     string
	kind    string
	client  *http.Client
	limiter *rate.Limiter
}

// NewWebhookSender builds a sender for cfg allowing perSecond requests per second (unlimited when <= 0).
func NewWebhookSender(cfg shared.WebhookConfig, perSecond float64, client *http.Client) *WebhookSender {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	kind := strings.ToLower(cfg.Kind)
	if kind == "" {
		kind = KindGeneric
	}
	name := cfg.Name
	if name == "" {
		name = kind
	}

	return &WebhookSender{
		name:    "webhook:" + name,
		url:     cfg.URL,
		kind:    kind,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (w *WebhookSender) Name() string { return w.name }

// Payload encodes n in the shape expected by the webhook kind.
func (w *WebhookSender) Payload(n models.Notification) ([]byte, error) {
	switch w.kind {
	case KindSlack:
		return json.Marshal(map[string]string{"text": Message(n)})
	case KindDiscord:
		return json.Marshal(map[string]string{"content": Message(n)})
	default:
		return json.Marshal(n)
	}
}

func (w *WebhookSender) Send(ctx context.Context, n models.Notification) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body, err := w.Payload(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrDeliveryFailed, w.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned status %d: %s", shared.ErrDeliveryFailed, w.name, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// LogSender writes notifications to a logger.
type LogSender struct {
	logger *log.Logger
}

func NewLogSender(logger *log.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) Name() string { return "log" }

func (l *LogSender) Send(ctx context.Context, n models.Notification) error {
	kv := []any{"event_type", n.EventType, "component", n.Component}
	for k, v := range n.Details {
		kv = append(kv, k, v)
	}
	l.logger.Info(Message(n), kv...)
	return nil
}
