package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Sink delivers an alert to one external notification target.
type Sink interface {
	Name() string
	Send(ctx context.Context, alert Alert) error
}

// Notifier fans an alert out to all configured sinks. Sinks run
// concurrently; every failure is logged and swallowed so one sink's outage
// never affects another sink or the caller.
type Notifier struct {
	sinks   []Sink
	logger  *slog.Logger
	timeout time.Duration
}

// NewNotifier creates a notifier over the given sinks.
func NewNotifier(sinks []Sink, logger *slog.Logger, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{sinks: sinks, logger: logger, timeout: timeout}
}

// Dispatch sends the alert to every sink and waits for all of them to
// settle. There are no retries; a failed delivery is only visible in the
// logs.
func (n *Notifier) Dispatch(ctx context.Context, alert Alert) {
	if len(n.sinks) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, sink := range n.sinks {
		sink := sink
		g.Go(func() error {
			if err := sink.Send(ctx, alert); err != nil {
				n.logger.Error("Failed to deliver alert",
					slog.String("sink", sink.Name()),
					slog.String("rule", alert.Rule),
					slog.Any("error", err))
			}
			// Errors are swallowed so sibling sinks keep running.
			return nil
		})
	}
	_ = g.Wait()
}

// WebhookSink posts the raw alert plus service/environment tags as JSON to a
// generic alerting webhook.
type WebhookSink struct {
	url         string
	service     string
	environment string
	client      *http.Client
}

// NewWebhookSink creates a generic webhook sink.
func NewWebhookSink(url, service, environment string) *WebhookSink {
	return &WebhookSink{
		url:         url,
		service:     service,
		environment: environment,
		client:      &http.Client{},
	}
}

// Name implements Sink.
func (s *WebhookSink) Name() string { return "webhook" }

// Send implements Sink. Any non-2xx response is a delivery failure.
func (s *WebhookSink) Send(ctx context.Context, alert Alert) error {
	payload := map[string]any{
		"alert":       alert,
		"service":     s.service,
		"environment": s.environment,
	}
	return postJSON(ctx, s.client, s.url, payload)
}

// severityColors maps severities to attachment colors in the chat payload.
var severityColors = map[Severity]string{
	SeverityLow:      "#36a64f",
	SeverityMedium:   "#ff9500",
	SeverityHigh:     "#ff0000",
	SeverityCritical: "#8B0000",
}

// ChatSink posts a Slack-compatible attachment payload to a chat webhook.
type ChatSink struct {
	url     string
	service string
	client  *http.Client
}

// NewChatSink creates a chat-notification sink.
func NewChatSink(url, service string) *ChatSink {
	return &ChatSink{url: url, service: service, client: &http.Client{}}
}

// Name implements Sink.
func (s *ChatSink) Name() string { return "chat" }

// Send implements Sink.
func (s *ChatSink) Send(ctx context.Context, alert Alert) error {
	payload := map[string]any{
		"attachments": []map[string]any{
			{
				"color": severityColors[alert.Severity],
				"title": alert.Rule,
				"text":  alert.Message,
				"fields": []map[string]any{
					{"title": "Severity", "value": string(alert.Severity), "short": true},
					{"title": "Service", "value": s.service, "short": true},
					{"title": "Time", "value": alert.Timestamp.UTC().Format(time.RFC3339), "short": true},
				},
			},
		},
	}
	return postJSON(ctx, s.client, s.url, payload)
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return nil
}
