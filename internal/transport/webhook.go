package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Compile-time check
var _ Transport = (*WebhookTransport)(nil)

// Типы исходящих действий в payload вебхука.
const (
	actionSendText       = "send_text"
	actionPresentChoices = "present_choices"
)

type outboundAction struct {
	Action  string   `json:"action"`
	UserID  int64    `json:"user_id"`
	Text    string   `json:"text,omitempty"`
	Prompt  string   `json:"prompt,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
}

// WebhookTransport доставляет исходящие действия POST-запросами
// на URL транспортного адаптера (зеркало входящего /v1/events).
type WebhookTransport struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookTransport создает webhook-транспорт.
func NewWebhookTransport(url string, timeout time.Duration, logger *zap.Logger) *WebhookTransport {
	return &WebhookTransport{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.Named("WebhookTransport"),
	}
}

func (t *WebhookTransport) SendText(ctx context.Context, userID int64, text string) error {
	return t.post(ctx, outboundAction{
		Action: actionSendText,
		UserID: userID,
		Text:   text,
	})
}

func (t *WebhookTransport) PresentChoices(ctx context.Context, userID int64, prompt string, choices []Choice) error {
	return t.post(ctx, outboundAction{
		Action:  actionPresentChoices,
		UserID:  userID,
		Prompt:  prompt,
		Choices: choices,
	})
}

func (t *WebhookTransport) post(ctx context.Context, action outboundAction) error {
	payload, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal outbound action: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create outbound request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error("Outbound webhook call failed",
			zap.String("action", action.Action),
			zap.Int64("userID", action.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("outbound webhook call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		t.logger.Error("Outbound webhook returned non-success status",
			zap.String("action", action.Action),
			zap.Int64("userID", action.UserID),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("outbound webhook returned status %d", resp.StatusCode)
	}

	return nil
}
