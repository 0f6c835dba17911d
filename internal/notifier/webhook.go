package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Webhook posts messages to an HTTP endpoint as JSON, for setups where the
// device notification surface is unavailable.
type Webhook struct {
	URL string
}

func (w *Webhook) Notify(ctx context.Context, msg Message) error {
	if w.URL == "" {
		return fmt.Errorf("webhook URL is not set")
	}

	payload := map[string]any{
		"content":  msg.Text,
		"priority": msg.Priority,
		"urgent":   msg.Urgent,
		"category": msg.Category,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook failed with status %d", resp.StatusCode)
	}

	return nil
}
