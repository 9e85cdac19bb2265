// Package notify tells an external endpoint when the baseline of an artifact changes.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/scan-io-git/leakscan/internal/scan"
	"github.com/scan-io-git/leakscan/internal/store"
)

// Event is the JSON body posted to the webhook.
type Event struct {
	ScanID     string    `json:"scan_id"`
	ArtifactID string    `json:"artifact_id"`
	Outcome    string    `json:"outcome"`
	Location   string    `json:"location"`
	StartedAt  time.Time `json:"started_at"`
}

// Webhook posts an Event for every created or replaced baseline.
type Webhook struct {
	client *resty.Client
	url    string
}

// NewWebhook creates a Webhook posting to url with client.
func NewWebhook(client *resty.Client, url string) *Webhook {
	return &Webhook{client: client, url: url}
}

// AfterPublish implements store.Hook.
func (w *Webhook) AfterPublish(ctx context.Context, sc *scan.Context, key store.Key, res store.Result) error {
	if !res.Outcome.Changed() {
		return nil
	}

	event := Event{
		ScanID:     sc.ID,
		ArtifactID: key.ArtifactID,
		Outcome:    res.Outcome.String(),
		Location:   res.Location,
		StartedAt:  sc.StartedAt,
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("failed to send change notification: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("change notification rejected: %s", resp.Status())
	}

	sc.Logger.Debug("change notification sent", "url", w.url, "status", resp.StatusCode())
	return nil
}
