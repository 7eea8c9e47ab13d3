package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/domain/messaging"
)

// SlackAdapter sends events to a Slack incoming webhook URL.
type SlackAdapter struct {
	config messaging.AdapterConfig
	client *http.Client
}

// NewSlackAdapter creates a Slack adapter from config.
func NewSlackAdapter(config messaging.AdapterConfig) *SlackAdapter {
	return &SlackAdapter{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *SlackAdapter) Name() string { return a.config.Name }
func (a *SlackAdapter) Type() string { return "slack" }

func (a *SlackAdapter) Send(ctx context.Context, event *events.BaseEvent) error {
	text := formatSlackMessage(event)

	payload := map[string]interface{}{
		"text": text,
		"blocks": []map[string]interface{}{
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": text,
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}

	return nil
}

func formatSlackMessage(event *events.BaseEvent) string {
	switch event.Type {
	case events.EventTypeCascadeCompleted:
		return fmt.Sprintf(":white_check_mark: Cascade completed for story #%s", event.AggregateID())
	case events.EventTypeIssueClosed:
		return fmt.Sprintf(":heavy_check_mark: Auto-closed issue #%s", event.AggregateID())
	case events.EventTypeSyncCompleted:
		return fmt.Sprintf(":arrows_counterclockwise: Issue sync completed for %s", event.AggregateID())
	case events.EventTypeDraftPushed:
		return fmt.Sprintf(":outbox_tray: Draft %s pushed to the tracker", event.AggregateID())
	case events.EventTypeStoriesGenerated:
		return fmt.Sprintf(":clipboard: Stories generated from %s", event.AggregateID())
	default:
		return fmt.Sprintf("specstack event: %s", event.Type)
	}
}
