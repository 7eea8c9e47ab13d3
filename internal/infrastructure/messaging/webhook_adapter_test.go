package messaging_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jcttech/specstack/internal/infrastructure/messaging"
	"github.com/jcttech/specstack/pkg/domain/events"
	domainmsg "github.com/jcttech/specstack/pkg/domain/messaging"
)

func TestWebhookAdapter_Send_Success(t *testing.T) {
	var receivedBody []byte
	var receivedAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedBody, _ = io.ReadAll(r.Body)
		receivedAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := messaging.NewWebhookAdapter(domainmsg.AdapterConfig{
		Name:    "test-webhook",
		Type:    "webhook",
		URL:     server.URL,
		Enabled: true,
	})

	event := &events.BaseEvent{
		Type:      events.EventTypeDraftPushed,
		Timestamp: time.Now(),
	}

	err := adapter.Send(context.Background(), event)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if len(receivedBody) == 0 {
		t.Fatal("expected body to be sent")
	}
	if receivedAgent != "Specstack-Messaging/1.0" {
		t.Errorf("unexpected User-Agent: %q", receivedAgent)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(receivedBody, &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if payload["event_type"] != events.EventTypeDraftPushed {
		t.Errorf("expected event_type %q, got %v", events.EventTypeDraftPushed, payload["event_type"])
	}
	if _, ok := payload["timestamp"]; !ok {
		t.Error("expected 'timestamp' field in webhook payload")
	}
	if _, ok := payload["data"]; !ok {
		t.Error("expected 'data' field in webhook payload")
	}
}

func TestWebhookAdapter_Send_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := messaging.NewWebhookAdapter(domainmsg.AdapterConfig{
		Name:    "test-webhook",
		Type:    "webhook",
		URL:     server.URL,
		Enabled: true,
	})

	event := &events.BaseEvent{
		Type:      events.EventTypeDraftPushed,
		Timestamp: time.Now(),
	}

	err := adapter.Send(context.Background(), event)
	if err == nil {
		t.Fatal("expected error for HTTP 500, got nil")
	}

	expectedMsg := "webhook returned status 500"
	if err.Error() != expectedMsg {
		t.Errorf("expected error %q, got %q", expectedMsg, err.Error())
	}
}

func TestWebhookAdapter_Send_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter := messaging.NewWebhookAdapter(domainmsg.AdapterConfig{
		Name:    "test-webhook",
		Type:    "webhook",
		URL:     server.URL,
		Enabled: true,
	})

	event := &events.BaseEvent{
		Type:      events.EventTypeDraftPushed,
		Timestamp: time.Now(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := adapter.Send(ctx, event)
	if err == nil {
		t.Fatal("expected error for canceled context, got nil")
	}
}

func TestWebhookAdapter_NameAndType(t *testing.T) {
	adapter := messaging.NewWebhookAdapter(domainmsg.AdapterConfig{
		Name: "my-webhook",
		Type: "webhook",
	})

	if adapter.Name() != "my-webhook" {
		t.Errorf("expected name 'my-webhook', got %q", adapter.Name())
	}
	if adapter.Type() != "webhook" {
		t.Errorf("expected type 'webhook', got %q", adapter.Type())
	}
}
