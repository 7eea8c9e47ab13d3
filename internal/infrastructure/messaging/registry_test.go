package messaging_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jcttech/specstack/internal/infrastructure/messaging"
	"github.com/jcttech/specstack/pkg/domain/events"
	domainmsg "github.com/jcttech/specstack/pkg/domain/messaging"
)

func TestRegistry_CreatesAdapters(t *testing.T) {
	config := &domainmsg.MessagingConfig{
		Adapters: []domainmsg.AdapterConfig{
			{Name: "hook1", Type: "webhook", URL: "http://example.com/1", Enabled: true},
			{Name: "slack1", Type: "slack", URL: "http://example.com/2", Enabled: true},
			{Name: "disabled", Type: "webhook", URL: "http://example.com/3", Enabled: false},
		},
	}

	registry, err := messaging.NewRegistry(config)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	adapters := registry.Adapters()
	if len(adapters) != 2 {
		t.Fatalf("expected 2 enabled adapters, got %d", len(adapters))
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	config := &domainmsg.MessagingConfig{
		Adapters: []domainmsg.AdapterConfig{
			{Name: "bad", Type: "carrier-pigeon", URL: "http://example.com", Enabled: true},
		},
	}

	_, err := messaging.NewRegistry(config)
	if err == nil {
		t.Fatal("expected error for unknown adapter type, got nil")
	}
}

func TestRegistry_NilConfig(t *testing.T) {
	registry, err := messaging.NewRegistry(nil)
	if err != nil {
		t.Fatalf("NewRegistry with nil config failed: %v", err)
	}
	if len(registry.Adapters()) != 0 {
		t.Errorf("expected no adapters for nil config, got %d", len(registry.Adapters()))
	}
}

func TestRegistry_HandleFiltersByEventType(t *testing.T) {
	var draftHits, cascadeHits int
	draftServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		draftHits++
		w.WriteHeader(http.StatusOK)
	}))
	defer draftServer.Close()
	cascadeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cascadeHits++
		w.WriteHeader(http.StatusOK)
	}))
	defer cascadeServer.Close()

	config := &domainmsg.MessagingConfig{
		Adapters: []domainmsg.AdapterConfig{
			{
				Name:         "drafts-only",
				Type:         "webhook",
				URL:          draftServer.URL,
				Enabled:      true,
				EventFilters: []string{events.EventTypeDraftPushed},
			},
			{
				Name:         "cascades-only",
				Type:         "webhook",
				URL:          cascadeServer.URL,
				Enabled:      true,
				EventFilters: []string{events.EventTypeCascadeCompleted},
			},
		},
	}

	registry, err := messaging.NewRegistry(config)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	event := &events.DraftPushed{
		BaseEvent: events.BaseEvent{
			Type:      events.EventTypeDraftPushed,
			Aggregate: "story-1234",
			Timestamp: time.Now(),
		},
		DraftID:     "story-1234",
		IssueNumber: 42,
	}

	if err := registry.Handle(context.Background(), event); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if draftHits != 1 {
		t.Errorf("expected 1 delivery to matching adapter, got %d", draftHits)
	}
	if cascadeHits != 0 {
		t.Errorf("expected 0 deliveries to non-matching adapter, got %d", cascadeHits)
	}
}

func TestRegistry_HandleUnfilteredReceivesAll(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	config := &domainmsg.MessagingConfig{
		Adapters: []domainmsg.AdapterConfig{
			{Name: "everything", Type: "webhook", URL: server.URL, Enabled: true},
		},
	}

	registry, err := messaging.NewRegistry(config)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	for _, eventType := range []string{events.EventTypeDraftPushed, events.EventTypeSyncCompleted} {
		event := &events.BaseEvent{Type: eventType, Timestamp: time.Now()}
		if err := registry.Handle(context.Background(), event); err != nil {
			t.Fatalf("Handle failed for %s: %v", eventType, err)
		}
	}

	if hits != 2 {
		t.Errorf("expected unfiltered adapter to receive 2 events, got %d", hits)
	}
}

func TestRegistry_HandleSendFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	config := &domainmsg.MessagingConfig{
		Adapters: []domainmsg.AdapterConfig{
			{Name: "failing", Type: "webhook", URL: server.URL, Enabled: true},
		},
	}

	registry, err := messaging.NewRegistry(config)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	event := &events.BaseEvent{Type: events.EventTypeCascadeCompleted, Timestamp: time.Now()}
	if err := registry.Handle(context.Background(), event); err != nil {
		t.Errorf("expected send failure to be swallowed, got %v", err)
	}
}

// bareEvent implements DomainEvent without embedding BaseEvent.
type bareEvent struct{}

func (bareEvent) EventType() string     { return "bare.event" }
func (bareEvent) AggregateID() string   { return "x" }
func (bareEvent) AggregateType() string { return "x" }
func (bareEvent) OccurredAt() time.Time { return time.Time{} }
func (bareEvent) Version() int          { return 1 }

func TestRegistry_HandleIgnoresNonBaseEvents(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	config := &domainmsg.MessagingConfig{
		Adapters: []domainmsg.AdapterConfig{
			{Name: "everything", Type: "webhook", URL: server.URL, Enabled: true},
		},
	}

	registry, err := messaging.NewRegistry(config)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	if err := registry.Handle(context.Background(), bareEvent{}); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if hits != 0 {
		t.Errorf("expected no deliveries for event without a base, got %d", hits)
	}
}

func TestRegistry_RegistrationIsWildcard(t *testing.T) {
	registry, err := messaging.NewRegistry(nil)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	reg := registry.Registration()
	if reg.Name != "MessagingRegistry" {
		t.Errorf("expected registration name MessagingRegistry, got %q", reg.Name)
	}
	if len(reg.EventTypes) != 1 || reg.EventTypes[0] != "*" {
		t.Errorf("expected wildcard event types, got %v", reg.EventTypes)
	}
	if reg.Handler == nil {
		t.Error("expected handler to be set")
	}
}
