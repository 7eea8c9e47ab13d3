package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockEvent implements DomainEvent for testing
type mockEvent struct {
	eventType     string
	aggregateID   string
	aggregateType string
	timestamp     time.Time
	version       int
}

func (e mockEvent) EventType() string     { return e.eventType }
func (e mockEvent) AggregateID() string   { return e.aggregateID }
func (e mockEvent) AggregateType() string { return e.aggregateType }
func (e mockEvent) OccurredAt() time.Time { return e.timestamp }
func (e mockEvent) Version() int          { return e.version }

func newMockEvent(eventType string) mockEvent {
	return mockEvent{
		eventType:     eventType,
		aggregateID:   "101",
		aggregateType: AggregateTypeIssue,
		timestamp:     time.Now(),
		version:       1,
	}
}

func TestEventDispatcher_Register(t *testing.T) {
	d := NewEventDispatcher()

	called := false
	d.RegisterHandler("test-handler", func(ctx context.Context, event DomainEvent) error {
		called = true
		return nil
	}, EventTypeCascadeCompleted)

	if !d.HasHandlers(EventTypeCascadeCompleted) {
		t.Error("Expected handlers for cascade.completed")
	}

	err := d.Dispatch(context.Background(), newMockEvent(EventTypeCascadeCompleted))
	if err != nil {
		t.Errorf("Dispatch failed: %v", err)
	}
	if !called {
		t.Error("Handler was not called")
	}
}

func TestEventDispatcher_RegisterMultipleEventTypes(t *testing.T) {
	d := NewEventDispatcher()

	callCount := 0
	d.Register(HandlerRegistration{
		Name: "multi-handler",
		Handler: func(ctx context.Context, event DomainEvent) error {
			callCount++
			return nil
		},
		EventTypes: []string{EventTypeCascadeCompleted, EventTypeIssueClosed, EventTypeSyncCompleted},
	})

	for _, eventType := range []string{EventTypeCascadeCompleted, EventTypeIssueClosed, EventTypeSyncCompleted} {
		if err := d.Dispatch(context.Background(), newMockEvent(eventType)); err != nil {
			t.Fatal(err)
		}
	}

	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
}

func TestEventDispatcher_Wildcard(t *testing.T) {
	d := NewEventDispatcher()

	callCount := 0
	d.RegisterWildcard("wildcard-handler", func(ctx context.Context, event DomainEvent) error {
		callCount++
		return nil
	})

	_ = d.Dispatch(context.Background(), newMockEvent(EventTypeCascadeCompleted))
	_ = d.Dispatch(context.Background(), newMockEvent(EventTypeDraftPushed))
	_ = d.Dispatch(context.Background(), newMockEvent(EventTypeFileChanged))

	if callCount != 3 {
		t.Errorf("Expected 3 calls for wildcard handler, got %d", callCount)
	}
}

func TestEventDispatcher_MultipleHandlers(t *testing.T) {
	d := NewEventDispatcher()

	handler1Called := false
	handler2Called := false

	d.RegisterHandler("handler1", func(ctx context.Context, event DomainEvent) error {
		handler1Called = true
		return nil
	}, EventTypeIssueClosed)

	d.RegisterHandler("handler2", func(ctx context.Context, event DomainEvent) error {
		handler2Called = true
		return nil
	}, EventTypeIssueClosed)

	_ = d.Dispatch(context.Background(), newMockEvent(EventTypeIssueClosed))

	if !handler1Called {
		t.Error("Handler1 was not called")
	}
	if !handler2Called {
		t.Error("Handler2 was not called")
	}
}

func TestEventDispatcher_ErrorHandling(t *testing.T) {
	d := NewEventDispatcher()
	testErr := errors.New("handler error")

	d.RegisterHandler("failing-handler", func(ctx context.Context, event DomainEvent) error {
		return testErr
	}, EventTypeIssueClosed)

	err := d.Dispatch(context.Background(), newMockEvent(EventTypeIssueClosed))
	if err == nil {
		t.Error("Expected error from dispatch")
	}
}

func TestEventDispatcher_ContinueOnError(t *testing.T) {
	d := NewEventDispatcher()
	d.ContinueOnError = true

	handler1Called := false
	handler2Called := false

	d.RegisterHandler("failing-handler", func(ctx context.Context, event DomainEvent) error {
		handler1Called = true
		return errors.New("handler1 error")
	}, EventTypeIssueClosed)

	d.RegisterHandler("succeeding-handler", func(ctx context.Context, event DomainEvent) error {
		handler2Called = true
		return nil
	}, EventTypeIssueClosed)

	err := d.Dispatch(context.Background(), newMockEvent(EventTypeIssueClosed))

	if !handler1Called {
		t.Error("Handler1 was not called")
	}
	if !handler2Called {
		t.Error("Handler2 should have been called despite handler1 error")
	}

	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Error("Expected DispatchError")
	}
	if len(dispatchErr.Errors) != 1 {
		t.Errorf("Expected 1 error, got %d", len(dispatchErr.Errors))
	}
}

func TestEventDispatcher_NoHandlers(t *testing.T) {
	d := NewEventDispatcher()

	err := d.Dispatch(context.Background(), newMockEvent("unhandled.event"))
	if err != nil {
		t.Errorf("Expected nil error for unhandled event, got: %v", err)
	}
}

func TestEventDispatcher_HandlerCount(t *testing.T) {
	d := NewEventDispatcher()

	if d.HandlerCount(EventTypeIssueClosed) != 0 {
		t.Error("Expected 0 handlers initially")
	}

	d.RegisterHandler("handler1", func(ctx context.Context, event DomainEvent) error {
		return nil
	}, EventTypeIssueClosed)

	if d.HandlerCount(EventTypeIssueClosed) != 1 {
		t.Error("Expected 1 handler")
	}

	d.RegisterWildcard("wildcard", func(ctx context.Context, event DomainEvent) error {
		return nil
	})

	// Wildcard counts toward all event types
	if d.HandlerCount(EventTypeIssueClosed) != 2 {
		t.Error("Expected 2 handlers (1 specific + 1 wildcard)")
	}
	if d.HandlerCount(EventTypeSyncCompleted) != 1 {
		t.Error("Expected 1 handler for other event (wildcard only)")
	}
}

func TestEventDispatcher_Clear(t *testing.T) {
	d := NewEventDispatcher()

	d.RegisterHandler("handler", func(ctx context.Context, event DomainEvent) error {
		return nil
	}, EventTypeIssueClosed)

	if !d.HasHandlers(EventTypeIssueClosed) {
		t.Error("Expected handlers before clear")
	}

	d.Clear()

	if d.HasHandlers(EventTypeIssueClosed) {
		t.Error("Expected no handlers after clear")
	}
}

func TestDispatchError_Error(t *testing.T) {
	singleErr := &DispatchError{
		Errors: []error{errors.New("single error")},
	}
	if singleErr.Error() != "single error" {
		t.Errorf("Expected single error message, got: %s", singleErr.Error())
	}

	multiErr := &DispatchError{
		Errors: []error{
			errors.New("error 1"),
			errors.New("error 2"),
		},
	}
	expected := "multiple dispatch errors (2)"
	if multiErr.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, multiErr.Error())
	}
}

func TestDispatchError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	dispatchErr := &DispatchError{
		Errors: []error{originalErr},
	}

	if !errors.Is(dispatchErr, originalErr) {
		t.Error("Expected errors.Is to find original error")
	}

	emptyErr := &DispatchError{}
	if emptyErr.Unwrap() != nil {
		t.Error("Expected nil from empty DispatchError.Unwrap()")
	}
}
