package events

import (
	"context"
	"fmt"
	"log/slog"
)

// Notifier is the interface for sending notifications.
type Notifier interface {
	// Notify sends a notification with the given level, title, and message.
	Notify(ctx context.Context, level NotificationLevel, title, message string) error
}

// NotificationLevel represents the severity of a notification.
type NotificationLevel string

const (
	NotificationLevelInfo    NotificationLevel = "info"
	NotificationLevelWarning NotificationLevel = "warning"
	NotificationLevelError   NotificationLevel = "error"
)

// CascadeNotificationHandler notifies external channels when a cascade
// closes parent issues.
type CascadeNotificationHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewCascadeNotificationHandler creates a new CascadeNotificationHandler.
func NewCascadeNotificationHandler(notifier Notifier, logger *slog.Logger) *CascadeNotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CascadeNotificationHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// Handle processes CascadeCompleted and IssueClosed events.
func (h *CascadeNotificationHandler) Handle(ctx context.Context, event DomainEvent) error {
	switch e := event.(type) {
	case *CascadeCompleted:
		h.logger.Info("cascade completed",
			"story", e.StoryNumber,
			"terminal_state", e.TerminalState,
			"spec_closed", e.SpecClosed,
			"epic_closed", e.EpicClosed)

		if h.notifier != nil && (e.SpecClosed > 0 || e.EpicClosed > 0) {
			_ = h.notifier.Notify(ctx, NotificationLevelInfo,
				"Cascade Completed",
				formatCascadeMessage(e))
		}

	case *IssueClosed:
		h.logger.Info("issue auto-closed",
			"number", e.Number,
			"issue_type", e.IssueType)
	}

	return nil
}

// Registration returns the HandlerRegistration for this handler.
func (h *CascadeNotificationHandler) Registration() HandlerRegistration {
	return HandlerRegistration{
		Name:       "CascadeNotificationHandler",
		Handler:    h.Handle,
		EventTypes: []string{EventTypeCascadeCompleted, EventTypeIssueClosed},
	}
}

// DraftPushedHandler notifies when drafts become tracker issues.
type DraftPushedHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewDraftPushedHandler creates a new DraftPushedHandler.
func NewDraftPushedHandler(notifier Notifier, logger *slog.Logger) *DraftPushedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DraftPushedHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// Handle processes DraftPushed events.
func (h *DraftPushedHandler) Handle(ctx context.Context, event DomainEvent) error {
	pushed, ok := event.(*DraftPushed)
	if !ok {
		return nil
	}

	h.logger.Info("draft pushed to tracker",
		"draft_id", pushed.DraftID,
		"issue_number", pushed.IssueNumber)

	if h.notifier != nil {
		_ = h.notifier.Notify(ctx, NotificationLevelInfo,
			"Draft Pushed",
			fmt.Sprintf("Draft %s is now issue #%d.", pushed.DraftID, pushed.IssueNumber))
	}

	return nil
}

// Registration returns the HandlerRegistration for this handler.
func (h *DraftPushedHandler) Registration() HandlerRegistration {
	return HandlerRegistration{
		Name:       "DraftPushedHandler",
		Handler:    h.Handle,
		EventTypes: []string{EventTypeDraftPushed},
	}
}

// SyncWarningHandler surfaces sync runs that finished with errors.
type SyncWarningHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewSyncWarningHandler creates a new SyncWarningHandler.
func NewSyncWarningHandler(notifier Notifier, logger *slog.Logger) *SyncWarningHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncWarningHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// Handle processes SyncCompleted events.
func (h *SyncWarningHandler) Handle(ctx context.Context, event DomainEvent) error {
	sync, ok := event.(*SyncCompleted)
	if !ok {
		return nil
	}

	if len(sync.Errors) == 0 {
		h.logger.Debug("sync completed",
			"repository", sync.Repository,
			"issues_cached", sync.IssuesCached)
		return nil
	}

	h.logger.Warn("sync completed with errors",
		"repository", sync.Repository,
		"error_count", len(sync.Errors))

	if h.notifier != nil {
		_ = h.notifier.Notify(ctx, NotificationLevelWarning,
			"Sync Errors",
			fmt.Sprintf("Sync of %s finished with %d errors.", sync.Repository, len(sync.Errors)))
	}

	return nil
}

// Registration returns the HandlerRegistration for this handler.
func (h *SyncWarningHandler) Registration() HandlerRegistration {
	return HandlerRegistration{
		Name:       "SyncWarningHandler",
		Handler:    h.Handle,
		EventTypes: []string{EventTypeSyncCompleted},
	}
}

// LoggingHandler is a catch-all handler that logs all events.
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler creates a new LoggingHandler.
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHandler{logger: logger}
}

// Handle logs the event details.
func (h *LoggingHandler) Handle(ctx context.Context, event DomainEvent) error {
	h.logger.Debug("domain event",
		"event_type", event.EventType(),
		"aggregate_id", event.AggregateID(),
		"aggregate_type", event.AggregateType(),
		"version", event.Version(),
		"occurred_at", event.OccurredAt())
	return nil
}

// Registration returns the HandlerRegistration for this handler.
func (h *LoggingHandler) Registration() HandlerRegistration {
	return HandlerRegistration{
		Name:       "LoggingHandler",
		Handler:    h.Handle,
		EventTypes: []string{"*"},
	}
}

func formatCascadeMessage(e *CascadeCompleted) string {
	switch {
	case e.EpicClosed > 0:
		return fmt.Sprintf("Story #%d closure cascaded: closed spec #%d and epic #%d.",
			e.StoryNumber, e.SpecClosed, e.EpicClosed)
	case e.SpecClosed > 0:
		return fmt.Sprintf("Story #%d closure cascaded: closed spec #%d.",
			e.StoryNumber, e.SpecClosed)
	default:
		return fmt.Sprintf("Story #%d closed with no parent closures.", e.StoryNumber)
	}
}
