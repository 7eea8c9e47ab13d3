// Package application provides application services.
package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jcttech/specstack/pkg/domain/events"
)

// AuditService is the event-sourced audit trail. Every workflow
// operation records its outcome here; the store chains hashes, the
// publisher feeds projections and notification handlers.
type AuditService struct {
	store      events.EventStore
	publisher  events.EventPublisher
	dispatcher *events.EventDispatcher
	dispatchWG sync.WaitGroup

	closureProj  *events.ClosureProjection
	statsProj    *events.CascadeStatsProjection
	timelineProj *events.AuditTimelineProjection
}

// NewAuditService creates the audit service and rebuilds projections
// from the stored event history.
func NewAuditService(store events.EventStore, publisher events.EventPublisher) (*AuditService, error) {
	svc := &AuditService{
		store:        store,
		publisher:    publisher,
		closureProj:  events.NewClosureProjection(),
		statsProj:    events.NewCascadeStatsProjection(7),
		timelineProj: events.NewAuditTimelineProjection(),
	}

	if err := svc.rebuildProjections(); err != nil {
		return nil, err
	}

	// Projection errors never fail the write path.
	if publisher != nil {
		publisher.Subscribe(func(e *events.BaseEvent) error {
			_ = svc.closureProj.Apply(e)
			_ = svc.statsProj.Apply(e)
			_ = svc.timelineProj.Apply(e)
			return nil
		})
	}

	return svc, nil
}

func (s *AuditService) rebuildProjections() error {
	evts, err := s.store.LoadAll()
	if err != nil {
		return err
	}

	if err := s.closureProj.Rebuild(evts); err != nil {
		return err
	}
	if err := s.statsProj.Rebuild(evts); err != nil {
		return err
	}
	return s.timelineProj.Rebuild(evts)
}

// Log appends one event to the trail and fans it out to subscribers.
// The store assigns the ID, timestamp and hash chain.
func (s *AuditService) Log(eventType, aggregateType, aggregateID string, metadata map[string]interface{}) error {
	event := &events.BaseEvent{
		Type:          eventType,
		Aggregate:     aggregateID,
		AggregateKind: aggregateType,
		EventVersion:  1,
		Actor:         "specstack",
		Metadata:      metadata,
	}

	if err := s.store.Append(event); err != nil {
		return err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(event)
	}

	if s.dispatcher != nil {
		typed := events.Upgrade(event)
		s.dispatchWG.Add(1)
		// Handlers must not block the write path.
		go func() {
			defer s.dispatchWG.Done()
			_ = s.dispatcher.Dispatch(context.Background(), typed)
		}()
	}

	return nil
}

// Drain blocks until all in-flight handler dispatches have finished.
// Short-lived commands call it before exiting so notifications are not
// lost.
func (s *AuditService) Drain() {
	s.dispatchWG.Wait()
}

// SetDispatcher wires an event dispatcher for notification handlers.
func (s *AuditService) SetDispatcher(dispatcher *events.EventDispatcher) {
	s.dispatcher = dispatcher
}

// RegisterHandler registers an event handler, creating the dispatcher
// on first use.
func (s *AuditService) RegisterHandler(reg events.HandlerRegistration) {
	if s.dispatcher == nil {
		s.dispatcher = events.NewEventDispatcher()
	}
	s.dispatcher.Register(reg)
}

// GetTimeline returns the full audit timeline.
func (s *AuditService) GetTimeline() []events.TimelineEntry {
	return s.timelineProj.GetTimeline()
}

// GetRecentTimeline returns the most recent n timeline entries.
func (s *AuditService) GetRecentTimeline(n int) []events.TimelineEntry {
	return s.timelineProj.GetRecentEntries(n)
}

// Closure returns the recorded closure outcome for an issue, or nil.
func (s *AuditService) Closure(number int) *events.ClosureRecord {
	return s.closureProj.Get(number)
}

// Closures returns every recorded closure.
func (s *AuditService) Closures() []*events.ClosureRecord {
	return s.closureProj.All()
}

// CascadesPerDay returns the cascade rate over the stats window.
func (s *AuditService) CascadesPerDay() float64 {
	return s.statsProj.CascadesPerDay()
}

// VerifyIntegrity checks the hash chain for tampering.
func (s *AuditService) VerifyIntegrity() ([]string, error) {
	evts, err := s.store.LoadAll()
	if err != nil {
		return nil, err
	}

	var violations []string
	lastHash := ""

	for i, e := range evts {
		if e.PrevHash != lastHash {
			violations = append(violations, fmt.Sprintf("Event %d (%s): PrevHash mismatch. Audit trail broken.", i, e.ID))
		}

		if e.Hash != e.CalculateHash() {
			violations = append(violations, fmt.Sprintf("Event %d (%s): Content hash mismatch. Possible tampering.", i, e.ID))
		}

		lastHash = e.Hash
	}

	return violations, nil
}

// LoadEvents returns all events from the store.
func (s *AuditService) LoadEvents() ([]*events.BaseEvent, error) {
	return s.store.LoadAll()
}

// LoadEventsSince returns events recorded after the given time.
func (s *AuditService) LoadEventsSince(since time.Time) ([]*events.BaseEvent, error) {
	return s.store.LoadSince(since)
}
