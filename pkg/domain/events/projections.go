package events

import (
	"sync"
	"time"
)

// =============================================================================
// Closure Projection
// =============================================================================

// ClosureProjection maintains the set of issues closed by cascades.
type ClosureProjection struct {
	mu      sync.RWMutex
	closed  map[int]*ClosureRecord
	ordered []int
}

// ClosureRecord represents a cascade-driven issue closure.
type ClosureRecord struct {
	Number    int
	IssueType string
	Comment   string
	ClosedAt  time.Time
}

// NewClosureProjection creates a new closure projection.
func NewClosureProjection() *ClosureProjection {
	return &ClosureProjection{
		closed: make(map[int]*ClosureRecord),
	}
}

func (p *ClosureProjection) Name() string { return "closures" }

func (p *ClosureProjection) Apply(event *BaseEvent) error {
	if event.Type != EventTypeIssueClosed {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	number := getIntMetadata(event.Metadata, "number")
	if number == 0 {
		return nil
	}

	if _, seen := p.closed[number]; !seen {
		p.ordered = append(p.ordered, number)
	}
	p.closed[number] = &ClosureRecord{
		Number:    number,
		IssueType: getStringMetadata(event.Metadata, "issue_type"),
		Comment:   getStringMetadata(event.Metadata, "comment"),
		ClosedAt:  event.Timestamp,
	}

	return nil
}

func (p *ClosureProjection) Rebuild(events []*BaseEvent) error {
	p.Reset()
	for _, event := range events {
		if err := p.Apply(event); err != nil {
			return err
		}
	}
	return nil
}

func (p *ClosureProjection) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = make(map[int]*ClosureRecord)
	p.ordered = nil
	return nil
}

// Get returns the closure record for an issue, or nil.
func (p *ClosureProjection) Get(number int) *ClosureRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed[number]
}

// All returns closure records in append order.
func (p *ClosureProjection) All() []*ClosureRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make([]*ClosureRecord, 0, len(p.ordered))
	for _, n := range p.ordered {
		result = append(result, p.closed[n])
	}
	return result
}

// =============================================================================
// Cascade Stats Projection
// =============================================================================

// CascadeStatsProjection tracks cascade activity over a rolling window.
type CascadeStatsProjection struct {
	mu         sync.RWMutex
	cascades   []time.Time
	specCloses []time.Time
	epicCloses []time.Time
	windowDays int
}

// NewCascadeStatsProjection creates a stats projection with a rolling window.
func NewCascadeStatsProjection(windowDays int) *CascadeStatsProjection {
	if windowDays <= 0 {
		windowDays = 7
	}
	return &CascadeStatsProjection{windowDays: windowDays}
}

func (p *CascadeStatsProjection) Name() string { return "cascade_stats" }

func (p *CascadeStatsProjection) Apply(event *BaseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch event.Type {
	case EventTypeCascadeCompleted:
		p.cascades = append(p.cascades, event.Timestamp)
		if getIntMetadata(event.Metadata, "spec_closed") > 0 {
			p.specCloses = append(p.specCloses, event.Timestamp)
		}
		if getIntMetadata(event.Metadata, "epic_closed") > 0 {
			p.epicCloses = append(p.epicCloses, event.Timestamp)
		}
	}

	return nil
}

func (p *CascadeStatsProjection) Rebuild(events []*BaseEvent) error {
	p.Reset()
	for _, event := range events {
		if err := p.Apply(event); err != nil {
			return err
		}
	}
	return nil
}

func (p *CascadeStatsProjection) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cascades = nil
	p.specCloses = nil
	p.epicCloses = nil
	return nil
}

// CascadesPerDay returns cascade walks per day in the window.
func (p *CascadeStatsProjection) CascadesPerDay() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rate(p.cascades)
}

// SpecClosesPerDay returns spec auto-closes per day in the window.
func (p *CascadeStatsProjection) SpecClosesPerDay() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rate(p.specCloses)
}

// EpicClosesPerDay returns epic auto-closes per day in the window.
func (p *CascadeStatsProjection) EpicClosesPerDay() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rate(p.epicCloses)
}

func (p *CascadeStatsProjection) rate(timestamps []time.Time) float64 {
	if len(timestamps) == 0 {
		return 0
	}

	cutoff := time.Now().AddDate(0, 0, -p.windowDays)
	count := 0
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			count++
		}
	}

	return float64(count) / float64(p.windowDays)
}

// =============================================================================
// Audit Timeline Projection
// =============================================================================

// AuditTimelineProjection maintains a timeline view of all events.
type AuditTimelineProjection struct {
	mu       sync.RWMutex
	timeline []TimelineEntry
}

// TimelineEntry represents a single entry in the audit timeline.
type TimelineEntry struct {
	Timestamp   time.Time
	EventType   string
	Actor       string
	Description string
	AggregateID string
	Metadata    map[string]any
}

// NewAuditTimelineProjection creates a new timeline projection.
func NewAuditTimelineProjection() *AuditTimelineProjection {
	return &AuditTimelineProjection{
		timeline: make([]TimelineEntry, 0),
	}
}

func (p *AuditTimelineProjection) Name() string { return "audit_timeline" }

func (p *AuditTimelineProjection) Apply(event *BaseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry := TimelineEntry{
		Timestamp:   event.Timestamp,
		EventType:   event.Type,
		Actor:       event.Actor,
		AggregateID: event.Aggregate,
		Metadata:    event.Metadata,
		Description: describeEvent(event),
	}

	p.timeline = append(p.timeline, entry)
	return nil
}

func (p *AuditTimelineProjection) Rebuild(events []*BaseEvent) error {
	p.Reset()
	for _, event := range events {
		if err := p.Apply(event); err != nil {
			return err
		}
	}
	return nil
}

func (p *AuditTimelineProjection) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeline = make([]TimelineEntry, 0)
	return nil
}

// GetTimeline returns all timeline entries.
func (p *AuditTimelineProjection) GetTimeline() []TimelineEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make([]TimelineEntry, len(p.timeline))
	copy(result, p.timeline)
	return result
}

// GetRecentEntries returns the most recent n entries.
func (p *AuditTimelineProjection) GetRecentEntries(n int) []TimelineEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if n >= len(p.timeline) {
		result := make([]TimelineEntry, len(p.timeline))
		copy(result, p.timeline)
		return result
	}

	start := len(p.timeline) - n
	result := make([]TimelineEntry, n)
	copy(result, p.timeline[start:])
	return result
}

// =============================================================================
// Helpers
// =============================================================================

func getStringMetadata(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getIntMetadata reads an int from metadata. JSON round-trips store
// numbers as float64, in-memory events carry int.
func getIntMetadata(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func describeEvent(event *BaseEvent) string {
	switch event.Type {
	case EventTypeCascadeCompleted:
		return "Cascade completed for story #" + event.Aggregate
	case EventTypeIssueClosed:
		return "Auto-closed " + getStringMetadata(event.Metadata, "issue_type") + " #" + event.Aggregate
	case EventTypeSyncCompleted:
		return "Synced issues from " + getStringMetadata(event.Metadata, "repository")
	case EventTypeDraftCreated:
		return "Draft created: " + getStringMetadata(event.Metadata, "draft_id")
	case EventTypeDraftValidated:
		return "Draft validated: " + getStringMetadata(event.Metadata, "draft_id")
	case EventTypeDraftPushed:
		return "Draft pushed: " + getStringMetadata(event.Metadata, "draft_id")
	case EventTypeStoriesGenerated:
		return "Stories generated from " + getStringMetadata(event.Metadata, "plan_draft")
	case EventTypeWorktreeCreated:
		return "Worktree created: " + getStringMetadata(event.Metadata, "branch")
	case EventTypeWorktreeRemoved:
		return "Worktree removed: " + getStringMetadata(event.Metadata, "branch")
	case EventTypeTemplatesFetched:
		return "Org templates fetched from " + getStringMetadata(event.Metadata, "source_repo")
	case EventTypeFileChanged:
		return "File changed: " + getStringMetadata(event.Metadata, "file_path")
	default:
		return event.Type
	}
}
