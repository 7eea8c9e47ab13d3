// Package events defines domain events for the workspace audit log.
package events

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventType() string
	AggregateID() string
	AggregateType() string
	OccurredAt() time.Time
	Version() int
}

// BaseEvent provides common fields for all events. Events form a hash
// chain: each event's hash covers the previous event's hash, so the
// log is tamper-evident.
type BaseEvent struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Aggregate     string         `json:"aggregate_id"`
	AggregateKind string         `json:"aggregate_type"`
	Timestamp     time.Time      `json:"timestamp"`
	EventVersion  int            `json:"version"`
	Actor         string         `json:"actor"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	PrevHash      string         `json:"prev_hash,omitempty"`
	Hash          string         `json:"hash,omitempty"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) AggregateID() string   { return e.Aggregate }
func (e BaseEvent) AggregateType() string { return e.AggregateKind }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Version() int          { return e.EventVersion }

// Base returns the embedded BaseEvent. Typed events inherit it, so any
// DomainEvent built on BaseEvent can be recovered via AsBase.
func (e *BaseEvent) Base() *BaseEvent { return e }

// AsBase extracts the underlying BaseEvent from a domain event, or nil
// when the event is not built on one.
func AsBase(event DomainEvent) *BaseEvent {
	if b, ok := event.(interface{ Base() *BaseEvent }); ok {
		return b.Base()
	}
	return nil
}

// CalculateHash generates a deterministic SHA256 hash of the event.
func (e *BaseEvent) CalculateHash() string {
	h := sha256.New()
	h.Write([]byte(e.PrevHash))
	h.Write([]byte(e.ID))
	h.Write([]byte(e.Timestamp.Format(time.RFC3339Nano)))
	h.Write([]byte(e.Type))
	h.Write([]byte(e.Aggregate))
	h.Write([]byte(e.Actor))
	h.Write([]byte(canonicalJSON(e.Metadata)))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalJSON produces a deterministic JSON representation.
func canonicalJSON(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]byte, 0, 256)
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		keyJSON, _ := json.Marshal(k)
		valJSON, _ := json.Marshal(m[k])
		ordered = append(ordered, keyJSON...)
		ordered = append(ordered, ':')
		ordered = append(ordered, valJSON...)
	}
	ordered = append(ordered, '}')
	return string(ordered)
}

// =============================================================================
// Cascade Events
// =============================================================================

// CascadeCompleted is emitted when a cascade walk reaches a terminal state.
type CascadeCompleted struct {
	BaseEvent
	StoryNumber   int    `json:"story_number"`
	TerminalState string `json:"terminal_state"`
	SpecClosed    int    `json:"spec_closed,omitempty"`
	EpicClosed    int    `json:"epic_closed,omitempty"`
}

// IssueClosed is emitted when the cascade closes a spec or epic.
type IssueClosed struct {
	BaseEvent
	Number    int    `json:"number"`
	IssueType string `json:"issue_type"`
	Comment   string `json:"comment"`
}

// =============================================================================
// Sync Events
// =============================================================================

// SyncCompleted is emitted after a full issue sync.
type SyncCompleted struct {
	BaseEvent
	Repository   string   `json:"repository"`
	IssuesCached int      `json:"issues_cached"`
	IssuesPruned int      `json:"issues_pruned,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// =============================================================================
// Draft Events
// =============================================================================

// DraftCreated is emitted when a new draft is scaffolded.
type DraftCreated struct {
	BaseEvent
	DraftID   string `json:"draft_id"`
	DraftType string `json:"draft_type"`
	Path      string `json:"path"`
}

// DraftValidated is emitted after a draft validation run.
type DraftValidated struct {
	BaseEvent
	DraftID string   `json:"draft_id"`
	Passed  bool     `json:"passed"`
	Issues  []string `json:"issues,omitempty"`
}

// DraftPushed is emitted when a draft becomes a tracker issue.
type DraftPushed struct {
	BaseEvent
	DraftID     string `json:"draft_id"`
	IssueNumber int    `json:"issue_number"`
}

// StoriesGenerated is emitted when stories are created from a plan draft.
type StoriesGenerated struct {
	BaseEvent
	PlanDraft  string `json:"plan_draft"`
	SpecNumber int    `json:"spec_number"`
	Count      int    `json:"count"`
}

// =============================================================================
// Worktree Events
// =============================================================================

// WorktreeCreated is emitted when a story worktree is created or resumed.
type WorktreeCreated struct {
	BaseEvent
	IssueNumber int    `json:"issue_number"`
	Branch      string `json:"branch"`
	Path        string `json:"path"`
	Resumed     bool   `json:"resumed,omitempty"`
}

// WorktreeRemoved is emitted when a story worktree is removed.
type WorktreeRemoved struct {
	BaseEvent
	IssueNumber int    `json:"issue_number"`
	Branch      string `json:"branch"`
}

// =============================================================================
// Workspace Events
// =============================================================================

// TemplatesFetched is emitted after org templates are downloaded.
type TemplatesFetched struct {
	BaseEvent
	SourceRepo string `json:"source_repo"`
	FileCount  int    `json:"file_count"`
}

// FileChanged is emitted when a watched file is modified.
type FileChanged struct {
	BaseEvent
	FilePath   string `json:"file_path"`
	ChangeType string `json:"change_type"` // "create", "write", "remove", "rename"
}

// =============================================================================
// Event Type Constants
// =============================================================================

const (
	EventTypeCascadeCompleted     = "cascade.completed"
	EventTypeIssueClosed          = "issue.closed"
	EventTypeSyncCompleted        = "sync.completed"
	EventTypeDraftCreated         = "draft.created"
	EventTypeDraftValidated       = "draft.validated"
	EventTypeDraftPushed          = "draft.pushed"
	EventTypeStoriesGenerated     = "stories.generated"
	EventTypeWorktreeCreated      = "worktree.created"
	EventTypeWorktreeRemoved      = "worktree.removed"
	EventTypeTemplatesFetched     = "templates.fetched"
	EventTypeFileChanged          = "file.changed"
	EventTypeWorkspaceInitialized = "workspace.initialized"
)

// AggregateTypes
const (
	AggregateTypeIssue     = "issue"
	AggregateTypeDraft     = "draft"
	AggregateTypeSync      = "sync"
	AggregateTypeWorktree  = "worktree"
	AggregateTypeWorkspace = "workspace"
)
