package events

import (
	"testing"
)

func TestUpgradeCascadeCompleted(t *testing.T) {
	base := &BaseEvent{
		Type:      EventTypeCascadeCompleted,
		Aggregate: "100",
		Metadata: map[string]any{
			"story_number":   100,
			"terminal_state": "epic_closed",
			"spec_closed":    10,
			"epic_closed":    1,
		},
	}

	typed, ok := Upgrade(base).(*CascadeCompleted)
	if !ok {
		t.Fatalf("Upgrade returned %T, want *CascadeCompleted", Upgrade(base))
	}
	if typed.StoryNumber != 100 || typed.SpecClosed != 10 || typed.EpicClosed != 1 {
		t.Errorf("typed = %+v", typed)
	}
	if typed.TerminalState != "epic_closed" {
		t.Errorf("TerminalState = %q", typed.TerminalState)
	}
}

func TestUpgradeHandlesJSONDecodedMetadata(t *testing.T) {
	// Events replayed from the journal carry float64 numbers and []any
	// slices after JSON decoding.
	base := &BaseEvent{
		Type: EventTypeSyncCompleted,
		Metadata: map[string]any{
			"repository":    "jcttech/specstack",
			"issues_cached": float64(42),
			"issues_pruned": float64(3),
			"errors":        []any{"close spec #10: boom"},
		},
	}

	typed, ok := Upgrade(base).(*SyncCompleted)
	if !ok {
		t.Fatalf("Upgrade returned %T, want *SyncCompleted", Upgrade(base))
	}
	if typed.IssuesCached != 42 || typed.IssuesPruned != 3 {
		t.Errorf("typed = %+v", typed)
	}
	if len(typed.Errors) != 1 || typed.Errors[0] != "close spec #10: boom" {
		t.Errorf("Errors = %v", typed.Errors)
	}
}

func TestUpgradeDraftPushed(t *testing.T) {
	base := &BaseEvent{
		Type: EventTypeDraftPushed,
		Metadata: map[string]any{
			"draft_id":     "spec-001-user-auth",
			"issue_number": 1001,
		},
	}

	typed, ok := Upgrade(base).(*DraftPushed)
	if !ok {
		t.Fatalf("Upgrade returned %T, want *DraftPushed", Upgrade(base))
	}
	if typed.DraftID != "spec-001-user-auth" || typed.IssueNumber != 1001 {
		t.Errorf("typed = %+v", typed)
	}
}

func TestUpgradeUnknownTypePassesThrough(t *testing.T) {
	base := &BaseEvent{Type: EventTypeWorkspaceInitialized}
	if got := Upgrade(base); got != DomainEvent(base) {
		t.Errorf("Upgrade changed an event with no typed form: %T", got)
	}
}

func TestUpgradeMissingMetadataDefaults(t *testing.T) {
	base := &BaseEvent{Type: EventTypeWorktreeCreated, Metadata: map[string]any{}}

	typed, ok := Upgrade(base).(*WorktreeCreated)
	if !ok {
		t.Fatalf("Upgrade returned %T, want *WorktreeCreated", Upgrade(base))
	}
	if typed.IssueNumber != 0 || typed.Branch != "" || typed.Resumed {
		t.Errorf("typed = %+v, want zero values", typed)
	}
}
