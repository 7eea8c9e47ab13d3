package events

// Upgrade converts a stored BaseEvent into its typed form so handlers
// can switch on concrete event types. Events read back from the journal
// carry JSON-decoded metadata (float64 numbers, []any slices); the
// helpers below accept both those and the in-process Go values. Unknown
// event types pass through unchanged.
func Upgrade(e *BaseEvent) DomainEvent {
	m := e.Metadata
	switch e.Type {
	case EventTypeCascadeCompleted:
		return &CascadeCompleted{
			BaseEvent:     *e,
			StoryNumber:   metaInt(m, "story_number"),
			TerminalState: metaString(m, "terminal_state"),
			SpecClosed:    metaInt(m, "spec_closed"),
			EpicClosed:    metaInt(m, "epic_closed"),
		}
	case EventTypeIssueClosed:
		return &IssueClosed{
			BaseEvent: *e,
			Number:    metaInt(m, "number"),
			IssueType: metaString(m, "issue_type"),
			Comment:   metaString(m, "comment"),
		}
	case EventTypeSyncCompleted:
		return &SyncCompleted{
			BaseEvent:    *e,
			Repository:   metaString(m, "repository"),
			IssuesCached: metaInt(m, "issues_cached"),
			IssuesPruned: metaInt(m, "issues_pruned"),
			Errors:       metaStrings(m, "errors"),
		}
	case EventTypeDraftCreated:
		return &DraftCreated{
			BaseEvent: *e,
			DraftID:   metaString(m, "draft_id"),
			DraftType: metaString(m, "draft_type"),
			Path:      metaString(m, "path"),
		}
	case EventTypeDraftValidated:
		return &DraftValidated{
			BaseEvent: *e,
			DraftID:   metaString(m, "draft_id"),
			Passed:    metaBool(m, "passed"),
			Issues:    metaStrings(m, "issues"),
		}
	case EventTypeDraftPushed:
		return &DraftPushed{
			BaseEvent:   *e,
			DraftID:     metaString(m, "draft_id"),
			IssueNumber: metaInt(m, "issue_number"),
		}
	case EventTypeStoriesGenerated:
		return &StoriesGenerated{
			BaseEvent:  *e,
			PlanDraft:  metaString(m, "plan_draft"),
			SpecNumber: metaInt(m, "spec_number"),
			Count:      metaInt(m, "count"),
		}
	case EventTypeWorktreeCreated:
		return &WorktreeCreated{
			BaseEvent:   *e,
			IssueNumber: metaInt(m, "issue_number"),
			Branch:      metaString(m, "branch"),
			Path:        metaString(m, "path"),
			Resumed:     metaBool(m, "resumed"),
		}
	case EventTypeWorktreeRemoved:
		return &WorktreeRemoved{
			BaseEvent:   *e,
			IssueNumber: metaInt(m, "issue_number"),
			Branch:      metaString(m, "branch"),
		}
	case EventTypeTemplatesFetched:
		return &TemplatesFetched{
			BaseEvent:  *e,
			SourceRepo: metaString(m, "source_repo"),
			FileCount:  metaInt(m, "file_count"),
		}
	case EventTypeFileChanged:
		return &FileChanged{
			BaseEvent:  *e,
			FilePath:   metaString(m, "file_path"),
			ChangeType: metaString(m, "change_type"),
		}
	default:
		return e
	}
}

func metaString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func metaInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func metaBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func metaStrings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
