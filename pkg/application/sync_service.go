package application

import (
	"context"
	"fmt"
	"time"

	"github.com/jcttech/specstack/pkg/domain/config"
	"github.com/jcttech/specstack/pkg/domain/draft"
	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/domain/hierarchy"
	"github.com/jcttech/specstack/pkg/domain/tracker"
	"github.com/jcttech/specstack/pkg/storage"
)

// SyncResult summarizes one sync run.
type SyncResult struct {
	Repository   string        `json:"repository"`
	IssuesTotal  int           `json:"issues_total"`
	IssuesCached int           `json:"issues_cached"`
	IssuesPruned int           `json:"issues_pruned"`
	Epics        int           `json:"epics"`
	IndexPath    string        `json:"index_path"`
	Duration     time.Duration `json:"-"`
	Errors       []string      `json:"errors,omitempty"`
}

// SyncService refreshes the local issue cache and the rendered hierarchy
// index from the tracker.
type SyncService struct {
	tracker    tracker.Tracker
	repo       *storage.FilesystemRepository
	cfg        *config.Config
	repository string
	audit      *AuditService
}

// NewSyncService builds a sync service. repository is the "owner/repo"
// string rendered into index links; audit may be nil.
func NewSyncService(trk tracker.Tracker, repo *storage.FilesystemRepository, cfg *config.Config, repository string, audit *AuditService) *SyncService {
	return &SyncService{
		tracker:    trk,
		repo:       repo,
		cfg:        cfg,
		repository: repository,
		audit:      audit,
	}
}

// Sync lists every issue in the tracker, rewrites the per-issue cache,
// prunes stale closed issues, and regenerates the index document. Cache
// write failures are soft and collected in Errors; a failed listing or
// index write fails the run.
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{Repository: s.repository}

	issues, err := s.tracker.List(ctx, tracker.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	result.IssuesTotal = len(issues)

	if s.cfg.IssueTracking.CacheIssues {
		for i := range issues {
			if _, err := s.repo.CacheIssue(&issues[i]); err != nil {
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.IssuesCached++
		}

		pruned, err := s.repo.PruneCache(s.cfg.IssueTracking.CacheClosedDays)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
		result.IssuesPruned = pruned
	}

	tree := hierarchy.Build(issues)
	result.Epics = len(tree.Epics)

	content := hierarchy.RenderIndex(tree, hierarchy.IndexMeta{
		Repo:     s.repository,
		SyncedAt: time.Now(),
		Drafts:   s.pendingDrafts(),
	})
	if err := s.repo.WriteIndex(content); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}
	result.IndexPath = s.repo.IndexPath()
	result.Duration = time.Since(start)

	if s.audit != nil {
		_ = s.audit.Log(events.EventTypeSyncCompleted, events.AggregateTypeSync, s.repository, map[string]interface{}{
			"repository":    s.repository,
			"issues_cached": result.IssuesCached,
			"issues_pruned": result.IssuesPruned,
			"errors":        result.Errors,
		})
	}

	return result, nil
}

// pendingDrafts collects unpushed drafts for the index drafts table.
// Draft read failures leave the draft out of the table rather than
// failing the sync.
func (s *SyncService) pendingDrafts() []hierarchy.DraftEntry {
	var entries []hierarchy.DraftEntry
	for _, t := range []draft.Type{draft.TypeSpec, draft.TypePlan} {
		files, err := s.repo.ListDraftFiles(t)
		if err != nil {
			continue
		}
		for _, name := range files {
			content, err := s.repo.ReadDraft(t, name)
			if err != nil {
				continue
			}
			d := draft.Parse(string(content))
			if d.Meta.Status == "pushed" {
				continue
			}
			entries = append(entries, hierarchy.DraftEntry{
				Name:  name,
				Type:  string(t),
				Ready: d.Meta.ReadyToPush,
			})
		}
	}
	return entries
}
