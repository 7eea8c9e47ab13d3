package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/domain/tracker"
	"github.com/jcttech/specstack/pkg/gitutil"
)

// WorktreeService manages per-story git worktrees, naming branches from
// the story issue title.
type WorktreeService struct {
	trees   *gitutil.Worktrees
	tracker tracker.Tracker
	audit   *AuditService
}

func NewWorktreeService(root string, trk tracker.Tracker, audit *AuditService) *WorktreeService {
	return &WorktreeService{trees: gitutil.NewWorktrees(root), tracker: trk, audit: audit}
}

// Start creates or resumes the worktree for a story issue. The branch
// name comes from the issue title, so the issue must exist.
func (s *WorktreeService) Start(ctx context.Context, number int, base string) (*gitutil.CreateResult, error) {
	iss, err := s.tracker.View(ctx, number)
	if errors.Is(err, tracker.ErrNotFound) {
		return nil, fmt.Errorf("issue #%d not found; push the story before starting work on it", number)
	}
	if err != nil {
		return nil, err
	}

	result, err := s.trees.Create(ctx, number, iss.Title, base)
	if err != nil {
		return nil, err
	}
	if result.Created && s.audit != nil {
		_ = s.audit.Log(events.EventTypeWorktreeCreated, events.AggregateTypeWorktree, result.Branch, map[string]interface{}{
			"branch":       result.Branch,
			"issue_number": number,
			"path":         result.Path,
			"resumed":      result.Resumed,
			"from_remote":  result.FromRemote,
		})
	}
	return result, nil
}

// Finish removes the worktree for a story. Dirty trees are refused
// unless force is set; the result carries the reason either way.
func (s *WorktreeService) Finish(ctx context.Context, number int, force bool) (*gitutil.RemoveResult, error) {
	result, err := s.trees.Remove(ctx, number, force)
	if err != nil {
		return result, err
	}
	if result.Removed && s.audit != nil {
		_ = s.audit.Log(events.EventTypeWorktreeRemoved, events.AggregateTypeWorktree, result.Branch, map[string]interface{}{
			"branch":       result.Branch,
			"issue_number": number,
			"forced":       force,
		})
	}
	return result, nil
}

// List returns every story worktree with its working-tree status.
func (s *WorktreeService) List(ctx context.Context) ([]gitutil.Worktree, error) {
	return s.trees.List(ctx)
}

// CleanSkip names a worktree the sweep left in place and why.
type CleanSkip struct {
	Branch string `json:"branch"`
	Reason string `json:"reason"`
}

// CleanResult reports the outcome of a worktree sweep.
type CleanResult struct {
	Removed []string    `json:"removed"`
	Skipped []CleanSkip `json:"skipped,omitempty"`
}

// Clean removes story worktrees with no local changes and no commits
// ahead of their origin branch. Dirty or unpushed trees are skipped.
func (s *WorktreeService) Clean(ctx context.Context) (*CleanResult, error) {
	trees, err := s.trees.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &CleanResult{Removed: []string{}}
	for _, wt := range trees {
		if wt.Status != nil && !wt.Status.Clean {
			result.Skipped = append(result.Skipped, CleanSkip{Branch: wt.Branch, Reason: "dirty"})
			continue
		}
		if ahead := s.trees.CommitsAhead(ctx, wt.IssueNumber); ahead > 0 {
			result.Skipped = append(result.Skipped, CleanSkip{Branch: wt.Branch, Reason: "unpushed_commits"})
			continue
		}

		rm, err := s.Finish(ctx, wt.IssueNumber, false)
		if err != nil || !rm.Removed {
			reason := "error"
			if rm != nil && rm.Reason != "" {
				reason = rm.Reason
			}
			result.Skipped = append(result.Skipped, CleanSkip{Branch: wt.Branch, Reason: reason})
			continue
		}
		result.Removed = append(result.Removed, rm.Branch)
	}
	return result, nil
}
