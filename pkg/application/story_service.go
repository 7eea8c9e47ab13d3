package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jcttech/specstack/pkg/domain/draft"
	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/domain/issue"
	"github.com/jcttech/specstack/pkg/domain/story"
	"github.com/jcttech/specstack/pkg/domain/tracker"
	"github.com/jcttech/specstack/pkg/storage"
)

// CreatedStory is one story issue produced from a plan draft.
type CreatedStory struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
}

// StoryGenerationResult reports the story issues created from one plan.
type StoryGenerationResult struct {
	PlanDraft  string         `json:"plan_draft"`
	SpecNumber int            `json:"spec_number"`
	Created    []CreatedStory `json:"created"`
	Summary    string         `json:"summary,omitempty"`
}

// StoryService turns plan drafts into story issues and tracks task
// checkbox progress on stories already living in the tracker.
type StoryService struct {
	repo    *storage.FilesystemRepository
	tracker tracker.Tracker
	audit   *AuditService
}

func NewStoryService(repo *storage.FilesystemRepository, trk tracker.Tracker, audit *AuditService) *StoryService {
	return &StoryService{repo: repo, tracker: trk, audit: audit}
}

// Generate extracts the story blocks from a plan draft and creates one
// story issue per block. The plan is marked afterwards so a rerun does
// not duplicate the stories; once generated, the issue bodies are the
// source of truth.
func (s *StoryService) Generate(ctx context.Context, planID string) (*StoryGenerationResult, error) {
	filename, d, err := s.findPlan(planID)
	if err != nil {
		return nil, err
	}
	if d.Meta.StoriesGenerated {
		return nil, fmt.Errorf("stories were already generated from %s", d.Meta.DraftID)
	}
	if d.Meta.ParentSpec == 0 {
		return nil, fmt.Errorf("plan %s has no parent spec issue", d.Meta.DraftID)
	}

	stories := story.FromPlan(d.Body, d.Meta.ParentSpec)
	if len(stories) == 0 {
		return nil, fmt.Errorf("no story blocks found in %s", d.Meta.DraftID)
	}

	result := &StoryGenerationResult{PlanDraft: d.Meta.DraftID, SpecNumber: d.Meta.ParentSpec}
	for _, st := range stories {
		iss, err := s.tracker.Create(ctx, tracker.CreateRequest{
			Title:  st.Title,
			Body:   st.Body,
			Labels: append([]string{issue.TypeStory.Label()}, st.Labels...),
		})
		if err != nil {
			return result, fmt.Errorf("create story %q: %w", st.Title, err)
		}
		result.Created = append(result.Created, CreatedStory{Number: iss.Number, Title: iss.Title, URL: iss.URL})
	}
	result.Summary = story.BreakdownSummary(stories)

	d.Meta.StoriesGenerated = true
	d.Meta.Modified = time.Now().UTC().Format(time.RFC3339)
	rendered, err := d.Render()
	if err != nil {
		return result, err
	}
	if err := s.repo.WriteDraft(draft.TypePlan, filename, []byte(rendered)); err != nil {
		return result, err
	}

	if s.audit != nil {
		_ = s.audit.Log(events.EventTypeStoriesGenerated, events.AggregateTypeDraft, d.Meta.DraftID, map[string]interface{}{
			"plan_draft":  d.Meta.DraftID,
			"spec_number": d.Meta.ParentSpec,
			"count":       len(result.Created),
		})
	}
	return result, nil
}

// TaskProgress reports checkbox progress for a story issue.
func (s *StoryService) TaskProgress(ctx context.Context, number int) (*story.TaskCounts, error) {
	iss, err := s.tracker.View(ctx, number)
	if err != nil {
		return nil, err
	}
	counts := story.CountTasks(iss.Body)
	return &counts, nil
}

// CompleteTask checks off one task checkbox (0-based) in a story issue
// body and reports the updated progress.
func (s *StoryService) CompleteTask(ctx context.Context, number, taskIndex int) (*story.TaskCounts, error) {
	iss, err := s.tracker.View(ctx, number)
	if err != nil {
		return nil, err
	}

	updated := story.UpdateTaskStatus(iss.Body, taskIndex, true)
	if updated == iss.Body {
		return nil, fmt.Errorf("story #%d task %d not found or already complete", number, taskIndex)
	}
	if err := s.tracker.EditBody(ctx, number, updated); err != nil {
		return nil, fmt.Errorf("update story #%d: %w", number, err)
	}

	counts := story.CountTasks(updated)
	return &counts, nil
}

func (s *StoryService) findPlan(id string) (string, *draft.Draft, error) {
	files, err := s.repo.ListDraftFiles(draft.TypePlan)
	if err != nil {
		return "", nil, err
	}
	for _, name := range files {
		raw, err := s.repo.ReadDraft(draft.TypePlan, name)
		if err != nil {
			continue
		}
		d := draft.Parse(string(raw))
		if d.Meta.DraftID == id || name == id || strings.TrimSuffix(name, ".md") == id {
			return name, d, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s", draft.ErrDraftNotFound, id)
}
