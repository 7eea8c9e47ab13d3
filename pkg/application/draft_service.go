package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jcttech/specstack/pkg/domain/config"
	"github.com/jcttech/specstack/pkg/domain/draft"
	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/domain/tracker"
	"github.com/jcttech/specstack/pkg/storage"
)

const draftFrontmatterSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["draft_id", "type", "title", "status"],
	"properties": {
		"draft_id": {"type": "string", "minLength": 1},
		"type": {"enum": ["spec", "plan"]},
		"title": {"type": "string", "minLength": 1},
		"created": {"type": "string"},
		"modified": {"type": "string"},
		"status": {"enum": ["draft", "ready", "pushed"]},
		"ready_to_push": {"type": "boolean"},
		"parent_epic": {"type": ["integer", "null"], "minimum": 0},
		"parent_spec": {"type": "integer", "minimum": 0},
		"stories_generated": {"type": "boolean"},
		"github_issue": {"type": "integer", "minimum": 1},
		"pushed_at": {"type": "string"},
		"validation": {"type": "object"}
	}
}`

var draftSchemaLoader = gojsonschema.NewStringLoader(draftFrontmatterSchema)

// DraftInfo is a summary row for draft listings.
type DraftInfo struct {
	DraftID     string `json:"draft_id"`
	Filename    string `json:"filename"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	Ready       bool   `json:"ready_to_push"`
	IssueNumber int    `json:"issue_number,omitempty"`
	Path        string `json:"path,omitempty"`
}

// DraftValidation pairs a draft with its validation outcome.
type DraftValidation struct {
	DraftID  string           `json:"draft_id"`
	Filename string           `json:"filename"`
	Result   draft.Validation `json:"result"`
}

// PushResult reports a draft that became a tracker issue.
type PushResult struct {
	DraftID     string `json:"draft_id"`
	IssueNumber int    `json:"issue_number"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	ArchivedTo  string `json:"archived_to"`
}

// DraftService manages local spec and plan drafts: scaffolding,
// validation against the required sections and the frontmatter schema,
// and pushing validated drafts to the tracker.
type DraftService struct {
	repo    *storage.FilesystemRepository
	tracker tracker.Tracker
	cfg     *config.Config
	audit   *AuditService
}

func NewDraftService(repo *storage.FilesystemRepository, trk tracker.Tracker, cfg *config.Config, audit *AuditService) *DraftService {
	return &DraftService{repo: repo, tracker: trk, cfg: cfg, audit: audit}
}

// NewSpec scaffolds a spec draft. parentEpic of 0 leaves the parent
// unset; validation will flag it when drafts.require_parent is on.
func (s *DraftService) NewSpec(title, description string, parentEpic int) (*DraftInfo, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("draft title cannot be empty")
	}

	files, err := s.repo.ListDraftFiles(draft.TypeSpec)
	if err != nil {
		return nil, err
	}
	filename, content := draft.NewSpecContent(draft.NextNumber(files), title, description, parentEpic)

	if err := s.repo.WriteDraft(draft.TypeSpec, filename, []byte(content)); err != nil {
		return nil, err
	}
	return s.created(draft.TypeSpec, filename, content)
}

// NewPlan scaffolds a plan draft linked to a pushed spec issue. When the
// spec title is not supplied it is looked up from the tracker; a failed
// lookup falls back to the issue number.
func (s *DraftService) NewPlan(ctx context.Context, specNumber int, specTitle string) (*DraftInfo, error) {
	if specNumber <= 0 {
		return nil, fmt.Errorf("plan drafts need a parent spec issue number")
	}
	if specTitle == "" {
		if iss, err := s.tracker.View(ctx, specNumber); err == nil {
			specTitle = strings.TrimSpace(strings.TrimPrefix(iss.Title, "[Spec]"))
		} else {
			specTitle = fmt.Sprintf("Spec %d", specNumber)
		}
	}

	files, err := s.repo.ListDraftFiles(draft.TypePlan)
	if err != nil {
		return nil, err
	}
	filename, content := draft.NewPlanContent(draft.NextNumber(files), specNumber, specTitle)

	if err := s.repo.WriteDraft(draft.TypePlan, filename, []byte(content)); err != nil {
		return nil, err
	}
	return s.created(draft.TypePlan, filename, content)
}

func (s *DraftService) created(t draft.Type, filename, content string) (*DraftInfo, error) {
	d := draft.Parse(content)
	path, err := s.repo.DraftPath(t, filename)
	if err != nil {
		return nil, err
	}

	s.logDraft(events.EventTypeDraftCreated, d.Meta.DraftID, map[string]interface{}{
		"draft_id":   d.Meta.DraftID,
		"draft_type": string(t),
		"path":       path,
	})

	return &DraftInfo{
		DraftID:  d.Meta.DraftID,
		Filename: filename,
		Type:     string(t),
		Title:    d.Meta.Title,
		Status:   d.Meta.Status,
		Ready:    d.Meta.ReadyToPush,
		Path:     path,
	}, nil
}

// List returns every draft of both types, spec drafts first.
func (s *DraftService) List() ([]DraftInfo, error) {
	var infos []DraftInfo
	for _, t := range []draft.Type{draft.TypeSpec, draft.TypePlan} {
		files, err := s.repo.ListDraftFiles(t)
		if err != nil {
			return nil, err
		}
		for _, name := range files {
			raw, err := s.repo.ReadDraft(t, name)
			if err != nil {
				return nil, err
			}
			d := draft.Parse(string(raw))
			infos = append(infos, DraftInfo{
				DraftID:     d.Meta.DraftID,
				Filename:    name,
				Type:        string(t),
				Title:       d.Meta.Title,
				Status:      d.Meta.Status,
				Ready:       d.Meta.ReadyToPush,
				IssueNumber: d.Meta.GitHubIssue,
			})
		}
	}
	return infos, nil
}

// Validate runs the completeness and schema checks for one draft,
// records the outcome in its frontmatter, and returns it.
func (s *DraftService) Validate(id string) (*DraftValidation, error) {
	t, filename, d, content, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return s.validateAndRecord(t, filename, d, content)
}

// ValidateAll validates every draft that has not been pushed yet.
func (s *DraftService) ValidateAll() ([]DraftValidation, error) {
	var reports []DraftValidation
	for _, t := range []draft.Type{draft.TypeSpec, draft.TypePlan} {
		files, err := s.repo.ListDraftFiles(t)
		if err != nil {
			return nil, err
		}
		for _, name := range files {
			raw, err := s.repo.ReadDraft(t, name)
			if err != nil {
				return nil, err
			}
			d := draft.Parse(string(raw))
			if d.Meta.Status == "pushed" {
				continue
			}
			report, err := s.validateAndRecord(t, name, d, string(raw))
			if err != nil {
				return nil, err
			}
			reports = append(reports, *report)
		}
	}
	return reports, nil
}

func (s *DraftService) validateAndRecord(t draft.Type, filename string, d *draft.Draft, content string) (*DraftValidation, error) {
	v := s.validate(d, content)
	d.ApplyValidation(v)

	rendered, err := d.Render()
	if err != nil {
		return nil, err
	}
	if err := s.repo.WriteDraft(t, filename, []byte(rendered)); err != nil {
		return nil, err
	}

	s.logDraft(events.EventTypeDraftValidated, d.Meta.DraftID, map[string]interface{}{
		"draft_id": d.Meta.DraftID,
		"valid":    v.Valid,
		"errors":   len(v.Errors),
		"warnings": len(v.Warnings),
	})

	return &DraftValidation{DraftID: d.Meta.DraftID, Filename: filename, Result: v}, nil
}

// validate layers the frontmatter schema check over the domain
// completeness check.
func (s *DraftService) validate(d *draft.Draft, content string) draft.Validation {
	v := draft.Validate(d, s.cfg.Drafts.RequireParent)

	doc := gojsonschema.NewGoLoader(draft.FrontmatterMap(content))
	result, err := gojsonschema.Validate(draftSchemaLoader, doc)
	switch {
	case err != nil:
		v.Errors = append(v.Errors, "frontmatter: "+err.Error())
	case !result.Valid():
		for _, desc := range result.Errors() {
			v.Errors = append(v.Errors, "frontmatter: "+desc.String())
		}
	}
	v.Valid = len(v.Errors) == 0
	return v
}

// Push validates a draft, creates the tracker issue it describes, and
// archives the draft under the new issue number.
func (s *DraftService) Push(ctx context.Context, id string) (*PushResult, error) {
	t, filename, d, content, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if d.Meta.Status == "pushed" {
		return nil, fmt.Errorf("draft %s was already pushed as issue #%d", d.Meta.DraftID, d.Meta.GitHubIssue)
	}

	v := s.validate(d, content)
	if !v.Valid {
		return nil, fmt.Errorf("draft %s is not ready to push: %s", d.Meta.DraftID, strings.Join(v.Errors, "; "))
	}

	fields := draft.MapToIssue(d)
	iss, err := s.tracker.Create(ctx, tracker.CreateRequest{
		Title:  fields.Title,
		Body:   fields.Body,
		Labels: fields.Labels,
	})
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	d.MarkPushed(iss.Number)
	rendered, err := d.Render()
	if err != nil {
		return nil, err
	}
	archived, err := s.repo.ArchiveDraft(t, filename, []byte(rendered), iss.Number)
	if err != nil {
		return nil, fmt.Errorf("archive draft: %w", err)
	}

	s.logDraft(events.EventTypeDraftPushed, d.Meta.DraftID, map[string]interface{}{
		"draft_id":     d.Meta.DraftID,
		"issue_number": iss.Number,
	})

	return &PushResult{
		DraftID:     d.Meta.DraftID,
		IssueNumber: iss.Number,
		Title:       iss.Title,
		URL:         iss.URL,
		ArchivedTo:  archived,
	}, nil
}

// find locates a draft by draft_id, filename, or filename without the
// .md extension.
func (s *DraftService) find(id string) (draft.Type, string, *draft.Draft, string, error) {
	for _, t := range []draft.Type{draft.TypeSpec, draft.TypePlan} {
		files, err := s.repo.ListDraftFiles(t)
		if err != nil {
			return "", "", nil, "", err
		}
		for _, name := range files {
			raw, err := s.repo.ReadDraft(t, name)
			if err != nil {
				continue
			}
			d := draft.Parse(string(raw))
			if d.Meta.DraftID == id || name == id || strings.TrimSuffix(name, ".md") == id {
				return t, name, d, string(raw), nil
			}
		}
	}
	return "", "", nil, "", fmt.Errorf("%w: %s", draft.ErrDraftNotFound, id)
}

func (s *DraftService) logDraft(eventType, draftID string, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Log(eventType, events.AggregateTypeDraft, draftID, metadata)
}
