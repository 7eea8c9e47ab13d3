package application

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jcttech/specstack/pkg/domain/config"
	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/domain/template"
	"github.com/jcttech/specstack/pkg/domain/tracker"
	"github.com/jcttech/specstack/pkg/storage"
)

// TemplateService mirrors organization issue templates from the shared
// source repository into the local workspace.
type TemplateService struct {
	fetcher template.Fetcher
	repo    *storage.FilesystemRepository
	cfg     *config.Config
	audit   *AuditService
}

func NewTemplateService(fetcher template.Fetcher, repo *storage.FilesystemRepository, cfg *config.Config, audit *AuditService) *TemplateService {
	return &TemplateService{fetcher: fetcher, repo: repo, cfg: cfg, audit: audit}
}

// Fetch downloads the template files and records a manifest of what was
// stored. Per-file failures land in the result so one bad file does not
// lose the rest; only a failed directory listing aborts the run.
func (s *TemplateService) Fetch(ctx context.Context) (*template.FetchResult, error) {
	source := s.cfg.TemplateSource()
	result := &template.FetchResult{SourceRepo: source, Fetched: []string{}, Errors: []string{}}

	paths, err := s.fetcher.List(ctx, s.cfg.OrgTemplates.TemplatePath)
	if err != nil {
		return nil, err
	}

	for _, p := range paths {
		name := path.Base(p)
		data, err := s.fetcher.File(ctx, p)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if err := s.repo.SaveOrgTemplate(name, data); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		result.Fetched = append(result.Fetched, name)
	}

	if s.cfg.OrgTemplates.IncludePRTemplate {
		s.fetchPRTemplate(ctx, result)
	}

	manifest := &template.Manifest{
		SourceRepo:   source,
		TemplatePath: s.cfg.OrgTemplates.TemplatePath,
		Files:        result.Fetched,
		FetchedAt:    time.Now().UTC(),
	}
	if err := s.repo.SaveTemplateManifest(manifest); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("manifest: %v", err))
	}

	if s.audit != nil {
		_ = s.audit.Log(events.EventTypeTemplatesFetched, events.AggregateTypeWorkspace, source, map[string]interface{}{
			"source_repo": source,
			"file_count":  len(result.Fetched),
			"errors":      len(result.Errors),
		})
	}
	return result, nil
}

// fetchPRTemplate tries the conventional locations in order. A source
// with no pull request template anywhere is not an error.
func (s *TemplateService) fetchPRTemplate(ctx context.Context, result *template.FetchResult) {
	for _, p := range template.PRTemplatePaths {
		data, err := s.fetcher.File(ctx, p)
		if errors.Is(err, tracker.ErrNotFound) {
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("pull request template: %v", err))
			return
		}
		if err := s.repo.SaveOrgTemplate(template.PRTemplateFile, data); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("pull request template: %v", err))
			return
		}
		result.Fetched = append(result.Fetched, template.PRTemplateFile)
		return
	}
}

// Parsed returns the cached issue templates parsed into their field
// schemas, keyed by filename. Markdown templates are skipped; they
// carry no form fields.
func (s *TemplateService) Parsed() (map[string]*template.IssueTemplate, error) {
	names, err := s.repo.ListOrgTemplates()
	if err != nil {
		return nil, err
	}

	parsed := make(map[string]*template.IssueTemplate, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml") {
			continue
		}
		data, err := s.repo.ReadOrgTemplate(name)
		if err != nil {
			return nil, err
		}
		parsed[name] = template.ParseIssueTemplate(data)
	}
	return parsed, nil
}

// Manifest returns what the last fetch stored, or nil when no fetch ran.
func (s *TemplateService) Manifest() (*template.Manifest, error) {
	return s.repo.LoadTemplateManifest()
}
