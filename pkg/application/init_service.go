package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jcttech/specstack/pkg/domain/config"
	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/domain/template"
	"github.com/jcttech/specstack/pkg/gitutil"
	"github.com/jcttech/specstack/pkg/storage"
)

const docsConstitutionSeed = `# Project Constitution

## Core Principles

1. [Define your project's core principles here]
2. [These are non-negotiable rules that guide all development]

## Documentation Rules

### Architecture Updates
- **On Plan**: When ` + "`specstack stories`" + ` breaks a plan into Stories,
  update architecture.md with new components, services, and integrations
- **On Implement**: When story work completes, verify architecture matches
  implementation. Update if different.

### Decision Records
- Record all significant technical decisions in decisions.md
- Link decisions to related Epic/Spec/Story issues
- Mark architectural impact for diagram updates

### Diagram Updates
- Update architecture.excalidraw when:
  - New services or components added
  - Integration patterns change
  - Major refactoring occurs

## Quality Standards

- [Define code quality standards]
- [Testing requirements]
- [Documentation requirements]
`

const docsArchitectureSeed = `# Architecture Overview

## System Components

_Document your system's major components here._

## Data Flow

_Describe how data flows through your system._

## External Integrations

_List external services and APIs._

## Technology Stack

- **Language**:
- **Framework**:
- **Database**:
- **Infrastructure**:

## Diagrams

See ` + "`architecture.excalidraw`" + ` for visual diagrams.

---

_Last updated: [Date]_
`

const docsDecisionsSeed = `# Architecture Decision Records

## Index

| ADR | Title | Status | Date | Related |
|-----|-------|--------|------|---------|

---

_No decisions recorded yet._

---

## Template

When recording a decision, use this format:

` + "```markdown" + `
## ADR-NNN: [Decision Title]

**Status**: proposed | accepted | deprecated | superseded
**Date**: YYYY-MM-DD
**Related Issues**: #issue1, #issue2

### Context
[Why is this decision needed?]

### Options Considered
1. **Option A** - Pros/Cons
2. **Option B** - Pros/Cons

### Decision
[What was decided and why]

### Consequences
- [Positive and negative consequences]

### Architecture Impact
- **Material**: Yes/No
- **Diagram Update**: Required/Not Required
` + "```" + `
`

// InitOptions controls which optional steps run during workspace setup.
type InitOptions struct {
	SkipOrgTemplates    bool
	SkipAssistantConfig bool
}

// InitResult reports what a workspace setup run created or skipped.
type InitResult struct {
	Root               string                `json:"root"`
	AlreadyInitialized bool                  `json:"already_initialized"`
	Repository         string                `json:"repository,omitempty"`
	DocsCreated        []string              `json:"docs_created,omitempty"`
	Templates          *template.FetchResult `json:"templates,omitempty"`
	Settings           *SettingsResult       `json:"settings,omitempty"`
	Warnings           []string              `json:"warnings,omitempty"`
}

// InitService scaffolds the .specify workspace, the .docs folder, and the
// assistant settings. Rerunning it is safe: existing files are left alone
// and only missing pieces are created.
type InitService struct {
	repo      *storage.FilesystemRepository
	cfg       *config.Config
	templates *TemplateService
	settings  *SettingsService
	audit     *AuditService
}

// NewInitService wires a workspace initializer. templates and settings may
// be nil when the caller has no template fetcher or skips assistant setup.
func NewInitService(repo *storage.FilesystemRepository, cfg *config.Config, templates *TemplateService, settings *SettingsService, audit *AuditService) *InitService {
	return &InitService{repo: repo, cfg: cfg, templates: templates, settings: settings, audit: audit}
}

// Initialize creates the workspace structure. Optional steps that fail
// (template fetch, assistant settings) are collected as warnings so a
// missing network or token never leaves the workspace half-created.
func (s *InitService) Initialize(ctx context.Context, opts InitOptions) (*InitResult, error) {
	result := &InitResult{Root: s.repo.Root()}
	result.AlreadyInitialized = s.repo.IsInitialized()

	if err := s.repo.Initialize(); err != nil {
		return nil, fmt.Errorf("create workspace structure: %w", err)
	}
	if !result.AlreadyInitialized {
		if err := s.repo.SaveConfig(s.cfg); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	created, err := s.scaffoldDocs()
	if err != nil {
		return nil, err
	}
	result.DocsCreated = created

	if remote, err := gitutil.ResolveRemote(ctx, s.repo.Root()); err == nil {
		result.Repository = remote.String()
	}

	if s.templates != nil && s.cfg.OrgTemplates.Enabled && !opts.SkipOrgTemplates {
		fetched, err := s.templates.Fetch(ctx)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("org templates: %v", err))
		} else {
			result.Templates = fetched
		}
	}

	if s.settings != nil && !opts.SkipAssistantConfig {
		settings, err := s.settings.Configure()
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("assistant settings: %v", err))
		} else if settings.Path != "" {
			result.Settings = settings
		}
	}

	if s.audit != nil {
		_ = s.audit.Log(events.EventTypeWorkspaceInitialized, events.AggregateTypeWorkspace, "workspace", map[string]interface{}{
			"root":                result.Root,
			"already_initialized": result.AlreadyInitialized,
			"docs_created":        len(result.DocsCreated),
		})
	}

	return result, nil
}

// scaffoldDocs writes the documentation seed files named in the config,
// skipping any that already exist. Returns the paths it created, relative
// to the workspace root.
func (s *InitService) scaffoldDocs() ([]string, error) {
	seeds := []struct {
		rel     string
		content string
	}{
		{s.cfg.Docs.Constitution, docsConstitutionSeed},
		{s.cfg.Docs.ArchitectureMD, docsArchitectureSeed},
		{s.cfg.Docs.Decisions, docsDecisionsSeed},
	}

	var created []string
	for _, seed := range seeds {
		if seed.rel == "" {
			continue
		}
		abs := filepath.Join(s.repo.Root(), filepath.FromSlash(seed.rel))
		if _, err := os.Stat(abs); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0700); err != nil {
			return nil, fmt.Errorf("create docs directory: %w", err)
		}
		if err := os.WriteFile(abs, []byte(seed.content), 0600); err != nil {
			return nil, fmt.Errorf("write %s: %w", seed.rel, err)
		}
		created = append(created, seed.rel)
	}
	return created, nil
}
