package draft

import (
	"strings"
	"testing"
)

func TestTypeRequiredSections(t *testing.T) {
	spec := TypeSpec.RequiredSections()
	if len(spec) != 3 || spec[0] != "Overview" || spec[2] != "Acceptance Criteria" {
		t.Errorf("unexpected spec sections: %v", spec)
	}
	plan := TypePlan.RequiredSections()
	if len(plan) != 2 || plan[0] != "Implementation Approach" || plan[1] != "Stories" {
		t.Errorf("unexpected plan sections: %v", plan)
	}
	if got := Type("other").RequiredSections(); got != nil {
		t.Errorf("expected nil for unknown type, got %v", got)
	}
}

func TestTypeFilename(t *testing.T) {
	if got := TypeSpec.Filename(7, "user-auth"); got != "007-user-auth.md" {
		t.Errorf("expected 007-user-auth.md, got %s", got)
	}
	if got := TypePlan.Filename(12, "user-auth"); got != "012-user-auth-plan.md" {
		t.Errorf("expected 012-user-auth-plan.md, got %s", got)
	}
	if got := TypeSpec.CacheFilename(42); got != "spec-42.md" {
		t.Errorf("expected spec-42.md, got %s", got)
	}
}

func TestNextNumber(t *testing.T) {
	if got := NextNumber(nil); got != 1 {
		t.Errorf("expected 1 for empty dir, got %d", got)
	}
	names := []string{"003-auth.md", "001-search.md", "README.md", "010-api-plan.md"}
	if got := NextNumber(names); got != 11 {
		t.Errorf("expected 11, got %d", got)
	}
}

func TestShortNameAndID(t *testing.T) {
	short := ShortName("User Auth: OAuth2 Support!")
	if short != "user-auth-oauth2-support" {
		t.Errorf("unexpected short name: %s", short)
	}
	if got := ID(TypeSpec, 3, short); got != "spec-003-user-auth-oauth2-support" {
		t.Errorf("unexpected draft id: %s", got)
	}
}

func TestNewSpecContent(t *testing.T) {
	filename, content := NewSpecContent(1, "User Auth", "", 0)
	if filename != "001-user-auth.md" {
		t.Errorf("expected 001-user-auth.md, got %s", filename)
	}

	d := Parse(content)
	if d.Meta.DraftID != "spec-001-user-auth" {
		t.Errorf("unexpected draft_id: %s", d.Meta.DraftID)
	}
	if d.Meta.Type != TypeSpec {
		t.Errorf("expected spec type, got %s", d.Meta.Type)
	}
	if d.Meta.Status != "draft" || d.Meta.ReadyToPush {
		t.Errorf("expected unpushed draft status, got %s ready=%v", d.Meta.Status, d.Meta.ReadyToPush)
	}
	if d.Meta.ParentEpic != 0 {
		t.Errorf("expected no parent epic, got %d", d.Meta.ParentEpic)
	}
	if d.Meta.Validation == nil || d.Meta.Validation.Valid {
		t.Error("expected initial validation with valid=false")
	}
	if !strings.Contains(content, "parent_epic: null") {
		t.Error("expected explicit parent_epic: null")
	}
	if !strings.Contains(d.Body, "# Spec: User Auth") {
		t.Error("missing H1 title")
	}
	if !strings.Contains(d.Body, "[Describe the feature or change being specified...]") {
		t.Error("missing default overview placeholder")
	}
}

func TestNewSpecContentWithParentAndDescription(t *testing.T) {
	_, content := NewSpecContent(2, "Search", "Full-text search over issues.", 7)
	d := Parse(content)
	if d.Meta.ParentEpic != 7 {
		t.Errorf("expected parent epic 7, got %d", d.Meta.ParentEpic)
	}
	if !strings.Contains(d.Sections()["Overview"], "Full-text search over issues.") {
		t.Error("description not placed in Overview")
	}
}

func TestNewPlanContent(t *testing.T) {
	filename, content := NewPlanContent(1, 12, "User Auth")
	if filename != "001-user-auth-plan.md" {
		t.Errorf("expected 001-user-auth-plan.md, got %s", filename)
	}

	d := Parse(content)
	if d.Meta.Type != TypePlan {
		t.Errorf("expected plan type, got %s", d.Meta.Type)
	}
	if d.Meta.Title != "Plan: User Auth" {
		t.Errorf("unexpected title: %s", d.Meta.Title)
	}
	if d.Meta.ParentSpec != 12 {
		t.Errorf("expected parent spec 12, got %d", d.Meta.ParentSpec)
	}
	if d.Meta.StoriesGenerated {
		t.Error("expected stories_generated false")
	}
	if !strings.Contains(d.Body, "**Parent Spec**: #12") {
		t.Error("missing parent spec marker")
	}
	if !strings.Contains(d.Body, "### Story 1: [Story Title]") {
		t.Error("missing story template")
	}
}

func TestParseMissingFrontmatter(t *testing.T) {
	d := Parse("# Just a file\n\n## Overview\n\nHi.\n")
	if d.Meta.Type != TypeSpec {
		t.Errorf("expected default spec type, got %s", d.Meta.Type)
	}
	if !strings.Contains(d.Body, "# Just a file") {
		t.Error("body should be the whole content")
	}
}

func TestSections(t *testing.T) {
	d := Parse("# Title line\n\n## Overview\n\nSome text.\n\n## Requirements\n\n### Functional Requirements\n\n- [ ] do it\n")
	sections := d.Sections()
	if sections["Overview"] != "Some text." {
		t.Errorf("unexpected Overview: %q", sections["Overview"])
	}
	if !strings.Contains(sections["Requirements"], "### Functional Requirements") {
		t.Errorf("H3 content should stay inside its H2 section: %q", sections["Requirements"])
	}
	if _, ok := sections["Title line"]; ok {
		t.Error("H1 must not become a section")
	}
}

func TestValidateFreshSpecFails(t *testing.T) {
	_, content := NewSpecContent(1, "User Auth", "", 0)
	v := Validate(Parse(content), true)

	if v.Valid {
		t.Fatal("fresh template must not validate")
	}
	wantErrors := []string{
		"Section 'Overview' needs content",
		"No parent Epic specified - select or create an Epic first",
	}
	for _, w := range wantErrors {
		found := false
		for _, e := range v.Errors {
			if e == w {
				found = true
			}
		}
		if !found {
			t.Errorf("missing expected error %q in %v", w, v.Errors)
		}
	}
	foundPlaceholder := false
	for _, w := range v.Warnings {
		if w == "Contains placeholder requirements or criteria" {
			foundPlaceholder = true
		}
	}
	if !foundPlaceholder {
		t.Errorf("expected placeholder warning, got %v", v.Warnings)
	}
	if v.LastCheck == "" {
		t.Error("expected last_check timestamp")
	}
}

func completeSpecContent() string {
	return `---
draft_id: spec-001-user-auth
type: spec
title: "User Auth"
created: "2026-08-01T10:00:00Z"
modified: "2026-08-01T10:00:00Z"
status: draft
ready_to_push: false
parent_epic: 42
validation:
  valid: false
  errors: []
  warnings: []
---

# Spec: User Auth

## Overview

Add OAuth2 login so users can authenticate with their org identity.

## Requirements

### Functional Requirements

- [ ] Support the authorization code flow
- [ ] Persist refresh tokens securely

## Acceptance Criteria

- [ ] A user can log in via the org IdP
- [ ] Sessions survive a browser restart

## Technical Notes

Uses the existing session middleware.
`
}

func TestValidateCompleteSpecPasses(t *testing.T) {
	v := Validate(Parse(completeSpecContent()), true)
	if !v.Valid {
		t.Fatalf("expected pass, got errors: %v", v.Errors)
	}
	if len(v.Errors) != 0 || len(v.Warnings) != 0 {
		t.Errorf("expected clean report, got errors=%v warnings=%v", v.Errors, v.Warnings)
	}
}

func TestValidateNeedsClarificationWarns(t *testing.T) {
	content := strings.Replace(completeSpecContent(),
		"Uses the existing session middleware.",
		"[NEEDS CLARIFICATION: which IdP?]", 1)
	v := Validate(Parse(content), true)
	if !v.Valid {
		t.Fatalf("clarification markers must warn, not block: %v", v.Errors)
	}
	found := false
	for _, w := range v.Warnings {
		if strings.Contains(w, "[NEEDS CLARIFICATION]") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected clarification warning, got %v", v.Warnings)
	}
}

func TestValidatePlaceholderMarkerWarns(t *testing.T) {
	content := strings.Replace(completeSpecContent(),
		"Uses the existing session middleware.",
		"Session handling is [TBD].", 1)
	v := Validate(Parse(content), true)
	if !v.Valid {
		t.Fatalf("placeholder markers must warn, not block: %v", v.Errors)
	}
	found := false
	for _, w := range v.Warnings {
		if strings.Contains(w, "[TBD]") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected [TBD] warning, got %v", v.Warnings)
	}
}

func TestValidateSpecWithoutParent(t *testing.T) {
	content := strings.Replace(completeSpecContent(), "parent_epic: 42", "parent_epic: null", 1)

	v := Validate(Parse(content), true)
	if v.Valid {
		t.Fatal("expected failure when parent required")
	}

	v = Validate(Parse(content), false)
	if !v.Valid {
		t.Fatalf("expected pass when parent not required, got %v", v.Errors)
	}
}

func TestValidatePlanMissingStories(t *testing.T) {
	content := `---
draft_id: plan-001-user-auth
type: plan
title: "Plan: User Auth"
created: "2026-08-01T10:00:00Z"
modified: "2026-08-01T10:00:00Z"
status: draft
parent_spec: 12
stories_generated: false
---

# Implementation Plan: User Auth

## Implementation Approach

Incremental rollout behind a feature flag.
`
	v := Validate(Parse(content), true)
	if v.Valid {
		t.Fatal("expected failure")
	}
	foundMissing := false
	for _, e := range v.Errors {
		if e == "Missing required section: Stories" {
			foundMissing = true
		}
		if strings.Contains(e, "parent Epic") {
			t.Errorf("plan drafts must not require a parent epic: %v", v.Errors)
		}
	}
	if !foundMissing {
		t.Errorf("expected missing Stories error, got %v", v.Errors)
	}
}

func TestApplyValidationAndRender(t *testing.T) {
	d := Parse(completeSpecContent())
	v := Validate(d, true)
	d.ApplyValidation(v)

	if !d.Meta.ReadyToPush {
		t.Error("expected ready_to_push after passing validation")
	}
	if d.Meta.Status != "ready" {
		t.Errorf("expected ready status, got %s", d.Meta.Status)
	}
	if d.Meta.Modified == "" {
		t.Error("expected modified timestamp update")
	}

	out, err := d.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	reparsed := Parse(out)
	if reparsed.Meta.Validation == nil || !reparsed.Meta.Validation.Valid {
		t.Error("validation result lost in render round-trip")
	}
}

func TestApplyValidationRevertsReadyOnFailure(t *testing.T) {
	content := strings.Replace(completeSpecContent(), "status: draft", "status: ready", 1)
	d := Parse(content)
	d.Body = strings.Replace(d.Body, "Add OAuth2 login so users can authenticate with their org identity.", "", 1)

	d.ApplyValidation(Validate(d, true))
	if d.Meta.Status != "draft" {
		t.Errorf("failing validation must demote to draft, got %s", d.Meta.Status)
	}
	if d.Meta.ReadyToPush {
		t.Error("expected ready_to_push false after failing validation")
	}
}

func TestMarkPushed(t *testing.T) {
	d := Parse(completeSpecContent())
	d.MarkPushed(99)

	if d.Meta.GitHubIssue != 99 {
		t.Errorf("expected issue 99, got %d", d.Meta.GitHubIssue)
	}
	if d.Meta.Status != "pushed" {
		t.Errorf("expected pushed status, got %s", d.Meta.Status)
	}
	if d.Meta.PushedAt == "" {
		t.Error("expected pushed_at timestamp")
	}

	out, err := d.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "github_issue: 99") {
		t.Error("rendered frontmatter missing github_issue")
	}
}

func TestMapToIssueSpec(t *testing.T) {
	fields := MapToIssue(Parse(completeSpecContent()))

	if fields.Title != "[Spec] User Auth" {
		t.Errorf("unexpected title: %s", fields.Title)
	}
	if !strings.HasPrefix(fields.Body, "**Parent Epic**: #42\n") {
		t.Errorf("body must lead with the parent marker:\n%s", fields.Body)
	}
	for _, want := range []string{"## Overview", "## Requirements", "## Acceptance Criteria", "## Technical Notes"} {
		if !strings.Contains(fields.Body, want) {
			t.Errorf("body missing %s", want)
		}
	}
	if len(fields.Labels) != 2 || fields.Labels[0] != "type:spec" || fields.Labels[1] != "status:draft" {
		t.Errorf("unexpected labels: %v", fields.Labels)
	}
}

func TestMapToIssuePlanTitleStripsPrefix(t *testing.T) {
	content := `---
draft_id: plan-001-user-auth
type: plan
title: "Plan: User Auth"
status: draft
parent_spec: 12
---

# Implementation Plan: User Auth

## Implementation Approach

Ship it.

## Technical Decisions

### Technology Stack

- Go
`
	fields := MapToIssue(Parse(content))
	if fields.Title != "[Plan] User Auth" {
		t.Errorf("unexpected title: %s", fields.Title)
	}
	if !strings.HasPrefix(fields.Body, "**Parent Spec**: #12\n") {
		t.Errorf("body must lead with the parent spec marker:\n%s", fields.Body)
	}
	if len(fields.Labels) != 1 || fields.Labels[0] != "type:plan" {
		t.Errorf("unexpected labels: %v", fields.Labels)
	}
	if strings.Contains(fields.Body, "## Stories") {
		t.Error("plan issue body must not inline the stories breakdown")
	}
}
