package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/jcttech/specstack/pkg/domain/config"
	"github.com/jcttech/specstack/pkg/domain/tracker"
)

const epicFormYAML = `name: Epic
description: Large body of work
title: "[Epic] "
labels: ["type:epic"]
body:
  - type: input
    id: summary
    attributes:
      label: Summary
    validations:
      required: true
`

// fakeFetcher serves template files from an in-memory map keyed by
// repository path.
type fakeFetcher struct {
	dir     string
	files   map[string][]byte
	fileErr map[string]error
}

func (f *fakeFetcher) List(_ context.Context, dir string) ([]string, error) {
	if dir != f.dir {
		return nil, fmt.Errorf("%w: Template path not found: %s", tracker.ErrNotFound, dir)
	}
	var paths []string
	for p := range f.files {
		if !strings.HasPrefix(p, dir+"/") {
			continue
		}
		if !strings.HasSuffix(p, ".yml") && !strings.HasSuffix(p, ".yaml") && !strings.HasSuffix(p, ".md") {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (f *fakeFetcher) File(_ context.Context, path string) ([]byte, error) {
	if err := f.fileErr[path]; err != nil {
		return nil, err
	}
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tracker.ErrNotFound, path)
	}
	return data, nil
}

func TestTemplateFetchStoresFilesAndManifest(t *testing.T) {
	fetcher := &fakeFetcher{
		dir: ".github/ISSUE_TEMPLATE",
		files: map[string][]byte{
			".github/ISSUE_TEMPLATE/epic.yml":   []byte(epicFormYAML),
			".github/ISSUE_TEMPLATE/spec.yml":   []byte("name: Spec\n"),
			".github/pull_request_template.md":  []byte("## Checklist\n"),
			".github/ISSUE_TEMPLATE/notes.json": []byte("{}"),
		},
	}
	repo := newTestRepo(t)
	svc := NewTemplateService(fetcher, repo, config.Default(), nil)

	result, err := svc.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []string{"epic.yml", "spec.yml", "pull_request_template.md"}
	if len(result.Fetched) != len(want) {
		t.Fatalf("Fetched = %v, want %v", result.Fetched, want)
	}
	for i, name := range want {
		if result.Fetched[i] != name {
			t.Errorf("Fetched[%d] = %q, want %q", i, result.Fetched[i], name)
		}
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v", result.Errors)
	}

	data, err := repo.ReadOrgTemplate("epic.yml")
	if err != nil || string(data) != epicFormYAML {
		t.Errorf("ReadOrgTemplate: %v, %d bytes", err, len(data))
	}

	manifest, err := svc.Manifest()
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if manifest == nil || manifest.SourceRepo != "jcttech/.github" || len(manifest.Files) != 3 {
		t.Errorf("manifest = %+v", manifest)
	}
}

func TestTemplateFetchMissingPathFails(t *testing.T) {
	fetcher := &fakeFetcher{dir: "somewhere/else"}
	svc := NewTemplateService(fetcher, newTestRepo(t), config.Default(), nil)

	_, err := svc.Fetch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Template path not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestTemplateFetchPerFileErrorsAreSoft(t *testing.T) {
	fetcher := &fakeFetcher{
		dir: ".github/ISSUE_TEMPLATE",
		files: map[string][]byte{
			".github/ISSUE_TEMPLATE/epic.yml": []byte(epicFormYAML),
			".github/ISSUE_TEMPLATE/spec.yml": []byte("name: Spec\n"),
		},
		fileErr: map[string]error{
			".github/ISSUE_TEMPLATE/spec.yml": tracker.ErrUnavailable,
		},
	}
	cfg := config.Default()
	cfg.OrgTemplates.IncludePRTemplate = false
	svc := NewTemplateService(fetcher, newTestRepo(t), cfg, nil)

	result, err := svc.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.Fetched) != 1 || result.Fetched[0] != "epic.yml" {
		t.Errorf("Fetched = %v", result.Fetched)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "spec.yml") {
		t.Errorf("Errors = %v", result.Errors)
	}
}

func TestTemplateFetchPRTemplateFallback(t *testing.T) {
	// Only the bare root location exists; the two .github variants 404.
	fetcher := &fakeFetcher{
		dir: ".github/ISSUE_TEMPLATE",
		files: map[string][]byte{
			".github/ISSUE_TEMPLATE/epic.yml": []byte(epicFormYAML),
			"pull_request_template.md":        []byte("## Checklist\n"),
		},
	}
	svc := NewTemplateService(fetcher, newTestRepo(t), config.Default(), nil)

	result, err := svc.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	var found bool
	for _, name := range result.Fetched {
		if name == "pull_request_template.md" {
			found = true
		}
	}
	if !found {
		t.Errorf("Fetched = %v, want the fallback PR template", result.Fetched)
	}
}

func TestTemplateParsedSkipsMarkdown(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.SaveOrgTemplate("epic.yml", []byte(epicFormYAML)); err != nil {
		t.Fatalf("SaveOrgTemplate: %v", err)
	}
	if err := repo.SaveOrgTemplate("bug.md", []byte("# Bug report\n")); err != nil {
		t.Fatalf("SaveOrgTemplate: %v", err)
	}
	svc := NewTemplateService(nil, repo, config.Default(), nil)

	parsed, err := svc.Parsed()
	if err != nil {
		t.Fatalf("Parsed: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("parsed %d templates, want 1", len(parsed))
	}
	tpl := parsed["epic.yml"]
	if tpl == nil || tpl.Name != "Epic" || tpl.TitlePrefix != "[Epic] " {
		t.Errorf("template = %+v", tpl)
	}
	if len(tpl.Fields) != 1 || tpl.Fields[0].ID != "summary" || !tpl.Fields[0].Required {
		t.Errorf("fields = %+v", tpl.Fields)
	}
}
