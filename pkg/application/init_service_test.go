package application

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcttech/specstack/pkg/domain/config"
	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/storage"
)

func TestInitCreatesWorkspaceAndDocs(t *testing.T) {
	root := t.TempDir()
	repo := storage.NewFilesystemRepository(root)
	svc := NewInitService(repo, config.Default(), nil, nil, nil)

	result, err := svc.Initialize(context.Background(), InitOptions{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if result.AlreadyInitialized {
		t.Error("fresh workspace reported as already initialized")
	}
	if !repo.IsInitialized() {
		t.Error("workspace not initialized on disk")
	}
	if _, err := os.Stat(filepath.Join(root, storage.SpecifyDir, storage.ConfigFile)); err != nil {
		t.Errorf("config file not written: %v", err)
	}

	wantDocs := []string{".docs/constitution.md", ".docs/architecture.md", ".docs/decisions.md"}
	if len(result.DocsCreated) != len(wantDocs) {
		t.Fatalf("DocsCreated = %v, want %v", result.DocsCreated, wantDocs)
	}
	for i, want := range wantDocs {
		if result.DocsCreated[i] != want {
			t.Errorf("DocsCreated[%d] = %q, want %q", i, result.DocsCreated[i], want)
		}
	}

	constitution, err := os.ReadFile(filepath.Join(root, ".docs", "constitution.md"))
	if err != nil {
		t.Fatalf("read constitution: %v", err)
	}
	if !strings.HasPrefix(string(constitution), "# Project Constitution") {
		t.Errorf("constitution starts with %q", string(constitution)[:40])
	}
	architecture, err := os.ReadFile(filepath.Join(root, ".docs", "architecture.md"))
	if err != nil {
		t.Fatalf("read architecture: %v", err)
	}
	if !strings.Contains(string(architecture), "architecture.excalidraw") {
		t.Error("architecture seed does not point at the diagram file")
	}
}

func TestInitRerunLeavesExistingFilesAlone(t *testing.T) {
	root := t.TempDir()
	repo := storage.NewFilesystemRepository(root)
	svc := NewInitService(repo, config.Default(), nil, nil, nil)

	if _, err := svc.Initialize(context.Background(), InitOptions{}); err != nil {
		t.Fatalf("first Initialize: %v", err)
	}

	customConstitution := "# Project Constitution\n\nOurs, hands off.\n"
	if err := os.WriteFile(filepath.Join(root, ".docs", "constitution.md"), []byte(customConstitution), 0600); err != nil {
		t.Fatalf("write custom constitution: %v", err)
	}
	customConfig := "drafts:\n  require_parent: false\n"
	if err := os.WriteFile(filepath.Join(root, storage.SpecifyDir, storage.ConfigFile), []byte(customConfig), 0600); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	result, err := svc.Initialize(context.Background(), InitOptions{})
	if err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if !result.AlreadyInitialized {
		t.Error("rerun did not report already initialized")
	}
	if len(result.DocsCreated) != 0 {
		t.Errorf("rerun recreated docs: %v", result.DocsCreated)
	}

	got, err := os.ReadFile(filepath.Join(root, ".docs", "constitution.md"))
	if err != nil {
		t.Fatalf("read constitution: %v", err)
	}
	if string(got) != customConstitution {
		t.Error("rerun overwrote an edited constitution")
	}
	gotCfg, err := os.ReadFile(filepath.Join(root, storage.SpecifyDir, storage.ConfigFile))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(gotCfg) != customConfig {
		t.Error("rerun overwrote an edited config file")
	}
}

func TestInitConfiguresAssistantSettings(t *testing.T) {
	root := t.TempDir()
	repo := storage.NewFilesystemRepository(root)
	cfg := config.Default()
	svc := NewInitService(repo, cfg, nil, NewSettingsService(root, cfg), nil)

	result, err := svc.Initialize(context.Background(), InitOptions{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if result.Settings == nil {
		t.Fatal("Settings = nil, want a configured result")
	}
	if !result.Settings.GitHubMCP || !result.Settings.MemoryPlugin {
		t.Errorf("Settings = %+v, want both features enabled", result.Settings)
	}
	if _, err := os.Stat(filepath.Join(root, ".claude", "settings.json")); err != nil {
		t.Errorf("settings file not written: %v", err)
	}
}

func TestInitSkipFlagsDisableOptionalSteps(t *testing.T) {
	root := t.TempDir()
	repo := storage.NewFilesystemRepository(root)
	cfg := config.Default()
	fetcher := &fakeFetcher{dir: cfg.OrgTemplates.TemplatePath, files: map[string][]byte{}}
	svc := NewInitService(repo, cfg,
		NewTemplateService(fetcher, repo, cfg, nil),
		NewSettingsService(root, cfg), nil)

	result, err := svc.Initialize(context.Background(), InitOptions{
		SkipOrgTemplates:    true,
		SkipAssistantConfig: true,
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if result.Templates != nil {
		t.Error("templates fetched despite skip flag")
	}
	if result.Settings != nil {
		t.Error("settings configured despite skip flag")
	}
	if _, err := os.Stat(filepath.Join(root, ".claude")); !os.IsNotExist(err) {
		t.Error(".claude directory created despite skip flag")
	}
}

func TestInitTemplateFailureIsAWarning(t *testing.T) {
	root := t.TempDir()
	repo := storage.NewFilesystemRepository(root)
	cfg := config.Default()
	fetcher := &fakeFetcher{dir: "somewhere/else", files: map[string][]byte{}}
	svc := NewInitService(repo, cfg, NewTemplateService(fetcher, repo, cfg, nil), nil, nil)

	result, err := svc.Initialize(context.Background(), InitOptions{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !repo.IsInitialized() {
		t.Error("template failure blocked workspace creation")
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "org templates:") {
		t.Errorf("Warnings = %v, want one org templates warning", result.Warnings)
	}
	if result.Templates != nil {
		t.Error("Templates set despite fetch failure")
	}
}

func TestInitWritesAudit(t *testing.T) {
	root := t.TempDir()
	repo := storage.NewFilesystemRepository(root)
	audit, _ := newTestAudit(t)
	svc := NewInitService(repo, config.Default(), nil, nil, audit)

	if _, err := svc.Initialize(context.Background(), InitOptions{}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	timeline := audit.GetTimeline()
	if len(timeline) != 1 {
		t.Fatalf("timeline has %d entries, want 1", len(timeline))
	}
	if timeline[0].EventType != events.EventTypeWorkspaceInitialized {
		t.Errorf("event type = %q, want %q", timeline[0].EventType, events.EventTypeWorkspaceInitialized)
	}
}
