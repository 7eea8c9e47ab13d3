package application

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcttech/specstack/pkg/domain/config"
	"github.com/jcttech/specstack/pkg/domain/issue"
	"github.com/jcttech/specstack/pkg/storage"
)

func newTestRepo(t *testing.T) *storage.FilesystemRepository {
	t.Helper()
	repo := storage.NewFilesystemRepository(t.TempDir())
	if err := repo.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return repo
}

func TestSyncCachesAndRendersIndex(t *testing.T) {
	trk := newFakeTracker(
		seedIssue(1, issue.TypeEpic, issue.StateOpen, 0, ""),
		seedIssue(100, issue.TypeSpec, issue.StateOpen, 1, ""),
		seedIssue(101, issue.TypeStory, issue.StateOpen, 100, "- [x] done\n- [ ] pending"),
		seedIssue(102, issue.TypeStory, issue.StateClosed, 100, ""),
	)
	repo := newTestRepo(t)
	svc := NewSyncService(trk, repo, config.Default(), "jcttech/specstack", nil)

	result, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.IssuesTotal != 4 || result.IssuesCached != 4 {
		t.Errorf("result = %+v, want 4 issues cached", result)
	}
	if result.Epics != 1 {
		t.Errorf("Epics = %d, want 1", result.Epics)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v", result.Errors)
	}

	cached, err := repo.LoadCachedIssues(issue.TypeStory)
	if err != nil {
		t.Fatalf("LoadCachedIssues: %v", err)
	}
	if len(cached) != 2 {
		t.Fatalf("cached stories = %d, want 2", len(cached))
	}

	content, err := repo.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	for _, want := range []string{
		"# Issue Index",
		"> Repository: jcttech/specstack",
		"### Epic: epic #1 (#1)",
		"| #100 |",
		"issues_cached: 4",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("index missing %q\n%s", want, content)
		}
	}
	if result.IndexPath != repo.IndexPath() {
		t.Errorf("IndexPath = %q", result.IndexPath)
	}
}

func TestSyncSkipsCacheWhenDisabled(t *testing.T) {
	trk := newFakeTracker(seedIssue(1, issue.TypeEpic, issue.StateOpen, 0, ""))
	repo := newTestRepo(t)
	cfg := config.Default()
	cfg.IssueTracking.CacheIssues = false
	svc := NewSyncService(trk, repo, cfg, "jcttech/specstack", nil)

	result, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.IssuesCached != 0 {
		t.Errorf("IssuesCached = %d, want 0", result.IssuesCached)
	}

	cached, err := repo.LoadCachedIssues(issue.TypeEpic)
	if err != nil {
		t.Fatalf("LoadCachedIssues: %v", err)
	}
	if len(cached) != 0 {
		t.Errorf("cache should stay empty, got %d entries", len(cached))
	}
	if content, _ := repo.ReadIndex(); content == "" {
		t.Error("index must be written even without caching")
	}
}

func TestSyncListFailureIsFatal(t *testing.T) {
	trk := newFakeTracker()
	trk.listErr = context.DeadlineExceeded
	svc := NewSyncService(trk, newTestRepo(t), config.Default(), "jcttech/specstack", nil)

	if _, err := svc.Sync(context.Background()); err == nil {
		t.Fatal("expected error when the tracker listing fails")
	}
}

func TestSyncIndexIncludesPendingDrafts(t *testing.T) {
	trk := newFakeTracker(seedIssue(1, issue.TypeEpic, issue.StateOpen, 0, ""))
	repo := newTestRepo(t)

	pending := "---\ndraft_id: spec-001-auth\ntype: spec\ntitle: \"Auth\"\nstatus: draft\nready_to_push: true\n---\n\n# Spec: Auth\n"
	if err := repo.WriteDraft("spec", "001-auth.md", []byte(pending)); err != nil {
		t.Fatalf("WriteDraft: %v", err)
	}
	pushed := "---\ndraft_id: spec-002-billing\ntype: spec\ntitle: \"Billing\"\nstatus: pushed\n---\n\n# Spec: Billing\n"
	if err := repo.WriteDraft("spec", "002-billing.md", []byte(pushed)); err != nil {
		t.Fatalf("WriteDraft: %v", err)
	}

	svc := NewSyncService(trk, repo, config.Default(), "jcttech/specstack", nil)
	if _, err := svc.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	content, err := repo.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if !strings.Contains(content, "001-auth.md") {
		t.Error("pending draft missing from index")
	}
	if strings.Contains(content, "002-billing.md") {
		t.Error("pushed draft must not appear in the drafts table")
	}
	if !strings.Contains(content, "drafts_pending: 1") {
		t.Errorf("metadata drafts count wrong:\n%s", content)
	}
}

func TestSyncReportsCacheErrorsSoftly(t *testing.T) {
	trk := newFakeTracker(seedIssue(1, issue.TypeEpic, issue.StateOpen, 0, ""))
	repo := newTestRepo(t)

	// A directory where the cache file should go makes that one write fail.
	blocked := filepath.Join(repo.SpecifyPath(), "issues", "cache", "epic-1.md")
	if err := os.MkdirAll(blocked, 0700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	svc := NewSyncService(trk, repo, config.Default(), "jcttech/specstack", nil)
	result, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %v, want one cache failure", result.Errors)
	}
	if result.IssuesCached != 0 {
		t.Errorf("IssuesCached = %d, want 0", result.IssuesCached)
	}
}
