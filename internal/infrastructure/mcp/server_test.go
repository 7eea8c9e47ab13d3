package mcp

import (
	"context"
	"testing"

	"github.com/jcttech/specstack/pkg/application"
	"github.com/jcttech/specstack/pkg/domain/issue"
	"github.com/jcttech/specstack/pkg/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.FilesystemRepository) {
	t.Helper()
	dir := t.TempDir()
	repo := storage.NewFilesystemRepository(dir)
	if err := repo.Initialize(); err != nil {
		t.Fatalf("initialize workspace: %v", err)
	}

	s, err := NewServer(dir)
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	return s, repo
}

func TestHandleStatusEmptyWorkspace(t *testing.T) {
	s, _ := newTestServer(t)

	resp, err := s.handleStatus(context.Background(), struct{}{})
	if err != nil {
		t.Fatalf("handleStatus: %v", err)
	}
	status, ok := resp.(statusResponse)
	if !ok {
		t.Fatalf("unexpected response type %T", resp)
	}
	if !status.Initialized {
		t.Errorf("expected initialized workspace")
	}
	if status.Drafts != 0 {
		t.Errorf("expected no drafts, got %d", status.Drafts)
	}
}

func TestHandleStatusCountsCachedIssues(t *testing.T) {
	s, repo := newTestServer(t)

	seed := []issue.Issue{
		{Number: 1, Title: "[Epic] Platform", Type: issue.TypeEpic, State: issue.StateOpen},
		{Number: 2, Title: "[Spec] Auth", Type: issue.TypeSpec, State: issue.StateOpen, Parent: 1},
		{Number: 3, Title: "[Story] Login form", Type: issue.TypeStory, State: issue.StateOpen, Parent: 2},
		{Number: 4, Title: "[Story] Logout", Type: issue.TypeStory, State: issue.StateOpen, Parent: 2},
	}
	for i := range seed {
		if _, err := repo.CacheIssue(&seed[i]); err != nil {
			t.Fatalf("cache issue #%d: %v", seed[i].Number, err)
		}
	}

	resp, err := s.handleStatus(context.Background(), struct{}{})
	if err != nil {
		t.Fatalf("handleStatus: %v", err)
	}
	status := resp.(statusResponse)
	if status.Cached["epic"] != 1 || status.Cached["spec"] != 1 || status.Cached["story"] != 2 {
		t.Errorf("unexpected cache counts: %+v", status.Cached)
	}
}

func TestHandleListAndValidateDrafts(t *testing.T) {
	s, _ := newTestServer(t)

	if _, err := s.services.Drafts.NewSpec("Checkout flow", "Carts become orders", 12); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	resp, err := s.handleListDrafts(context.Background(), struct{}{})
	if err != nil {
		t.Fatalf("handleListDrafts: %v", err)
	}
	drafts, ok := resp.([]application.DraftInfo)
	if !ok {
		t.Fatalf("unexpected response type %T", resp)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}

	single, err := s.handleValidateDraft(context.Background(), ValidateDraftArgs{ID: drafts[0].DraftID})
	if err != nil {
		t.Fatalf("handleValidateDraft: %v", err)
	}
	validation, ok := single.(*application.DraftValidation)
	if !ok {
		t.Fatalf("unexpected response type %T", single)
	}
	if validation.DraftID != drafts[0].DraftID {
		t.Errorf("validated wrong draft: %s", validation.DraftID)
	}

	all, err := s.handleValidateDraft(context.Background(), ValidateDraftArgs{})
	if err != nil {
		t.Fatalf("validate all: %v", err)
	}
	if results, ok := all.([]application.DraftValidation); !ok || len(results) != 1 {
		t.Errorf("expected 1 validation result, got %T %v", all, all)
	}
}

func TestHandleValidateDraftUnknownID(t *testing.T) {
	s, _ := newTestServer(t)

	if _, err := s.handleValidateDraft(context.Background(), ValidateDraftArgs{ID: "no-such-draft"}); err == nil {
		t.Fatalf("expected error for unknown draft")
	}
}

func TestHandleCascadeRejectsBadStory(t *testing.T) {
	s, _ := newTestServer(t)

	if _, err := s.handleCascade(context.Background(), CascadeArgs{Story: 0}); err == nil {
		t.Fatalf("expected error for missing story number")
	}
}

func TestHandleAnalyze(t *testing.T) {
	s, repo := newTestServer(t)

	if _, err := s.handleAnalyze(context.Background(), struct{}{}); err == nil {
		t.Fatalf("expected error on empty workspace")
	}

	iss := issue.Issue{Number: 9, Title: "[Story] Orphan", Type: issue.TypeStory, State: issue.StateOpen}
	if _, err := repo.CacheIssue(&iss); err != nil {
		t.Fatalf("cache issue: %v", err)
	}

	resp, err := s.handleAnalyze(context.Background(), struct{}{})
	if err != nil {
		t.Fatalf("handleAnalyze: %v", err)
	}
	if resp == nil {
		t.Fatalf("expected a report")
	}
}

func TestHandleGetConfig(t *testing.T) {
	s, _ := newTestServer(t)

	resp, err := s.handleGetConfig(context.Background(), struct{}{})
	if err != nil {
		t.Fatalf("handleGetConfig: %v", err)
	}
	if resp != s.services.Config {
		t.Errorf("expected the effective config")
	}
}
