package application

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcttech/specstack/pkg/domain/issue"
	"github.com/jcttech/specstack/pkg/domain/tracker"
)

func TestWorktreeStartRequiresIssue(t *testing.T) {
	svc := NewWorktreeService(t.TempDir(), newFakeTracker(), nil)

	_, err := svc.Start(context.Background(), 42, "")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestWorktreeStartPropagatesTrackerFailure(t *testing.T) {
	trk := newFakeTracker(seedIssue(42, issue.TypeStory, issue.StateOpen, 0, ""))
	trk.viewErr[42] = tracker.ErrUnavailable
	svc := NewWorktreeService(t.TempDir(), trk, nil)

	_, err := svc.Start(context.Background(), 42, "")
	if !errors.Is(err, tracker.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestWorktreeFinishMissingIsSoft(t *testing.T) {
	svc := NewWorktreeService(t.TempDir(), newFakeTracker(), nil)

	res, err := svc.Finish(context.Background(), 42, false)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if res.Removed || res.Reason != "not_found" {
		t.Errorf("result = %+v", res)
	}
}

func storyRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Tester")
	run("config", "commit.gpgsign", "false")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("specstack\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	run("add", "README.md")
	run("commit", "-m", "initial commit")
	run("branch", "-M", "main")
	return dir
}

func TestWorktreeCleanRemovesCleanKeepsDirty(t *testing.T) {
	dir := storyRepo(t)
	trk := newFakeTracker(
		seedIssue(7, issue.TypeStory, issue.StateOpen, 0, ""),
		seedIssue(8, issue.TypeStory, issue.StateOpen, 0, ""),
	)
	svc := NewWorktreeService(dir, trk, nil)
	ctx := context.Background()

	if _, err := svc.Start(ctx, 7, "main"); err != nil {
		t.Fatalf("start 7: %v", err)
	}
	res8, err := svc.Start(ctx, 8, "main")
	if err != nil {
		t.Fatalf("start 8: %v", err)
	}
	if err := os.WriteFile(filepath.Join(res8.Path, "wip.txt"), []byte("wip"), 0o600); err != nil {
		t.Fatalf("write wip: %v", err)
	}

	result, err := svc.Clean(ctx)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(result.Removed) != 1 || !strings.HasPrefix(result.Removed[0], "7-") {
		t.Errorf("removed = %v, want the issue 7 branch", result.Removed)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason != "dirty" {
		t.Fatalf("skipped = %+v, want one dirty entry", result.Skipped)
	}
	if !strings.HasPrefix(result.Skipped[0].Branch, "8-") {
		t.Errorf("skipped branch = %s, want the issue 8 branch", result.Skipped[0].Branch)
	}

	remaining, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 1 || remaining[0].IssueNumber != 8 {
		t.Errorf("remaining worktrees = %+v, want only issue 8", remaining)
	}
}

func TestWorktreeCleanEmpty(t *testing.T) {
	dir := storyRepo(t)
	svc := NewWorktreeService(dir, newFakeTracker(), nil)

	result, err := svc.Clean(context.Background())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(result.Removed) != 0 || len(result.Skipped) != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
}
