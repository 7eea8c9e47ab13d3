package gitutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jcttech/specstack/pkg/domain/issue"
)

const (
	// WorktreesDir is the directory under the project root holding story worktrees.
	WorktreesDir = "worktrees"
	// BranchMaxLength caps generated branch names, number and slug included.
	BranchMaxLength = 50
)

var (
	branchRe      = regexp.MustCompile(`^(\d+)-(.+)$`)
	storyPrefixRe = regexp.MustCompile(`(?i)^\[story\]\s*`)
)

// BranchName builds a branch name like "102-jwt-token-service" from a
// story number and title.
func BranchName(number int, title string) string {
	title = storyPrefixRe.ReplaceAllString(title, "")
	maxSlug := BranchMaxLength - len(strconv.Itoa(number)) - 1
	return fmt.Sprintf("%d-%s", number, issue.Slugify(title, maxSlug))
}

// Status is the working-tree state of a single worktree.
type Status struct {
	Clean     bool     `json:"is_clean"`
	Modified  []string `json:"modified_files"`
	Untracked []string `json:"untracked_files"`
	Staged    []string `json:"staged_files"`
}

// Worktree is one entry from git worktree list, linked back to its story.
type Worktree struct {
	Path        string  `json:"path"`
	Head        string  `json:"head,omitempty"`
	Branch      string  `json:"branch,omitempty"`
	Detached    bool    `json:"detached,omitempty"`
	IssueNumber int     `json:"issue_number"`
	Status      *Status `json:"status,omitempty"`
}

// CreateResult reports what Create did.
type CreateResult struct {
	Path       string `json:"worktree_path"`
	Branch     string `json:"branch_name"`
	Created    bool   `json:"created"`
	Resumed    bool   `json:"resumed"`
	FromRemote bool   `json:"from_remote,omitempty"`
	Status     string `json:"status"`
}

// RemoveResult reports what Remove did. Reason is "not_found", "dirty",
// or "error" when Removed is false.
type RemoveResult struct {
	Removed  bool     `json:"removed"`
	Reason   string   `json:"reason,omitempty"`
	Path     string   `json:"path,omitempty"`
	Branch   string   `json:"branch,omitempty"`
	Modified []string `json:"modified_files,omitempty"`
}

// Worktrees manages per-story git worktrees under <root>/worktrees.
type Worktrees struct {
	root string
}

func NewWorktrees(root string) *Worktrees {
	return &Worktrees{root: root}
}

// Dir returns the worktrees directory.
func (w *Worktrees) Dir() string {
	return filepath.Join(w.root, WorktreesDir)
}

// Find looks for an existing worktree directory for the story number.
func (w *Worktrees) Find(number int) (path, branch string, ok bool) {
	entries, err := os.ReadDir(w.Dir())
	if err != nil {
		return "", "", false
	}
	prefix := strconv.Itoa(number) + "-"
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			return filepath.Join(w.Dir(), e.Name()), e.Name(), true
		}
	}
	return "", "", false
}

// Status reads git status --porcelain in the worktree. A failing git
// call reads as clean.
func (w *Worktrees) Status(ctx context.Context, path string) *Status {
	out, err := gitOutput(ctx, path, "status", "--porcelain")
	if err != nil {
		return &Status{Clean: true, Modified: []string{}, Untracked: []string{}, Staged: []string{}}
	}
	return parseStatus(out)
}

func parseStatus(out string) *Status {
	st := &Status{Modified: []string{}, Untracked: []string{}, Staged: []string{}}

	var lines []string
	if trimmed := strings.TrimSpace(out); trimmed != "" {
		lines = strings.Split(trimmed, "\n")
	}
	for _, line := range lines {
		if len(line) < 4 {
			continue
		}
		name := line[3:]
		if strings.HasPrefix(line, " M") || strings.HasPrefix(line, "M ") {
			st.Modified = append(st.Modified, name)
		}
		if strings.HasPrefix(line, "??") {
			st.Untracked = append(st.Untracked, name)
		}
		if strings.ContainsRune("MADRC", rune(line[0])) {
			st.Staged = append(st.Staged, name)
		}
	}
	st.Clean = len(lines) == 0
	return st
}

// Create makes a worktree for the story, resuming an existing one. When
// the branch already exists on origin the worktree tracks it; otherwise a
// new branch is cut from base. An empty base falls back to "main".
func (w *Worktrees) Create(ctx context.Context, number int, title, base string) (*CreateResult, error) {
	if base == "" {
		base = "main"
	}

	if path, branch, ok := w.Find(number); ok {
		status := "clean"
		if !w.Status(ctx, path).Clean {
			status = "dirty"
		}
		return &CreateResult{Path: path, Branch: branch, Resumed: true, Status: status}, nil
	}

	branch := BranchName(number, title)
	path := filepath.Join(w.Dir(), branch)

	if err := os.MkdirAll(w.Dir(), 0o750); err != nil {
		return nil, fmt.Errorf("create worktrees dir: %w", err)
	}
	if err := w.ensureGitignore(); err != nil {
		return nil, fmt.Errorf("update .gitignore: %w", err)
	}

	fromRemote := false
	if out, err := gitOutput(ctx, w.root, "ls-remote", "--heads", "origin", branch); err == nil && strings.TrimSpace(out) != "" {
		fromRemote = true
	}

	if fromRemote {
		_ = gitRun(ctx, w.root, "fetch", "origin", branch)
		if err := gitRun(ctx, w.root, "worktree", "add", path, "origin/"+branch); err != nil {
			return nil, err
		}
	} else {
		if err := gitRun(ctx, w.root, "worktree", "add", "-b", branch, path, base); err != nil {
			return nil, err
		}
	}

	return &CreateResult{Path: path, Branch: branch, Created: true, FromRemote: fromRemote, Status: "clean"}, nil
}

// List returns the story worktrees known to git, each with its status.
func (w *Worktrees) List(ctx context.Context) ([]Worktree, error) {
	out, err := gitOutput(ctx, w.root, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}

	dir := w.Dir()
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	trees := parseWorktreeList(out)
	result := make([]Worktree, 0, len(trees))
	for _, wt := range trees {
		if !strings.HasPrefix(wt.Path, dir) {
			continue
		}
		m := branchRe.FindStringSubmatch(wt.Branch)
		if m == nil {
			continue
		}
		wt.IssueNumber, _ = strconv.Atoi(m[1])
		wt.Status = w.Status(ctx, wt.Path)
		result = append(result, wt)
	}
	return result, nil
}

func parseWorktreeList(out string) []Worktree {
	var trees []Worktree
	var cur *Worktree
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			if cur != nil {
				trees = append(trees, *cur)
			}
			cur = &Worktree{Path: strings.TrimPrefix(line, "worktree ")}
		case cur == nil:
		case strings.HasPrefix(line, "HEAD "):
			cur.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case strings.HasPrefix(line, "detached"):
			cur.Detached = true
		}
	}
	if cur != nil {
		trees = append(trees, *cur)
	}
	return trees
}

// Remove deletes the story worktree. Dirty worktrees are kept unless
// force is set. Afterwards the branch is deleted when already merged
// into main; that deletion is best-effort.
func (w *Worktrees) Remove(ctx context.Context, number int, force bool) (*RemoveResult, error) {
	path, branch, ok := w.Find(number)
	if !ok {
		return &RemoveResult{Reason: "not_found"}, nil
	}

	status := w.Status(ctx, path)
	if !status.Clean && !force {
		return &RemoveResult{Reason: "dirty", Modified: status.Modified}, nil
	}

	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	if err := gitRun(ctx, w.root, args...); err != nil {
		return &RemoveResult{Reason: "error"}, err
	}

	if out, err := gitOutput(ctx, w.root, "branch", "--merged", "main"); err == nil && strings.Contains(out, branch) {
		_ = gitRun(ctx, w.root, "branch", "-d", branch)
	}

	return &RemoveResult{Removed: true, Path: path, Branch: branch}, nil
}

// CommitsAhead counts commits on the story branch not yet on its origin
// branch. Missing worktrees and git failures count as zero.
func (w *Worktrees) CommitsAhead(ctx context.Context, number int) int {
	path, branch, ok := w.Find(number)
	if !ok {
		return 0
	}
	out, err := gitOutput(ctx, path, "rev-list", "--count", "HEAD", "^origin/"+branch)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0
	}
	return n
}

func (w *Worktrees) ensureGitignore() error {
	entry := WorktreesDir + "/"
	path := filepath.Join(w.root, ".gitignore")

	data, err := os.ReadFile(path) // #nosec G304 -- path is rooted in the managed project
	if errors.Is(err, os.ErrNotExist) {
		return os.WriteFile(path, []byte(entry+"\n"), 0o600)
	}
	if err != nil {
		return err
	}
	content := string(data)
	if strings.Contains(content, entry) {
		return nil
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"
	return os.WriteFile(path, []byte(content), 0o600)
}
