package hierarchy

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jcttech/specstack/pkg/domain/issue"
)

// DraftEntry is a pending draft row in the index.
type DraftEntry struct {
	Name  string
	Type  string
	Ready bool
}

// IndexMeta parameterizes index rendering.
type IndexMeta struct {
	Repo     string
	SyncedAt time.Time
	Drafts   []DraftEntry
}

// RenderIndex produces the issues-index markdown for a tree.
func RenderIndex(tree *Tree, meta IndexMeta) string {
	now := meta.SyncedAt.UTC().Format(time.RFC3339)
	var b strings.Builder

	b.WriteString("# Issue Index\n\n")
	fmt.Fprintf(&b, "> Last synced: %s\n", now)
	fmt.Fprintf(&b, "> Repository: %s\n", meta.Repo)
	b.WriteString("\n## Hierarchy\n\n")

	if len(tree.Epics) == 0 {
		b.WriteString("_No issues tracked yet._\n")
	} else {
		for _, epic := range tree.Epics {
			writeEpic(&b, epic, meta.Repo)
		}
	}

	b.WriteString("\n---\n\n## Drafts (Not Yet Pushed)\n\n")
	if len(meta.Drafts) == 0 {
		b.WriteString("_No drafts yet. Use `specstack draft new spec` to create one._\n")
	} else {
		b.WriteString("| Draft | Type | Ready |\n")
		b.WriteString("|-------|------|-------|\n")
		for _, d := range meta.Drafts {
			ready := "no"
			if d.Ready {
				ready = "yes"
			}
			fmt.Fprintf(&b, "| [%s](../drafts/%s/%s) | %s | %s |\n", d.Name, d.Type, d.Name, d.Type, ready)
		}
	}

	b.WriteString("\n---\n\n## Metadata\n```yaml\n")
	fmt.Fprintf(&b, "sync_version: 1\n")
	fmt.Fprintf(&b, "last_full_sync: %q\n", now)
	fmt.Fprintf(&b, "issues_cached: %d\n", tree.Count())
	fmt.Fprintf(&b, "drafts_pending: %d\n", len(meta.Drafts))
	b.WriteString("```\n")

	return b.String()
}

func writeEpic(b *strings.Builder, epic *Node, repo string) {
	fmt.Fprintf(b, "### Epic: %s (#%d)\n", epic.Issue.Title, epic.Issue.Number)
	fmt.Fprintf(b, "**Status**: %s | **Labels**: %s\n\n", epic.Issue.State, strings.Join(epic.Issue.Labels, ", "))

	specs := epic.ChildrenOfType(issue.TypeSpec)
	if len(specs) > 0 {
		b.WriteString("#### Specs\n")
		b.WriteString("| # | Title | Status | Stories | Progress |\n")
		b.WriteString("|---|-------|--------|---------|----------|\n")

		for _, spec := range specs {
			stories := spec.ChildrenOfType(issue.TypeStory)
			closed := 0
			for _, s := range stories {
				if s.Issue.State == issue.StateClosed {
					closed++
				}
			}
			fmt.Fprintf(b, "| #%d | [%s](%s) | %s | %d | %d/%d |\n",
				spec.Issue.Number, spec.Issue.Title, issueURL(repo, spec.Issue.Number),
				spec.Issue.State, len(stories), closed, len(stories))
		}

		for _, spec := range specs {
			stories := spec.ChildrenOfType(issue.TypeStory)
			if len(stories) > 0 {
				writeSpecStories(b, spec, stories, repo)
			}
		}
	}

	b.WriteString("\n")
}

func writeSpecStories(b *strings.Builder, spec *Node, stories []*Node, repo string) {
	fmt.Fprintf(b, "\n##### Spec #%d: %s\n", spec.Issue.Number, spec.Issue.Title)
	b.WriteString("| # | Story | Status | Tasks | Assignee |\n")
	b.WriteString("|---|-------|--------|-------|----------|\n")

	for _, story := range stories {
		_, tasks := issue.CountTasks(story.Issue.Body)
		fmt.Fprintf(b, "| #%d | [%s](%s) | %s | %d | %s |\n",
			story.Issue.Number, story.Issue.Title, issueURL(repo, story.Issue.Number),
			story.Issue.State, tasks, assigneeCell(story.Issue.Assignees))
	}
}

func issueURL(repo string, number int) string {
	return fmt.Sprintf("https://github.com/%s/issues/%d", repo, number)
}

func assigneeCell(assignees []string) string {
	if len(assignees) == 0 {
		return "-"
	}
	shown := assignees
	if len(shown) > 2 {
		shown = shown[:2]
	}
	parts := make([]string, len(shown))
	for i, a := range shown {
		parts[i] = "@" + a
	}
	cell := strings.Join(parts, ", ")
	if extra := len(assignees) - 2; extra > 0 {
		cell += fmt.Sprintf(" +%d", extra)
	}
	return cell
}

var metadataBlockRe = regexp.MustCompile("(?s)(## Metadata\\s*```yaml\\s*\n)(.*?)(\\s*```)")

// ParseIndexMetadata extracts the yaml metadata block from an existing
// index document. Returns an empty map when the block is missing or
// malformed.
func ParseIndexMetadata(content string) map[string]any {
	m := metadataBlockRe.FindStringSubmatch(content)
	if m == nil {
		return map[string]any{}
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(m[2]), &meta); err != nil {
		return map[string]any{}
	}
	return meta
}

// UpdateIndexMetadata merges updates into the index metadata block and
// returns the rewritten document. Used by incremental syncs that adjust
// counters without regenerating the whole index.
func UpdateIndexMetadata(content string, updates map[string]any) (string, error) {
	meta := ParseIndexMetadata(content)
	for k, v := range updates {
		meta[k] = v
	}

	data, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal index metadata: %w", err)
	}

	replaced := metadataBlockRe.ReplaceAllString(content,
		"${1}"+strings.TrimSpace(string(data))+"${3}")
	return replaced, nil
}
