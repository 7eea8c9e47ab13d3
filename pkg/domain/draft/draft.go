// Package draft models local spec and plan drafts: markdown files with a
// YAML frontmatter block that live under .specify/drafts until they are
// validated and pushed to the tracker.
package draft

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jcttech/specstack/pkg/domain/issue"
)

// ErrDraftNotFound means no draft matched the given identifier.
var ErrDraftNotFound = errors.New("draft not found")

// Type distinguishes the two draft kinds.
type Type string

const (
	TypeSpec Type = "spec"
	TypePlan Type = "plan"
)

// RequiredSections returns the H2 sections a draft must fill in before it
// can be pushed.
func (t Type) RequiredSections() []string {
	switch t {
	case TypeSpec:
		return []string{"Overview", "Requirements", "Acceptance Criteria"}
	case TypePlan:
		return []string{"Implementation Approach", "Stories"}
	default:
		return nil
	}
}

// Filename returns the draft filename for a number and short name, e.g.
// "007-user-auth.md" for specs and "007-user-auth-plan.md" for plans.
func (t Type) Filename(number int, shortName string) string {
	if t == TypePlan {
		return fmt.Sprintf("%03d-%s-plan.md", number, shortName)
	}
	return fmt.Sprintf("%03d-%s.md", number, shortName)
}

// CacheFilename returns the archive filename used once the draft became
// tracker issue number n, e.g. "spec-42.md".
func (t Type) CacheFilename(n int) string {
	return fmt.Sprintf("%s-%d.md", t, n)
}

// Validation records the outcome of the last completeness check.
// Errors block the push; warnings are advisory.
type Validation struct {
	Valid     bool     `yaml:"valid" json:"valid"`
	Errors    []string `yaml:"errors" json:"errors"`
	Warnings  []string `yaml:"warnings" json:"warnings"`
	LastCheck string   `yaml:"last_check,omitempty" json:"last_check,omitempty"`
}

// Frontmatter is the YAML header of a draft file.
type Frontmatter struct {
	DraftID          string      `yaml:"draft_id"`
	Type             Type        `yaml:"type"`
	Title            string      `yaml:"title"`
	Created          string      `yaml:"created"`
	Modified         string      `yaml:"modified"`
	Status           string      `yaml:"status"`
	ReadyToPush      bool        `yaml:"ready_to_push"`
	ParentEpic       int         `yaml:"parent_epic,omitempty"`
	ParentSpec       int         `yaml:"parent_spec,omitempty"`
	StoriesGenerated bool        `yaml:"stories_generated,omitempty"`
	GitHubIssue      int         `yaml:"github_issue,omitempty"`
	PushedAt         string      `yaml:"pushed_at,omitempty"`
	Validation       *Validation `yaml:"validation,omitempty"`
}

// Draft is a parsed draft file.
type Draft struct {
	Meta Frontmatter
	Body string
}

var (
	frontmatterRe  = regexp.MustCompile(`(?s)\A---\s*\n(.*?)\n---\s*\n`)
	numberPrefixRe = regexp.MustCompile(`^(\d+)-`)
)

// Parse splits a draft file into frontmatter and body. A missing or
// malformed frontmatter block yields zero metadata and the whole content
// as body; drafts without an explicit type default to spec.
func Parse(content string) *Draft {
	d := &Draft{Body: content}

	m := frontmatterRe.FindStringSubmatch(content)
	if m != nil {
		var meta Frontmatter
		if err := yaml.Unmarshal([]byte(m[1]), &meta); err == nil {
			d.Meta = meta
		}
		d.Body = content[len(m[0]):]
	}

	if d.Meta.Type == "" {
		d.Meta.Type = TypeSpec
	}
	return d
}

// FrontmatterMap returns the raw frontmatter as a generic map, the form
// schema validation consumes. Missing or malformed frontmatter yields an
// empty map.
func FrontmatterMap(content string) map[string]interface{} {
	m := frontmatterRe.FindStringSubmatch(content)
	if m == nil {
		return map[string]interface{}{}
	}
	doc := map[string]interface{}{}
	if err := yaml.Unmarshal([]byte(m[1]), &doc); err != nil {
		return map[string]interface{}{}
	}
	return doc
}

// Render serializes the draft back to file content.
func (d *Draft) Render() (string, error) {
	meta, err := yaml.Marshal(&d.Meta)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	return "---\n" + string(meta) + "---\n" + d.Body, nil
}

// Sections splits the body into H2 sections. Content before the first
// "## " heading (the H1 title line) is not part of any section.
func (d *Draft) Sections() map[string]string {
	sections := make(map[string]string)
	var current string
	var lines []string

	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(lines, "\n"))
		}
	}

	for _, line := range strings.Split(d.Body, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			current = strings.TrimSpace(line[3:])
			lines = nil
			continue
		}
		if current != "" {
			lines = append(lines, line)
		}
	}
	flush()
	return sections
}

var placeholderMarkers = []string{"[TBD]", "TODO", "FIXME", "???"}

// Validate checks the draft for completeness. requireParent enforces the
// parent Epic link on spec drafts; plan drafts carry their parent spec
// from creation so the flag does not apply to them.
func Validate(d *Draft, requireParent bool) Validation {
	var errs, warns []string
	sections := d.Sections()

	for _, name := range d.Meta.Type.RequiredSections() {
		content, ok := sections[name]
		switch {
		case !ok:
			errs = append(errs, "Missing required section: "+name)
		case content == "" || strings.HasPrefix(content, "["):
			errs = append(errs, fmt.Sprintf("Section '%s' needs content", name))
		}
	}

	// Open-ended match so the annotated form "[NEEDS CLARIFICATION: ...]"
	// is caught too.
	if strings.Contains(d.Body, "[NEEDS CLARIFICATION") {
		warns = append(warns, "Contains [NEEDS CLARIFICATION] markers - resolve open questions first")
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(d.Body, marker) {
			warns = append(warns, fmt.Sprintf("Contains placeholder marker %q", marker))
		}
	}
	if strings.Contains(d.Body, "[Requirement") || strings.Contains(d.Body, "[Criterion") {
		warns = append(warns, "Contains placeholder requirements or criteria")
	}

	if d.Meta.Type == TypeSpec && requireParent && d.Meta.ParentEpic == 0 {
		errs = append(errs, "No parent Epic specified - select or create an Epic first")
	}

	if errs == nil {
		errs = []string{}
	}
	if warns == nil {
		warns = []string{}
	}
	return Validation{
		Valid:     len(errs) == 0,
		Errors:    errs,
		Warnings:  warns,
		LastCheck: time.Now().UTC().Format(time.RFC3339),
	}
}

// ApplyValidation records a validation result in the frontmatter, flips
// ready_to_push, and moves the status between draft and ready. Pushed
// drafts keep their status.
func (d *Draft) ApplyValidation(v Validation) {
	d.Meta.Validation = &v
	d.Meta.ReadyToPush = v.Valid
	if d.Meta.Status != "pushed" {
		d.Meta.Status = "draft"
		if v.Valid {
			d.Meta.Status = "ready"
		}
	}
	d.Meta.Modified = time.Now().UTC().Format(time.RFC3339)
}

// MarkPushed records the tracker issue the draft became.
func (d *Draft) MarkPushed(issueNumber int) {
	d.Meta.GitHubIssue = issueNumber
	d.Meta.PushedAt = time.Now().UTC().Format(time.RFC3339)
	d.Meta.Status = "pushed"
}

// NextNumber returns the next free draft number given the existing draft
// filenames of one type. Numbering starts at 1 and never reuses gaps.
func NextNumber(filenames []string) int {
	highest := 0
	for _, name := range filenames {
		m := numberPrefixRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// ShortName slugs a title for use in draft IDs and filenames.
func ShortName(title string) string {
	return issue.Slugify(title, 50)
}

// ID builds the draft identifier, e.g. "spec-003-user-auth".
func ID(t Type, number int, shortName string) string {
	return fmt.Sprintf("%s-%03d-%s", t, number, shortName)
}
