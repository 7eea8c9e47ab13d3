// Package issue defines the work-item model shared by the hierarchy,
// cascade, and sync components.
package issue

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Type classifies an issue within the Epic → Spec → Story hierarchy.
// Tasks are checkbox lines inside a Story body, not issues of their own,
// but the type exists because trackers may still label issues as tasks.
type Type string

const (
	TypeEpic    Type = "epic"
	TypeSpec    Type = "spec"
	TypeStory   Type = "story"
	TypeTask    Type = "task"
	TypeBug     Type = "bug"
	TypeIdea    Type = "idea"
	TypeUnknown Type = "unknown"
)

// Types lists the known issue types in hierarchy order.
var Types = []Type{TypeEpic, TypeSpec, TypeStory, TypeTask, TypeBug, TypeIdea}

// State is the lifecycle state maintained by the tracker.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// Issue is a tracker work item. Parent carries the tracker's structured
// parent link (0 when absent); body markers are the textual fallback.
type Issue struct {
	Number    int        `json:"number" yaml:"number"`
	Title     string     `json:"title" yaml:"title"`
	Type      Type       `json:"type" yaml:"type"`
	State     State      `json:"state" yaml:"state"`
	Body      string     `json:"body,omitempty" yaml:"body,omitempty"`
	Labels    []string   `json:"labels,omitempty" yaml:"labels,omitempty"`
	Assignees []string   `json:"assignees,omitempty" yaml:"assignees,omitempty"`
	Parent    int        `json:"parent,omitempty" yaml:"parent,omitempty"`
	URL       string     `json:"url,omitempty" yaml:"url,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty" yaml:"closed_at,omitempty"`
}

// IsOpen reports whether the issue is still open.
func (i *Issue) IsOpen() bool {
	return i.State == StateOpen
}

// HasStructuredParent reports whether the tracker recorded a parent link.
func (i *Issue) HasStructuredParent() bool {
	return i.Parent > 0
}

// ParentType returns the level above t in the strict hierarchy, or
// TypeUnknown for types that have no required parent.
func (t Type) ParentType() Type {
	switch t {
	case TypeStory:
		return TypeSpec
	case TypeSpec:
		return TypeEpic
	default:
		return TypeUnknown
	}
}

// ChildType returns the level below t, or TypeUnknown for leaf types.
func (t Type) ChildType() Type {
	switch t {
	case TypeEpic:
		return TypeSpec
	case TypeSpec:
		return TypeStory
	default:
		return TypeUnknown
	}
}

// Label returns the tracker label convention for the type, e.g. "type:spec".
func (t Type) Label() string {
	return "type:" + string(t)
}

// MarkerLevel returns the capitalized level name used in body markers.
func (t Type) MarkerLevel() string {
	switch t {
	case TypeEpic:
		return "Epic"
	case TypeSpec:
		return "Spec"
	case TypeStory:
		return "Story"
	default:
		return ""
	}
}

// TitlePrefix returns the bracketed title convention, e.g. "[Spec]".
func (t Type) TitlePrefix() string {
	if t == TypeUnknown {
		return ""
	}
	return "[" + strings.ToUpper(string(t)[:1]) + string(t)[1:] + "]"
}

// DetectType classifies an issue from its labels, falling back to title
// prefixes like "[Epic]" or "epic:". Labels win over titles; within a
// label, both the "type:epic" convention and a bare substring match count.
func DetectType(labels []string, title string) Type {
	for _, label := range labels {
		lower := strings.ToLower(label)
		for _, t := range Types {
			if strings.Contains(lower, string(t)) || lower == "type:"+string(t) {
				return t
			}
		}
	}

	lower := strings.ToLower(title)
	for _, t := range Types {
		if strings.HasPrefix(lower, "["+string(t)+"]") || strings.HasPrefix(lower, string(t)+":") {
			return t
		}
	}

	return TypeUnknown
}

// Marker patterns tolerate markdown bold because pushed issue bodies
// render the link as "**Parent Spec**: #N" while hand-written bodies
// usually carry the plain form.
var (
	parentEpicRe  = regexp.MustCompile(`(?i)\*{0,2}Parent Epic\*{0,2}:\s*#(\d+)`)
	parentSpecRe  = regexp.MustCompile(`(?i)\*{0,2}Parent Spec\*{0,2}:\s*#(\d+)`)
	parentStoryRe = regexp.MustCompile(`(?i)\*{0,2}Parent Story\*{0,2}:\s*#(\d+)`)
	relatedRe     = regexp.MustCompile(`(?i)\*{0,2}Related Issue\*{0,2}:\s*#(\d+)`)
	bareParentRe  = regexp.MustCompile(`(?i)\*{0,2}Parent\*{0,2}:\s*#(\d+)`)

	checkboxRe = regexp.MustCompile(`(?m)^\s*-\s*\[[ xX]\]`)
	checkedRe  = regexp.MustCompile(`(?m)^\s*-\s*\[[xX]\]`)
)

func markerPattern(parent Type) *regexp.Regexp {
	switch parent {
	case TypeEpic:
		return parentEpicRe
	case TypeSpec:
		return parentSpecRe
	case TypeStory:
		return parentStoryRe
	default:
		return nil
	}
}

// ParentFromBody extracts the parent number for a specific level marker,
// e.g. ParentFromBody(body, TypeSpec) matches "Parent Spec: #12".
// Returns 0 when the marker is absent.
func ParentFromBody(body string, parent Type) int {
	re := markerPattern(parent)
	if re == nil {
		return 0
	}
	return firstNumber(re, body)
}

// AnyParentFromBody scans the body markers in precedence order
// (Parent Epic, Parent Spec, Parent Story, Related Issue, Parent) and
// returns the first captured number, or 0.
func AnyParentFromBody(body string) int {
	for _, re := range []*regexp.Regexp{parentEpicRe, parentSpecRe, parentStoryRe, relatedRe, bareParentRe} {
		if n := firstNumber(re, body); n > 0 {
			return n
		}
	}
	return 0
}

// ResolvedParent returns the structured parent when present, otherwise
// the first body marker. Structured and textual sources never both bind;
// when they disagree the structured link wins.
func (i *Issue) ResolvedParent() int {
	if i.Parent > 0 {
		return i.Parent
	}
	return AnyParentFromBody(i.Body)
}

// ParentMarker renders the canonical body marker line for a parent link.
func ParentMarker(parent Type, number int) string {
	return fmt.Sprintf("Parent %s: #%d", parent.MarkerLevel(), number)
}

func firstNumber(re *regexp.Regexp, body string) int {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// CountTasks counts checkbox task lines in a body. Both checked and
// unchecked boxes count toward total.
func CountTasks(body string) (done, total int) {
	total = len(checkboxRe.FindAllString(body, -1))
	done = len(checkedRe.FindAllString(body, -1))
	return done, total
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a title to a lowercase hyphenated slug of at most
// maxLen characters, the convention used for draft and worktree names.
func Slugify(title string, maxLen int) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStripRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if maxLen > 0 && len(slug) > maxLen {
		slug = slug[:maxLen]
		slug = strings.TrimRight(slug, "-")
	}
	return slug
}
