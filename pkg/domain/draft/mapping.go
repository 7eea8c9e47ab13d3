package draft

import (
	"fmt"
	"strings"
)

// IssueFields is the tracker-ready rendering of a draft.
type IssueFields struct {
	Title  string
	Body   string
	Labels []string
}

var specBodySections = []string{"Overview", "Requirements", "Acceptance Criteria", "Technical Notes"}
var planBodySections = []string{"Implementation Approach", "Technical Decisions"}

// MapToIssue converts a validated draft into the title, body, and labels
// for the tracker issue it will become. The parent link is rendered as a
// bold marker line at the top of the body so the cascade can resolve it
// even on trackers without structured parent fields.
func MapToIssue(d *Draft) IssueFields {
	sections := d.Sections()
	t := d.Meta.Type

	title := d.Meta.Title
	prefix := strings.ToUpper(string(t)[:1]) + string(t)[1:]
	if strings.HasPrefix(strings.ToLower(title), string(t)) {
		// "Plan: User Auth" becomes "[Plan] User Auth".
		if _, rest, found := strings.Cut(title, ":"); found {
			title = strings.TrimSpace(rest)
		}
	}
	title = fmt.Sprintf("[%s] %s", prefix, title)

	var keep []string
	switch t {
	case TypePlan:
		keep = planBodySections
	default:
		keep = specBodySections
	}

	var parts []string
	switch {
	case t == TypeSpec && d.Meta.ParentEpic > 0:
		parts = append(parts, fmt.Sprintf("**Parent Epic**: #%d\n", d.Meta.ParentEpic))
	case t == TypePlan && d.Meta.ParentSpec > 0:
		parts = append(parts, fmt.Sprintf("**Parent Spec**: #%d\n", d.Meta.ParentSpec))
	}
	for _, name := range keep {
		if content, ok := sections[name]; ok {
			parts = append(parts, fmt.Sprintf("## %s\n\n%s", name, content))
		}
	}

	labels := []string{"type:" + string(t)}
	if t == TypeSpec {
		labels = append(labels, "status:draft")
	}

	return IssueFields{
		Title:  title,
		Body:   strings.Join(parts, "\n\n"),
		Labels: labels,
	}
}
