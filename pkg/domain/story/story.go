// Package story turns plan drafts into tracker-ready story issues and
// tracks task checkbox progress inside story bodies.
package story

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jcttech/specstack/pkg/domain/issue"
)

// Story is one implementable unit extracted from a plan draft.
type Story struct {
	Number         int
	Title          string // formatted with the [Story] prefix
	UserStory      string
	Description    string
	Tasks          []string
	Criteria       []string
	TechnicalNotes string
	ParentSpec     int
	Body           string
	Labels         []string
}

// Title formats a raw story title with the [Story] prefix, stripping any
// prefix variant the plan author already wrote.
func Title(raw string) string {
	title := strings.TrimSpace(raw)
	for _, prefix := range []string{"Story:", "[Story]", "Story -"} {
		if strings.HasPrefix(strings.ToLower(title), strings.ToLower(prefix)) {
			title = strings.TrimSpace(title[len(prefix):])
		}
	}
	return "[Story] " + title
}

// Body renders a story issue body. Empty fields fall back to placeholder
// text so a half-filled plan still produces an editable issue.
func Body(userStory, description string, tasks, criteria []string, parentSpec int, technicalNotes string) string {
	if userStory == "" {
		userStory = "_As a [user type], I want [action] so that [benefit]._"
	}
	if description == "" {
		description = "_[Detailed description of the story...]_"
	}

	lines := []string{
		fmt.Sprintf("**Parent Spec**: #%d", parentSpec),
		"",
		"## User Story",
		"",
		userStory,
		"",
		"## Description",
		"",
		description,
		"",
		"## Tasks",
		"",
	}

	if len(tasks) > 0 {
		for _, task := range tasks {
			lines = append(lines, "- [ ] "+task)
		}
	} else {
		lines = append(lines, "- [ ] [Task 1]", "- [ ] [Task 2]")
	}

	lines = append(lines, "", "## Acceptance Criteria", "")

	if len(criteria) > 0 {
		for _, criterion := range criteria {
			lines = append(lines, "- [ ] "+criterion)
		}
	} else {
		lines = append(lines, "- [ ] [Criterion 1]", "- [ ] [Criterion 2]")
	}

	if technicalNotes != "" {
		lines = append(lines, "", "## Technical Notes", "", technicalNotes)
	}

	return strings.Join(lines, "\n")
}

var (
	storyHeadingRe = regexp.MustCompile(`(?m)^###\s+Story\s+(\d+):\s*(.+)$`)
	h2BreakRe      = regexp.MustCompile(`(?m)^##\s+[A-Z]`)

	userStoryRe = regexp.MustCompile(`(?s)\*\*User Story\*\*:\s*(.*?)(\n\n|\n\*\*|\z)`)
	descRe      = regexp.MustCompile(`(?s)\*\*Description\*\*:\s*(.*?)(\n\*\*Tasks|\n\*\*Acceptance|\z)`)
	notesRe     = regexp.MustCompile(`(?s)\*\*Technical Notes\*\*:\s*(.*?)(\n\*\*|\n###|\n---|\z)`)

	tasksSectionRe    = regexp.MustCompile(`\*\*Tasks\*\*:\s*\n((?:\s*-\s*\[.\]\s*.+\n?)+)`)
	criteriaSectionRe = regexp.MustCompile(`\*\*Acceptance Criteria\*\*:\s*\n((?:\s*-\s*\[.\]\s*.+\n?)+)`)

	checkboxItemRe = regexp.MustCompile(`^\s*-\s*\[.\]\s*(.+)`)

	taskLineRe     = regexp.MustCompile(`^\s*-\s*\[[ xX]\]`)
	uncheckedBoxRe = regexp.MustCompile(`\[ \]`)
	checkedBoxRe   = regexp.MustCompile(`\[[xX]\]`)
)

// FromPlan extracts story definitions from plan draft content. A story
// block starts at a "### Story N: Title" heading and runs until the next
// story heading or the next H2 section.
func FromPlan(content string, parentSpec int) []Story {
	locs := storyHeadingRe.FindAllStringSubmatchIndex(content, -1)
	var stories []Story

	for i, loc := range locs {
		start, headEnd := loc[0], loc[1]
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if m := h2BreakRe.FindStringIndex(content[headEnd:end]); m != nil {
			end = headEnd + m[0]
		}
		block := content[start:end]

		number, _ := strconv.Atoi(content[loc[2]:loc[3]])
		rawTitle := strings.TrimSpace(content[loc[4]:loc[5]])
		if rawTitle == "" {
			rawTitle = fmt.Sprintf("Story %d", number)
		}

		userStory := submatch(userStoryRe, block)
		description := submatch(descRe, block)
		tasks := checkboxItems(tasksSectionRe, block)
		criteria := checkboxItems(criteriaSectionRe, block)
		notes := submatch(notesRe, block)

		stories = append(stories, Story{
			Number:         number,
			Title:          Title(rawTitle),
			UserStory:      userStory,
			Description:    description,
			Tasks:          tasks,
			Criteria:       criteria,
			TechnicalNotes: notes,
			ParentSpec:     parentSpec,
			Body:           Body(userStory, description, tasks, criteria, parentSpec, notes),
			Labels:         []string{"status:draft"},
		})
	}

	return stories
}

func submatch(re *regexp.Regexp, content string) string {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func checkboxItems(re *regexp.Regexp, content string) []string {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	var items []string
	for _, line := range strings.Split(m[1], "\n") {
		if im := checkboxItemRe.FindStringSubmatch(line); im != nil {
			items = append(items, strings.TrimSpace(im[1]))
		}
	}
	return items
}

// UpdateTaskStatus toggles the nth (0-based) task checkbox in a story
// body. Out-of-range indexes leave the body unchanged.
func UpdateTaskStatus(body string, taskIndex int, completed bool) string {
	lines := strings.Split(body, "\n")
	count := 0

	for i, line := range lines {
		if !taskLineRe.MatchString(line) {
			continue
		}
		if count == taskIndex {
			if completed {
				lines[i] = uncheckedBoxRe.ReplaceAllString(line, "[x]")
			} else {
				lines[i] = checkedBoxRe.ReplaceAllString(line, "[ ]")
			}
			break
		}
		count++
	}

	return strings.Join(lines, "\n")
}

// TaskCounts summarizes checkbox progress in a story body.
type TaskCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Remaining int `json:"remaining"`
}

// CountTasks counts the task checkboxes in a story body.
func CountTasks(body string) TaskCounts {
	done, total := issue.CountTasks(body)
	return TaskCounts{Total: total, Completed: done, Remaining: total - done}
}

// IsComplete reports whether the story has tasks and all are checked.
// A story with no checkboxes is never complete.
func IsComplete(body string) bool {
	counts := CountTasks(body)
	return counts.Total > 0 && counts.Remaining == 0
}

// BreakdownSummary renders a markdown table summarizing the stories
// generated from one spec.
func BreakdownSummary(stories []Story) string {
	lines := []string{
		"## Story Breakdown Summary",
		"",
		fmt.Sprintf("Generated %d stories from spec:", len(stories)),
		"",
		"| # | Story | Tasks | Criteria |",
		"|---|-------|-------|----------|",
	}

	totalTasks, totalCriteria := 0, 0
	for i, s := range stories {
		lines = append(lines, fmt.Sprintf("| %d | %s | %d | %d |", i+1, s.Title, len(s.Tasks), len(s.Criteria)))
		totalTasks += len(s.Tasks)
		totalCriteria += len(s.Criteria)
	}

	lines = append(lines,
		"",
		fmt.Sprintf("**Total Tasks**: %d", totalTasks),
		fmt.Sprintf("**Total Acceptance Criteria**: %d", totalCriteria),
	)

	return strings.Join(lines, "\n")
}

// Complexity estimates a t-shirt size from the task and criteria counts.
func Complexity(s Story) string {
	total := len(s.Tasks) + len(s.Criteria)
	switch {
	case total <= 4:
		return "S"
	case total <= 8:
		return "M"
	case total <= 12:
		return "L"
	default:
		return "XL"
	}
}

var (
	setupKeywords     = []string{"setup", "initialize", "create", "configure", "install"}
	dependentKeywords = []string{"use", "extend", "modify", "update", "integrate"}
)

// SuggestDependencies pairs stories whose wording suggests they build on
// another story's setup work. Each pair is (dependent, dependency) by
// slice index; a dependent story binds to the first setup story found.
func SuggestDependencies(stories []Story) [][2]int {
	var deps [][2]int

	text := func(s Story) string {
		return strings.ToLower(strings.Join(append(append([]string{}, s.Tasks...), s.Title), " "))
	}
	containsAny := func(haystack string, keywords []string) bool {
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				return true
			}
		}
		return false
	}

	for i, s := range stories {
		if !containsAny(text(s), dependentKeywords) {
			continue
		}
		for j, other := range stories {
			if i == j {
				continue
			}
			if containsAny(text(other), setupKeywords) {
				deps = append(deps, [2]int{i, j})
				break
			}
		}
	}

	return deps
}
