package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jcttech/specstack/pkg/domain/issue"
)

// DraftDoc is a local draft handed to the analyzer.
type DraftDoc struct {
	ID   string
	Body string
}

// Input is the snapshot an analysis run works on.
type Input struct {
	Issues []issue.Issue
	Drafts []DraftDoc
}

// Analyzer checks hierarchy integrity, requirement coverage, and wording
// quality across cached issues and local drafts.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze runs all passes and returns a severity-sorted report.
func (a *Analyzer) Analyze(in Input) *Report {
	report := &Report{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}

	findings := a.checkHierarchy(in.Issues)
	coverage, ratio := a.checkCoverage(in.Issues)
	findings = append(findings, coverage...)
	findings = append(findings, a.checkLanguage(in)...)
	findings = append(findings, a.checkTerminology(in)...)

	sortFindings(findings)
	report.Findings = findings

	report.Metrics.CoverageRatio = ratio
	report.Metrics.IssuesAnalyzed = len(in.Issues)
	report.Metrics.DraftsAnalyzed = len(in.Drafts)
	tally(findings, &report.Metrics)

	return report
}

// checkHierarchy validates parent links: dangling references, orphans,
// level mismatches, and parent cycles.
func (a *Analyzer) checkHierarchy(issues []issue.Issue) []Finding {
	findings := make([]Finding, 0)

	byNumber := make(map[int]*issue.Issue, len(issues))
	for i := range issues {
		byNumber[issues[i].Number] = &issues[i]
	}

	for i := range issues {
		iss := &issues[i]
		if iss.Type != issue.TypeSpec && iss.Type != issue.TypeStory {
			continue
		}

		parent := iss.ResolvedParent()
		if parent == 0 {
			severity := SeverityMedium
			hint := "Link the spec to its epic with a 'Parent Epic: #N' line."
			if iss.Type == issue.TypeStory {
				severity = SeverityHigh
				hint = "Link the story to its spec with a 'Parent Spec: #N' line so cascade close can find it."
			}
			findings = append(findings, Finding{
				ID:          fmt.Sprintf("orphan-%s-%d", iss.Type, iss.Number),
				Type:        TypeHierarchy,
				Category:    CategoryOrphan,
				Severity:    severity,
				ComponentID: fmt.Sprintf("#%d", iss.Number),
				Message:     fmt.Sprintf("%s #%d %q has no parent link.", iss.Type.MarkerLevel(), iss.Number, iss.Title),
				Hint:        hint,
			})
			continue
		}

		parentIssue, ok := byNumber[parent]
		if !ok {
			findings = append(findings, Finding{
				ID:          fmt.Sprintf("missing-parent-%d", iss.Number),
				Type:        TypeHierarchy,
				Category:    CategoryMissing,
				Severity:    SeverityHigh,
				ComponentID: fmt.Sprintf("#%d", iss.Number),
				Message:     fmt.Sprintf("%s #%d references parent #%d which is not in the cache.", iss.Type.MarkerLevel(), iss.Number, parent),
				Hint:        "Run 'specstack sync' to refresh the cache, or fix the parent reference.",
			})
			continue
		}

		if expected := iss.Type.ParentType(); expected != issue.TypeUnknown && parentIssue.Type != expected {
			findings = append(findings, Finding{
				ID:          fmt.Sprintf("level-mismatch-%d", iss.Number),
				Type:        TypeHierarchy,
				Category:    CategoryDrift,
				Severity:    SeverityHigh,
				ComponentID: fmt.Sprintf("#%d", iss.Number),
				Message:     fmt.Sprintf("%s #%d points at #%d which is a %s, expected a %s.", iss.Type.MarkerLevel(), iss.Number, parent, parentIssue.Type, expected),
				Hint:        "Re-parent the issue one level up in the Epic > Spec > Story hierarchy.",
			})
		}
	}

	findings = append(findings, a.checkCycles(byNumber)...)
	return findings
}

func (a *Analyzer) checkCycles(byNumber map[int]*issue.Issue) []Finding {
	var findings []Finding
	inCycle := make(map[int]bool)

	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		if inCycle[n] {
			continue
		}
		visited := map[int]bool{}
		cur := n
		for cur != 0 {
			if visited[cur] {
				// Walked back onto the chain: a parent cycle.
				if !inCycle[cur] {
					for v := range visited {
						inCycle[v] = true
					}
					findings = append(findings, Finding{
						ID:          fmt.Sprintf("cycle-%d", cur),
						Type:        TypeHierarchy,
						Category:    CategoryDrift,
						Severity:    SeverityCritical,
						ComponentID: fmt.Sprintf("#%d", cur),
						Message:     fmt.Sprintf("Parent links form a cycle involving #%d.", cur),
						Hint:        "Break the cycle by removing one of the parent references.",
					})
				}
				break
			}
			visited[cur] = true
			iss, ok := byNumber[cur]
			if !ok {
				break
			}
			cur = iss.ResolvedParent()
		}
	}
	return findings
}

// checkCoverage compares requirement checkboxes on open specs against the
// stories filed under them. The coverage ratio counts min(stories,
// requirements) per spec as covered.
func (a *Analyzer) checkCoverage(issues []issue.Issue) ([]Finding, float64) {
	findings := make([]Finding, 0)

	storiesByParent := make(map[int]int)
	for i := range issues {
		if issues[i].Type == issue.TypeStory {
			if p := issues[i].ResolvedParent(); p > 0 {
				storiesByParent[p]++
			}
		}
	}

	covered, total := 0, 0
	for i := range issues {
		iss := &issues[i]
		if iss.Type != issue.TypeSpec || !iss.IsOpen() {
			continue
		}

		_, requirements := issue.CountTasks(iss.Body)
		if requirements == 0 {
			continue
		}
		stories := storiesByParent[iss.Number]
		total += requirements
		if stories < requirements {
			covered += stories
		} else {
			covered += requirements
		}

		switch {
		case stories == 0:
			findings = append(findings, Finding{
				ID:          fmt.Sprintf("no-stories-%d", iss.Number),
				Type:        TypeCoverage,
				Category:    CategoryMissing,
				Severity:    SeverityHigh,
				ComponentID: fmt.Sprintf("#%d", iss.Number),
				Message:     fmt.Sprintf("Spec #%d has %d requirements but no stories.", iss.Number, requirements),
				Hint:        "Generate stories from its plan draft with 'specstack stories push'.",
			})
		case stories < requirements:
			findings = append(findings, Finding{
				ID:          fmt.Sprintf("under-covered-%d", iss.Number),
				Type:        TypeCoverage,
				Category:    CategoryMissing,
				Severity:    SeverityMedium,
				ComponentID: fmt.Sprintf("#%d", iss.Number),
				Message:     fmt.Sprintf("Spec #%d has %d requirements but only %d stories.", iss.Number, requirements, stories),
				Hint:        "Check whether every requirement maps to at least one story.",
			})
		}
	}

	ratio := 1.0
	if total > 0 {
		ratio = float64(covered) / float64(total)
	}
	return findings, ratio
}

var (
	vagueRe = regexp.MustCompile(`(?i)\b(fast|easy|simple|robust|scalable|flexible|seamless|intuitive|performant|efficient|user-friendly|reliable)\b`)

	placeholderRe = regexp.MustCompile(`\[NEEDS CLARIFICATION[^\]]*\]|\[TBD\]|\bTODO\b|\bFIXME\b|\bXXX\b|\?\?\?`)
)

type document struct {
	id        string
	component string
	body      string
}

func collectDocuments(in Input) []document {
	docs := make([]document, 0, len(in.Issues)+len(in.Drafts))
	for _, iss := range in.Issues {
		if iss.Body == "" {
			continue
		}
		docs = append(docs, document{
			id:        fmt.Sprintf("%s-%d", iss.Type, iss.Number),
			component: fmt.Sprintf("#%d", iss.Number),
			body:      iss.Body,
		})
	}
	for _, d := range in.Drafts {
		docs = append(docs, document{id: d.ID, component: d.ID, body: d.Body})
	}
	return docs
}

// checkLanguage flags vague wording and leftover placeholder markers,
// one finding per document so a sloppy draft does not flood the report.
func (a *Analyzer) checkLanguage(in Input) []Finding {
	findings := make([]Finding, 0)

	for _, doc := range collectDocuments(in) {
		if terms := distinctMatches(vagueRe, doc.body); len(terms) > 0 {
			findings = append(findings, Finding{
				ID:          "vague-" + doc.id,
				Type:        TypeLanguage,
				Category:    CategoryVague,
				Severity:    SeverityLow,
				ComponentID: doc.component,
				Message:     fmt.Sprintf("Vague language in %s: %s.", doc.component, strings.Join(terms, ", ")),
				Hint:        "Replace vague terms with measurable acceptance criteria.",
			})
		}

		if markers := placeholderRe.FindAllString(doc.body, -1); len(markers) > 0 {
			findings = append(findings, Finding{
				ID:          "placeholder-" + doc.id,
				Type:        TypeLanguage,
				Category:    CategoryPlaceholder,
				Severity:    SeverityMedium,
				ComponentID: doc.component,
				Message:     fmt.Sprintf("%d placeholder markers left in %s.", len(markers), doc.component),
				Hint:        "Resolve TODO, [TBD], and [NEEDS CLARIFICATION] markers before pushing.",
			})
		}
	}

	return findings
}

// termGroups lists synonym sets whose mixed use across documents usually
// means two authors named the same concept differently.
var termGroups = [][]string{
	{"login", "log in", "sign in", "sign-in"},
	{"delete", "remove"},
	{"user", "customer", "client"},
	{"epic", "initiative"},
	{"setup", "set up"},
}

var termPatterns = compileTermPatterns()

func compileTermPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, group := range termGroups {
		for _, term := range group {
			patterns[term] = regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
		}
	}
	return patterns
}

// checkTerminology reports synonym groups where two or more variants are
// in use across the analyzed documents.
func (a *Analyzer) checkTerminology(in Input) []Finding {
	findings := make([]Finding, 0)

	var all strings.Builder
	for _, doc := range collectDocuments(in) {
		all.WriteString(strings.ToLower(doc.body))
		all.WriteString("\n")
	}
	corpus := all.String()

	for _, group := range termGroups {
		var present []string
		for _, term := range group {
			if termPatterns[term].MatchString(corpus) {
				present = append(present, term)
			}
		}
		if len(present) >= 2 {
			findings = append(findings, Finding{
				ID:       "term-drift-" + strings.ReplaceAll(group[0], " ", "-"),
				Type:     TypeLanguage,
				Category: CategoryDrift,
				Severity: SeverityLow,
				Message:  fmt.Sprintf("Terminology drift: %s all in use for the same concept.", quoteJoin(present)),
				Hint:     "Pick one term and apply it consistently across issues and drafts.",
			})
		}
	}

	return findings
}

func distinctMatches(re *regexp.Regexp, body string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range re.FindAllString(body, -1) {
		lower := strings.ToLower(m)
		if !seen[lower] {
			seen[lower] = true
			out = append(out, lower)
		}
	}
	sort.Strings(out)
	return out
}

func quoteJoin(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = "'" + t + "'"
	}
	return strings.Join(quoted, ", ")
}
