// Package analysis inspects the cached hierarchy and local drafts for
// consistency problems before they reach the tracker.
package analysis

import (
	"sort"
	"time"
)

type FindingType string

const (
	TypeCoverage  FindingType = "coverage"  // requirements vs stories
	TypeLanguage  FindingType = "language"  // vague wording, placeholders
	TypeHierarchy FindingType = "hierarchy" // parent links and levels
)

type Category string

const (
	CategoryMissing     Category = "MISSING"     // a referenced thing does not exist
	CategoryOrphan      Category = "ORPHAN"      // exists but is not linked anywhere
	CategoryVague       Category = "VAGUE"       // unmeasurable wording
	CategoryPlaceholder Category = "PLACEHOLDER" // template text left in place
	CategoryDrift       Category = "DRIFT"       // two sources disagree
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Finding is a single detected problem.
type Finding struct {
	ID          string      `json:"id" yaml:"id"`
	Type        FindingType `json:"type" yaml:"type"`
	Category    Category    `json:"category" yaml:"category"`
	Severity    Severity    `json:"severity" yaml:"severity"`
	ComponentID string      `json:"component_id" yaml:"component_id"`
	Message     string      `json:"message" yaml:"message"`
	Hint        string      `json:"hint" yaml:"hint"`
}

// Metrics summarizes an analysis run.
type Metrics struct {
	Critical       int     `json:"critical" yaml:"critical"`
	High           int     `json:"high" yaml:"high"`
	Medium         int     `json:"medium" yaml:"medium"`
	Low            int     `json:"low" yaml:"low"`
	CoverageRatio  float64 `json:"coverage_ratio" yaml:"coverage_ratio"`
	IssuesAnalyzed int     `json:"issues_analyzed" yaml:"issues_analyzed"`
	DraftsAnalyzed int     `json:"drafts_analyzed" yaml:"drafts_analyzed"`
}

// Report is the outcome of one analysis run, findings sorted most severe
// first.
type Report struct {
	ID        string    `json:"id" yaml:"id"`
	Findings  []Finding `json:"findings" yaml:"findings"`
	Metrics   Metrics   `json:"metrics" yaml:"metrics"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// HasCritical reports whether any finding is critical.
func (r *Report) HasCritical() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// sortFindings orders by severity, keeping insertion order within a
// severity level.
func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return severityRank[findings[i].Severity] < severityRank[findings[j].Severity]
	})
}

func tally(findings []Finding, m *Metrics) {
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			m.Critical++
		case SeverityHigh:
			m.High++
		case SeverityMedium:
			m.Medium++
		case SeverityLow:
			m.Low++
		}
	}
}
