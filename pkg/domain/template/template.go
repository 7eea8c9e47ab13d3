// Package template models organization issue templates fetched from a
// shared GitHub repository.
package template

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jcttech/specstack/pkg/domain/issue"
)

// ManifestFile is the cache manifest name inside the org-templates dir.
const ManifestFile = ".cache-manifest.json"

// PRTemplateFile is the name fetched pull request templates are saved under.
const PRTemplateFile = "pull_request_template.md"

// PRTemplatePaths are tried in order when fetching a pull request template.
var PRTemplatePaths = []string{
	".github/pull_request_template.md",
	".github/PULL_REQUEST_TEMPLATE.md",
	"pull_request_template.md",
}

// Manifest records what a fetch run stored locally.
type Manifest struct {
	SourceRepo   string    `json:"source_repo"`
	TemplatePath string    `json:"template_path"`
	Files        []string  `json:"files"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// FetchResult reports a template fetch run. Errors are collected rather
// than aborting so one bad file does not lose the rest.
type FetchResult struct {
	SourceRepo string   `json:"source_repo"`
	Fetched    []string `json:"fetched_files"`
	Errors     []string `json:"errors"`
}

// CheckboxOption is one entry of a checkboxes field.
type CheckboxOption struct {
	Label    string `json:"label" yaml:"label"`
	Required bool   `json:"required" yaml:"required"`
}

// Field is a single input of an issue template form. Options and
// Multiple are set for dropdown fields, Checkboxes for checkboxes
// fields.
type Field struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	Label       string           `json:"label"`
	Description string           `json:"description,omitempty"`
	Placeholder string           `json:"placeholder,omitempty"`
	Required    bool             `json:"required"`
	Options     []string         `json:"options,omitempty"`
	Multiple    bool             `json:"multiple,omitempty"`
	Checkboxes  []CheckboxOption `json:"checkboxes,omitempty"`
}

// IssueTemplate is the parsed form schema of a GitHub issue template.
type IssueTemplate struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TitlePrefix string   `json:"title_prefix"`
	Labels      []string `json:"labels"`
	Fields      []Field  `json:"fields"`
	ParseError  string   `json:"parse_error,omitempty"`
}

type rawAttributes struct {
	Label       string    `yaml:"label"`
	Description string    `yaml:"description"`
	Placeholder string    `yaml:"placeholder"`
	Options     yaml.Node `yaml:"options"`
	Multiple    bool      `yaml:"multiple"`
}

type rawBodyItem struct {
	Type        string        `yaml:"type"`
	ID          string        `yaml:"id"`
	Attributes  rawAttributes `yaml:"attributes"`
	Validations struct {
		Required bool `yaml:"required"`
	} `yaml:"validations"`
}

type rawTemplate struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Title       string        `yaml:"title"`
	Labels      yaml.Node     `yaml:"labels"`
	Body        []rawBodyItem `yaml:"body"`
}

// ParseIssueTemplate parses GitHub issue form YAML into a field schema.
// Markdown-only body sections are skipped. Parse failures are reported
// on the result instead of an error so callers can fall back to a bare
// template.
func ParseIssueTemplate(data []byte) *IssueTemplate {
	result := &IssueTemplate{Labels: []string{}, Fields: []Field{}}

	var raw rawTemplate
	if err := yaml.Unmarshal(data, &raw); err != nil {
		result.ParseError = err.Error()
		return result
	}

	result.Name = raw.Name
	result.Description = raw.Description
	result.TitlePrefix = raw.Title
	result.Labels = decodeLabels(raw.Labels)

	for _, item := range raw.Body {
		if item.Type == "markdown" {
			continue
		}
		field := Field{
			ID:          item.ID,
			Type:        item.Type,
			Label:       item.Attributes.Label,
			Description: item.Attributes.Description,
			Placeholder: item.Attributes.Placeholder,
			Required:    item.Validations.Required,
		}
		switch item.Type {
		case "dropdown":
			_ = item.Attributes.Options.Decode(&field.Options)
			field.Multiple = item.Attributes.Multiple
		case "checkboxes":
			_ = item.Attributes.Options.Decode(&field.Checkboxes)
		}
		result.Fields = append(result.Fields, field)
	}

	return result
}

// decodeLabels accepts both the list and single-string forms GitHub
// allows for template labels.
func decodeLabels(node yaml.Node) []string {
	var list []string
	if err := node.Decode(&list); err == nil && list != nil {
		return list
	}
	var single string
	if err := node.Decode(&single); err == nil && single != "" {
		return []string{single}
	}
	return []string{}
}

// CandidateFiles returns the template file names tried for an issue
// type, most specific first.
func CandidateFiles(t issue.Type) []string {
	switch t {
	case issue.TypeEpic:
		return []string{"epic.yml", "epic.yaml"}
	case issue.TypeSpec:
		return []string{"spec.yml", "spec.yaml", "specification.yml"}
	case issue.TypeStory:
		return []string{"story.yml", "story.yaml", "user-story.yml"}
	case issue.TypeTask:
		return []string{"task.yml", "task.yaml"}
	case issue.TypeBug:
		return []string{"bug.yml", "bug.yaml", "bug-report.yml"}
	default:
		return []string{fmt.Sprintf("%s.yml", t)}
	}
}
