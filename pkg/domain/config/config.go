// Package config defines workspace configuration with defaults.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// OrgTemplates configures fetching of shared issue templates from an
// organization repository.
type OrgTemplates struct {
	Source            string `yaml:"source" json:"source"`
	TemplatePath      string `yaml:"template_path" json:"template_path"`
	IncludePRTemplate bool   `yaml:"include_pr_template" json:"include_pr_template"`
	Enabled           bool   `yaml:"enabled" json:"enabled"`
}

// GitHubMCP configures the GitHub MCP server integration.
type GitHubMCP struct {
	UseOrgTemplates bool `yaml:"use_org_templates" json:"use_org_templates"`
}

// AssistantSettings controls project-level assistant configuration
// written to .claude/settings.json.
type AssistantSettings struct {
	EnableMemoryPlugin bool `yaml:"enable_claude_mem" json:"enable_claude_mem"`
	EnableGitHubMCP    bool `yaml:"enable_github_mcp" json:"enable_github_mcp"`
}

// Fork tracks upstream and fork release tags.
type Fork struct {
	UpstreamTag string `yaml:"upstream_tag,omitempty" json:"upstream_tag,omitempty"`
	ForkTag     string `yaml:"fork_tag,omitempty" json:"fork_tag,omitempty"`
}

// IssueTracking configures issue sync and caching behavior.
type IssueTracking struct {
	Enabled         bool `yaml:"enabled" json:"enabled"`
	AutoSync        bool `yaml:"auto_sync" json:"auto_sync"`
	CacheIssues     bool `yaml:"cache_issues" json:"cache_issues"`
	CacheClosedDays int  `yaml:"cache_closed_days" json:"cache_closed_days"`
}

// Drafts configures draft validation behavior.
type Drafts struct {
	AutoValidate  bool `yaml:"auto_validate" json:"auto_validate"`
	RequireParent bool `yaml:"require_parent" json:"require_parent"`
}

// Tracker selects the issue tracker backend. "github" uses the built-in
// client; any other value names an external provider plugin.
type Tracker struct {
	Provider string `yaml:"provider" json:"provider"`
}

// Docs configures documentation paths and auto-update behavior.
type Docs struct {
	Path                  string `yaml:"path" json:"path"`
	Constitution          string `yaml:"constitution" json:"constitution"`
	ArchitectureMD        string `yaml:"architecture_md" json:"architecture_md"`
	ArchitectureDiagram   string `yaml:"architecture_diagram" json:"architecture_diagram"`
	Decisions             string `yaml:"decisions" json:"decisions"`
	AutoUpdateOnPlan      bool   `yaml:"auto_update_on_plan" json:"auto_update_on_plan"`
	AutoUpdateOnImplement bool   `yaml:"auto_update_on_implement" json:"auto_update_on_implement"`
}

// Config is the full workspace configuration loaded from
// .specify/config.yml. It is loaded once at startup and injected into
// services; nothing re-reads the file mid-run.
type Config struct {
	OrgTemplates      OrgTemplates      `yaml:"org_templates" json:"org_templates"`
	GitHubMCP         GitHubMCP         `yaml:"github_mcp" json:"github_mcp"`
	AssistantSettings AssistantSettings `yaml:"claude_settings" json:"claude_settings"`
	Fork              Fork              `yaml:"fork,omitempty" json:"fork,omitempty"`
	IssueTracking     IssueTracking     `yaml:"issue_tracking" json:"issue_tracking"`
	Drafts            Drafts            `yaml:"drafts" json:"drafts"`
	Tracker           Tracker           `yaml:"tracker" json:"tracker"`
	Docs              Docs              `yaml:"docs" json:"docs"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		OrgTemplates: OrgTemplates{
			Source:            "jcttech/.github",
			TemplatePath:      ".github/ISSUE_TEMPLATE",
			IncludePRTemplate: true,
			Enabled:           true,
		},
		GitHubMCP: GitHubMCP{
			UseOrgTemplates: true,
		},
		AssistantSettings: AssistantSettings{
			EnableMemoryPlugin: true,
			EnableGitHubMCP:    true,
		},
		IssueTracking: IssueTracking{
			Enabled:         true,
			AutoSync:        true,
			CacheIssues:     true,
			CacheClosedDays: 7,
		},
		Drafts: Drafts{
			AutoValidate:  true,
			RequireParent: true,
		},
		Tracker: Tracker{
			Provider: "github",
		},
		Docs: Docs{
			Path:                  ".docs",
			Constitution:          ".docs/constitution.md",
			ArchitectureMD:        ".docs/architecture.md",
			ArchitectureDiagram:   ".docs/architecture.excalidraw",
			Decisions:             ".docs/decisions.md",
			AutoUpdateOnPlan:      true,
			AutoUpdateOnImplement: true,
		},
	}
}

// Parse unmarshals user configuration over the defaults. Keys absent
// from the document keep their default values, so a partial config file
// behaves like a deep merge. The merged result is checked against the
// config schema.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// TemplateSource returns the org template repository, or empty when
// template fetching is disabled.
func (c *Config) TemplateSource() string {
	if !c.OrgTemplates.Enabled {
		return ""
	}
	return c.OrgTemplates.Source
}

// AutoUpdateDocs reports whether docs should auto-update for a phase
// ("plan" or "implement").
func (c *Config) AutoUpdateDocs(phase string) bool {
	switch phase {
	case "plan":
		return c.Docs.AutoUpdateOnPlan
	case "implement":
		return c.Docs.AutoUpdateOnImplement
	}
	return false
}

// DeepMerge merges override into base recursively, with override taking
// precedence. Nested maps merge; all other values replace. Used for
// JSON settings files where unknown keys must survive.
func DeepMerge(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if baseMap, ok := result[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = DeepMerge(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}
