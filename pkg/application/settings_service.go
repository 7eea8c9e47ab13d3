package application

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jcttech/specstack/pkg/domain/config"
)

const (
	memoryPluginKey  = "claude-mem@thedotmack"
	githubMCPURL     = "https://api.githubcopilot.com/mcp/"
	githubMCPAllow   = "mcp__github__*"
	settingsFileName = "settings.json"
	settingsDirName  = ".claude"
)

// SettingsResult reports what Configure wrote.
type SettingsResult struct {
	Path         string `json:"settings_path"`
	MemoryPlugin bool   `json:"claude_mem_enabled"`
	GitHubMCP    bool   `json:"github_mcp_enabled"`
}

// SettingsService writes the project-level assistant settings: the
// memory plugin and the GitHub MCP server entry. The MCP server uses
// HTTP auth against the Copilot API and picks up repo context from the
// working directory at runtime.
type SettingsService struct {
	root string
	cfg  *config.Config
}

func NewSettingsService(root string, cfg *config.Config) *SettingsService {
	return &SettingsService{root: root, cfg: cfg}
}

// Configure creates or updates .claude/settings.json. Keys the user
// added by hand survive: nested maps merge, and the permissions allow
// list is unioned rather than replaced.
func (s *SettingsService) Configure() (*SettingsResult, error) {
	as := s.cfg.AssistantSettings
	result := &SettingsResult{}
	if !as.EnableMemoryPlugin && !as.EnableGitHubMCP {
		return result, nil
	}

	dir := filepath.Join(s.root, settingsDirName)
	// G301: Use 0700 for directories
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create %s: %w", settingsDirName, err)
	}
	path := filepath.Join(dir, settingsFileName)
	result.Path = path

	existing := map[string]any{}
	// #nosec G304 -- path is rooted in the managed project
	if data, err := os.ReadFile(path); err == nil {
		// A corrupt settings file reads as empty rather than failing init.
		_ = json.Unmarshal(data, &existing)
	}

	managed := map[string]any{}
	if as.EnableMemoryPlugin {
		managed["enabledPlugins"] = map[string]any{memoryPluginKey: true}
		result.MemoryPlugin = true
	}
	if as.EnableGitHubMCP {
		managed["mcpServers"] = map[string]any{
			"github": map[string]any{
				"type": "http",
				"url":  githubMCPURL,
				"headers": map[string]any{
					"Authorization": "Bearer ${GITHUB_PERSONAL_ACCESS_TOKEN}",
				},
			},
		}
		managed["permissions"] = map[string]any{"allow": mergedAllowList(existing)}
		result.GitHubMCP = true
	}

	merged := config.DeepMerge(existing, managed)
	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')

	// G306: Use 0600 for files
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("write %s: %w", settingsFileName, err)
	}
	return result, nil
}

// mergedAllowList keeps the user's permission entries and ensures the
// GitHub MCP wildcard is among them.
func mergedAllowList(existing map[string]any) []any {
	var allow []any
	if perms, ok := existing["permissions"].(map[string]any); ok {
		if list, ok := perms["allow"].([]any); ok {
			allow = append(allow, list...)
		}
	}
	for _, entry := range allow {
		if entry == githubMCPAllow {
			return allow
		}
	}
	return append(allow, githubMCPAllow)
}
