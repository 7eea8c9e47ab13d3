package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"gopkg.in/yaml.v3"

	"github.com/jcttech/specstack/pkg/domain/config"
	"github.com/jcttech/specstack/pkg/domain/draft"
	"github.com/jcttech/specstack/pkg/domain/events"
)

// ErrNotFound marks reads of workspace files that do not exist.
var ErrNotFound = errors.New("not found")

const SpecifyDir = ".specify"
const ConfigFile = "config.yml"
const DraftsDir = "drafts"
const CacheDir = "issues/cache"
const OrgTemplatesDir = "org-templates"
const EventsFile = "events.jsonl"
const WebhookFile = "webhooks.yaml"
const DeadLetterFile = "deadletters.jsonl"

// The rendered issue index is documentation, not workspace state, so it
// lives under .docs rather than .specify.
const DocsDir = ".docs"
const IndexFile = "issues-index.md"

type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// SpecifyPath returns the path of the .specify directory.
func (r *FilesystemRepository) SpecifyPath() string {
	return filepath.Join(r.root, SpecifyDir)
}

// ResolvePath ensures the path stays inside the .specify directory and
// rejects traversal. Nested paths such as drafts/spec/001-auth.md are
// allowed.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := filepath.Join(r.root, SpecifyDir)
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	rel, err := filepath.Rel(baseDir, cleanPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

// Initialize creates the .specify directory tree.
func (r *FilesystemRepository) Initialize() error {
	dirs := []string{
		filepath.Join(r.root, SpecifyDir),
		filepath.Join(r.root, SpecifyDir, DraftsDir, string(draft.TypeSpec)),
		filepath.Join(r.root, SpecifyDir, DraftsDir, string(draft.TypePlan)),
		filepath.Join(r.root, SpecifyDir, CacheDir),
		filepath.Join(r.root, SpecifyDir, OrgTemplatesDir),
	}
	for _, dir := range dirs {
		// G301: Use 0700 for directories
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, SpecifyDir))
	return err == nil
}

// SaveConfig writes the workspace configuration to config.yml.
func (r *FilesystemRepository) SaveConfig(cfg *config.Config) error {
	path, err := r.ResolvePath(ConfigFile)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// G306: Use 0600 for files
	return os.WriteFile(path, data, 0600)
}

// LoadConfig reads config.yml over the defaults. A missing file yields
// the default configuration.
func (r *FilesystemRepository) LoadConfig() (*config.Config, error) {
	path, err := r.ResolvePath(ConfigFile)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}

	retryer := retry.New[*config.Config](r.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (*config.Config, error) {
		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return config.Parse(data)
	})
}

// SaveWebhookConfig saves the webhook configuration to .specify/webhooks.yaml.
func (r *FilesystemRepository) SaveWebhookConfig(cfg *events.WebhookConfig) error {
	path, err := r.ResolvePath(WebhookFile)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// LoadWebhookConfig loads the webhook configuration from
// .specify/webhooks.yaml. A missing file yields an empty configuration.
func (r *FilesystemRepository) LoadWebhookConfig() (*events.WebhookConfig, error) {
	path, err := r.ResolvePath(WebhookFile)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &events.WebhookConfig{}, nil
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook config: %w", err)
	}

	var cfg events.WebhookConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook config: %w", err)
	}

	return &cfg, nil
}
