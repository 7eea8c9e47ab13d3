package wiring

import (
	"fmt"
	"path/filepath"

	webhook "github.com/jcttech/specstack/internal/infrastructure/webhook"
	"github.com/jcttech/specstack/pkg/application"
	"github.com/jcttech/specstack/pkg/storage"
)

// Workspace bundles core infrastructure dependencies.
type Workspace struct {
	Root     string
	Repo     *storage.FilesystemRepository
	Audit    *application.AuditService
	Notifier *webhook.Notifier
}

// NewWorkspace opens the workspace at root: the filesystem repository,
// the audit trail, and the outgoing webhook notifier when any endpoints
// are configured.
func NewWorkspace(root string) (*Workspace, error) {
	repo := storage.NewFilesystemRepository(root)

	store, err := storage.NewFileEventStore(filepath.Join(root, storage.SpecifyDir))
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	audit, err := application.NewAuditService(store, storage.NewInMemoryEventPublisher())
	if err != nil {
		return nil, fmt.Errorf("open audit trail: %w", err)
	}

	var notifier *webhook.Notifier
	if config, err := repo.LoadWebhookConfig(); err == nil && len(config.Webhooks) > 0 {
		dlPath := filepath.Join(root, storage.SpecifyDir, storage.DeadLetterFile)
		dlStore := webhook.NewDeadLetterStore(dlPath)
		notifier = webhook.NewNotifier(config.Webhooks, dlStore)
	}

	return &Workspace{
		Root:     root,
		Repo:     repo,
		Audit:    audit,
		Notifier: notifier,
	}, nil
}
