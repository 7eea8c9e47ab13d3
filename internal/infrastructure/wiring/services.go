package wiring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcttech/specstack/internal/infrastructure/messaging"
	"github.com/jcttech/specstack/pkg/application"
	"github.com/jcttech/specstack/pkg/domain/config"
	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/domain/tracker"
	"github.com/jcttech/specstack/pkg/gitutil"
	"github.com/jcttech/specstack/pkg/tracker/github"
)

// AppServices exposes the application layer services wired together
// with a workspace.
type AppServices struct {
	Workspace  *Workspace
	Config     *config.Config
	Tracker    tracker.Tracker
	Repository string // owner/repo, empty when no GitHub remote resolves

	Init      *application.InitService
	Sync      *application.SyncService
	Cascade   *application.CascadeService
	Drafts    *application.DraftService
	Stories   *application.StoryService
	Analysis  *application.AnalysisService
	Worktrees *application.WorktreeService
	Templates *application.TemplateService
	Settings  *application.SettingsService
	Plugins   *application.PluginService
	Audit     *application.AuditService
}

// Close drains in-flight notification work and releases any plugin
// subprocess. Commands call it before exiting.
func (s *AppServices) Close() {
	s.Audit.Drain()
	if s.Workspace.Notifier != nil {
		s.Workspace.Notifier.Wait()
	}
	if lt, ok := s.Tracker.(*lazyTracker); ok {
		lt.Shutdown()
	}
}

// BuildAppServices constructs the service graph for a repo root.
func BuildAppServices(root string) (*AppServices, error) {
	workspace, err := NewWorkspace(root)
	if err != nil {
		return nil, err
	}

	cfg, err := workspace.Repo.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	repository := resolveRepository(root)
	trk := newLazyTracker(buildTracker(workspace.Repo, cfg, repository))

	settings := application.NewSettingsService(root, cfg)

	var templates *application.TemplateService
	if fetcher, err := github.NewTemplatesClient(cfg.TemplateSource(), github.Token()); err == nil {
		templates = application.NewTemplateService(fetcher, workspace.Repo, cfg, workspace.Audit)
	}

	services := &AppServices{
		Workspace:  workspace,
		Config:     cfg,
		Tracker:    trk,
		Repository: repository,
		Init:       application.NewInitService(workspace.Repo, cfg, templates, settings, workspace.Audit),
		Sync:       application.NewSyncService(trk, workspace.Repo, cfg, repository, workspace.Audit),
		Cascade:    application.NewCascadeService(trk, workspace.Audit),
		Drafts:     application.NewDraftService(workspace.Repo, trk, cfg, workspace.Audit),
		Stories:    application.NewStoryService(workspace.Repo, trk, workspace.Audit),
		Analysis:   application.NewAnalysisService(workspace.Repo),
		Worktrees:  application.NewWorktreeService(root, trk, workspace.Audit),
		Templates:  templates,
		Settings:   settings,
		Plugins:    application.NewPluginService(workspace.Repo),
		Audit:      workspace.Audit,
	}

	wireDispatcher(workspace)

	return services, nil
}

// resolveRepository maps the git origin remote to owner/repo. A missing
// or non-GitHub remote yields "".
func resolveRepository(root string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	remote, err := gitutil.ResolveRemote(ctx, root)
	if err != nil {
		return ""
	}
	return remote.String()
}

// wireDispatcher registers the notification pipeline on the audit
// trail: typed handlers logging through slog, the messaging registry
// for chat channels, and the outgoing webhook notifier.
func wireDispatcher(workspace *Workspace) {
	logger := slog.Default()
	dispatcher := events.NewEventDispatcher()
	// One failing notification channel must not block the others.
	dispatcher.ContinueOnError = true

	notify := logNotifier{logger: logger}
	dispatcher.Register(events.NewCascadeNotificationHandler(notify, logger).Registration())
	dispatcher.Register(events.NewDraftPushedHandler(notify, logger).Registration())
	dispatcher.Register(events.NewSyncWarningHandler(notify, logger).Registration())
	dispatcher.Register(events.NewLoggingHandler(logger).Registration())

	if msgCfg, err := workspace.Repo.LoadMessagingConfig(); err == nil {
		if registry, err := messaging.NewRegistry(msgCfg); err == nil {
			if len(registry.Adapters()) > 0 {
				dispatcher.Register(registry.Registration())
			}
		} else {
			logger.Warn("messaging config ignored", "error", err)
		}
	}

	if workspace.Notifier != nil {
		notifier := workspace.Notifier
		dispatcher.RegisterWildcard("WebhookNotifier", func(ctx context.Context, event events.DomainEvent) error {
			if base := events.AsBase(event); base != nil {
				notifier.Notify(ctx, base)
			}
			return nil
		})
	}

	workspace.Audit.SetDispatcher(dispatcher)
}

// logNotifier routes handler notifications to the process logger. Chat
// delivery happens separately through the messaging registry.
type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) Notify(_ context.Context, level events.NotificationLevel, title, message string) error {
	switch level {
	case events.NotificationLevelError:
		n.logger.Error(title, "detail", message)
	case events.NotificationLevelWarning:
		n.logger.Warn(title, "detail", message)
	default:
		n.logger.Info(title, "detail", message)
	}
	return nil
}
