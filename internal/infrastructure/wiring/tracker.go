package wiring

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jcttech/specstack/pkg/domain/config"
	"github.com/jcttech/specstack/pkg/domain/issue"
	"github.com/jcttech/specstack/pkg/domain/tracker"
	"github.com/jcttech/specstack/pkg/gitutil"
	"github.com/jcttech/specstack/pkg/plugin"
	"github.com/jcttech/specstack/pkg/storage"
	"github.com/jcttech/specstack/pkg/tracker/github"
)

// lazyTracker defers tracker construction to first use, so commands
// that never touch the tracker do not pay for auth checks or plugin
// subprocesses. Construction failures surface on the first call.
type lazyTracker struct {
	build func() (tracker.Tracker, func(), error)

	once    sync.Once
	trk     tracker.Tracker
	cleanup func()
	err     error
}

var _ tracker.Tracker = (*lazyTracker)(nil)

func newLazyTracker(build func() (tracker.Tracker, func(), error)) *lazyTracker {
	return &lazyTracker{build: build}
}

func (l *lazyTracker) resolve() (tracker.Tracker, error) {
	l.once.Do(func() {
		l.trk, l.cleanup, l.err = l.build()
	})
	return l.trk, l.err
}

// Shutdown releases the underlying tracker if it was ever constructed.
// Safe to call more than once.
func (l *lazyTracker) Shutdown() {
	if l.cleanup != nil {
		l.cleanup()
		l.cleanup = nil
	}
}

func (l *lazyTracker) List(ctx context.Context, opts tracker.ListOptions) ([]issue.Issue, error) {
	trk, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return trk.List(ctx, opts)
}

func (l *lazyTracker) View(ctx context.Context, number int) (*issue.Issue, error) {
	trk, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return trk.View(ctx, number)
}

func (l *lazyTracker) Close(ctx context.Context, number int, comment string) error {
	trk, err := l.resolve()
	if err != nil {
		return err
	}
	return trk.Close(ctx, number, comment)
}

func (l *lazyTracker) Create(ctx context.Context, req tracker.CreateRequest) (*issue.Issue, error) {
	trk, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return trk.Create(ctx, req)
}

func (l *lazyTracker) EditBody(ctx context.Context, number int, body string) error {
	trk, err := l.resolve()
	if err != nil {
		return err
	}
	return trk.EditBody(ctx, number, body)
}

// buildTracker returns the tracker builder for the configured provider:
// the GitHub client for "github", otherwise a provider plugin loaded
// from a specstack-plugin-<name> binary.
func buildTracker(repo *storage.FilesystemRepository, cfg *config.Config, repository string) func() (tracker.Tracker, func(), error) {
	provider := cfg.Tracker.Provider
	if provider == "" || provider == "github" {
		return func() (tracker.Tracker, func(), error) {
			if repository == "" {
				return nil, nil, gitutil.ErrNoRemote
			}
			owner, name, _ := strings.Cut(repository, "/")
			client, err := github.NewClient(owner, name)
			if err != nil {
				return nil, nil, err
			}
			return client, nil, nil
		}
	}

	return func() (tracker.Tracker, func(), error) {
		binary := ""
		options := map[string]string{}
		if pluginCfg, err := repo.GetPluginConfig(provider); err == nil {
			binary = pluginCfg.Binary
			options = pluginCfg.Config
		}

		path, err := plugin.Discover(provider, binary)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", tracker.ErrUnavailable, err)
		}

		loader := plugin.NewLoader()
		impl, err := loader.Load(path)
		if err != nil {
			loader.Cleanup()
			return nil, nil, fmt.Errorf("%w: load plugin %s: %v", tracker.ErrUnavailable, provider, err)
		}
		if err := impl.Init(options); err != nil {
			loader.Cleanup()
			return nil, nil, fmt.Errorf("%w: init plugin %s: %v", tracker.ErrAuth, provider, err)
		}
		return plugin.NewAdapter(provider, impl), loader.Cleanup, nil
	}
}
