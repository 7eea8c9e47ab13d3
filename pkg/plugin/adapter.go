package plugin

import (
	"context"
	"strings"

	"github.com/jcttech/specstack/pkg/domain/issue"
	domainPlugin "github.com/jcttech/specstack/pkg/domain/plugin"
	"github.com/jcttech/specstack/pkg/domain/tracker"
)

// Adapter exposes a loaded provider plugin through the tracker port.
// The NetRPC transport cannot carry contexts, so each call checks for
// cancellation before crossing the process boundary.
type Adapter struct {
	provider domainPlugin.Provider
	name     string
}

func NewAdapter(name string, provider domainPlugin.Provider) *Adapter {
	return &Adapter{provider: provider, name: name}
}

var _ tracker.Tracker = (*Adapter)(nil)

// Name returns the provider name the adapter was loaded for.
func (a *Adapter) Name() string {
	return a.name
}

func (a *Adapter) List(ctx context.Context, opts tracker.ListOptions) ([]issue.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	issues, err := a.provider.List(opts)
	if err != nil {
		return nil, restoreSentinel(err)
	}
	return issues, nil
}

func (a *Adapter) View(ctx context.Context, number int) (*issue.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	iss, err := a.provider.View(number)
	if err != nil {
		return nil, restoreSentinel(err)
	}
	return iss, nil
}

func (a *Adapter) Close(ctx context.Context, number int, comment string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.provider.Close(number, comment); err != nil {
		return restoreSentinel(err)
	}
	return nil
}

func (a *Adapter) Create(ctx context.Context, req tracker.CreateRequest) (*issue.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	iss, err := a.provider.Create(req)
	if err != nil {
		return nil, restoreSentinel(err)
	}
	return iss, nil
}

func (a *Adapter) EditBody(ctx context.Context, number int, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.provider.EditBody(number, body); err != nil {
		return restoreSentinel(err)
	}
	return nil
}

// rpcError re-attaches a tracker sentinel to an error that crossed the
// RPC boundary as flat text.
type rpcError struct {
	sentinel error
	msg      string
}

func (e *rpcError) Error() string { return e.msg }
func (e *rpcError) Unwrap() error { return e.sentinel }

// restoreSentinel rebuilds tracker sentinels from flattened RPC error
// text so errors.Is keeps working on the host side. Matching is on the
// full sentinel message, which the provider contract requires plugins
// to preserve.
func restoreSentinel(err error) error {
	msg := err.Error()
	for _, sentinel := range []error{tracker.ErrNotFound, tracker.ErrAuth, tracker.ErrUnavailable} {
		if strings.Contains(msg, sentinel.Error()) {
			return &rpcError{sentinel: sentinel, msg: msg}
		}
	}
	return err
}
