// Package tracker defines the issue-tracker port consumed by the cascade,
// sync, and draft services. Implementations live under pkg/tracker and as
// external provider plugins.
package tracker

import (
	"context"
	"errors"

	"github.com/jcttech/specstack/pkg/domain/issue"
)

// Sentinel errors shared by all tracker implementations.
var (
	// ErrAuth means the tracker client is unavailable or unauthenticated.
	// Callers abort before any other work when they see it.
	ErrAuth = errors.New("tracker authentication unavailable")

	// ErrNotFound means a specific issue lookup returned nothing.
	ErrNotFound = errors.New("issue not found")

	// ErrUnavailable means the tracker could not be reached at all.
	ErrUnavailable = errors.New("tracker unavailable")
)

// ListOptions filters a tracker listing. Zero values mean "any".
type ListOptions struct {
	Type  issue.Type
	State issue.State
}

// CreateRequest describes a new issue to create.
type CreateRequest struct {
	Title  string
	Body   string
	Labels []string
}

// Tracker wraps all reads and writes of issues. The cascade only performs
// idempotent reads and best-effort closes; draft and story pushes also
// create issues.
type Tracker interface {
	// List returns issues matching opts, each annotated with its
	// structured parent when the tracker maintains one.
	List(ctx context.Context, opts ListOptions) ([]issue.Issue, error)

	// View fetches a single issue. Returns ErrNotFound when the number
	// does not exist.
	View(ctx context.Context, number int) (*issue.Issue, error)

	// Close closes an issue, posting comment as the audit trail.
	Close(ctx context.Context, number int, comment string) error

	// Create opens a new issue and returns it with its assigned number.
	Create(ctx context.Context, req CreateRequest) (*issue.Issue, error)

	// EditBody replaces an issue body.
	EditBody(ctx context.Context, number int, body string) error
}
