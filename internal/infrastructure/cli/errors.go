package cli

import (
	"errors"
	"fmt"

	"github.com/jcttech/specstack/pkg/domain/config"
	"github.com/jcttech/specstack/pkg/domain/draft"
	"github.com/jcttech/specstack/pkg/domain/tracker"
	"github.com/jcttech/specstack/pkg/gitutil"
	"github.com/jcttech/specstack/pkg/storage"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var schemaErr *config.SchemaError
	if errors.As(err, &schemaErr) {
		return NewCLIError(
			schemaErr.Error(),
			"Fix the listed fields in .specify/config.yml",
			err,
		)
	}

	switch {
	case errors.Is(err, tracker.ErrAuth):
		return NewCLIError("tracker authentication failed", "Set GITHUB_TOKEN (or GH_TOKEN) with repo scope", err)
	case errors.Is(err, tracker.ErrUnavailable):
		return NewCLIError("tracker unavailable", "Check network connectivity and the tracker.provider setting", err)
	case errors.Is(err, gitutil.ErrNoRemote):
		return NewCLIError("could not resolve a GitHub repository", "Run inside a clone with an 'origin' remote, or pass --path", err)
	case errors.Is(err, draft.ErrDraftNotFound):
		return NewCLIError("draft not found", "Run 'specstack draft list' to see available drafts", err)
	case errors.Is(err, storage.ErrNotFound):
		return NewCLIError("workspace file not found", "Run 'specstack init' to scaffold the workspace", err)
	}

	return err
}
