package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jcttech/specstack/pkg/domain/config"
	"github.com/jcttech/specstack/pkg/domain/draft"
	"github.com/jcttech/specstack/pkg/domain/tracker"
	"github.com/jcttech/specstack/pkg/gitutil"
	"github.com/jcttech/specstack/pkg/storage"
)

func TestCLIError(t *testing.T) {
	t.Run("Error with cause", func(t *testing.T) {
		cause := errors.New("root cause")
		e := NewCLIError("something failed", "try this", cause)
		if e.Error() != "something failed: root cause" {
			t.Fatalf("unexpected: %s", e.Error())
		}
		if e.ExitCode != 1 {
			t.Fatalf("expected exit code 1, got %d", e.ExitCode)
		}
	})

	t.Run("Error without cause", func(t *testing.T) {
		e := NewCLIError("something failed", "try this", nil)
		if e.Error() != "something failed" {
			t.Fatalf("unexpected: %s", e.Error())
		}
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root")
		e := NewCLIError("msg", "", cause)
		if !errors.Is(e, cause) {
			t.Fatal("errors.Is should match wrapped cause")
		}
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHint string
		wantCLI  bool
	}{
		{
			name: "nil returns nil",
			err:  nil,
		},
		{
			name:     "ErrAuth",
			err:      tracker.ErrAuth,
			wantHint: "Set GITHUB_TOKEN (or GH_TOKEN) with repo scope",
			wantCLI:  true,
		},
		{
			name:     "ErrUnavailable",
			err:      tracker.ErrUnavailable,
			wantHint: "Check network connectivity and the tracker.provider setting",
			wantCLI:  true,
		},
		{
			name:     "ErrNoRemote",
			err:      gitutil.ErrNoRemote,
			wantHint: "Run inside a clone with an 'origin' remote, or pass --path",
			wantCLI:  true,
		},
		{
			name:     "ErrDraftNotFound",
			err:      draft.ErrDraftNotFound,
			wantHint: "Run 'specstack draft list' to see available drafts",
			wantCLI:  true,
		},
		{
			name:     "ErrNotFound",
			err:      storage.ErrNotFound,
			wantHint: "Run 'specstack init' to scaffold the workspace",
			wantCLI:  true,
		},
		{
			name:     "wrapped ErrAuth",
			err:      fmt.Errorf("close story: %w", tracker.ErrAuth),
			wantHint: "Set GITHUB_TOKEN (or GH_TOKEN) with repo scope",
			wantCLI:  true,
		},
		{
			name:     "SchemaError",
			err:      fmt.Errorf("load config: %w", &config.SchemaError{Violations: []string{"tracker.provider: String length must be greater than or equal to 1"}}),
			wantHint: "Fix the listed fields in .specify/config.yml",
			wantCLI:  true,
		},
		{
			name: "unmapped error passes through",
			err:  errors.New("something else"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MapError(tt.err)
			if tt.err == nil {
				if result != nil {
					t.Fatal("expected nil")
				}
				return
			}
			if !tt.wantCLI {
				if result != tt.err {
					t.Fatal("unmapped error should pass through unchanged")
				}
				return
			}
			var cliErr *CLIError
			if !errors.As(result, &cliErr) {
				t.Fatalf("expected CLIError, got %T", result)
			}
			if cliErr.Hint != tt.wantHint {
				t.Fatalf("hint = %q, want %q", cliErr.Hint, tt.wantHint)
			}
			if !errors.Is(cliErr, tt.err) {
				t.Fatal("CLIError should wrap original error")
			}
		})
	}
}
