package watch_test

import (
	"testing"

	"github.com/jcttech/specstack/internal/infrastructure/watch"
)

func TestPatternFilter_IncludeOnly(t *testing.T) {
	f := watch.NewPatternFilter([]string{"*.md", "*.txt"}, nil)

	tests := []struct {
		path  string
		match bool
	}{
		{"drafts/story-20260825-auth.md", true},
		{"notes.txt", true},
		{"main.go", false},
		{"src/app.js", false},
	}

	for _, tt := range tests {
		if got := f.Matches(tt.path); got != tt.match {
			t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.match)
		}
	}
}

func TestPatternFilter_ExcludeOnly(t *testing.T) {
	f := watch.NewPatternFilter(nil, []string{"*.tmp", "*.log"})

	tests := []struct {
		path  string
		match bool
	}{
		{"docs/README.md", true},
		{"output.tmp", false},
		{"debug.log", false},
		{"main.go", true},
	}

	for _, tt := range tests {
		if got := f.Matches(tt.path); got != tt.match {
			t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.match)
		}
	}
}

func TestPatternFilter_IncludeAndExclude(t *testing.T) {
	f := watch.NewPatternFilter([]string{"*.md"}, []string{"CHANGELOG.md"})

	tests := []struct {
		path  string
		match bool
	}{
		{"README.md", true},
		{"CHANGELOG.md", false},
		{"main.go", false},
	}

	for _, tt := range tests {
		if got := f.Matches(tt.path); got != tt.match {
			t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.match)
		}
	}
}

func TestPatternFilter_ExcludeDirectoryName(t *testing.T) {
	f := watch.NewPatternFilter([]string{"*.md"}, []string{"node_modules"})

	tests := []struct {
		path  string
		match bool
	}{
		{"docs/guide.md", true},
		{"node_modules/pkg/README.md", false},
		{"deep/node_modules/pkg/doc.md", false},
	}

	for _, tt := range tests {
		if got := f.Matches(tt.path); got != tt.match {
			t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.match)
		}
	}
}

func TestPatternFilter_NoPatterns(t *testing.T) {
	f := watch.NewPatternFilter(nil, nil)

	if !f.Matches("anything.txt") {
		t.Error("empty filter should match everything")
	}
}

func TestDraftFilter(t *testing.T) {
	f := watch.DraftFilter()

	tests := []struct {
		path  string
		match bool
	}{
		{"spec-20260825-auth.md", true},
		{"drafts/story-20260825-login.md", true},
		{"story-20260825-login.md.swp", false},
		{"story-20260825-login.md~", false},
		{".cache-manifest.json", false},
	}

	for _, tt := range tests {
		if got := f.Matches(tt.path); got != tt.match {
			t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.match)
		}
	}
}
