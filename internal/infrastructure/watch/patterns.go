package watch

import (
	"path/filepath"
	"strings"
)

// PatternFilter filters file paths based on include/exclude glob patterns.
type PatternFilter struct {
	Include []string
	Exclude []string
}

// NewPatternFilter creates a new pattern filter.
func NewPatternFilter(include, exclude []string) *PatternFilter {
	return &PatternFilter{
		Include: include,
		Exclude: exclude,
	}
}

// DraftFilter matches markdown draft files and ignores editor artifacts.
func DraftFilter() *PatternFilter {
	return NewPatternFilter(
		[]string{"*.md"},
		[]string{"*.tmp", "*.swp", "*~"},
	)
}

// Matches returns true if the path passes the filter.
// Exclude patterns are tested against the full path and every path
// segment, so a bare directory name hides its whole subtree. If include
// patterns are set, at least one must match the base name or full path.
func (f *PatternFilter) Matches(path string) bool {
	segments := strings.Split(filepath.ToSlash(path), "/")

	for _, pattern := range f.Exclude {
		if matched, _ := filepath.Match(pattern, path); matched {
			return false
		}
		for _, segment := range segments {
			if matched, _ := filepath.Match(pattern, segment); matched {
				return false
			}
		}
	}

	if len(f.Include) == 0 {
		return true
	}

	base := filepath.Base(path)
	for _, pattern := range f.Include {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
	}

	return false
}
