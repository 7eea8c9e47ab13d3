package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jcttech/specstack/pkg/domain/issue"
)

// cacheFrontmatter is the YAML header of a cached issue file.
type cacheFrontmatter struct {
	IssueNumber int    `yaml:"issue_number"`
	Type        string `yaml:"type"`
	State       string `yaml:"state"`
	CachedAt    string `yaml:"cached_at"`
}

var (
	cacheFrontmatterRe = regexp.MustCompile(`(?s)\A---\s*\n(.*?)\n---\s*\n`)
	cacheFileRe        = regexp.MustCompile(`^([a-z]+)-(\d+)\.md$`)
)

func cacheFilename(t issue.Type, number int) string {
	return fmt.Sprintf("%s-%d.md", t, number)
}

func (r *FilesystemRepository) cacheDir() string {
	return filepath.Join(r.root, SpecifyDir, CacheDir)
}

// CacheIssue writes an issue snapshot under issues/cache and returns the
// path of the written file.
func (r *FilesystemRepository) CacheIssue(iss *issue.Issue) (string, error) {
	path, err := r.ResolvePath(filepath.Join(CacheDir, cacheFilename(iss.Type, iss.Number)))
	if err != nil {
		return "", err
	}

	// G301: Use 0700 for directories
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	content := fmt.Sprintf("---\nissue_number: %d\ntype: %s\nstate: %s\ncached_at: %q\n---\n\n# %s\n\n%s",
		iss.Number, iss.Type, iss.State, time.Now().UTC().Format(time.RFC3339), iss.Title, iss.Body)

	// G306: Use 0600 for files
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to cache issue #%d: %w", iss.Number, err)
	}

	return path, nil
}

// parseCachedIssue reconstructs an issue from a cached file. The title
// heading is stripped back out of the body so cached issues round-trip.
func parseCachedIssue(content []byte, filename string) (issue.Issue, bool) {
	match := cacheFrontmatterRe.FindSubmatch(content)
	if match == nil {
		return issue.Issue{}, false
	}

	var fm cacheFrontmatter
	if err := yaml.Unmarshal(match[1], &fm); err != nil {
		return issue.Issue{}, false
	}

	if parts := cacheFileRe.FindStringSubmatch(filename); parts != nil {
		if fm.IssueNumber == 0 {
			fm.IssueNumber, _ = strconv.Atoi(parts[2])
		}
		if fm.Type == "" {
			fm.Type = parts[1]
		}
	}
	if fm.IssueNumber == 0 {
		return issue.Issue{}, false
	}

	iss := issue.Issue{
		Number: fm.IssueNumber,
		Type:   issue.Type(fm.Type),
		State:  issue.State(fm.State),
		Title:  strings.TrimSuffix(filename, ".md"),
	}

	rest := strings.TrimLeft(string(content[len(match[0]):]), "\n")
	if strings.HasPrefix(rest, "# ") {
		line, body, _ := strings.Cut(rest, "\n")
		iss.Title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
		rest = strings.TrimPrefix(body, "\n")
	}
	iss.Body = rest

	return iss, true
}

// LoadCachedIssues returns all cached issues of the given type, sorted by
// issue number. Unparseable files are skipped.
func (r *FilesystemRepository) LoadCachedIssues(t issue.Type) ([]issue.Issue, error) {
	entries, err := os.ReadDir(r.cacheDir())
	if os.IsNotExist(err) {
		return []issue.Issue{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list issue cache: %w", err)
	}

	prefix := string(t) + "-"
	issues := make([]issue.Issue, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".md") {
			continue
		}
		// #nosec G304 -- Entries come from the managed cache directory
		content, err := os.ReadFile(filepath.Join(r.cacheDir(), name))
		if err != nil {
			continue
		}
		if iss, ok := parseCachedIssue(content, name); ok {
			issues = append(issues, iss)
		}
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].Number < issues[j].Number })

	return issues, nil
}

// LoadCachedIssue returns the cached snapshot of a single issue, or nil
// when the issue has not been cached.
func (r *FilesystemRepository) LoadCachedIssue(number int) (*issue.Issue, error) {
	entries, err := os.ReadDir(r.cacheDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list issue cache: %w", err)
	}

	suffix := fmt.Sprintf("-%d.md", number)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, suffix) || !cacheFileRe.MatchString(name) {
			continue
		}
		// #nosec G304 -- Entries come from the managed cache directory
		content, err := os.ReadFile(filepath.Join(r.cacheDir(), name))
		if err != nil {
			return nil, fmt.Errorf("failed to read cached issue: %w", err)
		}
		if iss, ok := parseCachedIssue(content, name); ok && iss.Number == number {
			return &iss, nil
		}
	}

	return nil, nil
}

// PruneCache removes cached issues that are closed and older than the
// given number of days. It returns how many files were removed.
func (r *FilesystemRepository) PruneCache(days int) (int, error) {
	if days <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(r.cacheDir())
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list issue cache: %w", err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		// #nosec G304 -- Entries come from the managed cache directory
		content, err := os.ReadFile(filepath.Join(r.cacheDir(), name))
		if err != nil {
			continue
		}
		match := cacheFrontmatterRe.FindSubmatch(content)
		if match == nil {
			continue
		}
		var fm cacheFrontmatter
		if err := yaml.Unmarshal(match[1], &fm); err != nil {
			continue
		}
		if fm.State != string(issue.StateClosed) || fm.CachedAt == "" {
			continue
		}
		cachedAt, err := time.Parse(time.RFC3339, fm.CachedAt)
		if err != nil {
			continue
		}
		if cachedAt.Before(cutoff) {
			if err := os.Remove(filepath.Join(r.cacheDir(), name)); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}

// IndexPath returns the absolute path of the rendered issue index.
func (r *FilesystemRepository) IndexPath() string {
	return filepath.Join(r.root, DocsDir, IndexFile)
}

// WriteIndex writes the rendered hierarchy index to .docs/issues-index.md.
func (r *FilesystemRepository) WriteIndex(content string) error {
	path := r.IndexPath()

	// G301: .docs is committed documentation, group-readable is fine
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create docs directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}

	return nil
}

// ReadIndex returns the current issue index content, or an empty string
// when no index has been written.
func (r *FilesystemRepository) ReadIndex() (string, error) {
	path := r.IndexPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	}

	// #nosec G304 -- Path is a fixed location under the workspace root
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read index: %w", err)
	}

	return string(data), nil
}
