package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jcttech/specstack/pkg/domain/draft"
)

func draftDir(t draft.Type) string {
	return filepath.Join(DraftsDir, string(t))
}

// DraftPath returns the absolute path of a draft file.
func (r *FilesystemRepository) DraftPath(t draft.Type, filename string) (string, error) {
	return r.ResolvePath(filepath.Join(draftDir(t), filename))
}

// ListDraftFiles returns the markdown filenames under drafts/<type>,
// sorted by name. A missing directory yields an empty list.
func (r *FilesystemRepository) ListDraftFiles(t draft.Type) ([]string, error) {
	dir := filepath.Join(r.root, SpecifyDir, draftDir(t))

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return names, nil
}

// ReadDraft reads a draft file by type and filename.
func (r *FilesystemRepository) ReadDraft(t draft.Type, filename string) ([]byte, error) {
	path, err := r.DraftPath(t, filename)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: draft %s", ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}

	return data, nil
}

// WriteDraft writes a draft file, creating the type directory when needed.
func (r *FilesystemRepository) WriteDraft(t draft.Type, filename string, content []byte) error {
	path, err := r.DraftPath(t, filename)
	if err != nil {
		return err
	}

	// G301: Use 0700 for directories
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create drafts directory: %w", err)
	}

	// G306: Use 0600 for files
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}

	return nil
}

// DeleteDraft removes a draft file after it has been pushed.
func (r *FilesystemRepository) DeleteDraft(t draft.Type, filename string) error {
	path, err := r.DraftPath(t, filename)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	return nil
}

// ArchiveDraft moves a pushed draft into the issue cache under the
// issue number it became, removing the original draft file. Returns the
// cache path.
func (r *FilesystemRepository) ArchiveDraft(t draft.Type, filename string, content []byte, issueNumber int) (string, error) {
	path, err := r.ResolvePath(filepath.Join(CacheDir, t.CacheFilename(issueNumber)))
	if err != nil {
		return "", err
	}

	// G301: Use 0700 for directories
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	// G306: Use 0600 for files
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("failed to archive draft: %w", err)
	}

	if err := r.DeleteDraft(t, filename); err != nil {
		return "", err
	}

	return path, nil
}
