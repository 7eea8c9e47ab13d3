package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jcttech/specstack/pkg/domain/template"
)

// SaveOrgTemplate writes a fetched organization template under
// org-templates.
func (r *FilesystemRepository) SaveOrgTemplate(name string, content []byte) error {
	path, err := r.ResolvePath(filepath.Join(OrgTemplatesDir, name))
	if err != nil {
		return err
	}

	// G301: Use 0700 for directories
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create org-templates directory: %w", err)
	}

	// G306: Use 0600 for files
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to save template %s: %w", name, err)
	}

	return nil
}

// ReadOrgTemplate reads a cached organization template by filename.
func (r *FilesystemRepository) ReadOrgTemplate(name string) ([]byte, error) {
	path, err := r.ResolvePath(filepath.Join(OrgTemplatesDir, name))
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: template %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	return data, nil
}

// ListOrgTemplates returns the cached template filenames, sorted by name.
// The cache manifest itself is not listed.
func (r *FilesystemRepository) ListOrgTemplates() ([]string, error) {
	dir := filepath.Join(r.root, SpecifyDir, OrgTemplatesDir)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list org templates: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == template.ManifestFile {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return names, nil
}

// SaveTemplateManifest records which templates were fetched and from where.
func (r *FilesystemRepository) SaveTemplateManifest(m *template.Manifest) error {
	path, err := r.ResolvePath(filepath.Join(OrgTemplatesDir, template.ManifestFile))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal template manifest: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// LoadTemplateManifest returns the cache manifest, or nil when templates
// have never been fetched.
func (r *FilesystemRepository) LoadTemplateManifest() (*template.Manifest, error) {
	path, err := r.ResolvePath(filepath.Join(OrgTemplatesDir, template.ManifestFile))
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template manifest: %w", err)
	}

	var m template.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template manifest: %w", err)
	}

	return &m, nil
}
