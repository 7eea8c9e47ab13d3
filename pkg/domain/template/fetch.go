package template

import "context"

// Fetcher retrieves template files from the shared source repository.
type Fetcher interface {
	// List returns the repository paths of template files under dir.
	List(ctx context.Context, dir string) ([]string, error)
	// File returns the raw content of one file by repository path.
	File(ctx context.Context, path string) ([]byte, error)
}
