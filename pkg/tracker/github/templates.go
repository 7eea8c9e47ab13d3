package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	gh "github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"

	"github.com/jcttech/specstack/pkg/domain/template"
	"github.com/jcttech/specstack/pkg/domain/tracker"
)

// TemplatesClient fetches organization issue templates from a shared
// repository via the Contents API. Unlike the tracker client it works
// without a token, since template sources are usually public repos;
// unauthenticated calls just hit the low rate limit sooner.
type TemplatesClient struct {
	gh       *gh.Client
	owner    string
	repo     string
	retryCfg retry.Config
}

var _ template.Fetcher = (*TemplatesClient)(nil)

// NewTemplatesClient creates a fetcher for an "owner/repo" source.
// token may be empty.
func NewTemplatesClient(source, token string) (*TemplatesClient, error) {
	owner, repo, ok := strings.Cut(source, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid template source %q, want owner/repo", source)
	}

	httpClient := http.DefaultClient
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	return newTemplatesClient(gh.NewClient(httpClient), owner, repo), nil
}

// NewTemplatesClientWithHTTPClient creates a fetcher against a custom
// endpoint. This is primarily used for testing with httptest servers.
func NewTemplatesClientWithHTTPClient(httpClient *http.Client, baseURL, owner, repo string) *TemplatesClient {
	client := gh.NewClient(httpClient)
	if baseURL != "" {
		client, _ = client.WithEnterpriseURLs(baseURL, baseURL)
	}
	return newTemplatesClient(client, owner, repo)
}

func newTemplatesClient(client *gh.Client, owner, repo string) *TemplatesClient {
	return &TemplatesClient{
		gh:    client,
		owner: owner,
		repo:  repo,
		retryCfg: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  200 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

func isTemplateFile(name string) bool {
	return strings.HasSuffix(name, ".yml") ||
		strings.HasSuffix(name, ".yaml") ||
		strings.HasSuffix(name, ".md")
}

// List returns the repository paths of template files under dir.
func (c *TemplatesClient) List(ctx context.Context, dir string) ([]string, error) {
	entries, err := execute(ctx, c.retryCfg, func(ctx context.Context) ([]*gh.RepositoryContent, error) {
		_, entries, _, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, dir, nil)
		return entries, mapTemplateErr(err)
	})
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			return nil, fmt.Errorf("%w: Template path not found: %s", tracker.ErrNotFound, dir)
		}
		return nil, err
	}
	if entries == nil {
		return nil, fmt.Errorf("%s is a file, not a template directory", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.GetType() == "file" && isTemplateFile(entry.GetName()) {
			paths = append(paths, entry.GetPath())
		}
	}
	return paths, nil
}

// File returns the decoded content of one file by repository path.
func (c *TemplatesClient) File(ctx context.Context, path string) ([]byte, error) {
	content, err := execute(ctx, c.retryCfg, func(ctx context.Context) (*gh.RepositoryContent, error) {
		fc, _, _, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, nil)
		return fc, mapTemplateErr(err)
	})
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}

	raw, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return []byte(raw), nil
}

// mapTemplateErr keeps the tracker sentinels while carrying messages
// that tell the user what to do about rate limits.
func mapTemplateErr(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	var respErr *gh.ErrorResponse

	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return fmt.Errorf("%w: GitHub API rate limit exceeded. Try using --github-token", tracker.ErrUnavailable)
	case errors.As(err, &respErr) && respErr.Response != nil:
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", tracker.ErrNotFound, respErr.Message)
		case http.StatusForbidden:
			// Unauthenticated rate limiting also comes back as 403.
			return fmt.Errorf("%w: GitHub API rate limit exceeded. Try using --github-token", tracker.ErrUnavailable)
		default:
			return fmt.Errorf("%w: GitHub API error: %d", tracker.ErrUnavailable, respErr.Response.StatusCode)
		}
	}

	return err
}
