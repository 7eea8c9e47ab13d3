// Package github implements the tracker port against the GitHub REST and
// GraphQL APIs. Reads go through GraphQL so each issue carries its
// structured sub-issue parent; writes use the REST issue endpoints.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	gh "github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"

	"github.com/jcttech/specstack/pkg/domain/issue"
	"github.com/jcttech/specstack/pkg/domain/tracker"
)

const remoteTimeout = 30 * time.Second

// Client talks to a single GitHub repository.
type Client struct {
	gh       *gh.Client
	owner    string
	repo     string
	retryCfg retry.Config
}

var _ tracker.Tracker = (*Client)(nil)

// Token returns the GitHub token from the environment, preferring
// GITHUB_TOKEN over GH_TOKEN.
func Token() string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	return os.Getenv("GH_TOKEN")
}

// NewClient creates a tracker client for owner/repo using the token from
// the environment. A missing token fails with tracker.ErrAuth before any
// remote call is made.
func NewClient(owner, repo string) (*Client, error) {
	token := Token()
	if token == "" {
		return nil, fmt.Errorf("%w: set GITHUB_TOKEN or GH_TOKEN", tracker.ErrAuth)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)

	return newClient(gh.NewClient(httpClient), owner, repo), nil
}

// NewClientWithHTTPClient creates a client against a custom endpoint.
// This is primarily used for testing with httptest servers.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, owner, repo string) *Client {
	client := gh.NewClient(httpClient)
	if baseURL != "" {
		client, _ = client.WithEnterpriseURLs(baseURL, baseURL)
	}
	return newClient(client, owner, repo)
}

func newClient(client *gh.Client, owner, repo string) *Client {
	return &Client{
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

// execute runs a remote call with the client's retry policy under the
// default timeout.
func execute[T any](ctx context.Context, cfg retry.Config, fn func(context.Context) (T, error)) (T, error) {
	r := retry.New[T](cfg)
	t := timeout.New[T](timeout.Config{
		DefaultTimeout: remoteTimeout,
	})

	return t.Execute(ctx, remoteTimeout, func(ctx context.Context) (T, error) {
		return r.Do(ctx, fn)
	})
}

// mapErr translates go-github errors into tracker sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	var respErr *gh.ErrorResponse
	var urlErr *url.Error

	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return fmt.Errorf("%w: GitHub API rate limit exceeded", tracker.ErrUnavailable)
	case errors.As(err, &respErr):
		if respErr.Response == nil {
			return err
		}
		switch {
		case respErr.Response.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", tracker.ErrNotFound, respErr.Message)
		case respErr.Response.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%w: bad credentials", tracker.ErrAuth)
		case respErr.Response.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: %s", tracker.ErrAuth, respErr.Message)
		case respErr.Response.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %s", tracker.ErrUnavailable, respErr.Message)
		}
		return err
	case errors.As(err, &urlErr):
		return fmt.Errorf("%w: %v", tracker.ErrUnavailable, err)
	}

	return err
}

// Close closes an issue with an audit comment. The comment is posted
// first so the trail survives even if the state change fails.
func (c *Client) Close(ctx context.Context, number int, comment string) error {
	if comment != "" {
		_, err := execute(ctx, c.retryCfg, func(ctx context.Context) (*gh.IssueComment, error) {
			created, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, &gh.IssueComment{
				Body: gh.Ptr(comment),
			})
			return created, mapErr(err)
		})
		if err != nil {
			return fmt.Errorf("comment on issue #%d: %w", number, err)
		}
	}

	_, err := execute(ctx, c.retryCfg, func(ctx context.Context) (*gh.Issue, error) {
		edited, _, err := c.gh.Issues.Edit(ctx, c.owner, c.repo, number, &gh.IssueRequest{
			State:       gh.Ptr("closed"),
			StateReason: gh.Ptr("completed"),
		})
		return edited, mapErr(err)
	})
	if err != nil {
		return fmt.Errorf("close issue #%d: %w", number, err)
	}

	return nil
}

// Create opens a new issue and returns it with its assigned number.
func (c *Client) Create(ctx context.Context, req tracker.CreateRequest) (*issue.Issue, error) {
	ghReq := &gh.IssueRequest{
		Title: gh.Ptr(req.Title),
		Body:  gh.Ptr(req.Body),
	}
	if len(req.Labels) > 0 {
		ghReq.Labels = &req.Labels
	}

	created, err := execute(ctx, c.retryCfg, func(ctx context.Context) (*gh.Issue, error) {
		created, _, err := c.gh.Issues.Create(ctx, c.owner, c.repo, ghReq)
		return created, mapErr(err)
	})
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	iss := restIssueToDomain(created)
	return &iss, nil
}

// EditBody replaces an issue body.
func (c *Client) EditBody(ctx context.Context, number int, body string) error {
	_, err := execute(ctx, c.retryCfg, func(ctx context.Context) (*gh.Issue, error) {
		edited, _, err := c.gh.Issues.Edit(ctx, c.owner, c.repo, number, &gh.IssueRequest{
			Body: gh.Ptr(body),
		})
		return edited, mapErr(err)
	})
	if err != nil {
		return fmt.Errorf("edit issue #%d: %w", number, err)
	}

	return nil
}

func restIssueToDomain(ghIssue *gh.Issue) issue.Issue {
	labels := make([]string, 0, len(ghIssue.Labels))
	for _, l := range ghIssue.Labels {
		labels = append(labels, l.GetName())
	}
	assignees := make([]string, 0, len(ghIssue.Assignees))
	for _, a := range ghIssue.Assignees {
		assignees = append(assignees, a.GetLogin())
	}

	iss := issue.Issue{
		Number:    ghIssue.GetNumber(),
		Title:     ghIssue.GetTitle(),
		Type:      issue.DetectType(labels, ghIssue.GetTitle()),
		State:     issue.State(ghIssue.GetState()),
		Body:      ghIssue.GetBody(),
		Labels:    labels,
		Assignees: assignees,
		URL:       ghIssue.GetHTMLURL(),
	}
	if ts := ghIssue.ClosedAt; ts != nil {
		closedAt := ts.Time
		iss.ClosedAt = &closedAt
	}

	return iss
}
