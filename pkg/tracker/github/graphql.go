package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jcttech/specstack/pkg/domain/issue"
	"github.com/jcttech/specstack/pkg/domain/tracker"
)

// maxListPages caps issue listing at 100 issues per page.
const maxListPages = 20

const issueFields = `number title body state url closedAt ` +
	`labels(first: 20) { nodes { name } } ` +
	`assignees(first: 10) { nodes { login } } ` +
	`parent { number }`

const listIssuesQuery = `query($owner: String!, $name: String!, $states: [IssueState!], $labels: [String!], $cursor: String) {
  repository(owner: $owner, name: $name) {
    issues(first: 100, after: $cursor, states: $states, labels: $labels, orderBy: {field: CREATED_AT, direction: ASC}) {
      pageInfo { hasNextPage endCursor }
      nodes { ` + issueFields + ` }
    }
  }
}`

const viewIssueQuery = `query($owner: String!, $name: String!, $number: Int!) {
  repository(owner: $owner, name: $name) {
    issue(number: $number) { ` + issueFields + ` }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

// issueNode mirrors the GraphQL issue selection above. The parent field
// is the tracker's structured sub-issue link.
type issueNode struct {
	Number   int        `json:"number"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	State    string     `json:"state"`
	URL      string     `json:"url"`
	ClosedAt *time.Time `json:"closedAt"`
	Labels   struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
	Assignees struct {
		Nodes []struct {
			Login string `json:"login"`
		} `json:"nodes"`
	} `json:"assignees"`
	Parent *struct {
		Number int `json:"number"`
	} `json:"parent"`
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type listIssuesData struct {
	Repository struct {
		Issues struct {
			PageInfo pageInfo    `json:"pageInfo"`
			Nodes    []issueNode `json:"nodes"`
		} `json:"issues"`
	} `json:"repository"`
}

type viewIssueData struct {
	Repository struct {
		Issue *issueNode `json:"issue"`
	} `json:"repository"`
}

// postGraphQL sends one GraphQL request through the authenticated client.
// Transport and HTTP-level failures surface here; GraphQL errors embedded
// in a 200 response are left for decodeGraphQL so they are not retried.
func (c *Client) postGraphQL(ctx context.Context, query string, vars map[string]any) (*graphQLResponse, error) {
	req, err := c.gh.NewRequest(http.MethodPost, "graphql", graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return nil, err
	}

	var resp graphQLResponse
	if _, err := c.gh.Do(ctx, req, &resp); err != nil {
		return nil, mapErr(err)
	}

	return &resp, nil
}

func decodeGraphQL[T any](resp *graphQLResponse) (*T, error) {
	for _, e := range resp.Errors {
		if e.Type == "NOT_FOUND" {
			return nil, fmt.Errorf("%w: %s", tracker.ErrNotFound, e.Message)
		}
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", resp.Errors[0].Message)
	}

	var data T
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}

	return &data, nil
}

// List returns issues matching opts, each annotated with its structured
// parent when GitHub maintains one.
func (c *Client) List(ctx context.Context, opts tracker.ListOptions) ([]issue.Issue, error) {
	vars := map[string]any{
		"owner": c.owner,
		"name":  c.repo,
	}
	if opts.Type != "" {
		vars["labels"] = []string{opts.Type.Label()}
	}
	switch opts.State {
	case issue.StateOpen:
		vars["states"] = []string{"OPEN"}
	case issue.StateClosed:
		vars["states"] = []string{"CLOSED"}
	}

	var issues []issue.Issue
	for page := 0; page < maxListPages; page++ {
		resp, err := execute(ctx, c.retryCfg, func(ctx context.Context) (*graphQLResponse, error) {
			return c.postGraphQL(ctx, listIssuesQuery, vars)
		})
		if err != nil {
			return nil, fmt.Errorf("list issues: %w", err)
		}

		data, err := decodeGraphQL[listIssuesData](resp)
		if err != nil {
			return nil, fmt.Errorf("list issues: %w", err)
		}

		for _, node := range data.Repository.Issues.Nodes {
			issues = append(issues, nodeToIssue(node))
		}

		info := data.Repository.Issues.PageInfo
		if !info.HasNextPage {
			break
		}
		vars["cursor"] = info.EndCursor
	}

	return issues, nil
}

// View fetches a single issue. Returns tracker.ErrNotFound when the
// number does not exist.
func (c *Client) View(ctx context.Context, number int) (*issue.Issue, error) {
	vars := map[string]any{
		"owner":  c.owner,
		"name":   c.repo,
		"number": number,
	}

	resp, err := execute(ctx, c.retryCfg, func(ctx context.Context) (*graphQLResponse, error) {
		return c.postGraphQL(ctx, viewIssueQuery, vars)
	})
	if err != nil {
		return nil, fmt.Errorf("view issue #%d: %w", number, err)
	}

	data, err := decodeGraphQL[viewIssueData](resp)
	if err != nil {
		return nil, err
	}
	if data.Repository.Issue == nil {
		return nil, fmt.Errorf("%w: issue #%d", tracker.ErrNotFound, number)
	}

	iss := nodeToIssue(*data.Repository.Issue)
	return &iss, nil
}

func nodeToIssue(node issueNode) issue.Issue {
	labels := make([]string, 0, len(node.Labels.Nodes))
	for _, l := range node.Labels.Nodes {
		labels = append(labels, l.Name)
	}
	assignees := make([]string, 0, len(node.Assignees.Nodes))
	for _, a := range node.Assignees.Nodes {
		assignees = append(assignees, a.Login)
	}

	iss := issue.Issue{
		Number:    node.Number,
		Title:     node.Title,
		Type:      issue.DetectType(labels, node.Title),
		State:     issue.State(strings.ToLower(node.State)),
		Body:      node.Body,
		Labels:    labels,
		Assignees: assignees,
		URL:       node.URL,
		ClosedAt:  node.ClosedAt,
	}
	if node.Parent != nil {
		iss.Parent = node.Parent.Number
	}

	return iss
}
