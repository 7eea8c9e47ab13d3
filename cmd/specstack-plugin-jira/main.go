package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-plugin"

	"github.com/jcttech/specstack/pkg/domain/issue"
	domainPlugin "github.com/jcttech/specstack/pkg/domain/plugin"
	"github.com/jcttech/specstack/pkg/domain/tracker"
	infraPlugin "github.com/jcttech/specstack/pkg/plugin"
)

// jiraTime is the timestamp layout Jira Cloud uses for resolutiondate.
const jiraTime = "2006-01-02T15:04:05.000-0700"

type JiraProvider struct {
	domain     string
	projectKey string
	email      string
	apiToken   string
}

func (p *JiraProvider) Init(config map[string]string) error {
	p.domain = config["domain"]
	if p.domain == "" {
		p.domain = os.Getenv("JIRA_DOMAIN")
	}
	p.projectKey = config["project_key"]
	if p.projectKey == "" {
		p.projectKey = os.Getenv("JIRA_PROJECT_KEY")
	}
	p.email = config["email"]
	if p.email == "" {
		p.email = os.Getenv("JIRA_EMAIL")
	}
	p.apiToken = config["api_token"]
	if p.apiToken == "" {
		p.apiToken = os.Getenv("JIRA_API_TOKEN")
	}

	if p.domain == "" || p.projectKey == "" || p.email == "" || p.apiToken == "" {
		return fmt.Errorf("jira configuration missing (domain, project_key, email, api_token required)")
	}

	if !strings.HasPrefix(p.domain, "http") {
		p.domain = "https://" + p.domain
	}
	return nil
}

type jiraIssue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary     string   `json:"summary"`
		Description string   `json:"description"`
		Labels      []string `json:"labels"`
		Status      struct {
			Name           string `json:"name"`
			StatusCategory struct {
				Key string `json:"key"`
			} `json:"statusCategory"`
		} `json:"status"`
		Parent *struct {
			Key string `json:"key"`
		} `json:"parent"`
		ResolutionDate string `json:"resolutiondate"`
	} `json:"fields"`
}

type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("jira api error (%d): %s", e.Status, e.Body)
}

func (p *JiraProvider) request(method, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(data)
	}

	endpoint := fmt.Sprintf("%s/rest/api/2/%s", p.domain, path)
	req, err := http.NewRequest(method, endpoint, bodyReader)
	if err != nil {
		return nil, err
	}

	auth := base64.StdEncoding.EncodeToString([]byte(p.email + ":" + p.apiToken))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tracker.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, p.mapStatus(resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func (p *JiraProvider) mapStatus(status int, body string) error {
	apiErr := &apiError{Status: status, Body: body}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: check JIRA_EMAIL and JIRA_API_TOKEN", tracker.ErrAuth)
	case status >= 500:
		return fmt.Errorf("%w: %v", tracker.ErrUnavailable, apiErr)
	default:
		return apiErr
	}
}

func (p *JiraProvider) issueKey(number int) string {
	return fmt.Sprintf("%s-%d", p.projectKey, number)
}

func keyNumber(key string) int {
	idx := strings.LastIndex(key, "-")
	if idx < 0 {
		return 0
	}
	n, _ := strconv.Atoi(key[idx+1:])
	return n
}

const issueFields = "summary,description,status,labels,parent,resolutiondate"

func (p *JiraProvider) List(opts tracker.ListOptions) ([]issue.Issue, error) {
	jql := fmt.Sprintf("project = '%s'", p.projectKey)
	switch opts.State {
	case issue.StateOpen:
		jql += " AND statusCategory != Done"
	case issue.StateClosed:
		jql += " AND statusCategory = Done"
	}
	if opts.Type != "" {
		jql += fmt.Sprintf(" AND labels = '%s'", opts.Type.Label())
	}
	jql += " ORDER BY created ASC"

	path := fmt.Sprintf("search?jql=%s&fields=%s&maxResults=100", url.QueryEscape(jql), issueFields)
	data, err := p.request("GET", path, nil)
	if err != nil {
		return nil, err
	}

	var searchResp struct {
		Issues []jiraIssue `json:"issues"`
	}
	if err := json.Unmarshal(data, &searchResp); err != nil {
		return nil, err
	}

	issues := make([]issue.Issue, 0, len(searchResp.Issues))
	for _, ji := range searchResp.Issues {
		issues = append(issues, toDomain(ji))
	}
	return issues, nil
}

func (p *JiraProvider) View(number int) (*issue.Issue, error) {
	data, err := p.request("GET", fmt.Sprintf("issue/%s?fields=%s", p.issueKey(number), issueFields), nil)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: #%d", tracker.ErrNotFound, number)
		}
		return nil, err
	}

	var ji jiraIssue
	if err := json.Unmarshal(data, &ji); err != nil {
		return nil, err
	}
	iss := toDomain(ji)
	return &iss, nil
}

func (p *JiraProvider) Close(number int, comment string) error {
	key := p.issueKey(number)

	if comment != "" {
		if _, err := p.request("POST", fmt.Sprintf("issue/%s/comment", key), map[string]string{"body": comment}); err != nil {
			return fmt.Errorf("comment on issue #%d: %w", number, err)
		}
	}

	// Jira closes via workflow transitions; pick the first one that
	// lands in the done status category.
	data, err := p.request("GET", fmt.Sprintf("issue/%s/transitions", key), nil)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return fmt.Errorf("%w: #%d", tracker.ErrNotFound, number)
		}
		return err
	}

	var transitions struct {
		Transitions []struct {
			ID string `json:"id"`
			To struct {
				StatusCategory struct {
					Key string `json:"key"`
				} `json:"statusCategory"`
			} `json:"to"`
		} `json:"transitions"`
	}
	if err := json.Unmarshal(data, &transitions); err != nil {
		return err
	}

	for _, tr := range transitions.Transitions {
		if tr.To.StatusCategory.Key == "done" {
			input := map[string]interface{}{
				"transition": map[string]string{"id": tr.ID},
			}
			if _, err := p.request("POST", fmt.Sprintf("issue/%s/transitions", key), input); err != nil {
				return fmt.Errorf("close issue #%d: %w", number, err)
			}
			return nil
		}
	}

	return fmt.Errorf("no done transition available for issue #%d", number)
}

func (p *JiraProvider) Create(req tracker.CreateRequest) (*issue.Issue, error) {
	input := map[string]interface{}{
		"fields": map[string]interface{}{
			"project":     map[string]string{"key": p.projectKey},
			"summary":     req.Title,
			"description": req.Body,
			"issuetype":   map[string]string{"name": "Task"},
			"labels":      req.Labels,
		},
	}

	data, err := p.request("POST", "issue", input)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, err
	}

	return p.View(keyNumber(created.Key))
}

func (p *JiraProvider) EditBody(number int, body string) error {
	input := map[string]interface{}{
		"fields": map[string]string{"description": body},
	}
	if _, err := p.request("PUT", "issue/"+p.issueKey(number), input); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return fmt.Errorf("%w: #%d", tracker.ErrNotFound, number)
		}
		return fmt.Errorf("edit issue #%d: %w", number, err)
	}
	return nil
}

func toDomain(ji jiraIssue) issue.Issue {
	state := issue.StateOpen
	if ji.Fields.Status.StatusCategory.Key == "done" {
		state = issue.StateClosed
	}

	iss := issue.Issue{
		Number: keyNumber(ji.Key),
		Title:  ji.Fields.Summary,
		Type:   issue.DetectType(ji.Fields.Labels, ji.Fields.Summary),
		State:  state,
		Body:   ji.Fields.Description,
		Labels: ji.Fields.Labels,
	}
	if ji.Fields.Parent != nil {
		iss.Parent = keyNumber(ji.Fields.Parent.Key)
	}
	if ji.Fields.ResolutionDate != "" {
		if ts, err := time.Parse(jiraTime, ji.Fields.ResolutionDate); err == nil {
			utc := ts.UTC()
			iss.ClosedAt = &utc
		}
	}
	return iss
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: infraPlugin.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			"provider": &domainPlugin.ProviderPlugin{Impl: &JiraProvider{}},
		},
	})
}
