package main

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/hashicorp/go-plugin"

	"github.com/jcttech/specstack/pkg/domain/issue"
	domainPlugin "github.com/jcttech/specstack/pkg/domain/plugin"
	"github.com/jcttech/specstack/pkg/domain/tracker"
	infraPlugin "github.com/jcttech/specstack/pkg/plugin"
)

// MockProvider serves a small in-memory hierarchy: one epic, one spec,
// three stories. Useful for demos and for the provider contract suite.
type MockProvider struct {
	mu     sync.Mutex
	issues map[int]issue.Issue
	next   int
}

func NewMockProvider() *MockProvider {
	p := &MockProvider{issues: make(map[int]issue.Issue), next: 104}

	seed := []issue.Issue{
		{Number: 1, Title: "Epic: User Management", Type: issue.TypeEpic, State: issue.StateOpen, Labels: []string{"type:epic"}},
		{Number: 100, Title: "Spec: Authentication", Type: issue.TypeSpec, State: issue.StateOpen, Labels: []string{"type:spec"}, Parent: 1, Body: "Parent Epic: #1"},
		{Number: 101, Title: "Story: Login form", Type: issue.TypeStory, State: issue.StateOpen, Labels: []string{"type:story"}, Parent: 100, Body: "Parent Spec: #100"},
		{Number: 102, Title: "Story: Session handling", Type: issue.TypeStory, State: issue.StateOpen, Labels: []string{"type:story"}, Parent: 100, Body: "Parent Spec: #100"},
		{Number: 103, Title: "Story: Password reset", Type: issue.TypeStory, State: issue.StateOpen, Labels: []string{"type:story"}, Parent: 100, Body: "Parent Spec: #100"},
	}
	for _, iss := range seed {
		p.issues[iss.Number] = iss
	}
	return p
}

func (p *MockProvider) Init(config map[string]string) error {
	if config["fail"] == "true" {
		return fmt.Errorf("mock provider init failed as requested")
	}
	return nil
}

func (p *MockProvider) List(opts tracker.ListOptions) ([]issue.Issue, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []issue.Issue
	for _, iss := range p.issues {
		if opts.Type != "" && iss.Type != opts.Type {
			continue
		}
		if opts.State != "" && iss.State != opts.State {
			continue
		}
		out = append(out, iss)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (p *MockProvider) View(number int) (*issue.Issue, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	iss, ok := p.issues[number]
	if !ok {
		return nil, fmt.Errorf("%w: #%d", tracker.ErrNotFound, number)
	}
	return &iss, nil
}

func (p *MockProvider) Close(number int, comment string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	iss, ok := p.issues[number]
	if !ok {
		return fmt.Errorf("%w: #%d", tracker.ErrNotFound, number)
	}
	iss.State = issue.StateClosed
	p.issues[number] = iss
	if comment != "" {
		log.Printf("closed #%d with comment: %s", number, comment)
	}
	return nil
}

func (p *MockProvider) Create(req tracker.CreateRequest) (*issue.Issue, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	iss := issue.Issue{
		Number: p.next,
		Title:  req.Title,
		Type:   issue.DetectType(req.Labels, req.Title),
		State:  issue.StateOpen,
		Body:   req.Body,
		Labels: req.Labels,
	}
	p.issues[iss.Number] = iss
	p.next++
	return &iss, nil
}

func (p *MockProvider) EditBody(number int, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	iss, ok := p.issues[number]
	if !ok {
		return fmt.Errorf("%w: #%d", tracker.ErrNotFound, number)
	}
	iss.Body = body
	p.issues[number] = iss
	return nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: infraPlugin.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			"provider": &domainPlugin.ProviderPlugin{Impl: NewMockProvider()},
		},
	})
}
