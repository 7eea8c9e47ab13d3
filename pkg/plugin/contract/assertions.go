// Package contract provides contract test assertions for specstack
// provider plugins.
package contract

import (
	"fmt"
	"strings"

	"github.com/jcttech/specstack/pkg/domain/issue"
	domainPlugin "github.com/jcttech/specstack/pkg/domain/plugin"
	"github.com/jcttech/specstack/pkg/domain/tracker"
)

// Result captures the outcome of a single contract assertion.
type Result struct {
	Name    string
	Passed  bool
	Message string
}

// AssertInitSuccess verifies that Init succeeds with valid config.
func AssertInitSuccess(provider domainPlugin.Provider) Result {
	err := provider.Init(map[string]string{"project": "test"})
	if err != nil {
		return Result{Name: "InitSuccess", Passed: false, Message: fmt.Sprintf("Init failed: %v", err)}
	}
	return Result{Name: "InitSuccess", Passed: true, Message: "Init succeeded"}
}

// AssertInitWithBadConfig verifies that Init returns an error for bad config.
func AssertInitWithBadConfig(provider domainPlugin.Provider) Result {
	err := provider.Init(map[string]string{"fail": "true"})
	if err == nil {
		return Result{Name: "InitWithBadConfig", Passed: false, Message: "expected Init to fail with fail=true config"}
	}
	return Result{Name: "InitWithBadConfig", Passed: true, Message: fmt.Sprintf("Init correctly failed: %v", err)}
}

// AssertListOpenIssues verifies List handles the open-state filter.
func AssertListOpenIssues(provider domainPlugin.Provider) Result {
	issues, err := provider.List(tracker.ListOptions{State: issue.StateOpen})
	if err != nil {
		return Result{Name: "ListOpenIssues", Passed: false, Message: fmt.Sprintf("List failed: %v", err)}
	}
	for _, iss := range issues {
		if iss.State != issue.StateOpen {
			return Result{Name: "ListOpenIssues", Passed: false, Message: fmt.Sprintf("issue #%d is %s, filter asked for open", iss.Number, iss.State)}
		}
	}
	return Result{Name: "ListOpenIssues", Passed: true, Message: fmt.Sprintf("List returned %d open issues", len(issues))}
}

// AssertViewMissingIssue verifies the not-found error contract: the
// flattened message must carry the tracker sentinel text so the host
// can restore it after the RPC hop.
func AssertViewMissingIssue(provider domainPlugin.Provider) Result {
	_, err := provider.View(999999999)
	if err == nil {
		return Result{Name: "ViewMissingIssue", Passed: false, Message: "expected View to fail for a missing issue"}
	}
	if !strings.Contains(err.Error(), tracker.ErrNotFound.Error()) {
		return Result{Name: "ViewMissingIssue", Passed: false, Message: fmt.Sprintf("error %q does not carry %q", err, tracker.ErrNotFound)}
	}
	return Result{Name: "ViewMissingIssue", Passed: true, Message: "missing issue reported with not-found text"}
}

// AssertCreateRoundTrip verifies Create assigns a number and View
// returns the created issue.
func AssertCreateRoundTrip(provider domainPlugin.Provider) Result {
	created, err := provider.Create(tracker.CreateRequest{
		Title:  "Story: contract probe",
		Body:   "Created by the provider contract suite.",
		Labels: []string{issue.TypeStory.Label()},
	})
	if err != nil {
		return Result{Name: "CreateRoundTrip", Passed: false, Message: fmt.Sprintf("Create failed: %v", err)}
	}
	if created == nil || created.Number <= 0 {
		return Result{Name: "CreateRoundTrip", Passed: false, Message: "Create returned no issue number"}
	}

	fetched, err := provider.View(created.Number)
	if err != nil {
		return Result{Name: "CreateRoundTrip", Passed: false, Message: fmt.Sprintf("View after Create failed: %v", err)}
	}
	if fetched == nil || fetched.Title != created.Title {
		return Result{Name: "CreateRoundTrip", Passed: false, Message: "created issue did not round-trip"}
	}
	return Result{Name: "CreateRoundTrip", Passed: true, Message: fmt.Sprintf("created and fetched #%d", created.Number)}
}

// AssertCloseWithComment verifies Close accepts an audit comment.
func AssertCloseWithComment(provider domainPlugin.Provider) Result {
	created, err := provider.Create(tracker.CreateRequest{
		Title: "Story: contract close probe",
		Body:  "Created by the provider contract suite.",
	})
	if err != nil {
		return Result{Name: "CloseWithComment", Passed: false, Message: fmt.Sprintf("Create failed: %v", err)}
	}
	if created == nil || created.Number <= 0 {
		return Result{Name: "CloseWithComment", Passed: false, Message: "Create returned no issue number"}
	}

	if err := provider.Close(created.Number, "Closed by the provider contract suite."); err != nil {
		return Result{Name: "CloseWithComment", Passed: false, Message: fmt.Sprintf("Close failed: %v", err)}
	}
	return Result{Name: "CloseWithComment", Passed: true, Message: fmt.Sprintf("closed #%d with comment", created.Number)}
}
