package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/jcttech/specstack/pkg/domain/cascade"
	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/domain/issue"
	"github.com/jcttech/specstack/pkg/domain/tracker"
)

// issueLeases hands out one mutex per issue number so concurrent
// cascades serialize before closing the same ancestor. Locks are never
// removed; the map stays small because it only ever holds ancestors
// this process tried to close.
type issueLeases struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newIssueLeases() *issueLeases {
	return &issueLeases{locks: make(map[int]*sync.Mutex)}
}

func (l *issueLeases) acquire(number int) func() {
	l.mu.Lock()
	m, ok := l.locks[number]
	if !ok {
		m = &sync.Mutex{}
		l.locks[number] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// CascadeService walks the hierarchy upward after a story completes,
// closing each ancestor whose children are all closed. The walk never
// ascends past the story's immediate epic.
type CascadeService struct {
	tracker tracker.Tracker
	audit   *AuditService
	leases  *issueLeases
}

func NewCascadeService(trk tracker.Tracker, audit *AuditService) *CascadeService {
	return &CascadeService{tracker: trk, audit: audit, leases: newIssueLeases()}
}

// ResolveParent finds the parent of an issue. The tracker's structured
// parent field wins; the body marker is the fallback. A missing issue
// means "no parent", not an error; transport and auth failures
// propagate so callers can distinguish "no parent" from "could not
// determine parent".
func (s *CascadeService) ResolveParent(ctx context.Context, number int, parentType issue.Type) (int, error) {
	iss, err := s.tracker.View(ctx, number)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	if iss.HasStructuredParent() {
		return iss.Parent, nil
	}
	return issue.ParentFromBody(iss.Body, parentType), nil
}

// CountOpenChildren counts open children of a parent issue. Structured
// parent annotations are counted first; a zero count falls back to the
// body-marker scan, because zero cannot distinguish "no children" from
// "structured field unpopulated on every child". The returned source
// names the strategy that produced the count.
func (s *CascadeService) CountOpenChildren(ctx context.Context, parent int, childType issue.Type) (cascade.Count, error) {
	children, err := s.tracker.List(ctx, tracker.ListOptions{Type: childType, State: issue.StateOpen})
	if err != nil {
		return cascade.Count{}, err
	}

	structured := 0
	for i := range children {
		if children[i].Parent == parent {
			structured++
		}
	}
	if structured > 0 {
		return cascade.Count{Open: structured, Source: cascade.SourceStructured}, nil
	}

	marker := 0
	level := childType.ParentType()
	for i := range children {
		if issue.ParentFromBody(children[i].Body, level) == parent {
			marker++
		}
	}
	return cascade.Count{Open: marker, Source: cascade.SourceBodyMarker}, nil
}

// CascadeClose is the cascade entry point: given a completed story,
// close its spec once no open stories remain, then the epic once no
// open specs remain. Close failures are soft; they surface in
// Result.CloseErrors while the walk continues.
func (s *CascadeService) CascadeClose(ctx context.Context, storyNumber int) (*cascade.Result, error) {
	walk, err := cascade.NewWalk(storyNumber)
	if err != nil {
		return nil, err
	}
	if err := walk.Advance(cascade.EventResolve); err != nil {
		return nil, err
	}

	result := &cascade.Result{}

	specNumber, err := s.ResolveParent(ctx, storyNumber, issue.TypeSpec)
	if err != nil {
		return nil, fmt.Errorf("resolve parent spec of story #%d: %w", storyNumber, err)
	}
	if specNumber == 0 {
		if err := walk.Advance(cascade.EventMissingSpec); err != nil {
			return nil, err
		}
		result.Reason = cascade.ReasonNoParentSpec
		s.logCascade(storyNumber, walk.Current(), result)
		return result, nil
	}
	if err := walk.Advance(cascade.EventFoundSpec); err != nil {
		return nil, err
	}

	stories, err := s.CountOpenChildren(ctx, specNumber, issue.TypeStory)
	if err != nil {
		return nil, fmt.Errorf("count open stories under spec #%d: %w", specNumber, err)
	}
	if stories.Open > 0 {
		if err := walk.Advance(cascade.EventFoundOpenStories); err != nil {
			return nil, err
		}
		result.ParentSpec = specNumber
		result.OpenStories = stories.Open
		s.logCascade(storyNumber, walk.Current(), result)
		return result, nil
	}
	if err := walk.Advance(cascade.EventAllStoriesClosed); err != nil {
		return nil, err
	}

	s.closeIssue(ctx, specNumber, issue.TypeSpec, cascade.SpecCloseComment, result)
	result.CascadeTriggered = true
	result.SpecClosed = specNumber
	if err := walk.Advance(cascade.EventClosedSpec); err != nil {
		return nil, err
	}

	epicNumber, err := s.ResolveParent(ctx, specNumber, issue.TypeEpic)
	if err != nil {
		return nil, fmt.Errorf("resolve parent epic of spec #%d: %w", specNumber, err)
	}
	if epicNumber == 0 {
		if err := walk.Advance(cascade.EventMissingEpic); err != nil {
			return nil, err
		}
		s.logCascade(storyNumber, walk.Current(), result)
		return result, nil
	}
	if err := walk.Advance(cascade.EventFoundEpic); err != nil {
		return nil, err
	}

	specs, err := s.CountOpenChildren(ctx, epicNumber, issue.TypeSpec)
	if err != nil {
		return nil, fmt.Errorf("count open specs under epic #%d: %w", epicNumber, err)
	}
	if specs.Open > 0 {
		if err := walk.Advance(cascade.EventFoundOpenSpecs); err != nil {
			return nil, err
		}
		result.EpicOpen = epicNumber
		result.OpenSpecs = specs.Open
		s.logCascade(storyNumber, walk.Current(), result)
		return result, nil
	}
	if err := walk.Advance(cascade.EventAllSpecsClosed); err != nil {
		return nil, err
	}

	s.closeIssue(ctx, epicNumber, issue.TypeEpic, cascade.EpicCloseComment, result)
	result.EpicClosed = epicNumber
	if err := walk.Advance(cascade.EventClosedEpic); err != nil {
		return nil, err
	}

	s.logCascade(storyNumber, walk.Current(), result)
	return result, nil
}

// closeIssue closes an ancestor under its per-issue lease. A failed
// close is reported in CloseErrors; the issue is still treated as
// close-attempted so the walk can continue.
func (s *CascadeService) closeIssue(ctx context.Context, number int, issueType issue.Type, comment string, result *cascade.Result) {
	release := s.leases.acquire(number)
	defer release()

	if err := s.tracker.Close(ctx, number, comment); err != nil {
		result.CloseErrors = append(result.CloseErrors, fmt.Sprintf("close %s #%d: %v", issueType, number, err))
		return
	}

	if s.audit != nil {
		_ = s.audit.Log(events.EventTypeIssueClosed, events.AggregateTypeIssue, strconv.Itoa(number), map[string]interface{}{
			"number":     number,
			"issue_type": string(issueType),
			"comment":    comment,
		})
	}
}

func (s *CascadeService) logCascade(storyNumber int, terminal string, result *cascade.Result) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Log(events.EventTypeCascadeCompleted, events.AggregateTypeIssue, strconv.Itoa(storyNumber), map[string]interface{}{
		"story_number":   storyNumber,
		"terminal_state": terminal,
		"spec_closed":    result.SpecClosed,
		"epic_closed":    result.EpicClosed,
	})
}
