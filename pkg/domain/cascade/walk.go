package cascade

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State constants for the cascade walk. Kept as untyped strings for
// statekit.StateID compatibility.
const (
	StateStart        = "start"
	StateResolveSpec  = "resolve_spec"
	StateCountStories = "count_stories"
	StateCloseSpec    = "close_spec"
	StateResolveEpic  = "resolve_epic"
	StateCountSpecs   = "count_specs"
	StateCloseEpic    = "close_epic"

	// Terminal states. The walk never ascends past the immediate Epic.
	StateNoParent         = "no_parent"
	StateStoriesRemain    = "stories_remain"
	StateSpecClosedNoEpic = "spec_closed_no_epic"
	StateEpicRemains      = "epic_remains"
	StateEpicClosed       = "epic_closed"
)

// Events that advance the walk.
const (
	EventResolve          = "resolve"
	EventFoundSpec        = "found_spec"
	EventMissingSpec      = "missing_spec"
	EventFoundOpenStories = "found_open_stories"
	EventAllStoriesClosed = "all_stories_closed"
	EventClosedSpec       = "closed_spec"
	EventFoundEpic        = "found_epic"
	EventMissingEpic      = "missing_epic"
	EventFoundOpenSpecs   = "found_open_specs"
	EventAllSpecsClosed   = "all_specs_closed"
	EventClosedEpic       = "closed_epic"
)

// WalkContext carries the invocation subject through the machine.
type WalkContext struct {
	StoryNumber int
}

// Walk enforces the legal progression of a cascade invocation. The
// application layer performs the remote calls and feeds the outcomes in
// as events; the machine rejects out-of-order steps and names the
// terminal state the invocation reached.
type Walk struct {
	interpreter *statekit.Interpreter[WalkContext]
}

// NewWalk builds the cascade state machine for one story.
func NewWalk(storyNumber int) (*Walk, error) {
	builder := statekit.NewMachine[WalkContext]("cascade-walk").
		WithInitial(statekit.StateID(StateStart)).
		WithContext(WalkContext{StoryNumber: storyNumber})

	builder.State(StateStart).
		On(EventResolve).Target(StateResolveSpec).
		Done()

	builder.State(StateResolveSpec).
		On(EventFoundSpec).Target(StateCountStories).
		On(EventMissingSpec).Target(StateNoParent).
		Done()

	builder.State(StateCountStories).
		On(EventFoundOpenStories).Target(StateStoriesRemain).
		On(EventAllStoriesClosed).Target(StateCloseSpec).
		Done()

	builder.State(StateCloseSpec).
		On(EventClosedSpec).Target(StateResolveEpic).
		Done()

	builder.State(StateResolveEpic).
		On(EventFoundEpic).Target(StateCountSpecs).
		On(EventMissingEpic).Target(StateSpecClosedNoEpic).
		Done()

	builder.State(StateCountSpecs).
		On(EventFoundOpenSpecs).Target(StateEpicRemains).
		On(EventAllSpecsClosed).Target(StateCloseEpic).
		Done()

	builder.State(StateCloseEpic).
		On(EventClosedEpic).Target(StateEpicClosed).
		Done()

	// Terminal states carry no transitions.
	builder.State(StateNoParent).Done()
	builder.State(StateStoriesRemain).Done()
	builder.State(StateSpecClosedNoEpic).Done()
	builder.State(StateEpicRemains).Done()
	builder.State(StateEpicClosed).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build cascade machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &Walk{interpreter: interpreter}, nil
}

// Advance sends an event and fails when the event is not legal for the
// current state.
func (w *Walk) Advance(event string) error {
	before := w.Current()
	w.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := w.Current()

	if before == after {
		return fmt.Errorf("event %q is not valid in cascade state %q", event, before)
	}
	return nil
}

// Current returns the current state name.
func (w *Walk) Current() string {
	return string(w.interpreter.State().Value)
}

// IsTerminal reports whether the walk has reached a terminal state.
func (w *Walk) IsTerminal() bool {
	switch w.Current() {
	case StateNoParent, StateStoriesRemain, StateSpecClosedNoEpic, StateEpicRemains, StateEpicClosed:
		return true
	}
	return false
}
