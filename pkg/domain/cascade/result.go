// Package cascade models hierarchy-closure walks: given a completed
// Story, ascend Story → Spec → Epic and close each ancestor once all of
// its children are closed.
package cascade

// Audit comments posted when the cascade closes an ancestor. The wording
// is fixed so downstream tooling can recognize automated closures.
const (
	SpecCloseComment = "All Stories completed. Auto-closing Spec."
	EpicCloseComment = "All Specs completed. Auto-closing Epic."
)

// ReasonNoParentSpec is reported when a story has no detectable parent.
const ReasonNoParentSpec = "no_parent_spec"

// Result is the transient outcome of one cascade invocation. It is never
// persisted; consumers must treat every field except CascadeTriggered as
// optional. CloseErrors carries failed close operations: the closes are
// still reported as attempted, but callers can see they may not have
// taken effect.
type Result struct {
	CascadeTriggered bool     `json:"cascade_triggered"`
	SpecClosed       int      `json:"spec_closed,omitempty"`
	EpicClosed       int      `json:"epic_closed,omitempty"`
	EpicOpen         int      `json:"epic_open,omitempty"`
	OpenSpecs        int      `json:"open_specs,omitempty"`
	OpenStories      int      `json:"open_stories,omitempty"`
	ParentSpec       int      `json:"parent_spec,omitempty"`
	Reason           string   `json:"reason,omitempty"`
	CloseErrors      []string `json:"close_errors,omitempty"`
}

// CountSource records which query strategy produced a child count.
type CountSource string

const (
	// SourceStructured means the tracker's native parent field matched.
	SourceStructured CountSource = "structured"

	// SourceBodyMarker means the textual fallback produced the count.
	SourceBodyMarker CountSource = "body_marker"
)

// Count pairs an open-children count with the strategy that produced it,
// making the zero-triggered fallback visible to callers.
type Count struct {
	Open   int
	Source CountSource
}
