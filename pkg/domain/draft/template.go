package draft

import (
	"fmt"
	"strconv"
	"time"
)

const specTemplate = `---
draft_id: %s
type: spec
title: %q
created: %q
modified: %q
status: draft
ready_to_push: false
parent_epic: %s
validation:
  valid: false
  errors: []
  warnings: []
---

# Spec: %s

## Overview

%s

## Requirements

### Functional Requirements

- [ ] [Requirement 1]
- [ ] [Requirement 2]

### Non-Functional Requirements

- [ ] [Performance requirement]
- [ ] [Security requirement]

## Acceptance Criteria

- [ ] [Criterion 1]
- [ ] [Criterion 2]
- [ ] [Criterion 3]

## Technical Notes

[Any technical considerations, constraints, or dependencies...]

## Open Questions

- [ ] [Question that needs clarification]
`

const planTemplate = `---
draft_id: %s
type: plan
title: %q
created: %q
modified: %q
status: draft
parent_spec: %d
stories_generated: false
---

# Implementation Plan: %s

**Parent Spec**: #%d

## Implementation Approach

[Describe the overall approach to implementing this spec...]

## Technical Decisions

### Technology Stack

- [Framework/library choice]
- [Database choice if applicable]

### Architecture

[High-level architecture decisions...]

## Stories

The following user stories break down this spec into implementable units:

### Story 1: [Story Title]

**User Story**: As a [user type], I want [action] so that [benefit].

**Description**: [More detailed description...]

**Tasks**:
- [ ] [Task 1]
- [ ] [Task 2]
- [ ] [Task 3]

**Acceptance Criteria**:
- [ ] [Criterion 1]
- [ ] [Criterion 2]

---

### Story 2: [Story Title]

**User Story**: As a [user type], I want [action] so that [benefit].

**Description**: [More detailed description...]

**Tasks**:
- [ ] [Task 1]
- [ ] [Task 2]

**Acceptance Criteria**:
- [ ] [Criterion 1]
- [ ] [Criterion 2]

## Dependencies

- [External dependency 1]
- [Internal dependency 1]

## Risks

- [Risk 1]: [Mitigation strategy]
- [Risk 2]: [Mitigation strategy]
`

// NewSpecContent renders a fresh spec draft. parentEpic of 0 records an
// unset parent; description may be empty.
func NewSpecContent(number int, title, description string, parentEpic int) (filename, content string) {
	short := ShortName(title)
	id := ID(TypeSpec, number, short)
	now := time.Now().UTC().Format(time.RFC3339)

	parent := "null"
	if parentEpic > 0 {
		parent = strconv.Itoa(parentEpic)
	}
	if description == "" {
		description = "[Describe the feature or change being specified...]"
	}

	content = fmt.Sprintf(specTemplate, id, title, now, now, parent, title, description)
	return TypeSpec.Filename(number, short), content
}

// NewPlanContent renders a fresh plan draft linked to a pushed spec issue.
func NewPlanContent(number, specNumber int, specTitle string) (filename, content string) {
	short := ShortName(specTitle)
	id := ID(TypePlan, number, short)
	now := time.Now().UTC().Format(time.RFC3339)
	title := "Plan: " + specTitle

	content = fmt.Sprintf(planTemplate, id, title, now, now, specNumber, specTitle, specNumber)
	return TypePlan.Filename(number, short), content
}
