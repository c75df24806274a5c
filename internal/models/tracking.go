package models

import (
	"slices"
	"time"
)

// Status is the lifecycle state of a component. It only moves forward.
type Status string

const (
	StatusNotTracked Status = "not_tracked"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Severity grades an [Issue].
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

// Phase names used by the tracker itself. Callers may set any other phase string.
const (
	PhaseInitialization = "initialization"
	PhaseCompleted      = "completed"
)

// Issue is one entry of a component's append-only issue log.
//
// Index is the position it was appended at and never changes.
type Issue struct {
	Index       int        `json:"index"`
	Description string     `json:"description"`
	Severity    Severity   `json:"severity"`
	Timestamp   time.Time  `json:"timestamp"`
	Resolved    bool       `json:"resolved"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// CompletedTask records when a task left the remaining set.
type CompletedTask struct {
	Task        string    `json:"task"`
	CompletedAt time.Time `json:"completed_at"`
}

// TrackingRecord is the mutable tracking state of one component.
type TrackingRecord struct {
	Component      string          `json:"component"`
	Status         Status          `json:"status"`
	Progress       int             `json:"progress"`
	CurrentPhase   string          `json:"current_phase"`
	StartTime      time.Time       `json:"start_time"`
	LastUpdated    time.Time       `json:"last_updated"`
	CompletionTime *time.Time      `json:"completion_time,omitempty"`
	CompletedTasks []CompletedTask `json:"completed_tasks"`
	RemainingTasks []string        `json:"remaining_tasks"`
	Issues         []Issue         `json:"issues"`
}

// Clone returns a deep copy that shares no memory with r.
func (r TrackingRecord) Clone() TrackingRecord {
	out := r
	if r.CompletionTime != nil {
		t := *r.CompletionTime
		out.CompletionTime = &t
	}
	out.CompletedTasks = slices.Clone(r.CompletedTasks)
	out.RemainingTasks = slices.Clone(r.RemainingTasks)
	if out.CompletedTasks == nil {
		out.CompletedTasks = []CompletedTask{}
	}
	if out.RemainingTasks == nil {
		out.RemainingTasks = []string{}
	}
	out.Issues = make([]Issue, len(r.Issues))
	for i, is := range r.Issues {
		if is.ResolvedAt != nil {
			t := *is.ResolvedAt
			is.ResolvedAt = &t
		}
		out.Issues[i] = is
	}
	return out
}

// OpenIssues counts unresolved issues.
func (r TrackingRecord) OpenIssues() int {
	n := 0
	for _, is := range r.Issues {
		if !is.Resolved {
			n++
		}
	}
	return n
}

// HasRemaining reports whether task is still in the remaining set.
func (r TrackingRecord) HasRemaining(task string) bool {
	return slices.Contains(r.RemainingTasks, task)
}
