package models

import "time"

// ComponentSummary is one catalog entry with its current tracking status.
type ComponentSummary struct {
	Name            string `json:"name"`
	Status          Status `json:"status"`
	Progress        int    `json:"progress"`
	Priority        string `json:"priority"`
	EstimatedEffort string `json:"estimated_effort"`
	TaskCount       int    `json:"task_count"`
	OpenIssues      int    `json:"open_issues"`
}

// OverallProgress aggregates tracking state over the whole catalog.
//
// Components holds only tracked components; catalog components never started count as pending with progress 0.
type OverallProgress struct {
	TotalComponents      int                       `json:"total_components"`
	CompletedComponents  int                       `json:"completed_components"`
	InProgressComponents int                       `json:"in_progress_components"`
	PendingComponents    int                       `json:"pending_components"`
	Percent              float64                   `json:"overall_progress"`
	Components           map[string]TrackingRecord `json:"components"`
}

// Snapshot is an immutable, versioned copy of all tracking state.
//
// A snapshot with Version v reflects at least every mutation numbered v or lower.
type Snapshot struct {
	Version uint64    `json:"version"`
	TakenAt time.Time `json:"taken_at"`
	OverallProgress
}

// Report is the durable export document.
type Report struct {
	GeneratedAt     time.Time                 `json:"generated_at"`
	OverallProgress OverallProgress           `json:"overall_progress"`
	DetailedStatus  map[string]TrackingRecord `json:"detailed_status"`
}

// NewReport builds the export document from a snapshot.
func NewReport(s Snapshot, at time.Time) Report {
	return Report{
		GeneratedAt:     at,
		OverallProgress: s.OverallProgress,
		DetailedStatus:  s.Components,
	}
}
