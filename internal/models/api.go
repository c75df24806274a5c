package models

// Request and response bodies of the tracker HTTP API.

type ProgressRequest struct {
	Progress int    `json:"progress"`
	Phase    string `json:"phase,omitempty"`
}

type TaskRequest struct {
	Task string `json:"task"`
}

type IssueRequest struct {
	Description string   `json:"description"`
	Severity    Severity `json:"severity,omitempty"`
}

type ResolveRequest struct {
	Index int `json:"index"`
}

type ReportRequest struct {
	Label     string `json:"label,omitempty"`
	WriteFile bool   `json:"write_file,omitempty"`
}

// ProgressResult is returned by progress and task updates.
type ProgressResult struct {
	Record     TrackingRecord `json:"record"`
	Milestones []int          `json:"milestones"`
}

type IssueResult struct {
	Component string `json:"component"`
	Index     int    `json:"index"`
}

// ReportResult is returned after a report export.
type ReportResult struct {
	Entry    ReportEntry `json:"entry"`
	FilePath string      `json:"file_path,omitempty"`
}

// ErrorResponse carries an API failure. Kind names the error category so clients can map it back.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
