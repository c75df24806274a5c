package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/desertthunder/migtrack/internal/models"
)

func componentPath(name, action string) string {
	p := "/api/component/" + url.PathEscape(name)
	if action != "" {
		p += "/" + action
	}
	return p
}

// Status fetches the overall progress.
func (a *APIService) Status(ctx context.Context) (models.OverallProgress, error) {
	var out models.OverallProgress
	resp, err := a.Get(ctx, "/api/status")
	if err != nil {
		return out, err
	}
	err = decodeInto(resp, &out)
	return out, err
}

// Components lists every catalog component with its tracking status.
func (a *APIService) Components(ctx context.Context) ([]models.ComponentSummary, error) {
	var out []models.ComponentSummary
	resp, err := a.Get(ctx, "/api/components")
	if err != nil {
		return nil, err
	}
	err = decodeInto(resp, &out)
	return out, err
}

// Component fetches the tracking record of one component.
func (a *APIService) Component(ctx context.Context, name string) (models.TrackingRecord, error) {
	var out models.TrackingRecord
	resp, err := a.Get(ctx, componentPath(name, ""))
	if err != nil {
		return out, err
	}
	err = decodeInto(resp, &out)
	return out, err
}

// Start begins tracking a component.
func (a *APIService) Start(ctx context.Context, name string) (models.TrackingRecord, error) {
	var out models.TrackingRecord
	resp, err := a.Post(ctx, componentPath(name, "start"), nil)
	if err != nil {
		return out, err
	}
	err = decodeInto(resp, &out)
	return out, err
}

// SetProgress sets the progress and, when phase is not empty, the phase of a component.
func (a *APIService) SetProgress(ctx context.Context, name string, percent int, phase string) (models.ProgressResult, error) {
	var out models.ProgressResult
	resp, err := a.PostJSON(ctx, componentPath(name, "progress"), models.ProgressRequest{Progress: percent, Phase: phase})
	if err != nil {
		return out, err
	}
	err = decodeInto(resp, &out)
	return out, err
}

// CompleteTask marks one remaining task of a component as done.
func (a *APIService) CompleteTask(ctx context.Context, name, task string) (models.ProgressResult, error) {
	var out models.ProgressResult
	resp, err := a.PostJSON(ctx, componentPath(name, "task"), models.TaskRequest{Task: task})
	if err != nil {
		return out, err
	}
	err = decodeInto(resp, &out)
	return out, err
}

// AddIssue records an issue against a component and returns its index.
func (a *APIService) AddIssue(ctx context.Context, name, description string, severity models.Severity) (models.IssueResult, error) {
	var out models.IssueResult
	resp, err := a.PostJSON(ctx, componentPath(name, "issue"), models.IssueRequest{Description: description, Severity: severity})
	if err != nil {
		return out, err
	}
	err = decodeInto(resp, &out)
	return out, err
}

// ResolveIssue marks the issue at index as resolved.
func (a *APIService) ResolveIssue(ctx context.Context, name string, index int) (models.TrackingRecord, error) {
	var out models.TrackingRecord
	resp, err := a.PostJSON(ctx, componentPath(name, "resolve"), models.ResolveRequest{Index: index})
	if err != nil {
		return out, err
	}
	err = decodeInto(resp, &out)
	return out, err
}

// Complete marks a component as completed.
func (a *APIService) Complete(ctx context.Context, name string) (models.TrackingRecord, error) {
	var out models.TrackingRecord
	resp, err := a.Post(ctx, componentPath(name, "complete"), nil)
	if err != nil {
		return out, err
	}
	err = decodeInto(resp, &out)
	return out, err
}

// Logs lists recent notification events, newest first. An empty component lists all of them.
func (a *APIService) Logs(ctx context.Context, component string, limit int) ([]models.EventEntry, error) {
	q := url.Values{}
	if component != "" {
		q.Set("component", component)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []models.EventEntry
	resp, err := a.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	err = decodeInto(resp, &out)
	return out, err
}

// Reports lists saved reports, newest first.
func (a *APIService) Reports(ctx context.Context, label string, limit int) ([]models.ReportEntry, error) {
	q := url.Values{}
	if label != "" {
		q.Set("label", label)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/reports"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []models.ReportEntry
	resp, err := a.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	err = decodeInto(resp, &out)
	return out, err
}

// ExportReport asks the server to save the current state as a report.
func (a *APIService) ExportReport(ctx context.Context, label string, writeFile bool) (models.ReportResult, error) {
	var out models.ReportResult
	resp, err := a.PostJSON(ctx, "/api/reports", models.ReportRequest{Label: label, WriteFile: writeFile})
	if err != nil {
		return out, err
	}
	err = decodeInto(resp, &out)
	return out, err
}

// ShowReport fetches one saved report. ref is "latest", a sequence number or an ID.
func (a *APIService) ShowReport(ctx context.Context, ref string) (models.ReportEntry, error) {
	var out models.ReportEntry
	if ref == "" {
		ref = "latest"
	}
	resp, err := a.Get(ctx, fmt.Sprintf("/api/reports/%s", url.PathEscape(ref)))
	if err != nil {
		return out, err
	}
	err = decodeInto(resp, &out)
	return out, err
}
