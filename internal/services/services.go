package services

import (
	"context"

	"github.com/desertthunder/migtrack/internal/models"
)

// Tracker is the client side of the tracker API. [APIService] implements it over HTTP.
type Tracker interface {
	Status(ctx context.Context) (models.OverallProgress, error)
	Components(ctx context.Context) ([]models.ComponentSummary, error)
	Component(ctx context.Context, name string) (models.TrackingRecord, error)

	Start(ctx context.Context, name string) (models.TrackingRecord, error)
	SetProgress(ctx context.Context, name string, percent int, phase string) (models.ProgressResult, error)
	CompleteTask(ctx context.Context, name, task string) (models.ProgressResult, error)
	AddIssue(ctx context.Context, name, description string, severity models.Severity) (models.IssueResult, error)
	ResolveIssue(ctx context.Context, name string, index int) (models.TrackingRecord, error)
	Complete(ctx context.Context, name string) (models.TrackingRecord, error)

	Logs(ctx context.Context, component string, limit int) ([]models.EventEntry, error)
	Reports(ctx context.Context, label string, limit int) ([]models.ReportEntry, error)
	ExportReport(ctx context.Context, label string, writeFile bool) (models.ReportResult, error)
	ShowReport(ctx context.Context, ref string) (models.ReportEntry, error)

	// Watch streams pushed snapshots to fn until ctx ends.
	Watch(ctx context.Context, fn SnapshotFunc) error
}

var _ Tracker = (*APIService)(nil)
