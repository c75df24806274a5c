package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
)

// ReportWriter persists an exported report.
type ReportWriter interface {
	WriteReport(ctx context.Context, report models.Report) error
}

// copyRecord returns a deep copy of the record for e, if tracked.
func (e *entry) copyRecord() (models.TrackingRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.record == nil {
		return models.TrackingRecord{}, false
	}
	return e.record.Clone(), true
}

// Snapshot copies all tracking state.
//
// The version is read before any record is copied, so the snapshot includes
// at least every mutation numbered up to its version.
func (s *Store) Snapshot() models.Snapshot {
	version := s.version.Load()
	return models.Snapshot{
		Version:         version,
		TakenAt:         s.clock(),
		OverallProgress: s.OverallProgress(),
	}
}

// OverallProgress aggregates progress over the whole catalog. Untracked
// components count as pending at 0%.
func (s *Store) OverallProgress() models.OverallProgress {
	names := s.catalog.Names()
	out := models.OverallProgress{
		TotalComponents: len(names),
		Components:      make(map[string]models.TrackingRecord),
	}

	sum := 0
	for _, name := range names {
		rec, ok := s.entries[name].copyRecord()
		if !ok {
			continue
		}
		out.Components[name] = rec
		sum += rec.Progress

		switch rec.Status {
		case models.StatusCompleted:
			out.CompletedComponents++
		case models.StatusInProgress:
			out.InProgressComponents++
		}
	}
	out.PendingComponents = out.TotalComponents - out.CompletedComponents - out.InProgressComponents

	if out.TotalComponents > 0 {
		out.Percent = math.Round(float64(sum)/float64(out.TotalComponents)*100) / 100
	}
	return out
}

// Component returns the tracking record for name.
func (s *Store) Component(name string) (models.TrackingRecord, error) {
	e, err := s.lookup(name)
	if err != nil {
		return models.TrackingRecord{}, err
	}
	rec, ok := e.copyRecord()
	if !ok {
		return models.TrackingRecord{}, fmt.Errorf("%w: %s", shared.ErrNotTracking, name)
	}
	return rec, nil
}

// Components summarizes every catalog component in name order.
func (s *Store) Components() []models.ComponentSummary {
	out := make([]models.ComponentSummary, 0, s.catalog.Len())
	for _, name := range s.catalog.Names() {
		e := s.entries[name]
		summary := models.ComponentSummary{
			Name:            name,
			Status:          models.StatusNotTracked,
			Priority:        e.descriptor.Priority,
			EstimatedEffort: e.descriptor.EstimatedEffort,
			TaskCount:       len(e.descriptor.DeriveTasks()),
		}
		if rec, ok := e.copyRecord(); ok {
			summary.Status = rec.Status
			summary.Progress = rec.Progress
			summary.TaskCount = len(rec.CompletedTasks) + len(rec.RemainingTasks)
			summary.OpenIssues = rec.OpenIssues()
		}
		out = append(out, summary)
	}
	return out
}

// Report builds the export document stamped with at.
func (s *Store) Report(at time.Time) models.Report {
	return models.NewReport(s.Snapshot(), at.UTC())
}

// ExportReport builds a report for the current state and hands it to w.
func (s *Store) ExportReport(ctx context.Context, w ReportWriter) (models.Report, error) {
	report := s.Report(s.clock())
	if err := w.WriteReport(ctx, report); err != nil {
		return models.Report{}, fmt.Errorf("failed to export report: %w", err)
	}
	s.logger.Info("report exported",
		"components", report.OverallProgress.TotalComponents,
		"overall_progress", report.OverallProgress.Percent,
	)
	return report, nil
}
