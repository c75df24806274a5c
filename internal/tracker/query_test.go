package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
	tu "github.com/desertthunder/migtrack/internal/testing"
)

func TestStore_OverallProgress(t *testing.T) {
	store, _, _ := newTestStore(t)

	t.Run("nothing tracked", func(t *testing.T) {
		op := store.OverallProgress()
		if op.TotalComponents != 4 || op.PendingComponents != 4 || op.Percent != 0 {
			t.Errorf("unexpected empty progress: %+v", op)
		}
		if op.Components == nil || len(op.Components) != 0 {
			t.Errorf("expected empty component map, got %v", op.Components)
		}
	})

	if _, err := store.StartTracking("authentication"); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}
	if _, err := store.CompleteComponent("authentication"); err != nil {
		t.Fatalf("CompleteComponent failed: %v", err)
	}
	if _, err := store.StartTracking("dashboard"); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}
	if _, _, err := store.SetProgress("dashboard", 50, ""); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}

	op := store.OverallProgress()
	if op.Percent != 37.5 {
		t.Errorf("overall progress = %v, want 37.5", op.Percent)
	}
	if op.CompletedComponents != 1 || op.InProgressComponents != 1 || op.PendingComponents != 2 {
		t.Errorf("unexpected counts: %+v", op)
	}
	if len(op.Components) != 2 {
		t.Errorf("expected 2 tracked components, got %d", len(op.Components))
	}
}

func TestStore_OverallProgressRounding(t *testing.T) {
	store, _, _ := newTestStore(t)
	if _, err := store.StartTracking("billing"); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}
	if _, _, err := store.SetProgress("billing", 33, ""); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	if _, err := store.StartTracking("settings"); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}
	if _, _, err := store.SetProgress("settings", 1, ""); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}

	if got := store.OverallProgress().Percent; got != 8.5 {
		t.Errorf("overall progress = %v, want 8.5", got)
	}

	if _, _, err := store.SetProgress("settings", 2, ""); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	if got := store.OverallProgress().Percent; got != 8.75 {
		t.Errorf("overall progress = %v, want 8.75", got)
	}
}

func TestStore_Component(t *testing.T) {
	store, _, _ := newTestStore(t)

	if _, err := store.Component("missing"); !errors.Is(err, shared.ErrUnknownComponent) {
		t.Errorf("expected ErrUnknownComponent, got %v", err)
	}
	if _, err := store.Component("billing"); !errors.Is(err, shared.ErrNotTracking) {
		t.Errorf("expected ErrNotTracking, got %v", err)
	}
}

func TestStore_Components(t *testing.T) {
	store, _, _ := newTestStore(t)
	if _, err := store.StartTracking("dashboard"); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}
	if _, err := store.AddIssue("dashboard", "broken chart", models.SeverityHigh); err != nil {
		t.Fatalf("AddIssue failed: %v", err)
	}

	summaries := store.Components()
	if len(summaries) != 4 {
		t.Fatalf("expected 4 summaries, got %d", len(summaries))
	}

	byName := make(map[string]models.ComponentSummary)
	for _, s := range summaries {
		byName[s.Name] = s
	}

	if s := byName["authentication"]; s.Status != models.StatusNotTracked || s.TaskCount != 2 {
		t.Errorf("unexpected untracked summary: %+v", s)
	}
	if s := byName["dashboard"]; s.Status != models.StatusInProgress || s.TaskCount != 4 || s.OpenIssues != 1 {
		t.Errorf("unexpected tracked summary: %+v", s)
	}
	if summaries[0].Name != "authentication" || summaries[3].Name != "settings" {
		t.Errorf("summaries not sorted by name: %v, %v", summaries[0].Name, summaries[3].Name)
	}
}

func TestStore_Snapshot(t *testing.T) {
	store, _, _ := newTestStore(t)

	before := store.Snapshot()
	if before.Version != 0 {
		t.Errorf("initial version = %d, want 0", before.Version)
	}

	if _, err := store.StartTracking("billing"); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}
	after := store.Snapshot()
	if after.Version != 1 {
		t.Errorf("version = %d, want 1", after.Version)
	}
	if _, ok := after.Components["billing"]; !ok {
		t.Error("snapshot at version 1 should include billing")
	}
	if _, ok := before.Components["billing"]; ok {
		t.Error("earlier snapshot must not change")
	}
}

func TestStore_ExportReport(t *testing.T) {
	store, _, _ := newTestStore(t)
	if _, err := store.StartTracking("authentication"); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}

	t.Run("writes report", func(t *testing.T) {
		w := &tu.MemoryReportWriter{}
		report, err := store.ExportReport(context.Background(), w)
		if err != nil {
			t.Fatalf("ExportReport failed: %v", err)
		}
		if len(w.Reports) != 1 {
			t.Fatalf("expected 1 written report, got %d", len(w.Reports))
		}
		if report.GeneratedAt.IsZero() {
			t.Error("generated_at should be set")
		}
		if _, ok := report.DetailedStatus["authentication"]; !ok {
			t.Error("detailed_status should include authentication")
		}
		if report.OverallProgress.TotalComponents != 4 {
			t.Errorf("total = %d, want 4", report.OverallProgress.TotalComponents)
		}
	})

	t.Run("writer failure", func(t *testing.T) {
		w := &tu.MemoryReportWriter{Err: errors.New("disk full")}
		if _, err := store.ExportReport(context.Background(), w); err == nil {
			t.Error("expected writer error to be returned")
		}
	})

	t.Run("report timestamp", func(t *testing.T) {
		at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		if got := store.Report(at).GeneratedAt; !got.Equal(at) {
			t.Errorf("GeneratedAt = %v, want %v", got, at)
		}
	})
}
