package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/migtrack/internal/catalog"
	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/repositories"
	"github.com/desertthunder/migtrack/internal/shared"
	"github.com/desertthunder/migtrack/internal/tracker"
	tu "github.com/desertthunder/migtrack/internal/testing"
)

type apiFixture struct {
	store   *tracker.Store
	events  *repositories.EventRepository
	reports *repositories.ReportRepository
	file    string
	router  *BasicRouter
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	cat, err := catalog.New(
		catalog.Descriptor{Name: "authentication", Tasks: []string{"ctrl", "model"}, Priority: "high"},
		catalog.Descriptor{Name: "dashboard", Tasks: []string{"a", "b", "c", "d"}},
		catalog.Descriptor{Name: "billing"},
		catalog.Descriptor{Name: "settings"},
	)
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	events := repositories.NewEventRepository(db)
	reports := repositories.NewReportRepository(db)
	file := filepath.Join(t.TempDir(), "component_status.json")

	store := tracker.New(cat, tracker.WithNotifier(senderNotifier{events}))

	router := NewBasicRouter()
	router.Handler(NewAPIHandler(store, APIOptions{
		Events:  events,
		Reports: reports,
		File:    repositories.NewFileReportWriter(file),
	}))

	return &apiFixture{store: store, events: events, reports: reports, file: file, router: router}
}

// senderNotifier records notifications synchronously through a sender.
type senderNotifier struct {
	sender interface {
		Send(ctx context.Context, n models.Notification) error
	}
}

func (s senderNotifier) Notify(n models.Notification) { _ = s.sender.Send(context.Background(), n) }

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestAPIHandler_Lifecycle(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/component/authentication/start", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body)
	}
	started := decodeBody[models.TrackingRecord](t, rec)
	if !slices.Equal(started.RemainingTasks, []string{"ctrl", "model"}) {
		t.Errorf("remaining tasks = %v", started.RemainingTasks)
	}

	rec = f.do(t, http.MethodPost, "/api/component/authentication/task", `{"task":"ctrl"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("task status = %d: %s", rec.Code, rec.Body)
	}
	result := decodeBody[models.ProgressResult](t, rec)
	if result.Record.Progress != 50 || !slices.Equal(result.Milestones, []int{25, 50}) {
		t.Errorf("unexpected task result: progress=%d milestones=%v", result.Record.Progress, result.Milestones)
	}

	rec = f.do(t, http.MethodPost, "/api/component/authentication/issue", `{"description":"session timeout","severity":"low"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("issue status = %d: %s", rec.Code, rec.Body)
	}
	if issue := decodeBody[models.IssueResult](t, rec); issue.Index != 0 {
		t.Errorf("issue index = %d, want 0", issue.Index)
	}

	rec = f.do(t, http.MethodPost, "/api/component/authentication/resolve", `{"index":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve status = %d: %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodPost, "/api/component/authentication/progress", `{"progress":80,"phase":"testing"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d: %s", rec.Code, rec.Body)
	}
	if result := decodeBody[models.ProgressResult](t, rec); result.Record.CurrentPhase != "testing" || !slices.Equal(result.Milestones, []int{75}) {
		t.Errorf("unexpected progress result: %+v", result)
	}

	rec = f.do(t, http.MethodPost, "/api/component/authentication/complete", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d: %s", rec.Code, rec.Body)
	}
	if done := decodeBody[models.TrackingRecord](t, rec); done.Status != models.StatusCompleted {
		t.Errorf("status = %q", done.Status)
	}

	rec = f.do(t, http.MethodGet, "/api/component/authentication", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("component status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/logs?component=authentication", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("logs status = %d: %s", rec.Code, rec.Body)
	}
	logs := decodeBody[[]models.EventEntry](t, rec)
	var types []models.EventType
	for _, e := range logs {
		types = append(types, e.EventType)
	}
	// started, 25, 50, issue, 75, 100, completed; newest first
	if len(types) != 7 || types[0] != models.EventCompleted || types[len(types)-1] != models.EventStarted {
		t.Errorf("unexpected event log: %v", types)
	}
}

func TestAPIHandler_Status(t *testing.T) {
	f := newAPIFixture(t)
	if _, err := f.store.StartTracking("authentication"); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}
	if _, err := f.store.CompleteComponent("authentication"); err != nil {
		t.Fatalf("CompleteComponent failed: %v", err)
	}
	if _, err := f.store.StartTracking("dashboard"); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}
	if _, _, err := f.store.SetProgress("dashboard", 50, ""); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}

	rec := f.do(t, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	op := decodeBody[models.OverallProgress](t, rec)
	if op.Percent != 37.5 || op.TotalComponents != 4 || op.PendingComponents != 2 {
		t.Errorf("unexpected overall progress: %+v", op)
	}

	rec = f.do(t, http.MethodGet, "/api/components", "")
	summaries := decodeBody[[]models.ComponentSummary](t, rec)
	if len(summaries) != 4 || summaries[0].Name != "authentication" || summaries[0].Priority != "high" {
		t.Errorf("unexpected summaries: %+v", summaries)
	}
}

func TestAPIHandler_Errors(t *testing.T) {
	f := newAPIFixture(t)
	if _, err := f.store.StartTracking("dashboard"); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		kind   string
	}{
		{"unknown component", http.MethodPost, "/api/component/nope/start", "", http.StatusNotFound, "unknown_component"},
		{"not tracking", http.MethodGet, "/api/component/billing", "", http.StatusConflict, "not_tracking"},
		{"already tracking", http.MethodPost, "/api/component/dashboard/start", "", http.StatusConflict, "already_tracking"},
		{"progress out of range", http.MethodPost, "/api/component/dashboard/progress", `{"progress":150}`, http.StatusBadRequest, "invalid_argument"},
		{"malformed body", http.MethodPost, "/api/component/dashboard/progress", `{"progress":`, http.StatusBadRequest, "invalid_input"},
		{"missing task", http.MethodPost, "/api/component/dashboard/task", `{}`, http.StatusBadRequest, "invalid_argument"},
		{"resolve out of range", http.MethodPost, "/api/component/dashboard/resolve", `{"index":3}`, http.StatusUnprocessableEntity, "index_out_of_range"},
		{"resolve negative", http.MethodPost, "/api/component/dashboard/resolve", `{"index":-1}`, http.StatusBadRequest, "invalid_argument"},
		{"bad limit", http.MethodGet, "/api/logs?limit=zero", "", http.StatusBadRequest, "invalid_input"},
		{"missing report", http.MethodGet, "/api/reports/42", "", http.StatusNotFound, "report_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			if body := decodeBody[models.ErrorResponse](t, rec); body.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", body.Kind, tt.kind)
			}
		})
	}

	t.Run("complete twice", func(t *testing.T) {
		if rec := f.do(t, http.MethodPost, "/api/component/dashboard/complete", ""); rec.Code != http.StatusOK {
			t.Fatalf("first complete status = %d", rec.Code)
		}
		rec := f.do(t, http.MethodPost, "/api/component/dashboard/complete", "")
		if rec.Code != http.StatusConflict {
			t.Errorf("second complete status = %d, want 409", rec.Code)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		if rec := f.do(t, http.MethodGet, "/api/component/dashboard/start", ""); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}

func TestAPIHandler_Reports(t *testing.T) {
	f := newAPIFixture(t)
	if _, err := f.store.StartTracking("authentication"); err != nil {
		t.Fatalf("StartTracking failed: %v", err)
	}

	rec := f.do(t, http.MethodPost, "/api/reports", `{"label":"weekly","write_file":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("export status = %d: %s", rec.Code, rec.Body)
	}
	result := decodeBody[models.ReportResult](t, rec)
	if result.Entry.Sequence != 1 || result.Entry.Label != "weekly" || result.FilePath != f.file {
		t.Errorf("unexpected export result: %+v", result)
	}
	tu.AssertFileExists(t, f.file)

	if rec := f.do(t, http.MethodPost, "/api/reports", ""); rec.Code != http.StatusCreated {
		t.Fatalf("second export status = %d: %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodGet, "/api/reports", "")
	entries := decodeBody[[]models.ReportEntry](t, rec)
	if len(entries) != 2 || entries[0].Sequence != 2 {
		t.Errorf("unexpected report list: %+v", entries)
	}

	for _, ref := range []string{"1", "%231", result.Entry.ID} {
		t.Run("show "+ref, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/reports/"+ref, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("show status = %d: %s", rec.Code, rec.Body)
			}
			entry := decodeBody[models.ReportEntry](t, rec)
			if entry.Label != "weekly" {
				t.Errorf("label = %q", entry.Label)
			}
			if _, ok := entry.Report.DetailedStatus["authentication"]; !ok {
				t.Error("report missing authentication")
			}
		})
	}

	rec = f.do(t, http.MethodGet, "/api/reports/latest", "")
	if entry := decodeBody[models.ReportEntry](t, rec); entry.Sequence != 2 {
		t.Errorf("latest sequence = %d, want 2", entry.Sequence)
	}
}

func TestAPIHandler_Unconfigured(t *testing.T) {
	cat, _ := catalog.New(catalog.Descriptor{Name: "a"})
	router := NewBasicRouter()
	router.Handler(NewAPIHandler(tracker.New(cat), APIOptions{}))

	for _, path := range []string{"/api/logs", "/api/reports", "/api/reports/latest"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, rec.Code)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{shared.ErrUnknownComponent, http.StatusNotFound},
		{shared.ErrNotTracking, http.StatusConflict},
		{shared.ErrAlreadyTracking, http.StatusConflict},
		{shared.ErrAlreadyCompleted, http.StatusConflict},
		{shared.ErrInvalidArgument, http.StatusBadRequest},
		{shared.ErrIndexOutOfRange, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := StatusFor(fmt.Errorf("wrapped: %w", tt.err)); got != tt.want {
				t.Errorf("StatusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}
