package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
)

// Tracker is the tracking store as seen by the API.
type Tracker interface {
	StartTracking(name string) (models.TrackingRecord, error)
	SetProgress(name string, percent int, phase string) (models.TrackingRecord, []int, error)
	CompleteTask(name, task string) (models.TrackingRecord, []int, error)
	AddIssue(name, description string, severity models.Severity) (int, error)
	ResolveIssue(name string, index int) (models.TrackingRecord, error)
	CompleteComponent(name string) (models.TrackingRecord, error)
	OverallProgress() models.OverallProgress
	Component(name string) (models.TrackingRecord, error)
	Components() []models.ComponentSummary
	Report(at time.Time) models.Report
}

// EventLog lists recorded notifications.
type EventLog interface {
	Recent(component string, limit int) ([]*models.StoredEvent, error)
}

// ReportStore saves and loads exported reports.
type ReportStore interface {
	CreateContext(ctx context.Context, report *models.StoredReport) error
	Get(id string) (*models.StoredReport, error)
	GetBySequence(sequence int) (*models.StoredReport, error)
	Latest() (*models.StoredReport, error)
	List(criteria map[string]any) ([]*models.StoredReport, error)
}

// ReportFile writes the export document to disk.
type ReportFile interface {
	WriteReport(ctx context.Context, report models.Report) error
	Path() string
}

// APIOptions holds the optional collaborators of an [APIHandler]. Missing ones answer 503.
type APIOptions struct {
	Events  EventLog
	Reports ReportStore
	File    ReportFile
	Logger  *log.Logger
}

// APIHandler serves the JSON API under /api/.
type APIHandler struct {
	tracker Tracker
	opts    APIOptions
	mux     *http.ServeMux
}

// NewAPIHandler builds the API around t.
func NewAPIHandler(t Tracker, opts APIOptions) *APIHandler {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	h := &APIHandler{tracker: t, opts: opts, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /api/status", h.status)
	h.mux.HandleFunc("GET /api/components", h.components)
	h.mux.HandleFunc("GET /api/component/{name}", h.component)
	h.mux.HandleFunc("POST /api/component/{name}/start", h.start)
	h.mux.HandleFunc("POST /api/component/{name}/progress", h.progress)
	h.mux.HandleFunc("POST /api/component/{name}/task", h.task)
	h.mux.HandleFunc("POST /api/component/{name}/issue", h.issue)
	h.mux.HandleFunc("POST /api/component/{name}/resolve", h.resolve)
	h.mux.HandleFunc("POST /api/component/{name}/complete", h.complete)
	h.mux.HandleFunc("GET /api/logs", h.logs)
	h.mux.HandleFunc("GET /api/reports", h.listReports)
	h.mux.HandleFunc("POST /api/reports", h.exportReport)
	h.mux.HandleFunc("GET /api/reports/{ref}", h.showReport)
	return h
}

func (h *APIHandler) Routes() []string { return []string{"/api/"} }

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.mux.ServeHTTP(w, r) }

func (h *APIHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.OverallProgress())
}

func (h *APIHandler) components(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Components())
}

func (h *APIHandler) component(w http.ResponseWriter, r *http.Request) {
	rec, err := h.tracker.Component(r.PathValue("name"))
	h.respond(w, rec, err)
}

func (h *APIHandler) start(w http.ResponseWriter, r *http.Request) {
	rec, err := h.tracker.StartTracking(r.PathValue("name"))
	if err == nil {
		writeJSON(w, http.StatusCreated, rec)
		return
	}
	h.writeError(w, err)
}

func (h *APIHandler) progress(w http.ResponseWriter, r *http.Request) {
	var req models.ProgressRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	rec, crossed, err := h.tracker.SetProgress(r.PathValue("name"), req.Progress, req.Phase)
	h.respond(w, progressResult(rec, crossed), err)
}

func (h *APIHandler) task(w http.ResponseWriter, r *http.Request) {
	var req models.TaskRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		h.writeError(w, fmt.Errorf("%w: task is required", shared.ErrInvalidArgument))
		return
	}

	rec, crossed, err := h.tracker.CompleteTask(r.PathValue("name"), req.Task)
	h.respond(w, progressResult(rec, crossed), err)
}

func (h *APIHandler) issue(w http.ResponseWriter, r *http.Request) {
	var req models.IssueRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	name := r.PathValue("name")
	index, err := h.tracker.AddIssue(name, req.Description, req.Severity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.IssueResult{Component: name, Index: index})
}

func (h *APIHandler) resolve(w http.ResponseWriter, r *http.Request) {
	var req models.ResolveRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	rec, err := h.tracker.ResolveIssue(r.PathValue("name"), req.Index)
	h.respond(w, rec, err)
}

func (h *APIHandler) complete(w http.ResponseWriter, r *http.Request) {
	rec, err := h.tracker.CompleteComponent(r.PathValue("name"))
	h.respond(w, rec, err)
}

func (h *APIHandler) logs(w http.ResponseWriter, r *http.Request) {
	if h.opts.Events == nil {
		h.writeError(w, fmt.Errorf("%w: event log is not configured", shared.ErrServiceUnavailable))
		return
	}

	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		h.writeError(w, err)
		return
	}

	events, err := h.opts.Events.Recent(r.URL.Query().Get("component"), limit)
	h.respond(w, events, err)
}

func (h *APIHandler) listReports(w http.ResponseWriter, r *http.Request) {
	if h.opts.Reports == nil {
		h.writeError(w, fmt.Errorf("%w: report storage is not configured", shared.ErrServiceUnavailable))
		return
	}

	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		h.writeError(w, err)
		return
	}

	reports, err := h.opts.Reports.List(map[string]any{"label": r.URL.Query().Get("label"), "limit": limit})
	if err != nil {
		h.writeError(w, err)
		return
	}

	entries := make([]models.ReportEntry, 0, len(reports))
	for _, rep := range reports {
		entries = append(entries, rep.Entry())
	}
	writeJSON(w, http.StatusOK, entries)
}

// exportReport saves the current state as a report, optionally also writing the report file.
func (h *APIHandler) exportReport(w http.ResponseWriter, r *http.Request) {
	if h.opts.Reports == nil {
		h.writeError(w, fmt.Errorf("%w: report storage is not configured", shared.ErrServiceUnavailable))
		return
	}

	var req models.ReportRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if req.WriteFile && h.opts.File == nil {
		h.writeError(w, fmt.Errorf("%w: report file output is not configured", shared.ErrServiceUnavailable))
		return
	}

	report := h.tracker.Report(time.Now())
	stored := models.NewStoredReport(0, strings.TrimSpace(req.Label), report)
	if err := h.opts.Reports.CreateContext(r.Context(), stored); err != nil {
		h.writeError(w, err)
		return
	}

	result := models.ReportResult{Entry: stored.Entry()}
	if req.WriteFile {
		if err := h.opts.File.WriteReport(r.Context(), report); err != nil {
			h.writeError(w, err)
			return
		}
		result.FilePath = h.opts.File.Path()
	}

	h.opts.Logger.Info("report exported", "sequence", stored.Sequence(), "label", stored.Label(), "file", result.FilePath)
	writeJSON(w, http.StatusCreated, result)
}

// showReport resolves ref as "latest", a sequence number (optionally prefixed with #) or an ID.
func (h *APIHandler) showReport(w http.ResponseWriter, r *http.Request) {
	if h.opts.Reports == nil {
		h.writeError(w, fmt.Errorf("%w: report storage is not configured", shared.ErrServiceUnavailable))
		return
	}

	ref := r.PathValue("ref")
	var (
		report *models.StoredReport
		err    error
	)
	if ref == "latest" {
		report, err = h.opts.Reports.Latest()
	} else if seq, convErr := strconv.Atoi(strings.TrimPrefix(ref, "#")); convErr == nil {
		report, err = h.opts.Reports.GetBySequence(seq)
	} else {
		report, err = h.opts.Reports.Get(ref)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Entry())
}

func (h *APIHandler) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.opts.Logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, models.ErrorResponse{Error: err.Error(), Kind: shared.ErrorKind(err)})
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrUnknownComponent), errors.Is(err, shared.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrNotTracking),
		errors.Is(err, shared.ErrAlreadyTracking),
		errors.Is(err, shared.ErrAlreadyCompleted):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrIndexOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func progressResult(rec models.TrackingRecord, crossed []int) models.ProgressResult {
	if crossed == nil {
		crossed = []int{}
	}
	return models.ProgressResult{Record: rec, Milestones: crossed}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidInput, err)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", shared.ErrInvalidInput, key)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
