// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/migtrack/internal/models"
)

// RecordingNotifier captures notifications handed to it.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []models.Notification
}

func (r *RecordingNotifier) Notify(n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

// Events returns a copy of everything notified so far.
func (r *RecordingNotifier) Events() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.events...)
}

// Types returns the event types notified so far, in order.
func (r *RecordingNotifier) Types() []models.EventType {
	var out []models.EventType
	for _, e := range r.Events() {
		out = append(out, e.EventType)
	}
	return out
}

// RecordingPublisher captures published snapshots.
type RecordingPublisher struct {
	mu        sync.Mutex
	snapshots []models.Snapshot
}

func (r *RecordingPublisher) Publish(s models.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *RecordingPublisher) Snapshots() []models.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Snapshot(nil), r.snapshots...)
}

// Len returns the number of snapshots published.
func (r *RecordingPublisher) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

// StubSender is a notification sender returning Err from every Send.
type StubSender struct {
	Label string
	Err   error
	Delay time.Duration

	mu   sync.Mutex
	sent []models.Notification
}

func (s *StubSender) Name() string { return s.Label }

func (s *StubSender) Send(ctx context.Context, n models.Notification) error {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return s.Err
}

// Sent returns every notification Send was called with.
func (s *StubSender) Sent() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.sent...)
}

// MemoryReportWriter keeps written reports in memory.
type MemoryReportWriter struct {
	Err     error
	Reports []models.Report
}

func (w *MemoryReportWriter) WriteReport(ctx context.Context, r models.Report) error {
	if w.Err != nil {
		return w.Err
	}
	w.Reports = append(w.Reports, r)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// SampleReport returns a report with one completed and one in-progress component out of three.
func SampleReport() models.Report {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	done := at.Add(-time.Hour)

	detailed := map[string]models.TrackingRecord{
		"authentication": {
			Component:      "authentication",
			Status:         models.StatusCompleted,
			Progress:       100,
			CurrentPhase:   models.PhaseCompleted,
			StartTime:      at.Add(-48 * time.Hour),
			LastUpdated:    done,
			CompletionTime: &done,
			CompletedTasks: []models.CompletedTask{{Task: "Migrate controller: AuthController", CompletedAt: done}},
			RemainingTasks: []string{},
			Issues:         []models.Issue{},
		},
		"dashboard": {
			Component:      "dashboard",
			Status:         models.StatusInProgress,
			Progress:       50,
			CurrentPhase:   "views",
			StartTime:      at.Add(-24 * time.Hour),
			LastUpdated:    at,
			CompletedTasks: []models.CompletedTask{{Task: "Migrate controller: DashboardController", CompletedAt: at}},
			RemainingTasks: []string{"Migrate view: dashboard.index"},
			Issues: []models.Issue{
				{Index: 0, Description: "Chart widget renders blank", Severity: models.SeverityHigh, Timestamp: at},
				{Index: 1, Description: "Old fixed issue", Severity: models.SeverityLow, Timestamp: at, Resolved: true},
			},
		},
	}

	return models.Report{
		GeneratedAt: at,
		OverallProgress: models.OverallProgress{
			TotalComponents:      3,
			CompletedComponents:  1,
			InProgressComponents: 1,
			PendingComponents:    1,
			Percent:              50,
			Components:           detailed,
		},
		DetailedStatus: detailed,
	}
}
