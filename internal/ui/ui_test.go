package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/services"
)

type fakeSource struct {
	components []models.ComponentSummary
	snapshots  []models.Snapshot
	fetchErr   error
	watchErr   error
}

func (f *fakeSource) Components(ctx context.Context) ([]models.ComponentSummary, error) {
	return f.components, f.fetchErr
}

func (f *fakeSource) Watch(ctx context.Context, fn services.SnapshotFunc) error {
	for _, s := range f.snapshots {
		fn(s)
	}
	return f.watchErr
}

func testSnapshot(version uint64) models.Snapshot {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return models.Snapshot{
		Version: version,
		TakenAt: now,
		OverallProgress: models.OverallProgress{
			TotalComponents:      2,
			InProgressComponents: 1,
			PendingComponents:    1,
			Percent:              25,
			Components: map[string]models.TrackingRecord{
				"authentication": {
					Component:      "authentication",
					Status:         models.StatusInProgress,
					Progress:       50,
					CurrentPhase:   models.PhaseInitialization,
					StartTime:      now,
					LastUpdated:    now,
					CompletedTasks: []models.CompletedTask{{Task: "Migrate controller: AuthController", CompletedAt: now}},
					RemainingTasks: []string{"Migrate model: User"},
					Issues:         []models.Issue{{Index: 0, Description: "session drift", Severity: models.SeverityHigh, Timestamp: now}},
				},
			},
		},
	}
}

func testComponents() []models.ComponentSummary {
	return []models.ComponentSummary{
		{Name: "authentication", Status: models.StatusInProgress, Priority: "high"},
		{Name: "dashboard", Status: models.StatusNotTracked, Priority: "low"},
	}
}

func newTestModel(t *testing.T, src *fakeSource) *Model {
	t.Helper()
	m := NewModel(context.Background(), src, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel(t *testing.T) {
	t.Run("Waiting Before First Snapshot", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{})
		if !strings.Contains(m.View(), "Waiting for first snapshot") {
			t.Errorf("expected waiting message, got:\n%s", m.View())
		}
	})

	t.Run("Fetch Components", func(t *testing.T) {
		src := &fakeSource{components: testComponents()}
		m := newTestModel(t, src)

		msg, ok := m.fetchComponents()().(componentsFetchedMsg)
		if !ok {
			t.Fatal("expected componentsFetchedMsg")
		}
		m.Update(msg)

		if len(m.list.Items()) != 2 {
			t.Errorf("expected 2 list items, got %d", len(m.list.Items()))
		}
	})

	t.Run("Fetch Error Is Shown", func(t *testing.T) {
		src := &fakeSource{fetchErr: errors.New("boom")}
		m := newTestModel(t, src)
		m.Update(m.fetchComponents()())

		if !strings.Contains(m.View(), "boom") {
			t.Errorf("expected error in view, got:\n%s", m.View())
		}
	})

	t.Run("Watch Delivers Snapshots", func(t *testing.T) {
		src := &fakeSource{snapshots: []models.Snapshot{testSnapshot(3)}}
		m := newTestModel(t, src)

		msg := m.watch()()
		snap, ok := msg.(snapshotMsg)
		if !ok {
			t.Fatalf("expected snapshotMsg, got %T", msg)
		}
		m.Update(snap)

		if m.snapshot == nil || m.snapshot.Version != 3 {
			t.Fatalf("expected snapshot version 3 to be applied, got %+v", m.snapshot)
		}

		view := m.View()
		for _, want := range []string{"Migration Progress", "25.00%", "authentication", "v3"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected view to contain %q, got:\n%s", want, view)
			}
		}

		if _, ok := m.waitForSnapshot()().(watchEndedMsg); !ok {
			t.Error("expected watchEndedMsg once the stream is drained")
		}
	})

	t.Run("Stale Snapshot Ignored", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{})
		m.watching = true
		m.Update(snapshotMsg(testSnapshot(5)))
		m.Update(snapshotMsg(testSnapshot(4)))

		if m.snapshot.Version != 5 {
			t.Errorf("expected version 5 to be kept, got %d", m.snapshot.Version)
		}
	})

	t.Run("Merges Catalog And Records", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{})
		m.Update(componentsFetchedMsg{components: testComponents()})
		m.Update(snapshotMsg(testSnapshot(1)))

		items := m.list.Items()
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}

		auth := items[0].(componentItem)
		if auth.record == nil || auth.record.Progress != 50 {
			t.Errorf("expected authentication to carry its record, got %+v", auth)
		}
		if !strings.Contains(auth.Description(), "1 open issues") {
			t.Errorf("expected open issue count in description, got %q", auth.Description())
		}

		dash := items[1].(componentItem)
		if dash.record != nil || !strings.HasPrefix(dash.Description(), "not_tracked") {
			t.Errorf("expected dashboard to be untracked, got %q", dash.Description())
		}
	})

	t.Run("Detail View Navigation", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{})
		m.Update(componentsFetchedMsg{components: testComponents()})
		m.Update(snapshotMsg(testSnapshot(1)))

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != DetailView || m.selected != "authentication" {
			t.Fatalf("expected detail view of authentication, got view=%d selected=%q", m.view, m.selected)
		}

		view := m.View()
		for _, want := range []string{"Remaining tasks", "Migrate model: User", "Completed tasks", "session drift", "Priority: high"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected detail to contain %q, got:\n%s", want, view)
			}
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != DashboardView {
			t.Errorf("expected esc to return to dashboard, got %d", m.view)
		}
	})

	t.Run("Detail Of Untracked Component", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{})
		m.Update(componentsFetchedMsg{components: testComponents()})
		m.selected = "dashboard"
		m.view = DetailView
		m.Update(snapshotMsg(testSnapshot(1)))

		if !strings.Contains(m.View(), "Not tracked yet") {
			t.Errorf("expected untracked notice, got:\n%s", m.View())
		}
	})

	t.Run("Stream End And Reconnect", func(t *testing.T) {
		src := &fakeSource{watchErr: errors.New("connection reset")}
		m := newTestModel(t, src)

		msg := m.watch()()
		m.Update(msg)

		if m.watching {
			t.Error("expected watching to be false after stream end")
		}
		if !strings.Contains(m.View(), "connection reset") || !strings.Contains(m.View(), "disconnected") {
			t.Errorf("expected disconnect details in view, got:\n%s", m.View())
		}

		_, cmd := m.Update(keyRunes("r"))
		if cmd == nil || !m.watching {
			t.Fatal("expected r to reconnect")
		}
		if m.err != nil {
			t.Errorf("expected error to be cleared on reconnect, got %v", m.err)
		}
	})

	t.Run("Clean Stream Close", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{})
		m.Update(watchEndedMsg{})

		if !errors.Is(m.err, errStreamClosed) {
			t.Errorf("expected errStreamClosed, got %v", m.err)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{})
		_, cmd := m.Update(keyRunes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
