package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DashboardView ViewState = iota
	DetailView
)

// Source supplies the catalog listing and the live snapshot stream.
type Source interface {
	Components(ctx context.Context) ([]models.ComponentSummary, error)
	Watch(ctx context.Context, fn services.SnapshotFunc) error
}

var errStreamClosed = errors.New("server closed the snapshot stream")

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	source     Source
	logger     *log.Logger
	view       ViewState
	width      int
	height     int
	list       list.Model
	bar        progress.Model
	components []models.ComponentSummary
	snapshot   *models.Snapshot
	selected   string
	updates    chan models.Snapshot
	ended      chan error
	watching   bool
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model reading from source. A nil logger discards output.
func NewModel(ctx context.Context, source Source, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Components"
	l.SetShowHelp(false)

	return &Model{
		ctx:    ctx,
		source: source,
		logger: logger,
		view:   DashboardView,
		list:   l,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init fetches the catalog listing and subscribes to snapshots.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchComponents(), m.watch())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(max(msg.Width-4, 0), max(msg.Height-10, 0))
		m.bar.Width = min(max(msg.Width-20, 10), 60)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case componentsFetchedMsg:
		if msg.err != nil {
			m.logger.Warn("failed to fetch components", "error", msg.err)
			m.err = msg.err
			return m, nil
		}
		m.components = msg.components
		return m, m.list.SetItems(componentItems(m.components, m.snapshot))

	case snapshotMsg:
		snap := models.Snapshot(msg)
		if m.snapshot != nil && snap.Version < m.snapshot.Version {
			return m, m.waitForSnapshot()
		}
		m.snapshot = &snap
		m.logger.Debug("snapshot received", "version", snap.Version)
		return m, tea.Batch(m.list.SetItems(componentItems(m.components, m.snapshot)), m.waitForSnapshot())

	case watchEndedMsg:
		m.watching = false
		m.err = msg.err
		if m.err == nil {
			m.err = errStreamClosed
		}
		m.logger.Info("snapshot stream ended", "error", m.err)
		return m, nil
	}

	var cmd tea.Cmd
	if m.view == DashboardView {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reconnect) && !m.watching:
		return m, m.watch()
	}

	switch m.view {
	case DashboardView:
		if key.Matches(msg, m.keys.enter) {
			if item, ok := m.list.SelectedItem().(componentItem); ok {
				m.selected = item.summary.Name
				m.view = DetailView
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	case DetailView:
		if key.Matches(msg, m.keys.back) {
			m.view = DashboardView
		}
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch {
	case m.snapshot == nil && m.err == nil:
		b.WriteString("Waiting for first snapshot...\n")
	case m.view == DetailView:
		b.WriteString(m.renderDetail())
	default:
		b.WriteString(m.list.View())
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	}

	b.WriteString("\n" + m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) helpKeys() []key.Binding {
	keys := []key.Binding{m.keys.up, m.keys.down, m.keys.enter}
	if m.view == DetailView {
		keys = []key.Binding{m.keys.back}
	}
	if !m.watching {
		keys = append(keys, m.keys.reconnect)
	}
	return append(keys, m.keys.quit)
}

func (m *Model) renderHeader() string {
	state := styles.ok.Render("● live")
	if !m.watching {
		state = styles.warn.Render("○ disconnected")
	}
	header := styles.title.Render("Migration Progress") + "  " + state + "\n"

	if m.snapshot == nil {
		return header
	}

	s := m.snapshot
	header += fmt.Sprintf("%s %6.2f%%\n", m.bar.ViewAs(s.Percent/100), s.Percent)
	header += styles.help.Render(fmt.Sprintf(
		"%d completed • %d in progress • %d pending • %d total • v%d",
		s.CompletedComponents, s.InProgressComponents, s.PendingComponents, s.TotalComponents, s.Version,
	))
	return header + "\n"
}

func (m *Model) renderDetail() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(m.selected) + "\n")

	if summary, ok := m.summary(m.selected); ok && (summary.Priority != "" || summary.EstimatedEffort != "") {
		fmt.Fprintf(&b, "Priority: %s  Effort: %s\n", orDash(summary.Priority), orDash(summary.EstimatedEffort))
	}

	rec, ok := m.record(m.selected)
	if !ok {
		b.WriteString(styles.help.Render("Not tracked yet") + "\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Status: %s  Phase: %s\n", styles.status(rec.Status).Render(string(rec.Status)), rec.CurrentPhase)
	fmt.Fprintf(&b, "%s %3d%%\n", m.bar.ViewAs(float64(rec.Progress)/100), rec.Progress)
	fmt.Fprintf(&b, "Started %s • updated %s\n", rec.StartTime.Local().Format(time.DateTime), rec.LastUpdated.Local().Format(time.DateTime))
	if rec.CompletionTime != nil {
		fmt.Fprintf(&b, "Completed %s\n", rec.CompletionTime.Local().Format(time.DateTime))
	}

	if len(rec.RemainingTasks) > 0 {
		b.WriteString("\nRemaining tasks:\n")
		for _, task := range rec.RemainingTasks {
			fmt.Fprintf(&b, "  ○ %s\n", task)
		}
	}
	if len(rec.CompletedTasks) > 0 {
		b.WriteString("\nCompleted tasks:\n")
		for _, task := range rec.CompletedTasks {
			fmt.Fprintf(&b, "  %s %s\n", styles.ok.Render("✓"), task.Task)
		}
	}
	if len(rec.Issues) > 0 {
		b.WriteString("\nIssues:\n")
		for _, issue := range rec.Issues {
			mark := "•"
			if issue.Resolved {
				mark = "✓"
			}
			sev := styles.severity(issue.Severity).Render(string(issue.Severity))
			fmt.Fprintf(&b, "  %s [%d] %s %s\n", mark, issue.Index, sev, issue.Description)
		}
	}
	return b.String()
}

func (m *Model) record(name string) (models.TrackingRecord, bool) {
	if m.snapshot == nil {
		return models.TrackingRecord{}, false
	}
	rec, ok := m.snapshot.Components[name]
	return rec, ok
}

func (m *Model) summary(name string) (models.ComponentSummary, bool) {
	for _, s := range m.components {
		if s.Name == name {
			return s, true
		}
	}
	return models.ComponentSummary{}, false
}

func (m *Model) fetchComponents() tea.Cmd {
	return func() tea.Msg {
		components, err := m.source.Components(m.ctx)
		return componentsFetchedMsg{components: components, err: err}
	}
}

// watch starts a snapshot stream and returns the command waiting on it.
func (m *Model) watch() tea.Cmd {
	updates := make(chan models.Snapshot, 8)
	ended := make(chan error, 1)
	m.updates, m.ended = updates, ended
	m.watching = true
	m.err = nil

	ctx := m.ctx
	go func() {
		ended <- m.source.Watch(ctx, func(s models.Snapshot) {
			select {
			case updates <- s:
			case <-ctx.Done():
			}
		})
	}()

	return m.waitForSnapshot()
}

func (m *Model) waitForSnapshot() tea.Cmd {
	updates, ended := m.updates, m.ended
	return func() tea.Msg {
		select {
		case s := <-updates:
			return snapshotMsg(s)
		default:
		}

		select {
		case s := <-updates:
			return snapshotMsg(s)
		case err := <-ended:
			return watchEndedMsg{err: err}
		}
	}
}

func trackedNames(snap *models.Snapshot) []string {
	return slices.Sorted(maps.Keys(snap.Components))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
