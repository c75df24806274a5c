// package tracker implements the in-memory component progress store.
//
// Each catalog component owns one entry guarded by its own mutex, so mutations
// on different components never contend. Every successful mutation bumps a
// store-wide version, then hands its events to the [Notifier] and a fresh
// [models.Snapshot] to the [Publisher] after the component lock is released.
package tracker

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/migtrack/internal/catalog"
	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/notify"
	"github.com/desertthunder/migtrack/internal/shared"
)

// Notifier accepts tracking events. Notify must not block.
type Notifier interface {
	Notify(n models.Notification)
}

// Publisher accepts the latest snapshot after each mutation. Publish must not block.
type Publisher interface {
	Publish(s models.Snapshot)
}

type entry struct {
	mu         sync.Mutex
	descriptor catalog.Descriptor
	record     *models.TrackingRecord
}

// Store holds one tracking record per catalog component.
type Store struct {
	catalog   *catalog.Catalog
	entries   map[string]*entry
	version   atomic.Uint64
	notifier  Notifier
	publisher Publisher
	logger    *log.Logger
	now       func() time.Time
}

// Option configures a [Store].
type Option func(*Store)

func WithNotifier(n Notifier) Option { return func(s *Store) { s.notifier = n } }

func WithPublisher(p Publisher) Option { return func(s *Store) { s.publisher = p } }

func WithLogger(l *log.Logger) Option { return func(s *Store) { s.logger = l } }

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New allocates an entry for every component in cat.
func New(cat *catalog.Catalog, opts ...Option) *Store {
	s := &Store{
		catalog: cat,
		entries: make(map[string]*entry, cat.Len()),
		logger:  log.New(io.Discard),
		now:     time.Now,
	}
	for _, d := range cat.Descriptors() {
		s.entries[d.Name] = &entry{descriptor: d}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog the store was built from.
func (s *Store) Catalog() *catalog.Catalog { return s.catalog }

// Version returns the number of successful mutations so far.
func (s *Store) Version() uint64 { return s.version.Load() }

func (s *Store) clock() time.Time { return s.now().UTC() }

func (s *Store) lookup(name string) (*entry, error) {
	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownComponent, name)
	}
	return e, nil
}

// mutation changes a tracked record in place. It reports whether anything
// changed and which events to dispatch.
type mutation func(r *models.TrackingRecord, now time.Time) (bool, []models.Notification, error)

// apply runs fn under the component lock and dispatches afterwards.
func (s *Store) apply(name string, fn mutation) (models.TrackingRecord, error) {
	e, err := s.lookup(name)
	if err != nil {
		return models.TrackingRecord{}, err
	}

	e.mu.Lock()
	if e.record == nil {
		e.mu.Unlock()
		return models.TrackingRecord{}, fmt.Errorf("%w: %s", shared.ErrNotTracking, name)
	}

	changed, events, err := fn(e.record, s.clock())
	if err != nil {
		e.mu.Unlock()
		return models.TrackingRecord{}, err
	}
	if changed {
		s.version.Add(1)
	}
	out := e.record.Clone()
	e.mu.Unlock()

	if changed {
		s.dispatch(events)
	}
	return out, nil
}

func (s *Store) dispatch(events []models.Notification) {
	if s.notifier != nil {
		for _, n := range events {
			s.notifier.Notify(n)
		}
	}
	if s.publisher != nil {
		s.publisher.Publish(s.Snapshot())
	}
}

// StartTracking creates the tracking record for name with tasks derived from its descriptor.
func (s *Store) StartTracking(name string) (models.TrackingRecord, error) {
	e, err := s.lookup(name)
	if err != nil {
		return models.TrackingRecord{}, err
	}

	e.mu.Lock()
	if e.record != nil {
		e.mu.Unlock()
		return models.TrackingRecord{}, fmt.Errorf("%w: %s", shared.ErrAlreadyTracking, name)
	}

	now := s.clock()
	tasks := e.descriptor.DeriveTasks()
	e.record = &models.TrackingRecord{
		Component:      name,
		Status:         models.StatusInProgress,
		Progress:       0,
		CurrentPhase:   models.PhaseInitialization,
		StartTime:      now,
		LastUpdated:    now,
		CompletedTasks: []models.CompletedTask{},
		RemainingTasks: tasks,
		Issues:         []models.Issue{},
	}
	s.version.Add(1)
	out := e.record.Clone()
	e.mu.Unlock()

	s.logger.Info("started tracking", "component", name, "tasks", len(tasks))
	s.dispatch([]models.Notification{notify.Started(name, len(tasks), now)})
	return out, nil
}

// SetProgress overrides the progress of name and reports crossed milestones.
//
// An empty phase keeps the current phase.
func (s *Store) SetProgress(name string, percent int, phase string) (models.TrackingRecord, []int, error) {
	if _, err := s.lookup(name); err != nil {
		return models.TrackingRecord{}, nil, err
	}
	if percent < 0 || percent > 100 {
		return models.TrackingRecord{}, nil, fmt.Errorf("%w: progress %d outside [0, 100]", shared.ErrInvalidArgument, percent)
	}

	var crossed []int
	rec, err := s.apply(name, func(r *models.TrackingRecord, now time.Time) (bool, []models.Notification, error) {
		if r.Status == models.StatusCompleted {
			return false, nil, fmt.Errorf("%w: %s", shared.ErrAlreadyCompleted, name)
		}

		previous := r.Progress
		r.Progress = percent
		if phase = strings.TrimSpace(phase); phase != "" {
			r.CurrentPhase = phase
		}
		r.LastUpdated = now

		crossed = CrossedMilestones(previous, percent)
		return true, milestoneEvents(name, crossed, percent, now), nil
	})
	if err != nil {
		return models.TrackingRecord{}, nil, err
	}

	s.logger.Debug("progress updated", "component", name, "progress", percent, "phase", rec.CurrentPhase, "milestones", crossed)
	return rec, crossed, nil
}

// CompleteTask moves task from remaining to completed and recomputes progress.
//
// Completing a task that is not remaining returns the record unchanged.
func (s *Store) CompleteTask(name, task string) (models.TrackingRecord, []int, error) {
	var crossed []int
	var moved bool
	rec, err := s.apply(name, func(r *models.TrackingRecord, now time.Time) (bool, []models.Notification, error) {
		if r.Status == models.StatusCompleted {
			return false, nil, fmt.Errorf("%w: %s", shared.ErrAlreadyCompleted, name)
		}

		i := slices.Index(r.RemainingTasks, task)
		if i < 0 {
			return false, nil, nil
		}
		moved = true

		r.RemainingTasks = slices.Delete(r.RemainingTasks, i, i+1)
		r.CompletedTasks = append(r.CompletedTasks, models.CompletedTask{Task: task, CompletedAt: now})

		previous := r.Progress
		r.Progress = DeriveProgress(len(r.CompletedTasks), len(r.RemainingTasks))
		r.LastUpdated = now

		crossed = CrossedMilestones(previous, r.Progress)
		return true, milestoneEvents(name, crossed, r.Progress, now), nil
	})
	if err != nil {
		return models.TrackingRecord{}, nil, err
	}

	if moved {
		s.logger.Debug("task completed", "component", name, "task", task, "progress", rec.Progress)
	}
	return rec, crossed, nil
}

// AddIssue appends an issue and returns its stable index.
//
// An empty severity defaults to medium.
func (s *Store) AddIssue(name, description string, severity models.Severity) (int, error) {
	if _, err := s.lookup(name); err != nil {
		return 0, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return 0, fmt.Errorf("%w: issue description is empty", shared.ErrInvalidArgument)
	}
	if severity == "" {
		severity = models.SeverityMedium
	}
	if !severity.Valid() {
		return 0, fmt.Errorf("%w: unknown severity %q", shared.ErrInvalidArgument, severity)
	}

	index := -1
	_, err := s.apply(name, func(r *models.TrackingRecord, now time.Time) (bool, []models.Notification, error) {
		index = len(r.Issues)
		r.Issues = append(r.Issues, models.Issue{
			Index:       index,
			Description: description,
			Severity:    severity,
			Timestamp:   now,
		})
		r.LastUpdated = now
		return true, []models.Notification{notify.IssueRaised(name, description, severity, index, now)}, nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Warn("issue raised", "component", name, "index", index, "severity", severity, "description", description)
	return index, nil
}

// ResolveIssue marks the issue at index resolved. Resolving twice is an error.
func (s *Store) ResolveIssue(name string, index int) (models.TrackingRecord, error) {
	if _, err := s.lookup(name); err != nil {
		return models.TrackingRecord{}, err
	}
	if index < 0 {
		return models.TrackingRecord{}, fmt.Errorf("%w: negative issue index %d", shared.ErrInvalidArgument, index)
	}

	rec, err := s.apply(name, func(r *models.TrackingRecord, now time.Time) (bool, []models.Notification, error) {
		if index >= len(r.Issues) {
			return false, nil, fmt.Errorf("%w: %s has %d issues, got %d", shared.ErrIndexOutOfRange, name, len(r.Issues), index)
		}
		if r.Issues[index].Resolved {
			return false, nil, fmt.Errorf("%w: issue %d of %s already resolved", shared.ErrIndexOutOfRange, index, name)
		}

		resolvedAt := now
		r.Issues[index].Resolved = true
		r.Issues[index].ResolvedAt = &resolvedAt
		r.LastUpdated = now
		return true, nil, nil
	})
	if err != nil {
		return models.TrackingRecord{}, err
	}

	s.logger.Info("issue resolved", "component", name, "index", index)
	return rec, nil
}

// CompleteComponent finalizes name at 100% progress.
func (s *Store) CompleteComponent(name string) (models.TrackingRecord, error) {
	rec, err := s.apply(name, func(r *models.TrackingRecord, now time.Time) (bool, []models.Notification, error) {
		if r.Status == models.StatusCompleted {
			return false, nil, fmt.Errorf("%w: %s", shared.ErrAlreadyCompleted, name)
		}

		previous := r.Progress
		completedAt := now
		r.Progress = 100
		r.Status = models.StatusCompleted
		r.CurrentPhase = models.PhaseCompleted
		r.CompletionTime = &completedAt
		r.LastUpdated = now

		events := milestoneEvents(name, CrossedMilestones(previous, 100), 100, now)
		events = append(events, notify.Completed(name, r.StartTime, now))
		return true, events, nil
	})
	if err != nil {
		return models.TrackingRecord{}, err
	}

	s.logger.Info("component completed", "component", name)
	return rec, nil
}

func milestoneEvents(name string, crossed []int, progress int, at time.Time) []models.Notification {
	events := make([]models.Notification, 0, len(crossed))
	for _, m := range crossed {
		events = append(events, notify.MilestoneReached(name, m, progress, at))
	}
	return events
}
