package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
)

var _ models.Repository[*models.StoredEvent] = (*EventRepository)(nil)

// EventRepository persists dispatched notifications as an append-only log.
//
// It doubles as a notification sender named "event-log".
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new EventRepository with the given database connection
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Name() string { return "event-log" }

// Send records n in the log.
func (r *EventRepository) Send(ctx context.Context, n models.Notification) error {
	return r.create(ctx, models.NewStoredEvent(0, n))
}

// Create inserts a [models.StoredEvent] with a generated sequence.
func (r *EventRepository) Create(event *models.StoredEvent) error {
	return r.create(context.Background(), event)
}

func (r *EventRepository) create(ctx context.Context, event *models.StoredEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(ctx, r.db, "events")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	n := event.Notification()
	details, err := json.Marshal(n.Details)
	if err != nil {
		return fmt.Errorf("failed to encode event details: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO events (id, sequence, event_type, component, details, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, sequence, string(n.EventType), n.Component, string(details), n.Timestamp, event.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// Get retrieves an event by notification ID.
func (r *EventRepository) Get(id string) (*models.StoredEvent, error) {
	row := r.db.QueryRow(`
		SELECT id, sequence, event_type, component, details, occurred_at, created_at
		FROM events
		WHERE id = ?
	`, id)
	return r.scan(row)
}

// Update is not supported: the log is append-only.
func (r *EventRepository) Update(event *models.StoredEvent) error {
	return fmt.Errorf("%w: event log is append-only", shared.ErrNotImplemented)
}

// Delete is not supported: the log is append-only.
func (r *EventRepository) Delete(id string) error {
	return fmt.Errorf("%w: event log is append-only", shared.ErrNotImplemented)
}

// List returns events newest first.
//
// Supported criteria: "component", "event_type" and "limit" (int, default 100).
func (r *EventRepository) List(criteria map[string]any) ([]*models.StoredEvent, error) {
	query := `
		SELECT id, sequence, event_type, component, details, occurred_at, created_at
		FROM events
		WHERE 1 = 1
	`
	args := []any{}

	if component, ok := criteria["component"].(string); ok && component != "" {
		query += " AND component = ?"
		args = append(args, component)
	}

	if eventType, ok := criteria["event_type"].(string); ok && eventType != "" {
		query += " AND event_type = ?"
		args = append(args, eventType)
	}

	limit := 100
	if l, ok := criteria["limit"].(int); ok && l > 0 {
		limit = l
	}
	query += " ORDER BY sequence DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []*models.StoredEvent{}
	for rows.Next() {
		event, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

// Recent returns up to limit events, optionally filtered by component.
func (r *EventRepository) Recent(component string, limit int) ([]*models.StoredEvent, error) {
	return r.List(map[string]any{"component": component, "limit": limit})
}

func (r *EventRepository) scan(row scanner) (*models.StoredEvent, error) {
	var (
		id         string
		sequence   int
		eventType  string
		component  string
		details    string
		occurredAt time.Time
		createdAt  time.Time
	)

	err := row.Scan(&id, &sequence, &eventType, &component, &details, &occurredAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	n := models.Notification{
		ID:        id,
		EventType: models.EventType(eventType),
		Component: component,
		Timestamp: occurredAt,
	}
	if err := json.Unmarshal([]byte(details), &n.Details); err != nil {
		return nil, fmt.Errorf("failed to decode event details: %w", err)
	}

	event := models.NewStoredEvent(sequence, n)
	event.SetCreatedAt(createdAt)
	return event, nil
}
