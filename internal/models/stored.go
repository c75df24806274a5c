package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var (
	_ Model = (*StoredReport)(nil)
	_ Model = (*StoredEvent)(nil)
)

// StoredReport is a [Report] persisted by the report repository.
type StoredReport struct {
	id        string
	sequence  int
	label     string
	report    Report
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewStoredReport wraps report for persistence. The ID is assigned on create.
func NewStoredReport(sequence int, label string, report Report) *StoredReport {
	now := time.Now().UTC()
	return &StoredReport{
		sequence:  sequence,
		label:     label,
		report:    report,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *StoredReport) ID() string            { return r.id }
func (r *StoredReport) Sequence() int         { return r.sequence }
func (r *StoredReport) Label() string         { return r.label }
func (r *StoredReport) Report() Report        { return r.report }
func (r *StoredReport) CreatedAt() time.Time  { return r.createdAt }
func (r *StoredReport) UpdatedAt() time.Time  { return r.updatedAt }
func (r *StoredReport) DeletedAt() *time.Time { return r.deletedAt }

func (r *StoredReport) SetID(id string)           { r.id = id }
func (r *StoredReport) SetSequence(seq int)       { r.sequence = seq }
func (r *StoredReport) SetCreatedAt(t time.Time)  { r.createdAt = t }
func (r *StoredReport) SetUpdatedAt(t time.Time)  { r.updatedAt = t }
func (r *StoredReport) SetDeletedAt(t *time.Time) { r.deletedAt = t }
func (r *StoredReport) SetReport(report Report)   { r.report = report }

// SetLabel renames the report and bumps its update time.
func (r *StoredReport) SetLabel(label string) {
	r.label = label
	r.updatedAt = time.Now().UTC()
}

// Validate checks the report is persistable.
func (r *StoredReport) Validate() error {
	if r.id == "" {
		return fmt.Errorf("report id is required")
	}
	if r.report.GeneratedAt.IsZero() {
		return fmt.Errorf("report generated_at is required")
	}
	if len(r.label) > 200 {
		return fmt.Errorf("report label exceeds 200 characters")
	}
	return nil
}

// ReportEntry is the wire form of a [StoredReport].
type ReportEntry struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	Report    Report    `json:"report"`
}

func (r *StoredReport) Entry() ReportEntry {
	return ReportEntry{
		ID:        r.id,
		Sequence:  r.sequence,
		Label:     r.label,
		CreatedAt: r.createdAt,
		Report:    r.report,
	}
}

func (r *StoredReport) MarshalJSON() ([]byte, error) { return json.Marshal(r.Entry()) }

// Document encodes the wrapped report as stored in the database.
func (r *StoredReport) Document() (string, error) {
	b, err := json.Marshal(r.report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return string(b), nil
}

// StoredEvent is a [Notification] recorded in the event log.
type StoredEvent struct {
	sequence     int
	notification Notification
	createdAt    time.Time
}

// NewStoredEvent wraps n for the event log.
func NewStoredEvent(sequence int, n Notification) *StoredEvent {
	return &StoredEvent{sequence: sequence, notification: n, createdAt: time.Now().UTC()}
}

func (e *StoredEvent) ID() string                 { return e.notification.ID }
func (e *StoredEvent) Sequence() int              { return e.sequence }
func (e *StoredEvent) Notification() Notification { return e.notification }
func (e *StoredEvent) CreatedAt() time.Time       { return e.createdAt }
func (e *StoredEvent) UpdatedAt() time.Time       { return e.createdAt }

func (e *StoredEvent) SetCreatedAt(t time.Time) { e.createdAt = t }

// Validate checks the event is persistable.
func (e *StoredEvent) Validate() error {
	if e.notification.ID == "" {
		return fmt.Errorf("event id is required")
	}
	if strings.TrimSpace(e.notification.Component) == "" {
		return fmt.Errorf("event component is required")
	}
	if e.notification.EventType == "" {
		return fmt.Errorf("event type is required")
	}
	return nil
}

// EventEntry is the wire form of a [StoredEvent].
type EventEntry struct {
	Sequence int `json:"sequence"`
	Notification
}

// MarshalJSON exposes the event as its notification plus sequence.
func (e *StoredEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(EventEntry{Sequence: e.sequence, Notification: e.notification})
}
