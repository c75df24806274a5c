// Package repositories implements SQLite persistence for tracker output.
//
// Tracking state itself lives in memory; what reaches the database is what the
// tracker emits: exported report snapshots and the notification event log.
//
// Key Implementations:
//   - [ReportRepository] : Saved [models.Report] snapshots with labels and soft deletes
//   - [EventRepository] : Append-only log of dispatched notifications, also usable as a notification sender
//   - [FileReportWriter] : Writes the export document as indented JSON on disk
//
// Sequence numbers provide stable, human-readable ordering (e.g. report #3) independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
