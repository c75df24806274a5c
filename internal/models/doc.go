// Package models defines the domain entities shared by the tracker, its broadcast layer and its persistence.
//
// The package contains three categories of types:
//
// 1. Tracking state: in-memory values owned by the tracker store
//   - [TrackingRecord] : Per-component status, progress, phase, tasks and issues
//   - [Issue] : Append-only issue entry, resolved by stable index
//   - [CompletedTask] : A task moved out of the remaining set, with its completion time
//
// 2. Read views: immutable copies handed to concurrent readers
//   - [Snapshot] : Versioned point-in-time copy pushed to subscribers
//   - [OverallProgress] : Aggregate counts plus per-component detail
//   - [Report] : Exported document (generated_at, overall_progress, detailed_status)
//   - [Notification] : Delivery-agnostic event payload
//
// 3. Persistent Entities: Database-backed models
//   - [StoredReport] : A saved [Report] with label and sequence
//   - [StoredEvent] : A logged [Notification]
//
// Persistent entities implement the [Model] interface; [Repository] defines the CRUD contract.
package models
