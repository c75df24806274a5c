// Package tasks replays tracking plans with real-time progress reporting.
//
// # Plans
//
// A [Plan] is a JSON document listing [Step] values in order:
//
//	{"steps": [
//	  {"component": "authentication", "action": "start"},
//	  {"component": "authentication", "action": "progress", "progress": 25, "phase": "migration_started"},
//	  {"component": "authentication", "action": "task", "task": "Migrate controller: AuthController"},
//	  {"component": "authentication", "action": "issue", "description": "Session timeout needs adjustment", "severity": "low"}
//	]}
//
// Actions are start, progress, task, issue, resolve and complete.
//
// # Replay
//
// [BatchEngine.Apply] implements a worker pool over components:
//   - steps of one component run in plan order on a single worker
//   - different components run concurrently
//   - a shared golang.org/x/time/rate limiter paces requests to the server
//   - the first failure of a component skips its remaining steps
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
