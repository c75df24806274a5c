// Package server exposes the tracker over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns internally.
//
// # Handlers
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
//   - [APIHandler] : JSON API for tracking mutations, status queries, the event log and saved reports
//   - [WebSocketHandler] : Live snapshot stream; one hub subscription per connection
//
// Tracker errors map to HTTP status codes in [StatusFor]. Error bodies carry a kind string so
// API clients can map failures back to the shared sentinel errors.
//
// # Lifecycle
//
// [Server] wraps [http.Server] and shuts down gracefully when its context is cancelled.
package server
