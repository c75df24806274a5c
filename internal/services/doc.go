// Package services talks to a running tracker server.
//
// # API Service
//
// [APIService] wraps the JSON API served under /api/. Raw [APIService.Get] and [APIService.Post]
// return an [APIResponse]; the typed methods decode the models wire types and satisfy [Tracker].
//
// # Errors
//
// Failed responses carry an error kind in their body. It is mapped back onto the shared sentinel,
// so callers can test results with errors.Is:
//   - [shared.ErrUnknownComponent] : name is not in the catalog
//   - [shared.ErrNotTracking] : component was never started
//   - [shared.ErrAlreadyCompleted] : component is finished
//   - [shared.ErrAPIRequest] : transport failures and unrecognized responses
//
// # Snapshots
//
// [APIService.Watch] dials the /ws endpoint with gorilla/websocket and decodes every pushed frame
// into a [models.Snapshot].
package services
