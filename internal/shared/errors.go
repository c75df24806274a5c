package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Tracking errors, reported synchronously by store mutations
	ErrUnknownComponent = fmt.Errorf("unknown component")
	ErrNotTracking      = fmt.Errorf("component is not being tracked")
	ErrAlreadyTracking  = fmt.Errorf("component is already being tracked")
	ErrAlreadyCompleted = fmt.Errorf("component is already completed")
	ErrIndexOutOfRange  = fmt.Errorf("issue index out of range")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrReportNotFound     = fmt.Errorf("report not found")
	ErrDeliveryFailed     = fmt.Errorf("notification delivery failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

var errorKinds = []struct {
	kind string
	err  error
}{
	{"unknown_component", ErrUnknownComponent},
	{"not_tracking", ErrNotTracking},
	{"already_tracking", ErrAlreadyTracking},
	{"already_completed", ErrAlreadyCompleted},
	{"index_out_of_range", ErrIndexOutOfRange},
	{"invalid_argument", ErrInvalidArgument},
	{"invalid_input", ErrInvalidInput},
	{"report_not_found", ErrReportNotFound},
	{"service_unavailable", ErrServiceUnavailable},
	{"not_implemented", ErrNotImplemented},
}

// ErrorKind names the sentinel err wraps, or "internal" when it wraps none.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

// ErrorForKind returns the sentinel named by kind, falling back to [ErrAPIRequest].
func ErrorForKind(kind string) error {
	for _, k := range errorKinds {
		if k.kind == kind {
			return k.err
		}
	}
	return ErrAPIRequest
}
