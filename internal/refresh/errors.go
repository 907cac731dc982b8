package refresh

import (
	"errors"
	"fmt"
)

var (
	// ErrExternalSourceUnavailable means one of the feeds timed out, was
	// unreachable or answered with a failure status
	ErrExternalSourceUnavailable = errors.New("external data source unavailable")

	// ErrPersistence means the refresh transaction did not commit
	ErrPersistence = errors.New("persistence failure")

	// ErrInternal covers everything else, such as malformed feed payloads
	ErrInternal = errors.New("internal error")
)

// Error is returned by a failed refresh. It matches one of the sentinel
// kinds through errors.Is.
type Error struct {
	Kind   error
	Source string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%v (%s): %s", e.Kind, e.Source, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// outcome is the metrics label for an error kind
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrExternalSourceUnavailable):
		return "external_source_unavailable"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	default:
		return "internal_error"
	}
}
