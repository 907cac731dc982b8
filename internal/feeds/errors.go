package feeds

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Source names one of the external feeds
type Source string

const (
	SourceCountries Source = "countries"
	SourceRates     Source = "exchange_rates"
)

// ErrorKind classifies why a feed call failed
type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindDecode    ErrorKind = "decode"
)

// SourceError is returned by every feed call that fails
type SourceError struct {
	Source     Source
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *SourceError) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.StatusCode != 0 {
			return fmt.Sprintf("%s feed returned status %d", e.Source, e.StatusCode)
		}
		return fmt.Sprintf("%s feed reported failure: %v", e.Source, e.Err)
	case KindTimeout:
		return fmt.Sprintf("%s feed timed out: %v", e.Source, e.Err)
	case KindTransport:
		return fmt.Sprintf("%s feed unreachable: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("%s feed returned a malformed payload: %v", e.Source, e.Err)
	}
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Unavailable reports whether the source itself could not serve the request.
// Malformed payloads are not availability problems.
func (e *SourceError) Unavailable() bool {
	return e.Kind != KindDecode
}

// classify turns a transport level error into a SourceError
func classify(source Source, err error) *SourceError {
	kind := KindTransport
	if isTimeout(err) {
		kind = KindTimeout
	}
	return &SourceError{Source: source, Kind: kind, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
