// Package serviceerr defines the failure kinds returned by the PDOK clients
// and services. Callers match them with errors.As.
package serviceerr

import (
	"fmt"
)

// NetworkError is a transport-level failure: unreachable host, timeout,
// connection reset.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the underlying transport error was a timeout.
func (e *NetworkError) Timeout() bool {
	t, ok := e.Err.(interface{ Timeout() bool })
	return ok && t.Timeout()
}

// UnexpectedStatusError is returned for any HTTP status other than 200.
type UnexpectedStatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected response from HTTP GET %s, response code: %d", e.URL, e.StatusCode)
}

// UnexpectedContentTypeError is returned when the response Content-Type does
// not match what the API contract declares.
type UnexpectedContentTypeError struct {
	URL      string
	Got      string
	Expected string
}

func (e *UnexpectedContentTypeError) Error() string {
	return fmt.Sprintf("received Content-Type: %s, expected Content-Type: %s (%s)", e.Got, e.Expected, e.URL)
}

// MissingCoverageError is returned when a GetCoverage response holds no
// image/tiff part.
type MissingCoverageError struct {
	CoverageID string
	Parts      int
}

func (e *MissingCoverageError) Error() string {
	if e.CoverageID == "" {
		return fmt.Sprintf("no image/tiff part in coverage response (%d parts)", e.Parts)
	}
	return fmt.Sprintf("no image/tiff part in coverage response for %s (%d parts)", e.CoverageID, e.Parts)
}

// UnknownCoverageError is returned when the coverage service does not offer
// the requested coverage. Err is the upstream failure, if any.
type UnknownCoverageError struct {
	CoverageID string
	Err        error
}

func (e *UnknownCoverageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unknown coverage %s", e.CoverageID)
	}
	return fmt.Sprintf("unknown coverage %s: %v", e.CoverageID, e.Err)
}

func (e *UnknownCoverageError) Unwrap() error { return e.Err }

// LookupNotFoundError is returned when the Locatieserver reports anything
// other than exactly one record for an id lookup.
type LookupNotFoundError struct {
	ID       string
	NumFound int
}

func (e *LookupNotFoundError) Error() string {
	return fmt.Sprintf("failed to lookup object with id %s: %d records found", e.ID, e.NumFound)
}
