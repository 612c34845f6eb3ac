package client

import "fmt"

// DataSourceError reports a failed query: a transport failure, a non-2xx
// status, or a payload that is not a JSON array of records.
// RequestID is the X-Request-ID sent with the request, the key for finding
// the matching server log line.
type DataSourceError struct {
	URL        string
	StatusCode int
	RequestID  string
	Err        error
}

func (e *DataSourceError) Error() string {
	msg := fmt.Sprintf("data source %s: %v", e.URL, e.Err)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("data source %s returned status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	if e.RequestID != "" {
		msg += " (request " + e.RequestID + ")"
	}
	return msg
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// LookupFailure reports that a filter option list could not be fetched.
// The affected filter stays disabled; the others remain usable.
type LookupFailure struct {
	Lookup string
	Err    error
}

func (e *LookupFailure) Error() string {
	return fmt.Sprintf("lookup %s unavailable: %v", e.Lookup, e.Err)
}

func (e *LookupFailure) Unwrap() error {
	return e.Err
}
