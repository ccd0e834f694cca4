package mysideline

import (
	"fmt"
	"net/http"
)

// FetchErrorKind classifies why a fetch failed.
type FetchErrorKind string

const (
	KindTimeout            FetchErrorKind = "timeout"
	KindTransportFailure   FetchErrorKind = "transportFailure"
	KindHTTPStatus         FetchErrorKind = "httpStatus"
	KindInvalidContentType FetchErrorKind = "invalidContentType"
)

// FetchError is returned by Fetcher.Fetch. StatusCode is set for
// KindHTTPStatus only.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	msg := "mysideline fetch: " + string(e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" %d", e.StatusCode)
	}
	msg += fmt.Sprintf(" after %d attempt(s)", e.Attempts)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed: timeouts, transport
// failures, 429 and 5xx.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindTransportFailure:
		return true
	case KindHTTPStatus:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	default:
		return false
	}
}
