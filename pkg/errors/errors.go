package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies the failures the scan/select/bundle pipeline can produce
type Kind string

const (
	KindNoTarget        Kind = "no_target"
	KindScanUnreachable Kind = "scan_unreachable"
	KindFetchFailed     Kind = "fetch_failed"
	KindEmptySelection  Kind = "empty_selection"
	KindArchivePacking  Kind = "archive_packing"
	KindInvalidRequest  Kind = "invalid_request"
	KindUnknown         Kind = "unknown"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrNoTarget        = &Error{Kind: KindNoTarget, Message: "no target page"}
	ErrScanUnreachable = &Error{Kind: KindScanUnreachable, Message: "page unreachable"}
	ErrFetchFailed     = &Error{Kind: KindFetchFailed, Message: "fetch failed"}
	ErrEmptySelection  = &Error{Kind: KindEmptySelection, Message: "no images selected"}
	ErrArchivePacking  = &Error{Kind: KindArchivePacking, Message: "archive could not be created"}
	ErrInvalidRequest  = &Error{Kind: KindInvalidRequest, Message: "invalid request"}
)

// Error carries a failure kind plus the URL and HTTP status involved, if any
type Error struct {
	Kind    Kind
	Message string
	URL     string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.URL != "" {
		msg += fmt.Sprintf(" (%s)", e.URL)
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" [status %d]", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an Error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around a cause
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// FetchError describes a failed request for a single URL
func FetchError(url string, code int, err error) *Error {
	msg := "request failed"
	if code != 0 {
		msg = "unexpected status"
	}
	return &Error{Kind: KindFetchFailed, Message: msg, URL: url, Code: code, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsPreflight reports whether err aborts an operation before any work starts
func IsPreflight(err error) bool {
	switch KindOf(err) {
	case KindNoTarget, KindScanUnreachable, KindEmptySelection, KindInvalidRequest:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // network error
		return true
	case 408, 429:
		return true
	case 401, 403, 404, 410:
		return false
	default:
		return statusCode >= 500
	}
}
