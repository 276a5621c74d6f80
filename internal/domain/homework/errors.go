// internal/domain/homework/errors.go
package homework

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a poll cycle failed.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransport
	KindUpstreamUnavailable
	KindMalformedResponse
	KindUnknownStatus
	KindDelivery
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindMalformedResponse:
		return "malformed_response"
	case KindUnknownStatus:
		return "unknown_status"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Error is the failure type shared by the API client, the validator, the
// verdict extractor and the notifier. Callers branch on Kind.
type Error struct {
	Kind ErrorKind
	Op   string // e.g. "fetch", "validate"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error without an underlying cause.
func NewError(kind ErrorKind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// WrapError builds an *Error around cause.
func WrapError(kind ErrorKind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// KindOf reports the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return KindUnknown
}
