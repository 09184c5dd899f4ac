// ABOUTME: Error kinds for calls against the chat backend
// ABOUTME: Separates network failures, HTTP status errors and malformed responses

package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches any HTTP 404 returned by the backend via errors.Is.
var ErrNotFound = errors.New("not found")

// Kind classifies a backend failure.
type Kind int

// Kind constants
const (
	KindNetwork   Kind = iota + 1 // request could not complete
	KindHTTP                      // non-success status
	KindMalformed                 // response violates the expected contract
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error describes a failed backend operation.
type Error struct {
	Op     string // e.g. "send_message"
	Kind   Kind
	Status int    // HTTP status, KindHTTP only
	Detail string // server supplied detail, if any
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		if e.Detail != "" {
			return fmt.Sprintf("%s: server returned status %d: %s", e.Op, e.Status, e.Detail)
		}
		return fmt.Sprintf("%s: server returned status %d", e.Op, e.Status)
	case KindMalformed:
		return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports 404 responses as ErrNotFound.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindHTTP && e.Status == http.StatusNotFound
}

// IsNotFound reports whether err is a backend "not found" response. Only an
// explicit 404 qualifies; every other status is a real failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// KindOf returns the Kind of a backend error, or 0 when err is not one.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}
