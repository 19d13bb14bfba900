package backend

import (
	"fmt"
	"time"
)

// ErrRateLimit indicates a collaborator returned 429.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrServiceUnavailable indicates a collaborator is down or unreachable.
type ErrServiceUnavailable struct {
	Service string
	Err     error
}

func (e *ErrServiceUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s unavailable", e.Service)
}

func (e *ErrServiceUnavailable) Unwrap() error { return e.Err }

// ErrMalformedPayload indicates a response body that could not be decoded
// or failed schema validation.
type ErrMalformedPayload struct {
	Service string
	Body    []byte
	Err     error
}

func (e *ErrMalformedPayload) Error() string {
	return fmt.Sprintf("malformed %s payload: %v", e.Service, e.Err)
}

func (e *ErrMalformedPayload) Unwrap() error { return e.Err }
