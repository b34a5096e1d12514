package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

var (
	// ErrRunTimeout means the run did not complete within RunTimeout.
	ErrRunTimeout = errors.New("assistant run timed out")
	// ErrRunFailed means the run ended in a terminal state other than completed.
	ErrRunFailed = errors.New("assistant run did not complete")
	// ErrNoReply means the run completed but the thread holds no text reply.
	ErrNoReply = errors.New("assistant produced no reply")
)

type Kind int

const (
	Transient Kind = iota + 1
	Permanent
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// ServiceError wraps any failure of an Ask step.
type ServiceError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("assistant %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a ServiceError worth retrying.
func IsTransient(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Kind == Transient
}

func newServiceError(op string, err error) *ServiceError {
	return &ServiceError{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, context.Canceled):
		return Permanent
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrRunTimeout):
		return Transient
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return kindForStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return kindForStatus(reqErr.HTTPStatusCode)
	}

	// anything else failed before a response arrived
	return Transient
}

func kindForStatus(status int) Kind {
	if status == 0 || status == http.StatusTooManyRequests || status >= 500 {
		return Transient
	}
	return Permanent
}
