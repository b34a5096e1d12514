package notion

import (
	"errors"
	"fmt"
	"net/http"
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

// StoreError is returned by every Client call that fails.
type StoreError struct {
	Op      string
	Status  int
	Code    string
	Message string
	Kind    Kind
	Err     error
}

func (e *StoreError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("notion %s: status=%d code=%s: %s", e.Op, e.Status, e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("notion %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("notion %s: %s", e.Op, e.Message)
	}
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a StoreError worth retrying.
func IsTransient(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == Transient
}

func kindForStatus(status int) Kind {
	if status == http.StatusTooManyRequests || status == http.StatusConflict || status >= 500 {
		return Transient
	}
	return Permanent
}
