package punch

import (
	"errors"
	"fmt"
)

// Punch domain errors
var (
	ErrNotPunchedIn       = errors.New("you have not punched in yet")
	ErrSessionClosed      = errors.New("you have already punched out today")
	ErrInvalidTransition  = errors.New("action not allowed in the current attendance state")
	ErrBusy               = errors.New("another attendance action is in progress")
	ErrMissingTimestamp   = errors.New("attendance service response is missing a timestamp")
	ErrInconsistentStatus = errors.New("attendance service reported a punch out without a punch in")
)

// ServiceError is a non-success response from the Attendance Service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("attendance service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("attendance service returned status %d: %s", e.StatusCode, e.Message)
}

// UserMessage picks the inline text for a failed action: the server's own
// message when it sent one, the local guard text for guard violations, and
// the per-action fallback otherwise.
func UserMessage(a Action, err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	switch {
	case errors.Is(err, ErrNotPunchedIn), errors.Is(err, ErrSessionClosed), errors.Is(err, ErrInvalidTransition):
		return err.Error()
	}
	return a.FallbackMessage()
}
