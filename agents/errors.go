package agents

import (
	"context"
	"errors"
	"fmt"

	"courtsim/models"
)

// ErrUnsupported is returned when a role is asked for an utterance it never gives,
// e.g. a witness asked to rule on an objection.
var ErrUnsupported = errors.New("action not supported for role")

// GenerationError wraps a failed or timed-out call to the text generator
type GenerationError struct {
	Role   models.Role
	Action Action
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s %s generation failed: %v", e.Role.Label(), e.Action, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the generator ran out of time
func (e *GenerationError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// FallbackUtterance is the labeled placeholder recorded in place of a failed turn
func FallbackUtterance(role models.Role, action Action, cause error) string {
	reason := "unknown error"
	var gerr *GenerationError
	if errors.As(cause, &gerr) {
		cause = gerr.Err
	}
	if cause != nil {
		reason = cause.Error()
	}
	return fmt.Sprintf("[Generation Error: %s] %s %s could not be generated.", reason, role.Label(), action)
}
