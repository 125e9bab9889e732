package trial

import (
	"errors"
	"fmt"

	"courtsim/models"
)

// ErrConcurrencyViolation is returned when a session is already handling a request
var ErrConcurrencyViolation = errors.New("another request is in flight for this session")

// ErrNothingToUndo is returned by Undo on an empty history
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrSessionNotFound is returned by the manager for unknown session ids
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownWitness is returned when a witness index is not in the case
var ErrUnknownWitness = errors.New("unknown witness")

// ErrInvalidSnapshot is returned when a snapshot does not fit the session
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// ErrTrialCompleted is returned by the autoplay driver once judgment is given
var ErrTrialCompleted = errors.New("trial is completed")

// ErrSnapshotNotFound is returned when no snapshot was saved for a session
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrUnknownEvidence is returned when an evidence id is not in the case
var ErrUnknownEvidence = errors.New("unknown evidence")

// ErrEvidenceNotPresented is returned when an exhibit has not been put before the court yet
var ErrEvidenceNotPresented = errors.New("evidence has not been presented")

// ErrInvalidOption is returned for an unknown ordering or failure policy name
var ErrInvalidOption = errors.New("invalid session option")

// InvalidTransitionError is returned when a phase cannot advance. The session is unchanged.
type InvalidTransitionError struct {
	From    models.Phase
	Pending int
	Reason  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot advance from %s: %s", e.From, e.Reason)
}

// TurnError is returned when a turn does not fit the pending sub-step
type TurnError struct {
	Phase    models.Phase
	Role     models.Role
	Expected models.Role
	Reason   string
}

func (e *TurnError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("turn rejected in %s: %s", e.Phase, e.Reason)
	}
	return fmt.Sprintf("turn by %s rejected in %s: %s", e.Role.Label(), e.Phase, e.Reason)
}
