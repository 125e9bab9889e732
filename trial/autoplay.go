package trial

import (
	"context"
	"errors"
	"time"

	"courtsim/agents"
	"courtsim/models"
)

// Autoplay drives a session turn by turn without a human in any role
type Autoplay struct {
	Session *Session
	// Retries is how often a failed generation is retried before giving up
	Retries int
	// Delay paces turns for observers
	Delay time.Duration
}

// Step performs the next action: the pending turn if there is one,
// otherwise a phase advance. It returns the recorded entry, if any.
func (a *Autoplay) Step(ctx context.Context) (*models.TranscriptEntry, error) {
	st := a.Session.GetState()
	if st.Phase == models.PhaseCompleted {
		return nil, ErrTrialCompleted
	}
	if st.PendingStep == nil {
		_, err := a.Session.Advance()
		return nil, err
	}

	var err error
	for attempt := 0; attempt <= a.Retries; attempt++ {
		var entry models.TranscriptEntry
		entry, err = a.Session.RequestNextTurn(ctx)
		if err == nil {
			return &entry, nil
		}
		var gerr *agents.GenerationError
		if !errors.As(err, &gerr) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, err
}

// Run steps until the trial completes, calling onEntry for each new entry
func (a *Autoplay) Run(ctx context.Context, onEntry func(models.TranscriptEntry)) error {
	for {
		entry, err := a.Step(ctx)
		if errors.Is(err, ErrTrialCompleted) {
			return nil
		}
		if err != nil {
			return err
		}
		if entry != nil && onEntry != nil {
			onEntry(*entry)
		}
		if a.Delay > 0 && entry != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.Delay):
			}
		}
	}
}
