package trial

import (
	"fmt"
	"time"

	"courtsim/internal/trialevents"
	"courtsim/models"
)

// Snapshot is a total copy of a session's mutable state
type Snapshot struct {
	SessionID     string                     `json:"sessionId" bson:"sessionId"`
	CaseID        string                     `json:"caseId" bson:"caseId"`
	Ordering      string                     `json:"ordering" bson:"ordering"`
	PhaseIndex    int                        `json:"phaseIndex" bson:"phaseIndex"`
	Phase         models.Phase               `json:"phase" bson:"phase"`
	Cursor        int                        `json:"cursor" bson:"cursor"`
	Steps         []Step                     `json:"steps" bson:"steps"`
	Transcript    []models.TranscriptEntry   `json:"transcript" bson:"transcript"`
	Presented     []models.PresentedEvidence `json:"presented" bson:"presented"`
	SeatedWitness int                        `json:"seatedWitness" bson:"seatedWitness"`
	Objection     *Objection                 `json:"objection,omitempty" bson:"objection,omitempty"`
	TakenAt       time.Time                  `json:"takenAt" bson:"takenAt"`
}

// Snapshot captures the session. It does not count as a mutation.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:     s.id,
		CaseID:        s.c.ID,
		Ordering:      s.ordering.Name,
		PhaseIndex:    s.st.phaseIndex,
		Phase:         s.phase(),
		Cursor:        s.st.cursor,
		Steps:         copySteps(s.st.steps),
		Transcript:    copyTranscript(s.st.transcript),
		Presented:     copyPresented(s.st.presented),
		SeatedWitness: s.st.seated,
		Objection:     copyObjection(s.st.objection),
		TakenAt:       s.opts.Now(),
	}
}

// Restore replaces the whole session state with snap, or changes nothing.
// The replaced state can be brought back with Undo.
func (s *Session) Restore(snap Snapshot) error {
	if err := s.claim(); err != nil {
		return err
	}
	defer s.release()

	if err := s.validate(snap); err != nil {
		return err
	}
	s.mu.Lock()
	s.pushUndo()
	s.apply(snap)
	s.mu.Unlock()

	s.log.Infow("session restored", "phase", snap.Phase, "entries", len(snap.Transcript))
	s.publish(trialevents.TypeRestored, trialevents.RestoredPayload{Phase: string(snap.Phase), TranscriptCount: len(snap.Transcript)})
	return nil
}

// Undo reverts the most recent mutation
func (s *Session) Undo() error {
	if err := s.claim(); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	if len(s.undo) == 0 {
		s.mu.Unlock()
		return ErrNothingToUndo
	}
	snap := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.apply(snap)
	s.mu.Unlock()

	s.log.Infow("undo", "phase", snap.Phase, "entries", len(snap.Transcript))
	s.publish(trialevents.TypeRestored, trialevents.RestoredPayload{Phase: string(snap.Phase), TranscriptCount: len(snap.Transcript)})
	return nil
}

// pushUndo records the current state before a mutation. Caller holds mu.
func (s *Session) pushUndo() {
	if s.opts.UndoDepth < 0 {
		return
	}
	s.undo = append(s.undo, s.snapshotLocked())
	if over := len(s.undo) - s.opts.UndoDepth; over > 0 {
		s.undo = append([]Snapshot(nil), s.undo[over:]...)
	}
}

// apply installs a validated snapshot. Caller holds mu.
func (s *Session) apply(snap Snapshot) {
	s.st = core{
		phaseIndex: snap.PhaseIndex,
		steps:      copySteps(snap.Steps),
		cursor:     snap.Cursor,
		transcript: copyTranscript(snap.Transcript),
		presented:  copyPresented(snap.Presented),
		seated:     snap.SeatedWitness,
		objection:  copyObjection(snap.Objection),
	}
}

func (s *Session) validate(snap Snapshot) error {
	switch {
	case snap.CaseID != s.c.ID:
		return fmt.Errorf("%w: taken for case %q, session tries %q", ErrInvalidSnapshot, snap.CaseID, s.c.ID)
	case snap.Ordering != s.ordering.Name:
		return fmt.Errorf("%w: ordering %q does not match %q", ErrInvalidSnapshot, snap.Ordering, s.ordering.Name)
	case snap.PhaseIndex < 0 || snap.PhaseIndex >= len(s.ordering.Phases):
		return fmt.Errorf("%w: phase index %d out of range", ErrInvalidSnapshot, snap.PhaseIndex)
	case s.ordering.Phases[snap.PhaseIndex] != snap.Phase:
		return fmt.Errorf("%w: phase %q does not sit at index %d", ErrInvalidSnapshot, snap.Phase, snap.PhaseIndex)
	case snap.Cursor < 0 || snap.Cursor > len(snap.Steps):
		return fmt.Errorf("%w: cursor %d outside %d steps", ErrInvalidSnapshot, snap.Cursor, len(snap.Steps))
	case snap.SeatedWitness < -1 || snap.SeatedWitness >= len(s.c.Witnesses):
		return fmt.Errorf("%w: seated witness %d not in case", ErrInvalidSnapshot, snap.SeatedWitness)
	}
	for i, e := range snap.Transcript {
		if e.Seq != i+1 {
			return fmt.Errorf("%w: transcript entry %d has sequence %d", ErrInvalidSnapshot, i+1, e.Seq)
		}
	}
	return nil
}
