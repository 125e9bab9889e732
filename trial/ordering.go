package trial

import (
	"fmt"
	"strings"

	"courtsim/models"
)

// Ordering is a fixed phase sequence ending in PhaseCompleted
type Ordering struct {
	Name   string
	Phases []models.Phase
}

var (
	// StandardOrdering examines the witness in chief and in cross as separate phases
	StandardOrdering = Ordering{
		Name: "standard",
		Phases: []models.Phase{
			models.PhaseOpening,
			models.PhaseExaminationInChief,
			models.PhaseCrossExamination,
			models.PhaseEvidence,
			models.PhaseObjection,
			models.PhaseClosing,
			models.PhaseJudgment,
			models.PhaseCompleted,
		},
	}

	// CollapsedOrdering runs both examinations inside a single phase
	CollapsedOrdering = Ordering{
		Name: "collapsed",
		Phases: []models.Phase{
			models.PhaseOpening,
			models.PhaseExamination,
			models.PhaseEvidence,
			models.PhaseObjection,
			models.PhaseClosing,
			models.PhaseJudgment,
			models.PhaseCompleted,
		},
	}
)

// OrderingByName resolves a configured ordering; empty means standard
func OrderingByName(name string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StandardOrdering.Name:
		return StandardOrdering, nil
	case CollapsedOrdering.Name:
		return CollapsedOrdering, nil
	}
	return Ordering{}, fmt.Errorf("%w: unknown phase ordering %q", ErrInvalidOption, name)
}

// Index returns the position of p, or -1
func (o Ordering) Index(p models.Phase) int {
	for i, phase := range o.Phases {
		if phase == p {
			return i
		}
	}
	return -1
}

func (o Ordering) valid() bool {
	return len(o.Phases) > 0 && o.Phases[len(o.Phases)-1] == models.PhaseCompleted
}
