package trial

import (
	"fmt"

	"courtsim/agents"
	"courtsim/models"
)

// StepKind is the kind of turn a sub-step expects
type StepKind string

const (
	StepOpening   StepKind = "opening"
	StepQuestion  StepKind = "question"
	StepAnswer    StepKind = "answer"
	StepPresent   StepKind = "present"
	StepObjection StepKind = "objection"
	StepRuling    StepKind = "ruling"
	StepClosing   StepKind = "closing"
	StepJudgment  StepKind = "judgment"
)

// Step is one required turn inside a phase
type Step struct {
	Kind       StepKind    `json:"kind" bson:"kind"`
	Role       models.Role `json:"role" bson:"role"`
	Witness    int         `json:"witness" bson:"witness"` // index into Case.Witnesses, -1 when none
	Cross      bool        `json:"cross,omitempty" bson:"cross,omitempty"`
	EvidenceID string      `json:"evidenceId,omitempty" bson:"evidenceId,omitempty"`
	Side       models.Side `json:"side,omitempty" bson:"side,omitempty"`
}

// Accepts reports whether role may take this step. Either counsel may raise
// the objection; every other step belongs to exactly one role.
func (s Step) Accepts(role models.Role) bool {
	if s.Kind == StepObjection {
		return role.IsCounsel()
	}
	return s.Role == role
}

func (s Step) action() agents.Action {
	switch s.Kind {
	case StepOpening:
		return agents.ActionOpening
	case StepQuestion:
		return agents.ActionQuestion
	case StepAnswer:
		return agents.ActionTestimony
	case StepObjection:
		return agents.ActionObjection
	case StepRuling:
		return agents.ActionRuling
	case StepClosing:
		return agents.ActionClosing
	case StepJudgment:
		return agents.ActionJudgment
	}
	return agents.Action(s.Kind)
}

// planPhase builds the sub-steps of a phase for the given seated witness
func planPhase(phase models.Phase, c *models.Case, witness int) []Step {
	switch phase {
	case models.PhaseOpening:
		return []Step{
			{Kind: StepOpening, Role: models.RolePlaintiffCounsel, Witness: -1},
			{Kind: StepOpening, Role: models.RoleDefendantCounsel, Witness: -1},
		}
	case models.PhaseExaminationInChief, models.PhaseCrossExamination, models.PhaseExamination:
		if witness < 0 || witness >= len(c.Witnesses) {
			return nil
		}
		return examinationCycle(phase, c.Witnesses[witness], witness)
	case models.PhaseEvidence:
		var steps []Step
		for _, side := range []models.Side{models.SidePlaintiff, models.SideDefendant} {
			for _, e := range c.Evidence {
				steps = append(steps, Step{Kind: StepPresent, Role: models.CounselFor(side), Witness: -1, EvidenceID: e.ID, Side: side})
			}
		}
		return steps
	case models.PhaseObjection:
		return []Step{
			{Kind: StepObjection, Role: models.RoleDefendantCounsel, Witness: -1},
			{Kind: StepRuling, Role: models.RoleJudge, Witness: -1},
		}
	case models.PhaseClosing:
		return []Step{
			{Kind: StepClosing, Role: models.RolePlaintiffCounsel, Witness: -1},
			{Kind: StepClosing, Role: models.RoleDefendantCounsel, Witness: -1},
		}
	case models.PhaseJudgment:
		return []Step{{Kind: StepJudgment, Role: models.RoleJudge, Witness: -1}}
	}
	return nil
}

// examinationCycle is one question/answer round with the witness. The
// in-chief question comes from the witness's own side, cross from the other.
func examinationCycle(phase models.Phase, w models.Witness, index int) []Step {
	inChief := []Step{
		{Kind: StepQuestion, Role: models.CounselFor(w.Side), Witness: index},
		{Kind: StepAnswer, Role: models.RoleWitness, Witness: index},
	}
	cross := []Step{
		{Kind: StepQuestion, Role: models.CounselFor(w.Side.Opposing()), Witness: index, Cross: true},
		{Kind: StepAnswer, Role: models.RoleWitness, Witness: index, Cross: true},
	}
	switch phase {
	case models.PhaseExaminationInChief:
		return inChief
	case models.PhaseCrossExamination:
		return cross
	}
	return append(inChief, cross...)
}

// presentationText is the fixed wording used when counsel tenders an exhibit
func presentationText(side models.Side, e models.Evidence) string {
	text := fmt.Sprintf("Your Honour, the %s tenders Exhibit %s, %q (%s evidence)", side, e.ID, e.Title, e.Type)
	if e.Description != "" {
		text += ": " + e.Description
	}
	return text + "."
}
