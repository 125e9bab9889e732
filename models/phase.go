package models

// Phase is a named stage of the trial
type Phase string

const (
	PhaseOpening            Phase = "opening"
	PhaseExaminationInChief Phase = "examination_in_chief"
	PhaseCrossExamination   Phase = "cross_examination"
	PhaseExamination        Phase = "examination" // collapsed in-chief + cross
	PhaseEvidence           Phase = "evidence"
	PhaseObjection          Phase = "objection"
	PhaseClosing            Phase = "closing"
	PhaseJudgment           Phase = "judgment"
	PhaseCompleted          Phase = "completed"
)

// Title is the human readable phase name
func (p Phase) Title() string {
	switch p {
	case PhaseOpening:
		return "Opening Statements"
	case PhaseExaminationInChief:
		return "Examination-in-Chief"
	case PhaseCrossExamination:
		return "Cross-Examination"
	case PhaseExamination:
		return "Witness Examination"
	case PhaseEvidence:
		return "Evidence Presentation"
	case PhaseObjection:
		return "Objections"
	case PhaseClosing:
		return "Closing Arguments"
	case PhaseJudgment:
		return "Judgment"
	case PhaseCompleted:
		return "Completed"
	}
	return string(p)
}

// IsExamination reports whether witnesses are questioned in this phase
func (p Phase) IsExamination() bool {
	return p == PhaseExaminationInChief || p == PhaseCrossExamination || p == PhaseExamination
}
