package models

import "time"

// TranscriptEntry represents a single spoken turn. Entries are append-only.
type TranscriptEntry struct {
	Seq       int       `json:"seq" bson:"seq"`
	Speaker   Role      `json:"speaker" bson:"speaker"`
	Label     string    `json:"label" bson:"label"`
	Witness   string    `json:"witness,omitempty" bson:"witness,omitempty"`
	Phase     Phase     `json:"phase" bson:"phase"`
	Content   string    `json:"content" bson:"content"`
	Fallback  bool      `json:"fallback,omitempty" bson:"fallback,omitempty"` // labeled placeholder after a generation failure
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// PresentedEvidence records that a side put an exhibit before the court,
// and what the court has made of it since
type PresentedEvidence struct {
	EvidenceID     string         `json:"evidenceId" bson:"evidenceId"`
	Type           EvidenceType   `json:"type" bson:"type"`
	Side           Side           `json:"side" bson:"side"`
	Seq            int            `json:"seq" bson:"seq"` // transcript entry that presented it
	Status         EvidenceStatus `json:"status" bson:"status"`
	CriteriaMet    []string       `json:"criteriaMet,omitempty" bson:"criteriaMet,omitempty"`
	CriteriaFailed []string       `json:"criteriaFailed,omitempty" bson:"criteriaFailed,omitempty"`
	Custody        []CustodyEvent `json:"custody" bson:"custody"`
}

// Clone returns a copy that shares no slices with p
func (p PresentedEvidence) Clone() PresentedEvidence {
	p.CriteriaMet = append([]string(nil), p.CriteriaMet...)
	p.CriteriaFailed = append([]string(nil), p.CriteriaFailed...)
	p.Custody = append([]CustodyEvent(nil), p.Custody...)
	return p
}
