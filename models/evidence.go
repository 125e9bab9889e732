package models

import "time"

// EvidenceRule is what the court asks of an exhibit type before admitting it
type EvidenceRule struct {
	Description            string   `json:"description"`
	AuthenticationRequired bool     `json:"authenticationRequired"`
	Criteria               []string `json:"criteria"`
}

var evidenceRules = map[EvidenceType]EvidenceRule{
	EvidenceDocumentary:      {"Written or printed documents", true, []string{"Original", "Certified Copy", "Secondary Evidence"}},
	EvidenceElectronic:       {"Emails, messages and digital files", true, []string{"Hash Verification", "Chain of Custody", "Metadata"}},
	EvidenceExpert:           {"Opinions from qualified experts", true, []string{"Qualifications", "Methodology", "Reliability"}},
	EvidencePhotographic:     {"Photographs and images", true, []string{"Authenticity", "Relevance", "Chain of Custody"}},
	EvidenceAudioVisual:      {"Audio and video recordings", true, []string{"Authenticity", "Chain of Custody", "Clarity"}},
	EvidenceForensic:         {"Scientific analysis and testing", true, []string{"Scientific Validity", "Chain of Custody", "Expert Testimony"}},
	EvidenceMedical:          {"Medical reports and records", true, []string{"Certification", "Relevance", "Completeness"}},
	EvidenceFinancial:        {"Financial records and statements", true, []string{"Authentication", "Completeness", "Relevance"}},
	EvidenceProperty:         {"Property-related documents", true, []string{"Registration", "Chain of Title", "Authenticity"}},
	EvidenceWitnessStatement: {"Witness statements and testimonies", false, []string{"Credibility", "Relevance", "Consistency"}},
}

// RuleFor returns the admissibility rule of an evidence type. Unknown types
// are held to the documentary rule.
func RuleFor(t EvidenceType) EvidenceRule {
	rule, ok := evidenceRules[t]
	if !ok {
		rule = evidenceRules[EvidenceDocumentary]
	}
	rule.Criteria = append([]string(nil), rule.Criteria...)
	return rule
}

// EvidenceStatus tracks an exhibit from presentation to admission
type EvidenceStatus string

const (
	EvidencePending       EvidenceStatus = "pending_authentication"
	EvidenceAuthenticated EvidenceStatus = "authenticated"
	EvidenceFailed        EvidenceStatus = "failed_authentication"
	// EvidenceAdmitted is set on presentation for types that need no authentication
	EvidenceAdmitted EvidenceStatus = "admitted"
)

// CustodyEvent is one link in an exhibit's chain of custody
type CustodyEvent struct {
	Action string    `json:"action" bson:"action"`
	Actor  string    `json:"actor" bson:"actor"`
	At     time.Time `json:"at" bson:"at"`
}

// Admissible reports whether the exhibit may be relied on
func (p PresentedEvidence) Admissible() bool {
	return p.Status == EvidenceAuthenticated || p.Status == EvidenceAdmitted
}
