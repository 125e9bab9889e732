package models

import (
	"fmt"
	"strings"
)

// Side identifies which party a counsel, witness or exhibit belongs to
type Side string

const (
	SidePlaintiff Side = "plaintiff"
	SideDefendant Side = "defendant"
)

// Opposing returns the other side of the courtroom
func (s Side) Opposing() Side {
	if s == SideDefendant {
		return SidePlaintiff
	}
	return SideDefendant
}

// ParseSide normalizes user input like "Plaintiff" or "defence"
func ParseSide(raw string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "plaintiff", "p":
		return SidePlaintiff, true
	case "defendant", "defense", "defence", "d":
		return SideDefendant, true
	}
	return "", false
}

// EvidenceType tags an exhibit with its kind
type EvidenceType string

const (
	EvidenceDocumentary      EvidenceType = "documentary"
	EvidenceElectronic       EvidenceType = "electronic"
	EvidenceExpert           EvidenceType = "expert"
	EvidencePhotographic     EvidenceType = "photographic"
	EvidenceAudioVisual      EvidenceType = "audio-visual"
	EvidenceForensic         EvidenceType = "forensic"
	EvidenceMedical          EvidenceType = "medical"
	EvidenceFinancial        EvidenceType = "financial"
	EvidenceProperty         EvidenceType = "property"
	EvidenceWitnessStatement EvidenceType = "witness-statement"
)

// EvidenceTypes lists every known evidence tag in display order
var EvidenceTypes = []EvidenceType{
	EvidenceDocumentary,
	EvidenceElectronic,
	EvidenceExpert,
	EvidencePhotographic,
	EvidenceAudioVisual,
	EvidenceForensic,
	EvidenceMedical,
	EvidenceFinancial,
	EvidenceProperty,
	EvidenceWitnessStatement,
}

// ParseEvidenceType accepts tags such as "Audio-Visual", "audio visual" or "Medical Reports"
func ParseEvidenceType(raw string) (EvidenceType, bool) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.ReplaceAll(norm, "_", "-")
	norm = strings.ReplaceAll(norm, " ", "-")
	for _, suffix := range []string{"-evidence", "-reports", "-records", "-documents", "-opinion"} {
		norm = strings.TrimSuffix(norm, suffix)
	}
	if norm == "witness-statements" {
		norm = string(EvidenceWitnessStatement)
	}
	for _, t := range EvidenceTypes {
		if string(t) == norm {
			return t, true
		}
	}
	return "", false
}

// Party describes the plaintiff or the defendant
type Party struct {
	Name string `json:"name" bson:"name"`
	Type string `json:"type,omitempty" bson:"type,omitempty"` // Individual, Company, Partnership, Trust
}

// Evidence represents a single exhibit defined at case creation
type Evidence struct {
	ID          string       `json:"id" bson:"id"`
	Title       string       `json:"title" bson:"title"`
	Type        EvidenceType `json:"type" bson:"type"`
	Description string       `json:"description" bson:"description"`
	SubmittedBy Side         `json:"submittedBy,omitempty" bson:"submittedBy,omitempty"`
}

// Witness represents a person who may be called to the stand
type Witness struct {
	Name        string   `json:"name" bson:"name"`
	Side        Side     `json:"side" bson:"side"`
	Background  string   `json:"background,omitempty" bson:"background,omitempty"`
	Testimony   string   `json:"testimony,omitempty" bson:"testimony,omitempty"`
	Credibility *float64 `json:"credibility,omitempty" bson:"credibility,omitempty"` // 0.0 - 1.0
}

// CredibilityScore returns the clamped credibility, or fallback when unset
func (w Witness) CredibilityScore(fallback float64) float64 {
	if w.Credibility == nil {
		return fallback
	}
	c := *w.Credibility
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// RoleProfile is the superficial persona of a judge or lawyer
type RoleProfile struct {
	Name           string `json:"name" bson:"name"`
	Experience     string `json:"experience" bson:"experience"`
	Specialization string `json:"specialization" bson:"specialization"`
}

// Case is the static record of the matter being tried. It is never mutated
// once a trial session starts.
type Case struct {
	ID              string      `json:"id" bson:"_id"`
	Title           string      `json:"title" bson:"title"`
	CaseType        string      `json:"caseType" bson:"caseType"`
	Description     string      `json:"description" bson:"description"`
	Facts           []string    `json:"facts,omitempty" bson:"facts,omitempty"`
	Plaintiff       Party       `json:"plaintiff" bson:"plaintiff"`
	Defendant       Party       `json:"defendant" bson:"defendant"`
	Evidence        []Evidence  `json:"evidence" bson:"evidence"`
	Witnesses       []Witness   `json:"witnesses" bson:"witnesses"`
	Judge           RoleProfile `json:"judge" bson:"judge"`
	PlaintiffLawyer RoleProfile `json:"plaintiffLawyer" bson:"plaintiffLawyer"`
	DefendantLawyer RoleProfile `json:"defendantLawyer" bson:"defendantLawyer"`
}

// CaseSummary is the listing view used for case selection
type CaseSummary struct {
	ID       string `json:"id" bson:"_id"`
	Title    string `json:"title" bson:"title"`
	CaseType string `json:"caseType" bson:"caseType"`
}

// Default personas used when a case does not configure its own
var (
	DefaultJudge           = RoleProfile{Name: "Justice Rao", Experience: "20 years", Specialization: "Civil Law"}
	DefaultPlaintiffLawyer = RoleProfile{Name: "Adv. Mehta", Experience: "15 years", Specialization: "Contracts"}
	DefaultDefendantLawyer = RoleProfile{Name: "Adv. Singh", Experience: "12 years", Specialization: "Contracts"}
)

// WithDefaults returns a copy with empty role profiles and witness sides filled in
func (c Case) WithDefaults() Case {
	if c.Judge.Name == "" {
		c.Judge = DefaultJudge
	}
	if c.PlaintiffLawyer.Name == "" {
		c.PlaintiffLawyer = DefaultPlaintiffLawyer
	}
	if c.DefendantLawyer.Name == "" {
		c.DefendantLawyer = DefaultDefendantLawyer
	}
	if len(c.Witnesses) > 0 {
		witnesses := make([]Witness, len(c.Witnesses))
		copy(witnesses, c.Witnesses)
		for i := range witnesses {
			if witnesses[i].Side == "" {
				witnesses[i].Side = SidePlaintiff
			}
		}
		c.Witnesses = witnesses
	}
	return c
}

// Normalized returns a copy with every witness and exhibit side in canonical
// form and defaults filled in. An unrecognised side is an error.
func (c Case) Normalized() (Case, error) {
	out := c.Clone()
	for i, w := range out.Witnesses {
		if w.Side == "" {
			continue
		}
		side, ok := ParseSide(string(w.Side))
		if !ok {
			return Case{}, fmt.Errorf("case %s witness %q: unknown side %q", c.ID, w.Name, w.Side)
		}
		out.Witnesses[i].Side = side
	}
	for i, e := range out.Evidence {
		if e.SubmittedBy == "" {
			continue
		}
		side, ok := ParseSide(string(e.SubmittedBy))
		if !ok {
			return Case{}, fmt.Errorf("case %s evidence %s: unknown side %q", c.ID, e.ID, e.SubmittedBy)
		}
		out.Evidence[i].SubmittedBy = side
	}
	return out.WithDefaults(), nil
}

// Clone returns a copy that shares no slices or pointers with c
func (c Case) Clone() Case {
	out := c
	if c.Facts != nil {
		out.Facts = append([]string(nil), c.Facts...)
	}
	if c.Evidence != nil {
		out.Evidence = append([]Evidence(nil), c.Evidence...)
	}
	if c.Witnesses != nil {
		out.Witnesses = make([]Witness, len(c.Witnesses))
		for i, w := range c.Witnesses {
			if w.Credibility != nil {
				credibility := *w.Credibility
				w.Credibility = &credibility
			}
			out.Witnesses[i] = w
		}
	}
	return out
}

// Profile returns the persona configured for a courtroom role
func (c Case) Profile(role Role) RoleProfile {
	switch role {
	case RoleJudge:
		return c.Judge
	case RolePlaintiffCounsel:
		return c.PlaintiffLawyer
	case RoleDefendantCounsel:
		return c.DefendantLawyer
	}
	return RoleProfile{}
}

// FindEvidence looks up an exhibit by id
func (c Case) FindEvidence(id string) (Evidence, bool) {
	for _, e := range c.Evidence {
		if e.ID == id {
			return e, true
		}
	}
	return Evidence{}, false
}
