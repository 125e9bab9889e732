package models

// Role is one of the canonical speakers in the courtroom
type Role string

const (
	RoleJudge            Role = "judge"
	RolePlaintiffCounsel Role = "plaintiff_counsel"
	RoleDefendantCounsel Role = "defendant_counsel"
	RoleWitness          Role = "witness"
	RoleSystem           Role = "system"
)

// Label is the speaker label shown in the transcript
func (r Role) Label() string {
	switch r {
	case RoleJudge:
		return "Judge"
	case RolePlaintiffCounsel:
		return "Plaintiff Lawyer"
	case RoleDefendantCounsel:
		return "Defendant Lawyer"
	case RoleWitness:
		return "Witness"
	case RoleSystem:
		return "System"
	}
	return string(r)
}

// IsCounsel reports whether the role is one of the two lawyers
func (r Role) IsCounsel() bool {
	return r == RolePlaintiffCounsel || r == RoleDefendantCounsel
}

// Side returns the side a counsel role represents
func (r Role) Side() Side {
	if r == RoleDefendantCounsel {
		return SideDefendant
	}
	return SidePlaintiff
}

// CounselFor returns the counsel role representing side
func CounselFor(side Side) Role {
	if side == SideDefendant {
		return RoleDefendantCounsel
	}
	return RolePlaintiffCounsel
}

// ParseRole accepts both role ids and transcript labels
func ParseRole(raw string) (Role, bool) {
	for _, r := range []Role{RoleJudge, RolePlaintiffCounsel, RoleDefendantCounsel, RoleWitness, RoleSystem} {
		if raw == string(r) || raw == r.Label() {
			return r, true
		}
	}
	return "", false
}
