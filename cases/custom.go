package cases

import (
	"fmt"
	"strings"

	"courtsim/models"

	"github.com/google/uuid"
)

// CustomCaseFields are the raw inputs of a user-authored case.
//
// Witness lines look like "[defendant] Ravi Kumar: delivery supervisor" and
// evidence lines like "[Electronic] Email thread: messages about the delay".
// The bracketed tag is optional on both.
type CustomCaseFields struct {
	Title         string `json:"title"`
	CaseType      string `json:"caseType"`
	Description   string `json:"description"`
	Plaintiff     string `json:"plaintiff"`
	Defendant     string `json:"defendant"`
	WitnessLines  string `json:"witnesses"`
	EvidenceLines string `json:"evidence"`
}

const lineSeparator = ":"

// ValidateCustomCase builds a Case from user fields or reports every problem.
// No Case is returned when any field is blank or malformed.
func ValidateCustomCase(fields CustomCaseFields) (*models.Case, error) {
	verr := &ValidationError{}

	required := []struct {
		name  string
		value string
	}{
		{"title", fields.Title},
		{"plaintiff", fields.Plaintiff},
		{"defendant", fields.Defendant},
		{"description", fields.Description},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			verr.add(r.name, 0, "is required")
		}
	}

	witnesses := parseWitnessLines(fields.WitnessLines, verr)
	evidence := parseEvidenceLines(fields.EvidenceLines, verr)

	if len(verr.Problems) > 0 {
		return nil, verr
	}

	caseType := strings.TrimSpace(fields.CaseType)
	if caseType == "" {
		caseType = "Civil"
	}
	c := models.Case{
		ID:          "CUSTOM-" + strings.ToUpper(uuid.NewString()[:8]),
		Title:       strings.TrimSpace(fields.Title),
		CaseType:    caseType,
		Description: strings.TrimSpace(fields.Description),
		Plaintiff:   models.Party{Name: strings.TrimSpace(fields.Plaintiff)},
		Defendant:   models.Party{Name: strings.TrimSpace(fields.Defendant)},
		Witnesses:   witnesses,
		Evidence:    evidence,
	}.WithDefaults()
	return &c, nil
}

// splitTag peels an optional leading "[tag]" off a line
func splitTag(line string) (tag, rest string, ok bool) {
	if !strings.HasPrefix(line, "[") {
		return "", line, true
	}
	end := strings.Index(line, "]")
	if end < 0 {
		return "", line, false
	}
	return strings.TrimSpace(line[1:end]), strings.TrimSpace(line[end+1:]), true
}

type numberedLine struct {
	n    int
	text string
}

func nonEmptyLines(raw string) []numberedLine {
	var out []numberedLine
	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, numberedLine{n: i + 1, text: line})
	}
	return out
}

func parseWitnessLines(raw string, verr *ValidationError) []models.Witness {
	var out []models.Witness
	for _, l := range nonEmptyLines(raw) {
		tag, rest, ok := splitTag(l.text)
		if !ok {
			verr.add("witnesses", l.n, "unterminated [side] tag")
			continue
		}
		side := models.SidePlaintiff
		if tag != "" {
			parsed, ok := models.ParseSide(tag)
			if !ok {
				verr.add("witnesses", l.n, fmt.Sprintf("unknown side %q", tag))
				continue
			}
			side = parsed
		}
		name, background, found := strings.Cut(rest, lineSeparator)
		if !found {
			verr.add("witnesses", l.n, "missing name/role separator \":\"")
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			verr.add("witnesses", l.n, "witness name is blank")
			continue
		}
		out = append(out, models.Witness{
			Name:       name,
			Side:       side,
			Background: strings.TrimSpace(background),
		})
	}
	return out
}

func parseEvidenceLines(raw string, verr *ValidationError) []models.Evidence {
	var out []models.Evidence
	for _, l := range nonEmptyLines(raw) {
		tag, rest, ok := splitTag(l.text)
		if !ok {
			verr.add("evidence", l.n, "unterminated [type] tag")
			continue
		}
		typ := models.EvidenceDocumentary
		if tag != "" {
			parsed, ok := models.ParseEvidenceType(tag)
			if !ok {
				verr.add("evidence", l.n, fmt.Sprintf("unknown evidence type %q", tag))
				continue
			}
			typ = parsed
		}
		title, desc, found := strings.Cut(rest, lineSeparator)
		if !found {
			verr.add("evidence", l.n, "missing title/description separator \":\"")
			continue
		}
		title = strings.TrimSpace(title)
		if title == "" {
			verr.add("evidence", l.n, "evidence title is blank")
			continue
		}
		out = append(out, models.Evidence{
			ID:          fmt.Sprintf("E%d", len(out)+1),
			Title:       title,
			Type:        typ,
			Description: strings.TrimSpace(desc),
		})
	}
	return out
}
