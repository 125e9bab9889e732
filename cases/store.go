package cases

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"courtsim/models"
)

// Store supplies read-only case records
type Store interface {
	Load(ctx context.Context, id string) (*models.Case, error)
	List(ctx context.Context) ([]models.CaseSummary, error)
}

type catalogFile struct {
	Cases []catalogCase `json:"cases"`
}

type catalogCase struct {
	CaseID      string   `json:"case_id"`
	Title       string   `json:"title"`
	CaseType    string   `json:"case_type"`
	Description string   `json:"description"`
	Facts       []string `json:"facts"`
	Parties     struct {
		Plaintiff models.Party `json:"plaintiff"`
		Defendant models.Party `json:"defendant"`
	} `json:"parties"`
	Evidence        []catalogEvidence   `json:"evidence"`
	Witnesses       []models.Witness    `json:"witnesses"`
	JudgeData       *models.RoleProfile `json:"judge_data"`
	PlaintiffLawyer *models.RoleProfile `json:"plaintiff_lawyer_data"`
	DefendantLawyer *models.RoleProfile `json:"defendant_lawyer_data"`
}

type catalogEvidence struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	SubmittedBy string `json:"submitted_by"`
}

func (c catalogCase) toModel() (models.Case, error) {
	out := models.Case{
		ID:          c.CaseID,
		Title:       c.Title,
		CaseType:    c.CaseType,
		Description: c.Description,
		Facts:       c.Facts,
		Plaintiff:   c.Parties.Plaintiff,
		Defendant:   c.Parties.Defendant,
		Witnesses:   c.Witnesses,
	}
	for i, e := range c.Evidence {
		typ := models.EvidenceDocumentary
		if e.Type != "" {
			parsed, ok := models.ParseEvidenceType(e.Type)
			if !ok {
				return models.Case{}, fmt.Errorf("case %s evidence %d: unknown type %q", c.CaseID, i+1, e.Type)
			}
			typ = parsed
		}
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("E%d", i+1)
		}
		out.Evidence = append(out.Evidence, models.Evidence{
			ID:          id,
			Title:       e.Title,
			Type:        typ,
			Description: e.Description,
			SubmittedBy: models.Side(e.SubmittedBy),
		})
	}
	if c.JudgeData != nil {
		out.Judge = *c.JudgeData
	}
	if c.PlaintiffLawyer != nil {
		out.PlaintiffLawyer = *c.PlaintiffLawyer
	}
	if c.DefendantLawyer != nil {
		out.DefendantLawyer = *c.DefendantLawyer
	}
	return out.Normalized()
}

// JSONStore serves cases from a static catalog file, read once on first use
type JSONStore struct {
	path string

	once  sync.Once
	cases []models.Case
	err   error
}

// NewJSONStore returns a store over a {"cases": [...]} catalog file
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.err = fmt.Errorf("failed to read case catalog: %w", err)
		return
	}
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		s.err = fmt.Errorf("failed to parse case catalog: %w", err)
		return
	}
	for _, raw := range file.Cases {
		c, err := raw.toModel()
		if err != nil {
			s.err = err
			return
		}
		s.cases = append(s.cases, c)
	}
}

// Load returns a copy of the case with the given id
func (s *JSONStore) Load(ctx context.Context, id string) (*models.Case, error) {
	s.once.Do(s.load)
	if s.err != nil {
		return nil, s.err
	}
	for _, c := range s.cases {
		if c.ID == id {
			found := c.Clone()
			return &found, nil
		}
	}
	return nil, &NotFoundError{ID: id}
}

// List returns every case in catalog order
func (s *JSONStore) List(ctx context.Context) ([]models.CaseSummary, error) {
	s.once.Do(s.load)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.CaseSummary, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, models.CaseSummary{ID: c.ID, Title: c.Title, CaseType: c.CaseType})
	}
	return out, nil
}

// All returns full records, used when seeding other stores
func (s *JSONStore) All(ctx context.Context) ([]models.Case, error) {
	s.once.Do(s.load)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.Case, len(s.cases))
	for i, c := range s.cases {
		out[i] = c.Clone()
	}
	return out, nil
}
