package trial

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"courtsim/agents"
	"courtsim/models"
	"courtsim/services"

	"github.com/stretchr/testify/require"
)

// scripted answers every prompt with a numbered utterance and can fail on demand
type scripted struct {
	mu      sync.Mutex
	prompts []string
	fail    func(prompt string) error
}

func (g *scripted) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.fail != nil {
		if err := g.fail(prompt); err != nil {
			return "", err
		}
	}
	if strings.Contains(prompt, "rule on this objection") {
		return "Sustained.", nil
	}
	return fmt.Sprintf("utterance %d", len(g.prompts)), nil
}

func (g *scripted) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

var _ services.Generator = (*scripted)(nil)

func happyCase() *models.Case {
	c := models.Case{
		ID:          "CIV-1",
		Title:       "Sharma v. Kapoor",
		CaseType:    "Contract Dispute",
		Description: "late delivery of goods",
		Plaintiff:   models.Party{Name: "Sharma"},
		Defendant:   models.Party{Name: "Kapoor"},
		Evidence: []models.Evidence{
			{ID: "E1", Title: "Contract", Type: models.EvidenceDocumentary, Description: "signed agreement"},
			{ID: "E2", Title: "GPS log", Type: models.EvidenceElectronic},
		},
		Witnesses: []models.Witness{{Name: "Ravi", Side: models.SidePlaintiff, Background: "warehouse manager"}},
	}.WithDefaults()
	return &c
}

func newSession(t *testing.T, c *models.Case, gen services.Generator, opts Options) *Session {
	t.Helper()
	s, err := NewSession(c, agents.NewPanel(c, gen), opts)
	require.NoError(t, err)
	return s
}

// finishPhase lets agents take every pending turn of the current phase
func finishPhase(t *testing.T, s *Session) {
	t.Helper()
	for !s.PhaseComplete() {
		_, err := s.RequestNextTurn(context.Background())
		require.NoError(t, err)
	}
}

func advanceTo(t *testing.T, s *Session, phase models.Phase) {
	t.Helper()
	for s.GetState().Phase != phase {
		finishPhase(t, s)
		_, err := s.Advance()
		require.NoError(t, err)
	}
}

// presentedAt keeps only which exhibit was tendered, by whom and in which entry
func presentedAt(in []models.PresentedEvidence) []models.PresentedEvidence {
	out := make([]models.PresentedEvidence, len(in))
	for i, p := range in {
		out[i] = models.PresentedEvidence{EvidenceID: p.EvidenceID, Side: p.Side, Seq: p.Seq}
	}
	return out
}
