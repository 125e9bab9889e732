package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"courtsim/models"
	"courtsim/services"
	"courtsim/services/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testCase() *models.Case {
	c := models.Case{
		ID:          "CIV-1",
		Title:       "Sharma v. Kapoor",
		CaseType:    "Contract Dispute",
		Description: "late delivery",
		Plaintiff:   models.Party{Name: "Sharma", Type: "Individual"},
		Defendant:   models.Party{Name: "Kapoor"},
		Evidence:    []models.Evidence{{ID: "E1", Title: "Contract", Type: models.EvidenceDocumentary}},
		Witnesses:   []models.Witness{{Name: "Ravi", Side: models.SidePlaintiff, Background: "manager"}},
	}.WithDefaults()
	return &c
}

func TestAgentOpeningUsesPersona(t *testing.T) {
	gen := mocks.NewGenerator(t)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Adv. Mehta") && strings.Contains(p, "Sharma v. Kapoor") && strings.Contains(p, "opening statement")
	})).Return("May it please the court.", nil).Once()

	panel := NewPanel(testCase(), gen)
	out, err := panel.Plaintiff.GenerateOpening(context.Background(), Situation{Case: testCase(), Phase: models.PhaseOpening})

	require.NoError(t, err)
	assert.Equal(t, "May it please the court.", out)
}

func TestAgentPromptsAreDeterministic(t *testing.T) {
	var prompts []string
	gen := services.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return "ok", nil
	})
	a := New(models.RoleDefendantCounsel, models.DefaultDefendantLawyer, gen)
	s := Situation{Case: testCase(), Witness: &testCase().Witnesses[0], Cross: true}

	_, err := a.GenerateQuestion(context.Background(), s)
	require.NoError(t, err)
	_, err = a.GenerateQuestion(context.Background(), s)
	require.NoError(t, err)

	require.Len(t, prompts, 2)
	assert.Equal(t, prompts[0], prompts[1])
	assert.Contains(t, prompts[0], "cross-examination")
	assert.Contains(t, prompts[0], "Ravi")
}

func TestAgentWrapsGeneratorFailure(t *testing.T) {
	gen := mocks.NewGenerator(t)
	boom := errors.New("quota exceeded")
	gen.On("Generate", mock.Anything, mock.Anything).Return("", boom).Once()

	judge := New(models.RoleJudge, models.DefaultJudge, gen)
	_, err := judge.RuleOnObjection(context.Background(), "Objection, hearsay.", Situation{})

	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, models.RoleJudge, gerr.Role)
	assert.Equal(t, ActionRuling, gerr.Action)
	assert.ErrorIs(t, err, boom)
	assert.False(t, gerr.Timeout())
}

func TestAgentEmptyTextIsAFailure(t *testing.T) {
	gen := mocks.NewGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", nil).Once()

	w := New(models.RoleWitness, models.RoleProfile{}, gen)
	_, err := w.GenerateTestimony(context.Background(), "Where were you?", Situation{})

	assert.ErrorIs(t, err, services.ErrEmptyResponse)
}

func TestAgentTimeout(t *testing.T) {
	gen := services.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := New(models.RoleJudge, models.DefaultJudge, gen).GiveJudgment(ctx, Situation{Case: testCase()})

	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.True(t, gerr.Timeout())
}

func TestAgentRejectsForeignActions(t *testing.T) {
	gen := mocks.NewGenerator(t)
	witness := New(models.RoleWitness, models.RoleProfile{}, gen)
	counsel := New(models.RolePlaintiffCounsel, models.DefaultPlaintiffLawyer, gen)

	_, err := witness.GenerateOpening(context.Background(), Situation{})
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = counsel.RuleOnObjection(context.Background(), "x", Situation{})
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = counsel.GiveJudgment(context.Background(), Situation{})
	assert.ErrorIs(t, err, ErrUnsupported)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestFallbackUtterance(t *testing.T) {
	err := &GenerationError{Role: models.RolePlaintiffCounsel, Action: ActionOpening, Err: errors.New("timeout")}
	assert.Equal(t,
		"[Generation Error: timeout] Plaintiff Lawyer opening statement could not be generated.",
		FallbackUtterance(models.RolePlaintiffCounsel, ActionOpening, err))
}

func TestPanelFor(t *testing.T) {
	panel := NewPanel(testCase(), nil)
	assert.Equal(t, models.RoleJudge, panel.For(models.RoleJudge).Role())
	assert.Equal(t, "Justice Rao", panel.For(models.RoleJudge).Profile().Name)
	assert.Equal(t, models.RoleWitness, panel.For(models.RoleWitness).Role())
	assert.Nil(t, panel.For(models.RoleSystem))

	_, err := panel.Judge.GiveJudgment(context.Background(), Situation{})
	var gerr *GenerationError
	assert.True(t, errors.As(err, &gerr))
}

func TestFormatTranscript(t *testing.T) {
	out := FormatTranscript([]models.TranscriptEntry{
		{Speaker: models.RoleWitness, Label: "Witness", Witness: "Ravi", Phase: models.PhaseExaminationInChief, Content: "Yes."},
	})
	assert.Equal(t, "Witness (Ravi) [Examination-in-Chief]: Yes.\n", out)
	assert.Equal(t, "(nothing has been said yet)", FormatTranscript(nil))
}
