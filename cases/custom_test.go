package cases

import (
	"errors"
	"strings"
	"testing"

	"courtsim/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() CustomCaseFields {
	return CustomCaseFields{
		Title:       "Das v. Bright",
		CaseType:    "Consumer Protection",
		Description: "defective refrigerator",
		Plaintiff:   "Anita Das",
		Defendant:   "Bright Appliances",
		WitnessLines: strings.Join([]string{
			"Sanjay Menon: technician",
			"",
			"[defendant] Priya Bose: store manager",
		}, "\n"),
		EvidenceLines: strings.Join([]string{
			"Invoice: purchase invoice",
			"[Electronic] Emails: complaint thread",
		}, "\n"),
	}
}

func TestValidateCustomCase(t *testing.T) {
	c, err := ValidateCustomCase(validFields())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(c.ID, "CUSTOM-"))
	assert.Equal(t, "Anita Das", c.Plaintiff.Name)

	require.Len(t, c.Witnesses, 2)
	assert.Equal(t, models.Witness{Name: "Sanjay Menon", Side: models.SidePlaintiff, Background: "technician"}, c.Witnesses[0])
	assert.Equal(t, models.SideDefendant, c.Witnesses[1].Side)

	require.Len(t, c.Evidence, 2)
	assert.Equal(t, "E1", c.Evidence[0].ID)
	assert.Equal(t, models.EvidenceDocumentary, c.Evidence[0].Type)
	assert.Equal(t, models.EvidenceElectronic, c.Evidence[1].Type)
	assert.Equal(t, "complaint thread", c.Evidence[1].Description)

	assert.Equal(t, models.DefaultPlaintiffLawyer, c.PlaintiffLawyer)
}

func TestValidateCustomCaseDefaultsCaseType(t *testing.T) {
	f := validFields()
	f.CaseType = "  "
	c, err := ValidateCustomCase(f)
	require.NoError(t, err)
	assert.Equal(t, "Civil", c.CaseType)
}

func TestValidateCustomCaseAllowsNoWitnessesOrEvidence(t *testing.T) {
	f := validFields()
	f.WitnessLines = ""
	f.EvidenceLines = "\n\n"
	c, err := ValidateCustomCase(f)
	require.NoError(t, err)
	assert.Empty(t, c.Witnesses)
	assert.Empty(t, c.Evidence)
}

func TestValidateCustomCaseReportsEveryProblem(t *testing.T) {
	f := CustomCaseFields{
		Title:         "",
		Description:   "x",
		Plaintiff:     " ",
		Defendant:     "B",
		WitnessLines:  "Ravi Kumar the manager\n[judge] Meera: clerk\n : nameless",
		EvidenceLines: "[Hearsay] Rumour: something\nNo separator here\n[Electronic Emails: broken",
	}

	c, err := ValidateCustomCase(f)
	assert.Nil(t, c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCase))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"title", "plaintiff", "witnesses", "evidence"}, verr.Fields())
	assert.Len(t, verr.Problems, 8)

	assert.Contains(t, err.Error(), "witnesses line 1: missing name/role separator")
	assert.Contains(t, err.Error(), `witnesses line 2: unknown side "judge"`)
	assert.Contains(t, err.Error(), "witnesses line 3: witness name is blank")
	assert.Contains(t, err.Error(), `evidence line 1: unknown evidence type "Hearsay"`)
	assert.Contains(t, err.Error(), "evidence line 2: missing title/description separator")
	assert.Contains(t, err.Error(), "evidence line 3: unterminated [type] tag")
}
