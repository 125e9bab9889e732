package trial

import (
	"context"
	"errors"
	"strings"
	"testing"

	"courtsim/agents"
	"courtsim/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoplayRetriesGenerationFailures(t *testing.T) {
	failures := 2
	gen := &scripted{fail: func(prompt string) error {
		if strings.Contains(prompt, "opening statement") && failures > 0 {
			failures--
			return errors.New("flaky")
		}
		return nil
	}}
	s := newSession(t, happyCase(), gen, Options{})

	entry, err := (&Autoplay{Session: s, Retries: 2}).Step(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.RolePlaintiffCounsel, entry.Speaker)
	assert.False(t, entry.Fallback)
}

func TestAutoplayGivesUpAfterRetries(t *testing.T) {
	gen := &scripted{fail: func(string) error { return errors.New("down") }}
	s := newSession(t, happyCase(), gen, Options{})

	err := (&Autoplay{Session: s, Retries: 1}).Run(context.Background(), nil)

	var gerr *agents.GenerationError
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, 2, gen.calls())
	assert.Empty(t, s.GetState().Transcript)
}

func TestAutoplayStepAdvancesCompletedPhase(t *testing.T) {
	s := newSession(t, happyCase(), &scripted{}, Options{})
	finishPhase(t, s)

	entry, err := (&Autoplay{Session: s}).Step(context.Background())
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Equal(t, models.PhaseExaminationInChief, s.GetState().Phase)
}

func TestAutoplayHonoursCancellation(t *testing.T) {
	s := newSession(t, happyCase(), &scripted{}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := (&Autoplay{Session: s, Delay: 1}).Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
