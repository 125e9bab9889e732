package tui

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"courtsim/agents"
	"courtsim/cases"
	"courtsim/models"
	"courtsim/services"
	"courtsim/trial"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, gen services.Generator) Model {
	t.Helper()
	c, err := cases.NewJSONStore("../../data/cases.json").Load(context.Background(), "CIV-1003")
	require.NoError(t, err)
	s, err := trial.NewSession(c, agents.NewPanel(c, gen), trial.Options{})
	require.NoError(t, err)
	m := New(context.Background(), &trial.Autoplay{Session: s})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func counting() services.Generator {
	var n atomic.Int64
	return services.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return fmt.Sprintf("line %d", n.Add(1)), nil
	})
}

func TestStepAndUndo(t *testing.T) {
	m := newTestModel(t, counting())
	assert.Contains(t, m.View(), "Opening Statements")

	updated, cmd := m.Update(key('n'))
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.inflight)

	updated, _ = m.Update(m.stepCmd()())
	m = updated.(Model)
	assert.False(t, m.inflight)
	require.Len(t, m.state.Transcript, 1)
	assert.Equal(t, models.RolePlaintiffCounsel, m.state.Transcript[0].Speaker)
	assert.Contains(t, m.View(), "line 1")

	updated, _ = m.Update(key('u'))
	m = updated.(Model)
	assert.Empty(t, m.state.Transcript)
	assert.NoError(t, m.lastErr)
}

func TestRunsToCompletion(t *testing.T) {
	m := newTestModel(t, counting())
	for i := 0; i < 100 && !m.done; i++ {
		updated, _ := m.Update(m.stepCmd()())
		m = updated.(Model)
		require.NoError(t, m.lastErr)
	}
	assert.True(t, m.done)
	assert.Equal(t, models.PhaseCompleted, m.state.Phase)
	assert.Contains(t, m.View(), "trial completed")

	updated, _ := m.Update(key('n'))
	assert.False(t, updated.(Model).inflight)
}

func TestFailureStopsAutoRun(t *testing.T) {
	gen := services.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("offline")
	})
	m := newTestModel(t, gen)
	m.autoRun = true

	updated, _ := m.Update(m.stepCmd()())
	m = updated.(Model)
	assert.False(t, m.autoRun)
	assert.Error(t, m.lastErr)
	assert.Empty(t, m.state.Transcript)
	assert.Contains(t, m.View(), "offline")
}
