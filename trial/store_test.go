package trial

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySnapshotStore(t *testing.T) {
	store := NewMemorySnapshotStore()
	s := newSession(t, happyCase(), &scripted{}, Options{})
	finishPhase(t, s)

	_, err := store.Load(context.Background(), s.ID())
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	snap := s.Snapshot()
	require.NoError(t, store.Save(context.Background(), s.ID(), snap))
	snap.Transcript[0].Content = "mutated after save"

	loaded, err := store.Load(context.Background(), s.ID())
	require.NoError(t, err)
	assert.NotEqual(t, "mutated after save", loaded.Transcript[0].Content)

	loaded.Transcript[0].Content = "mutated after load"
	again, err := store.Load(context.Background(), s.ID())
	require.NoError(t, err)
	assert.NotEqual(t, "mutated after load", again.Transcript[0].Content)

	_, err = s.Advance()
	require.NoError(t, err)
	require.NoError(t, s.Restore(again))
	assert.Len(t, s.GetState().Transcript, 2)
}
