package voice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"courtsim/internal/trialevents"
	"courtsim/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSpeaker struct {
	mu    sync.Mutex
	texts []string
	block chan struct{}
	err   error
}

func (r *recordingSpeaker) Speak(_ context.Context, text string, _ models.Role, _ string) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return r.err
}

func (r *recordingSpeaker) spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func TestAsyncPlaysInOrder(t *testing.T) {
	rec := &recordingSpeaker{}
	a := NewAsync(rec, 4, nil)

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, a.Speak(context.Background(), text, models.RoleJudge, "en"))
	}
	a.Close()

	assert.Equal(t, []string{"one", "two", "three"}, rec.spoken())
	assert.ErrorIs(t, a.Speak(context.Background(), "late", models.RoleJudge, "en"), ErrClosed)
}

func TestAsyncDropsWhenFull(t *testing.T) {
	rec := &recordingSpeaker{block: make(chan struct{})}
	a := NewAsync(rec, 1, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, a.Speak(context.Background(), "x", models.RoleWitness, "en"))
	}
	close(rec.block)
	a.Close()

	assert.Equal(t, int64(5), a.Dropped()+int64(len(rec.spoken())))
	assert.GreaterOrEqual(t, a.Dropped(), int64(3))
}

func TestAsyncSpeakRacingClose(t *testing.T) {
	a := NewAsync(&recordingSpeaker{}, 8, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				err := a.Speak(context.Background(), "x", models.RoleJudge, "en")
				if err != nil {
					assert.ErrorIs(t, err, ErrClosed)
					return
				}
			}
		}()
	}
	a.Close()
	wg.Wait()
	a.Close()

	assert.ErrorIs(t, a.Speak(context.Background(), "late", models.RoleJudge, "en"), ErrClosed)
}

func TestAsyncCountsFailures(t *testing.T) {
	rec := &recordingSpeaker{err: errors.New("no audio device")}
	a := NewAsync(rec, 2, zap.NewNop().Sugar())
	require.NoError(t, a.Speak(context.Background(), "x", models.RoleJudge, "hi"))
	a.Close()
	assert.Equal(t, int64(1), a.Failed())
}

type fakeModel struct {
	text string
	err  error
}

func (f fakeModel) TranscribeAudio(context.Context, string, []byte) (string, error) {
	return f.text, f.err
}

func TestModelTranscriber(t *testing.T) {
	text, ok := ModelTranscriber{Model: fakeModel{text: " Objection! "}}.Transcribe(context.Background(), Clip{Data: []byte{1}})
	assert.True(t, ok)
	assert.Equal(t, "Objection!", text)

	_, ok = ModelTranscriber{Model: fakeModel{err: errors.New("bad audio")}, Log: zap.NewNop().Sugar()}.Transcribe(context.Background(), Clip{Data: []byte{1}})
	assert.False(t, ok)

	_, ok = ModelTranscriber{Model: fakeModel{text: "ignored"}}.Transcribe(context.Background(), Clip{})
	assert.False(t, ok)
}

func TestNarrateSpeaksTranscriptEvents(t *testing.T) {
	events := make(chan *trialevents.Event, 3)
	entry, err := trialevents.NewEvent(trialevents.TypeTranscript, models.TranscriptEntry{Speaker: models.RoleJudge, Content: "Order!"})
	require.NoError(t, err)
	phase, err := trialevents.NewEvent(trialevents.TypePhase, trialevents.PhasePayload{From: "a", To: "b"})
	require.NoError(t, err)
	events <- phase
	events <- entry
	close(events)

	rec := &recordingSpeaker{}
	Narrate(context.Background(), events, rec, "en")
	assert.Equal(t, []string{"Order!"}, rec.spoken())
}

func TestLogSpeaker(t *testing.T) {
	assert.NoError(t, LogSpeaker{Log: zap.NewNop().Sugar()}.Speak(context.Background(), "hello", models.RoleJudge, "en"))
}
