package trialevents

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStream is an in-memory stand-in for one Redis stream
type memStream struct {
	mu    sync.Mutex
	msgs  []redis.XMessage
	tails atomic.Int32
}

func (m *memStream) add(t *testing.T, eventType string) {
	t.Helper()
	raw, err := MarshalEvent(&Event{Type: eventType, Payload: []byte(`{}`)})
	require.NoError(t, err)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, redis.XMessage{ID: fmt.Sprintf("%d-0", len(m.msgs)+1), Values: map[string]interface{}{"data": raw}})
}

func (m *memStream) XRevRangeN(_ context.Context, _, _, _ string, _ int64) *redis.XMessageSliceCmd {
	defer m.tails.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.msgs) == 0 {
		return redis.NewXMessageSliceCmdResult(nil, nil)
	}
	return redis.NewXMessageSliceCmdResult([]redis.XMessage{m.msgs[len(m.msgs)-1]}, nil)
}

func (m *memStream) XRead(ctx context.Context, a *redis.XReadArgs) *redis.XStreamSliceCmd {
	var after int
	fmt.Sscanf(a.Streams[1], "%d-0", &after)

	m.mu.Lock()
	var out []redis.XMessage
	if after < len(m.msgs) {
		out = append(out, m.msgs[after:]...)
	}
	m.mu.Unlock()

	if len(out) == 0 {
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Millisecond):
		}
		return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
	}
	return redis.NewXStreamSliceCmdResult([]redis.XStream{{Stream: a.Streams[0], Messages: out}}, nil)
}

type recordingHub struct {
	mu    sync.Mutex
	types []string
}

func (h *recordingHub) BroadcastToSession(_ string, event *Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.types = append(h.types, event.Type)
}

func (h *recordingHub) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.types...)
}

func TestStreamConsumersOnEveryInstanceSeeEveryEvent(t *testing.T) {
	stream := &memStream{}
	stream.add(t, TypePhase)

	hubA, hubB := &recordingHub{}, &recordingHub{}
	instanceA := newStreamConsumer(stream, hubA, zap.NewNop().Sugar())
	instanceB := newStreamConsumer(stream, hubB, zap.NewNop().Sugar())

	releaseA := instanceA.Follow("s1")
	defer releaseA()
	releaseB := instanceB.Follow("s1")
	defer releaseB()
	require.Eventually(t, func() bool { return stream.tails.Load() == 2 }, time.Second, time.Millisecond)

	stream.add(t, TypeTranscript)
	stream.add(t, TypeTranscript)
	stream.add(t, TypeEnded)

	want := []string{TypeTranscript, TypeTranscript, TypeEnded}
	require.Eventually(t, func() bool { return len(hubA.seen()) == 3 && len(hubB.seen()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, want, hubA.seen(), "events from before the observer joined are not replayed")
	assert.Equal(t, want, hubB.seen())
}

func TestStreamConsumerSharesOneReaderPerSession(t *testing.T) {
	stream := &memStream{}
	hub := &recordingHub{}
	sc := newStreamConsumer(stream, hub, zap.NewNop().Sugar())

	first := sc.Follow("s1")
	second := sc.Follow("s1")
	assert.Equal(t, 2, sc.Following("s1"))

	sc.mu.Lock()
	done := sc.followers["s1"].done
	sc.mu.Unlock()

	require.Eventually(t, func() bool { return stream.tails.Load() == 1 }, time.Second, time.Millisecond)
	stream.add(t, TypeEnded)
	require.Eventually(t, func() bool { return len(hub.seen()) == 1 }, time.Second, 5*time.Millisecond)

	first()
	first()
	assert.Equal(t, 1, sc.Following("s1"))

	second()
	assert.Equal(t, 0, sc.Following("s1"))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reader still running after the last observer left")
	}
	assert.Equal(t, []string{TypeEnded}, hub.seen())
	assert.EqualValues(t, 1, stream.tails.Load())
}
