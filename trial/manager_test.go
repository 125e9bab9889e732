package trial

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"courtsim/cases"
	"courtsim/internal/trialevents"
	"courtsim/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newManager(t *testing.T, ttl time.Duration, clock *fakeClock, events trialevents.Publisher) *Manager {
	t.Helper()
	store := cases.NewOverlay(nil)
	store.Add(*happyCase())
	return NewManager(store, &scripted{}, Options{Now: clock.Now, Events: events}, ttl)
}

func TestManagerLifecycle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	m := newManager(t, time.Hour, clock, nil)

	s, err := m.Start(context.Background(), StartRequest{CaseID: "CIV-1", Ordering: "collapsed", Policy: "fallback"})
	require.NoError(t, err)
	assert.Len(t, s.ID(), 36)
	assert.Equal(t, CollapsedOrdering.Name, s.Ordering().Name)
	assert.Equal(t, PolicyFallback, s.Policy())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = s.RecordTurn(models.RolePlaintiffCounsel, "opening")
	require.NoError(t, err)

	restarted, err := m.Restart(context.Background(), s.ID())
	require.NoError(t, err)
	assert.Equal(t, s.ID(), restarted.ID())
	assert.NotSame(t, s, restarted)
	assert.Empty(t, restarted.GetState().Transcript)
	assert.Equal(t, CollapsedOrdering.Name, restarted.Ordering().Name)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.End(s.ID()))
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.End(s.ID()), ErrSessionNotFound)
}

func TestManagerStartErrors(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newManager(t, 0, clock, nil)

	_, err := m.Start(context.Background(), StartRequest{CaseID: "missing"})
	assert.ErrorIs(t, err, cases.ErrNotFound)
	_, err = m.Start(context.Background(), StartRequest{CaseID: "CIV-1", Ordering: "sideways"})
	assert.Error(t, err)
	_, err = m.Start(context.Background(), StartRequest{CaseID: "CIV-1", Policy: "shrug"})
	assert.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestManagerSweepEndsIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	hub := trialevents.NewHub()
	m := newManager(t, 30*time.Minute, clock, hub)

	idle, err := m.Start(context.Background(), StartRequest{CaseID: "CIV-1"})
	require.NoError(t, err)
	ended, cancel := hub.Subscribe(idle.ID())
	defer cancel()

	clock.Add(20 * time.Minute)
	busy, err := m.Start(context.Background(), StartRequest{CaseID: "CIV-1"})
	require.NoError(t, err)

	clock.Add(15 * time.Minute)
	_, err = busy.RecordTurn(models.RolePlaintiffCounsel, "still here")
	require.NoError(t, err)

	assert.Equal(t, 1, m.Sweep())
	_, err = m.Get(idle.ID())
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	_, err = m.Get(busy.ID())
	assert.NoError(t, err)
	assert.Equal(t, trialevents.TypeEnded, (<-ended).Type)
}

func TestManagerSweeperSchedule(t *testing.T) {
	m := newManager(t, time.Minute, &fakeClock{now: time.Now()}, nil)
	assert.Error(t, m.StartSweeper("not a schedule"))
	require.NoError(t, m.StartSweeper("@every 1h"))
	m.Stop()
	m.Stop()

	disabled := newManager(t, 0, &fakeClock{now: time.Now()}, nil)
	assert.NoError(t, disabled.StartSweeper("not a schedule"))
	assert.Equal(t, 0, disabled.Sweep())
}
