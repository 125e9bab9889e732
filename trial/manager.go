package trial

import (
	"context"
	"fmt"
	"sync"
	"time"

	"courtsim/agents"
	"courtsim/cases"
	"courtsim/internal/trialevents"
	"courtsim/services"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartRequest selects the case and per-session settings of a new trial.
// Empty fields take the manager's defaults.
type StartRequest struct {
	CaseID   string `json:"caseId" binding:"required"`
	Ordering string `json:"ordering"`
	Policy   string `json:"failurePolicy"`
}

// Manager owns live sessions by id and ends the ones left idle
type Manager struct {
	cases     cases.Store
	generator services.Generator
	defaults  Options
	idleTTL   time.Duration
	log       *zap.SugaredLogger

	mu       sync.RWMutex
	sessions map[string]*Session
	cron     *cron.Cron
}

// NewManager builds a manager. defaults supplies every session's options;
// idleTTL <= 0 disables the idle sweep.
func NewManager(store cases.Store, generator services.Generator, defaults Options, idleTTL time.Duration) *Manager {
	log := defaults.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if defaults.Now == nil {
		defaults.Now = time.Now
	}
	return &Manager{
		cases:     store,
		generator: generator,
		defaults:  defaults,
		idleTTL:   idleTTL,
		log:       log,
		sessions:  make(map[string]*Session),
	}
}

// Start loads the case and opens a new session for it
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Session, error) {
	return m.open(ctx, uuid.NewString(), req)
}

func (m *Manager) open(ctx context.Context, id string, req StartRequest) (*Session, error) {
	c, err := m.cases.Load(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}
	opts := m.defaults
	opts.ID = id
	if req.Ordering != "" {
		if opts.Ordering, err = OrderingByName(req.Ordering); err != nil {
			return nil, err
		}
	}
	if req.Policy != "" {
		if opts.Policy, err = ParseFailurePolicy(req.Policy); err != nil {
			return nil, err
		}
	}
	s, err := NewSession(c, agents.NewPanel(c, m.generator), opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	m.log.Infow("session started", "session", s.ID(), "case", c.ID, "ordering", s.Ordering().Name, "policy", s.Policy())
	return s, nil
}

// Get returns a live session
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// End abandons a session and discards its state
func (m *Manager) End(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	m.log.Infow("session ended", "session", id)
	m.notifyEnded(id, "ended")
	return nil
}

// Restart replaces a session with a fresh one for the same case, keeping its id
func (m *Manager) Restart(ctx context.Context, id string) (*Session, error) {
	old, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return m.open(ctx, id, StartRequest{
		CaseID:   old.Case().ID,
		Ordering: old.Ordering().Name,
		Policy:   string(old.Policy()),
	})
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep ends every session idle for longer than the TTL and returns how many
func (m *Manager) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.defaults.Now().Add(-m.idleTTL)
	var expired []string
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.log.Infow("idle session swept", "session", id)
		m.notifyEnded(id, "idle")
	}
	return len(expired)
}

// StartSweeper runs Sweep on a cron schedule such as "@every 5m"
func (m *Manager) StartSweeper(schedule string) error {
	if m.idleTTL <= 0 {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if n := m.Sweep(); n > 0 {
			m.log.Infow("idle sweep finished", "ended", n)
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	m.mu.Lock()
	m.cron = c
	m.mu.Unlock()
	return nil
}

// Stop halts the sweeper and waits for a running sweep to finish
func (m *Manager) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func (m *Manager) notifyEnded(id, reason string) {
	if m.defaults.Events == nil {
		return
	}
	ev, err := trialevents.NewEvent(trialevents.TypeEnded, map[string]string{"reason": reason})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := m.defaults.Events.Publish(ctx, id, ev); err != nil {
		m.log.Warnw("failed to publish end event", "session", id, "error", err)
	}
}
