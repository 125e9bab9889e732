package trial

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"courtsim/agents"
	"courtsim/internal/trialevents"
	"courtsim/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FailurePolicy decides what happens to a turn whose text generation failed.
// It is fixed for the lifetime of a session.
type FailurePolicy string

const (
	// PolicySurface returns the GenerationError and records nothing
	PolicySurface FailurePolicy = "surface"
	// PolicyFallback records one labeled placeholder entry and moves on
	PolicyFallback FailurePolicy = "fallback"
)

// ParseFailurePolicy resolves a configured policy; empty means surface
func ParseFailurePolicy(raw string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicySurface:
		return PolicySurface, nil
	case PolicyFallback:
		return PolicyFallback, nil
	}
	return "", fmt.Errorf("%w: unknown failure policy %q", ErrInvalidOption, raw)
}

const (
	defaultTranscriptWindow = 6
	defaultUndoDepth        = 20
	publishTimeout          = 2 * time.Second
)

// Options configure a session at construction
type Options struct {
	ID                string
	Ordering          Ordering
	Policy            FailurePolicy
	TranscriptWindow  int           // entries handed to agents as recent context
	GenerationTimeout time.Duration // zero disables the bound
	UndoDepth         int           // zero means the default, negative disables undo
	Events            trialevents.Publisher
	Logger            *zap.SugaredLogger
	Now               func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Ordering.Name == "" {
		o.Ordering = StandardOrdering
	}
	if o.Policy == "" {
		o.Policy = PolicySurface
	}
	if o.TranscriptWindow <= 0 {
		o.TranscriptWindow = defaultTranscriptWindow
	}
	if o.UndoDepth == 0 {
		o.UndoDepth = defaultUndoDepth
	}
	if o.Events == nil {
		o.Events = trialevents.Nop{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Objection is the objection raised in the current objection phase
type Objection struct {
	Raiser models.Role `json:"raiser" bson:"raiser"`
	Text   string      `json:"text" bson:"text"`
	Seq    int         `json:"seq" bson:"seq"`
	Ruling string      `json:"ruling,omitempty" bson:"ruling,omitempty"`
}

// State is a read-only projection of a session. It shares nothing with the session.
type State struct {
	SessionID     string                     `json:"sessionId"`
	CaseID        string                     `json:"caseId"`
	Ordering      string                     `json:"ordering"`
	Policy        FailurePolicy              `json:"policy"`
	Phase         models.Phase               `json:"phase"`
	PhaseIndex    int                        `json:"phaseIndex"`
	Cursor        int                        `json:"cursor"`
	Steps         []Step                     `json:"steps"`
	PendingStep   *Step                      `json:"pendingStep,omitempty"`
	PendingRole   models.Role                `json:"pendingRole,omitempty"`
	PhaseComplete bool                       `json:"phaseComplete"`
	Transcript    []models.TranscriptEntry   `json:"transcript"`
	Presented     []models.PresentedEvidence `json:"presented"`
	Evidence      EvidenceReport             `json:"evidence"`
	SeatedWitness *models.Witness            `json:"seatedWitness,omitempty"`
	Objection     *Objection                 `json:"objection,omitempty"`
	UndoAvailable int                        `json:"undoAvailable"`
}

// core is everything a snapshot captures
type core struct {
	phaseIndex int
	steps      []Step
	cursor     int
	transcript []models.TranscriptEntry
	presented  []models.PresentedEvidence
	seated     int
	objection  *Objection
}

// Session is one trial in progress. All mutation goes through its methods;
// only one mutating call may run at a time.
type Session struct {
	id       string
	c        *models.Case
	panel    *agents.Panel
	opts     Options
	ordering Ordering
	log      *zap.SugaredLogger

	inFlight   atomic.Bool
	lastActive atomic.Int64

	mu   sync.RWMutex
	st   core
	undo []Snapshot
}

// NewSession starts a trial of c at the first phase of the configured ordering
func NewSession(c *models.Case, panel *agents.Panel, opts Options) (*Session, error) {
	if c == nil {
		return nil, errors.New("trial session requires a case")
	}
	if panel == nil {
		return nil, errors.New("trial session requires a role agent panel")
	}
	opts = opts.withDefaults()
	if !opts.Ordering.valid() {
		return nil, fmt.Errorf("phase ordering %q must end in %s", opts.Ordering.Name, models.PhaseCompleted)
	}
	if _, err := ParseFailurePolicy(string(opts.Policy)); err != nil {
		return nil, err
	}

	s := &Session{
		id:       opts.ID,
		c:        c,
		panel:    panel,
		opts:     opts,
		ordering: opts.Ordering,
		log:      opts.Logger.With("session", opts.ID, "case", c.ID),
	}
	s.st.seated = -1
	s.enterPhase(0)
	s.touch()
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Case returns the case being tried. Callers must not modify it.
func (s *Session) Case() *models.Case { return s.c }

func (s *Session) Policy() FailurePolicy { return s.opts.Policy }

func (s *Session) Ordering() Ordering { return s.ordering }

// LastActive is the time of the most recent operation on the session
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(s.opts.Now().UnixNano())
}

func (s *Session) claim() error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrConcurrencyViolation
	}
	s.touch()
	return nil
}

func (s *Session) release() {
	s.inFlight.Store(false)
}

func (s *Session) phase() models.Phase {
	return s.ordering.Phases[s.st.phaseIndex]
}

func (s *Session) pending() (Step, bool) {
	if s.st.cursor < len(s.st.steps) {
		return s.st.steps[s.st.cursor], true
	}
	return Step{}, false
}

// enterPhase builds the sub-step plan of the phase at idx. Caller holds mu.
func (s *Session) enterPhase(idx int) {
	s.st.phaseIndex = idx
	phase := s.phase()
	s.st.objection = nil
	switch {
	case phase == models.PhaseExaminationInChief || phase == models.PhaseExamination:
		s.st.seated = -1
		if len(s.c.Witnesses) > 0 {
			s.st.seated = 0
		}
	case phase == models.PhaseCrossExamination:
		if s.st.seated < 0 && len(s.c.Witnesses) > 0 {
			s.st.seated = 0
		}
	default:
		s.st.seated = -1
	}
	s.st.steps = planPhase(phase, s.c, s.st.seated)
	s.st.cursor = 0
}

// PhaseComplete reports whether every sub-step of the current phase is done
func (s *Session) PhaseComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.cursor >= len(s.st.steps)
}

// Advance moves to the next phase once the current one is complete
func (s *Session) Advance() (models.Phase, error) {
	if err := s.claim(); err != nil {
		return "", err
	}
	defer s.release()

	s.mu.Lock()
	from := s.phase()
	if from == models.PhaseCompleted {
		s.mu.Unlock()
		return from, &InvalidTransitionError{From: from, Reason: "the trial is already completed"}
	}
	if left := len(s.st.steps) - s.st.cursor; left > 0 {
		s.mu.Unlock()
		return from, &InvalidTransitionError{From: from, Pending: left, Reason: fmt.Sprintf("%d required turn(s) still pending", left)}
	}
	s.pushUndo()
	s.enterPhase(s.st.phaseIndex + 1)
	to := s.phase()
	s.mu.Unlock()

	s.log.Infow("phase advanced", "from", from, "to", to)
	s.publish(trialevents.TypePhase, trialevents.PhasePayload{From: string(from), To: string(to)})
	return to, nil
}

// ForceAdvance moves on even if turns are pending. Skipped turns are named
// in a System transcript entry so the skip is never silent.
func (s *Session) ForceAdvance(reason string) (models.Phase, error) {
	if err := s.claim(); err != nil {
		return "", err
	}
	defer s.release()

	s.mu.Lock()
	from := s.phase()
	if from == models.PhaseCompleted {
		s.mu.Unlock()
		return from, &InvalidTransitionError{From: from, Reason: "the trial is already completed"}
	}
	s.pushUndo()
	skipped := len(s.st.steps) - s.st.cursor
	var entry *models.TranscriptEntry
	if skipped > 0 {
		if strings.TrimSpace(reason) == "" {
			reason = "no reason given"
		}
		e := s.appendEntry(models.RoleSystem, "", fmt.Sprintf("%s closed with %d turn(s) skipped: %s", from.Title(), skipped, reason), false)
		entry = &e
	}
	s.enterPhase(s.st.phaseIndex + 1)
	to := s.phase()
	s.mu.Unlock()

	s.log.Warnw("phase force advanced", "from", from, "to", to, "skipped", skipped, "reason", reason)
	if entry != nil {
		s.publish(trialevents.TypeTranscript, entry)
	}
	s.publish(trialevents.TypePhase, trialevents.PhasePayload{From: string(from), To: string(to), Forced: true, Skipped: skipped})
	return to, nil
}

// RecordTurn appends a human-authored turn for the pending sub-step
func (s *Session) RecordTurn(role models.Role, content string) (models.TranscriptEntry, error) {
	if err := s.claim(); err != nil {
		return models.TranscriptEntry{}, err
	}
	defer s.release()

	content = strings.TrimSpace(content)
	s.mu.Lock()
	step, err := s.checkTurn(role)
	if err == nil && content == "" {
		err = &TurnError{Phase: s.phase(), Role: role, Expected: step.Role, Reason: "content is empty"}
	}
	if err != nil {
		s.mu.Unlock()
		return models.TranscriptEntry{}, err
	}
	s.pushUndo()
	entry := s.completeStep(step, role, content, false)
	s.mu.Unlock()

	s.publish(trialevents.TypeTranscript, entry)
	return entry, nil
}

// RequestAgentTurn asks the role's agent for the pending sub-step and records
// the result. Generation failures follow the session's FailurePolicy.
func (s *Session) RequestAgentTurn(ctx context.Context, role models.Role) (models.TranscriptEntry, error) {
	if err := s.claim(); err != nil {
		return models.TranscriptEntry{}, err
	}
	defer s.release()
	return s.agentTurn(ctx, role)
}

// RequestNextTurn is RequestAgentTurn for whichever role the pending step expects
func (s *Session) RequestNextTurn(ctx context.Context) (models.TranscriptEntry, error) {
	if err := s.claim(); err != nil {
		return models.TranscriptEntry{}, err
	}
	defer s.release()

	s.mu.RLock()
	step, ok := s.pending()
	phase := s.phase()
	s.mu.RUnlock()
	if !ok {
		return models.TranscriptEntry{}, &TurnError{Phase: phase, Reason: "no turn is pending in this phase"}
	}
	return s.agentTurn(ctx, step.Role)
}

// agentTurn runs with the in-flight flag held. The lock is released while the
// agent generates so readers are never blocked by a slow generator.
func (s *Session) agentTurn(ctx context.Context, role models.Role) (models.TranscriptEntry, error) {
	s.mu.RLock()
	step, err := s.checkTurn(role)
	if err != nil {
		s.mu.RUnlock()
		return models.TranscriptEntry{}, err
	}
	sit := s.situation(step)
	var prior string
	if n := len(s.st.transcript); n > 0 {
		prior = s.st.transcript[n-1].Content
	}
	var objection string
	if s.st.objection != nil {
		objection = s.st.objection.Text
	}
	s.mu.RUnlock()

	if s.opts.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.GenerationTimeout)
		defer cancel()
	}

	content, err := s.produce(ctx, step, role, sit, prior, objection)
	fallback := false
	if err != nil {
		var gerr *agents.GenerationError
		if !errors.As(err, &gerr) {
			return models.TranscriptEntry{}, err
		}
		s.log.Warnw("turn generation failed", "phase", sit.Phase, "role", role, "policy", s.opts.Policy, "error", err)
		if s.opts.Policy != PolicyFallback {
			return models.TranscriptEntry{}, err
		}
		content, fallback = agents.FallbackUtterance(role, step.action(), err), true
	}

	s.mu.Lock()
	s.pushUndo()
	entry := s.completeStep(step, role, content, fallback)
	s.mu.Unlock()

	s.publish(trialevents.TypeTranscript, entry)
	return entry, nil
}

func (s *Session) produce(ctx context.Context, step Step, role models.Role, sit agents.Situation, prior, objection string) (string, error) {
	if step.Kind == StepPresent {
		if sit.Evidence == nil {
			return "", fmt.Errorf("evidence %s is not part of case %s", step.EvidenceID, s.c.ID)
		}
		return presentationText(step.Side, *sit.Evidence), nil
	}
	agent := s.panel.For(role)
	if agent == nil {
		return "", fmt.Errorf("no agent speaks for %s", role)
	}
	switch step.Kind {
	case StepOpening:
		return agent.GenerateOpening(ctx, sit)
	case StepQuestion:
		return agent.GenerateQuestion(ctx, sit)
	case StepAnswer:
		return agent.GenerateTestimony(ctx, prior, sit)
	case StepObjection:
		return agent.GenerateObjection(ctx, sit)
	case StepRuling:
		return agent.RuleOnObjection(ctx, objection, sit)
	case StepClosing:
		return agent.GenerateClosing(ctx, sit)
	case StepJudgment:
		return agent.GiveJudgment(ctx, sit)
	}
	return "", fmt.Errorf("unknown step kind %q", step.Kind)
}

// checkTurn validates role against the pending step. Caller holds mu.
func (s *Session) checkTurn(role models.Role) (Step, error) {
	phase := s.phase()
	step, ok := s.pending()
	if !ok {
		return Step{}, &TurnError{Phase: phase, Role: role, Reason: "no turn is pending in this phase"}
	}
	if !step.Accepts(role) {
		reason := fmt.Sprintf("the %s turn belongs to the %s", step.Kind, step.Role.Label())
		if step.Kind == StepRuling {
			reason = "objections are ruled on by the Judge"
		}
		return Step{}, &TurnError{Phase: phase, Role: role, Expected: step.Role, Reason: reason}
	}
	return step, nil
}

// situation collects what the agent may see for step. Caller holds mu.
func (s *Session) situation(step Step) agents.Situation {
	sit := agents.Situation{
		Case:  s.c,
		Phase: s.phase(),
		Cross: step.Cross,
	}
	window := s.opts.TranscriptWindow
	start := len(s.st.transcript) - window
	if start < 0 || step.Kind == StepJudgment || step.Kind == StepClosing {
		start = 0
	}
	sit.Recent = append([]models.TranscriptEntry(nil), s.st.transcript[start:]...)
	if step.Witness >= 0 && step.Witness < len(s.c.Witnesses) {
		w := s.c.Witnesses[step.Witness]
		sit.Witness = &w
	}
	if step.EvidenceID != "" {
		if e, ok := s.c.FindEvidence(step.EvidenceID); ok {
			sit.Evidence = &e
		}
	}
	return sit
}

// completeStep records the entry for step and moves the cursor. Caller holds mu.
func (s *Session) completeStep(step Step, role models.Role, content string, fallback bool) models.TranscriptEntry {
	var witness string
	if step.Witness >= 0 && step.Witness < len(s.c.Witnesses) {
		witness = s.c.Witnesses[step.Witness].Name
	}
	entry := s.appendEntry(role, witness, content, fallback)
	switch step.Kind {
	case StepPresent:
		s.st.presented = append(s.st.presented, s.presentation(step, entry.Seq))
	case StepObjection:
		s.st.objection = &Objection{Raiser: role, Text: content, Seq: entry.Seq}
	case StepRuling:
		if s.st.objection != nil {
			s.st.objection.Ruling = content
		}
	}
	s.st.cursor++
	return entry
}

// appendEntry is the only writer of the transcript. Caller holds mu.
func (s *Session) appendEntry(role models.Role, witness, content string, fallback bool) models.TranscriptEntry {
	entry := models.TranscriptEntry{
		Seq:       len(s.st.transcript) + 1,
		Speaker:   role,
		Label:     role.Label(),
		Witness:   witness,
		Phase:     s.phase(),
		Content:   content,
		Fallback:  fallback,
		Timestamp: s.opts.Now(),
	}
	s.st.transcript = append(s.st.transcript, entry)
	return entry
}

// ExamineWitness seats another witness and appends one more question/answer
// cycle to the current examination phase. The previous cycle must be finished.
func (s *Session) ExamineWitness(index int) error {
	if err := s.claim(); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	defer s.mu.Unlock()
	phase := s.phase()
	if !phase.IsExamination() {
		return &TurnError{Phase: phase, Reason: "witnesses are only examined during examination phases"}
	}
	if s.st.cursor < len(s.st.steps) {
		return &TurnError{Phase: phase, Reason: "the current examination cycle is not finished"}
	}
	if index < 0 || index >= len(s.c.Witnesses) {
		return fmt.Errorf("%w: %d", ErrUnknownWitness, index)
	}
	s.pushUndo()
	s.st.seated = index
	s.st.steps = append(s.st.steps, examinationCycle(phase, s.c.Witnesses[index], index)...)
	s.log.Infow("witness called", "phase", phase, "witness", s.c.Witnesses[index].Name)
	return nil
}

// GetState returns a deep copy of the session's observable state
func (s *Session) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		SessionID:     s.id,
		CaseID:        s.c.ID,
		Ordering:      s.ordering.Name,
		Policy:        s.opts.Policy,
		Phase:         s.phase(),
		PhaseIndex:    s.st.phaseIndex,
		Cursor:        s.st.cursor,
		Steps:         copySteps(s.st.steps),
		PhaseComplete: s.st.cursor >= len(s.st.steps),
		Transcript:    copyTranscript(s.st.transcript),
		Presented:     copyPresented(s.st.presented),
		Evidence:      evidenceReport(s.st.presented),
		Objection:     copyObjection(s.st.objection),
		UndoAvailable: len(s.undo),
	}
	if step, ok := s.pending(); ok {
		st.PendingStep = &step
		st.PendingRole = step.Role
	}
	if s.st.seated >= 0 && s.st.seated < len(s.c.Witnesses) {
		w := s.c.Witnesses[s.st.seated]
		st.SeatedWitness = &w
	}
	return st
}

func (s *Session) publish(eventType string, payload interface{}) {
	ev, err := trialevents.NewEvent(eventType, payload)
	if err != nil {
		s.log.Errorw("failed to encode event", "type", eventType, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.opts.Events.Publish(ctx, s.id, ev); err != nil {
		s.log.Warnw("failed to publish event", "type", eventType, "error", err)
	}
}

func copySteps(in []Step) []Step {
	if in == nil {
		return []Step{}
	}
	return append([]Step(nil), in...)
}

func copyTranscript(in []models.TranscriptEntry) []models.TranscriptEntry {
	if in == nil {
		return []models.TranscriptEntry{}
	}
	return append([]models.TranscriptEntry(nil), in...)
}

func copyPresented(in []models.PresentedEvidence) []models.PresentedEvidence {
	if in == nil {
		return []models.PresentedEvidence{}
	}
	out := make([]models.PresentedEvidence, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func copyObjection(in *Objection) *Objection {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}
