package agents

import (
	"context"
	"fmt"

	"courtsim/models"
	"courtsim/services"
)

// RoleAgent speaks for one courtroom role. Methods a role never uses
// return ErrUnsupported; generator failures come back as *GenerationError.
type RoleAgent interface {
	Role() models.Role
	Profile() models.RoleProfile
	GenerateOpening(ctx context.Context, s Situation) (string, error)
	GenerateQuestion(ctx context.Context, s Situation) (string, error)
	GenerateClosing(ctx context.Context, s Situation) (string, error)
	GenerateObjection(ctx context.Context, s Situation) (string, error)
	GenerateTestimony(ctx context.Context, question string, s Situation) (string, error)
	RuleOnObjection(ctx context.Context, objection string, s Situation) (string, error)
	GiveJudgment(ctx context.Context, s Situation) (string, error)
}

// Agent is the single RoleAgent implementation, parameterized by role
type Agent struct {
	role      models.Role
	profile   models.RoleProfile
	generator services.Generator
}

var _ RoleAgent = (*Agent)(nil)

// New builds an agent for role. The witness agent takes its persona from
// the seated witness instead of profile.
func New(role models.Role, profile models.RoleProfile, generator services.Generator) *Agent {
	return &Agent{role: role, profile: profile, generator: generator}
}

func (a *Agent) Role() models.Role { return a.role }

func (a *Agent) Profile() models.RoleProfile { return a.profile }

func (a *Agent) GenerateOpening(ctx context.Context, s Situation) (string, error) {
	if !a.role.IsCounsel() {
		return "", a.unsupported(ActionOpening)
	}
	return a.generate(ctx, ActionOpening, openingPrompt(a.role, a.profile, s))
}

func (a *Agent) GenerateQuestion(ctx context.Context, s Situation) (string, error) {
	if !a.role.IsCounsel() {
		return "", a.unsupported(ActionQuestion)
	}
	return a.generate(ctx, ActionQuestion, questionPrompt(a.role, a.profile, s))
}

func (a *Agent) GenerateClosing(ctx context.Context, s Situation) (string, error) {
	if !a.role.IsCounsel() {
		return "", a.unsupported(ActionClosing)
	}
	return a.generate(ctx, ActionClosing, closingPrompt(a.role, a.profile, s))
}

func (a *Agent) GenerateObjection(ctx context.Context, s Situation) (string, error) {
	if !a.role.IsCounsel() {
		return "", a.unsupported(ActionObjection)
	}
	return a.generate(ctx, ActionObjection, objectionPrompt(a.role, a.profile, s))
}

func (a *Agent) GenerateTestimony(ctx context.Context, question string, s Situation) (string, error) {
	if a.role != models.RoleWitness {
		return "", a.unsupported(ActionTestimony)
	}
	return a.generate(ctx, ActionTestimony, testimonyPrompt(s.Witness, question, s))
}

func (a *Agent) RuleOnObjection(ctx context.Context, objection string, s Situation) (string, error) {
	if a.role != models.RoleJudge {
		return "", a.unsupported(ActionRuling)
	}
	return a.generate(ctx, ActionRuling, rulingPrompt(a.profile, objection, s))
}

func (a *Agent) GiveJudgment(ctx context.Context, s Situation) (string, error) {
	if a.role != models.RoleJudge {
		return "", a.unsupported(ActionJudgment)
	}
	return a.generate(ctx, ActionJudgment, judgmentPrompt(a.profile, s))
}

func (a *Agent) generate(ctx context.Context, action Action, prompt string) (string, error) {
	if a.generator == nil {
		return "", &GenerationError{Role: a.role, Action: action, Err: fmt.Errorf("text generator is not configured")}
	}
	text, err := a.generator.Generate(ctx, prompt)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return "", &GenerationError{Role: a.role, Action: action, Err: err}
	}
	if text == "" {
		return "", &GenerationError{Role: a.role, Action: action, Err: services.ErrEmptyResponse}
	}
	return text, nil
}

func (a *Agent) unsupported(action Action) error {
	return fmt.Errorf("%w: %s cannot give a %s", ErrUnsupported, a.role.Label(), action)
}

// Panel holds one agent per courtroom role for a case
type Panel struct {
	Judge     RoleAgent
	Plaintiff RoleAgent
	Defendant RoleAgent
	Witness   RoleAgent
}

// NewPanel builds the four agents using the case's configured personas
func NewPanel(c *models.Case, generator services.Generator) *Panel {
	withDefaults := c.WithDefaults()
	return &Panel{
		Judge:     New(models.RoleJudge, withDefaults.Judge, generator),
		Plaintiff: New(models.RolePlaintiffCounsel, withDefaults.PlaintiffLawyer, generator),
		Defendant: New(models.RoleDefendantCounsel, withDefaults.DefendantLawyer, generator),
		Witness:   New(models.RoleWitness, models.RoleProfile{}, generator),
	}
}

// For returns the agent speaking for role, or nil for System
func (p *Panel) For(role models.Role) RoleAgent {
	switch role {
	case models.RoleJudge:
		return p.Judge
	case models.RolePlaintiffCounsel:
		return p.Plaintiff
	case models.RoleDefendantCounsel:
		return p.Defendant
	case models.RoleWitness:
		return p.Witness
	}
	return nil
}
