package agents

import (
	"fmt"
	"strings"

	"courtsim/models"
)

// Action names the kind of utterance an agent is asked for
type Action string

const (
	ActionOpening   Action = "opening statement"
	ActionQuestion  Action = "question"
	ActionClosing   Action = "closing argument"
	ActionObjection Action = "objection"
	ActionTestimony Action = "testimony"
	ActionRuling    Action = "ruling"
	ActionJudgment  Action = "judgment"
)

// Situation is what an agent knows about the trial when asked to speak
type Situation struct {
	Case     *models.Case
	Phase    models.Phase
	Recent   []models.TranscriptEntry
	Witness  *models.Witness
	Evidence *models.Evidence
	// Cross marks a question put by the side opposing the seated witness
	Cross bool
}

// FormatTranscript renders transcript entries one per line
func FormatTranscript(entries []models.TranscriptEntry) string {
	if len(entries) == 0 {
		return "(nothing has been said yet)"
	}
	var sb strings.Builder
	for _, e := range entries {
		speaker := e.Label
		if e.Witness != "" && e.Speaker == models.RoleWitness {
			speaker = fmt.Sprintf("%s (%s)", e.Label, e.Witness)
		}
		sb.WriteString(fmt.Sprintf("%s [%s]: %s\n", speaker, e.Phase.Title(), e.Content))
	}
	return sb.String()
}

func caseDetails(c *models.Case) string {
	if c == nil {
		return "No case details available."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Case %s: %s (%s)\n", c.ID, c.Title, c.CaseType))
	sb.WriteString(fmt.Sprintf("Plaintiff: %s\nDefendant: %s\n", partyLine(c.Plaintiff), partyLine(c.Defendant)))
	if c.Description != "" {
		sb.WriteString("Description: " + c.Description + "\n")
	}
	if len(c.Facts) > 0 {
		sb.WriteString("Facts:\n")
		for _, f := range c.Facts {
			sb.WriteString("- " + f + "\n")
		}
	}
	if len(c.Evidence) > 0 {
		sb.WriteString("Evidence:\n")
		for _, e := range c.Evidence {
			sb.WriteString(fmt.Sprintf("- %s %s (%s): %s\n", e.ID, e.Title, e.Type, e.Description))
		}
	}
	if len(c.Witnesses) > 0 {
		sb.WriteString("Witnesses:\n")
		for _, w := range c.Witnesses {
			sb.WriteString(fmt.Sprintf("- %s for the %s: %s\n", w.Name, w.Side, w.Background))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func partyLine(p models.Party) string {
	if p.Type == "" {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Type)
}

func personaLine(role models.Role, p models.RoleProfile) string {
	switch role {
	case models.RoleJudge:
		return fmt.Sprintf("You are %s, the presiding judge, with %s of experience in %s.", p.Name, p.Experience, p.Specialization)
	case models.RolePlaintiffCounsel, models.RoleDefendantCounsel:
		return fmt.Sprintf("You are %s, the %s's lawyer, with %s of experience in %s. Respond professionally and maintain courtroom decorum.",
			p.Name, role.Side(), p.Experience, p.Specialization)
	}
	return ""
}

func openingPrompt(role models.Role, p models.RoleProfile, s Situation) string {
	return fmt.Sprintf(`%s
Write a persuasive opening statement for your client in an Indian civil court.
%s

Guidelines:
1. State your client's position clearly
2. Outline the evidence you will rely on
3. Keep it under 200 words`,
		personaLine(role, p), caseDetails(s.Case))
}

func questionPrompt(role models.Role, p models.RoleProfile, s Situation) string {
	kind := "examination-in-chief"
	guide := "Ask an open, non-leading question that lets the witness establish facts helpful to your client."
	if s.Cross {
		kind = "cross-examination"
		guide = "Ask a pointed question that tests the witness's credibility or exposes a gap in their account."
	}
	return fmt.Sprintf(`%s
Write one %s question for this witness:
%s

%s
%s

Recent proceedings:
%s
Reply with the question only.`,
		personaLine(role, p), kind, witnessDetails(s.Witness), guide, caseDetails(s.Case), FormatTranscript(s.Recent))
}

func closingPrompt(role models.Role, p models.RoleProfile, s Situation) string {
	return fmt.Sprintf(`%s
Write a compelling closing argument for this case.
%s

Proceedings so far:
%s
Summarize the evidence in your client's favour and state the relief sought.`,
		personaLine(role, p), caseDetails(s.Case), FormatTranscript(s.Recent))
}

func objectionPrompt(role models.Role, p models.RoleProfile, s Situation) string {
	return fmt.Sprintf(`%s
In the following context:
%s
Raise one objection to the opposing side's conduct. Name the legal ground (relevance, hearsay, leading question, speculation or similar) and explain it in one or two sentences.`,
		personaLine(role, p), FormatTranscript(s.Recent))
}

func testimonyPrompt(w *models.Witness, question string, s Situation) string {
	name, background, testimony, credibility := "the witness", "", "", 0.8
	if w != nil {
		name, background, testimony = w.Name, w.Background, w.Testimony
		credibility = w.CredibilityScore(0.8)
	}
	return fmt.Sprintf(`You are %s, a witness in court. Respond to this question:
Question: %s

Your Background: %s
Your Testimony: %s
Credibility Level: %.2f

Previous Exchange:
%s
Guidelines for your response:
1. Answer truthfully based on your knowledge
2. Stay consistent with your testimony
3. Be clear and concise
4. If you don't know, say so`,
		name, question, background, testimony, credibility, FormatTranscript(s.Recent))
}

func rulingPrompt(p models.RoleProfile, objection string, s Situation) string {
	return fmt.Sprintf(`%s
As the presiding judge, rule on this objection:
Objection: %s

Previous Exchange:
%s
Guidelines for your ruling:
1. Consider the legal basis for the objection
2. Maintain fairness to both parties
3. Begin with "Sustained" or "Overruled" and give brief reasoning`,
		personaLine(models.RoleJudge, p), objection, FormatTranscript(s.Recent))
}

func judgmentPrompt(p models.RoleProfile, s Situation) string {
	return fmt.Sprintf(`%s
As the presiding judge, deliver your final judgment:
Case Summary:
%s

Proceedings:
%s
Guidelines for your judgment:
1. Evaluate all evidence presented
2. Consider witness credibility
3. Apply relevant legal principles
4. Provide clear reasoning and the final order`,
		personaLine(models.RoleJudge, p), caseDetails(s.Case), FormatTranscript(s.Recent))
}

func witnessDetails(w *models.Witness) string {
	if w == nil {
		return "(no witness seated)"
	}
	out := fmt.Sprintf("%s, called by the %s. Background: %s", w.Name, w.Side, w.Background)
	if w.Testimony != "" {
		out += ". Prior statement: " + w.Testimony
	}
	return out
}
