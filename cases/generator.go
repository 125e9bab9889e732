package cases

import (
	"fmt"
	"math/rand"

	"courtsim/models"
)

// CaseTypes lists the civil matter types the generator can produce
var CaseTypes = []string{
	"Contract Dispute",
	"Property Dispute",
	"Family Law",
	"Consumer Protection",
	"Commercial Dispute",
	"Tort Claim",
	"Injunction Suit",
	"Specific Performance",
	"Partition Suit",
	"Recovery Suit",
}

var factsByType = map[string][]string{
	"Contract Dispute": {
		"Parties entered into a written agreement",
		"Agreement specified terms and conditions",
		"One party failed to perform obligations",
		"Other party suffered losses",
		"Notice was served before filing suit",
	},
	"Property Dispute": {
		"Plaintiff claims title through a registered sale deed",
		"Defendant occupies a portion of the property",
		"Boundary records are disputed",
		"Revenue records show conflicting entries",
	},
	"Family Law": {
		"Parties were married for several years",
		"Parties have lived separately for over a year",
		"Maintenance has not been paid",
	},
	"Consumer Protection": {
		"Plaintiff purchased goods from the defendant",
		"Goods were found defective within the warranty period",
		"Defendant refused replacement or refund",
	},
	"Commercial Dispute": {
		"Parties operated a joint business",
		"Accounts were not shared for two financial years",
		"Plaintiff alleges diversion of funds",
	},
}

var genericFacts = []string{
	"A dispute arose between the parties",
	"Attempts at settlement failed",
	"Plaintiff approached the court for relief",
}

var partyTypes = []string{"Individual", "Company", "Partnership", "Trust"}

var witnessKinds = []string{"Fact Witness", "Expert Witness", "Character Witness", "Document Witness", "Eye Witness"}

var firstNames = []string{"Anita", "Ravi", "Meera", "Arjun", "Kavya", "Vikram", "Priya", "Sanjay"}
var lastNames = []string{"Sharma", "Iyer", "Kapoor", "Reddy", "Das", "Menon", "Patel", "Bose"}

// Generator produces reproducible synthetic cases from a seed
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator; equal seeds yield equal case sequences
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) pick(list []string) string {
	return list[g.rng.Intn(len(list))]
}

func (g *Generator) personName() string {
	return g.pick(firstNames) + " " + g.pick(lastNames)
}

// Generate builds a complete case. An empty caseType picks one at random.
func (g *Generator) Generate(caseType string) (*models.Case, error) {
	if caseType == "" {
		caseType = g.pick(CaseTypes)
	} else if !validCaseType(caseType) {
		return nil, fmt.Errorf("invalid case type: %s", caseType)
	}

	plaintiff := models.Party{Name: fmt.Sprintf("Party-%d", g.rng.Intn(1000)+1), Type: g.pick(partyTypes)}
	defendant := models.Party{Name: fmt.Sprintf("Party-%d", g.rng.Intn(1000)+1001), Type: g.pick(partyTypes)}

	facts, ok := factsByType[caseType]
	if !ok {
		facts = genericFacts
	}

	c := models.Case{
		ID:          fmt.Sprintf("CIV-%04d", g.rng.Intn(9000)+1000),
		Title:       fmt.Sprintf("%s v. %s", plaintiff.Name, defendant.Name),
		CaseType:    caseType,
		Description: fmt.Sprintf("A %s between %s and %s.", lowerFirst(caseType), plaintiff.Name, defendant.Name),
		Facts:       append([]string(nil), facts...),
		Plaintiff:   plaintiff,
		Defendant:   defendant,
	}

	for i, n := 0, g.rng.Intn(3)+2; i < n; i++ {
		typ := models.EvidenceTypes[g.rng.Intn(len(models.EvidenceTypes))]
		side := models.SidePlaintiff
		if g.rng.Intn(2) == 1 {
			side = models.SideDefendant
		}
		c.Evidence = append(c.Evidence, models.Evidence{
			ID:          fmt.Sprintf("E%d", i+1),
			Title:       fmt.Sprintf("Exhibit %c", 'A'+i),
			Type:        typ,
			Description: fmt.Sprintf("%s evidence relevant to the %s", typ, lowerFirst(caseType)),
			SubmittedBy: side,
		})
	}

	for i, n := 0, g.rng.Intn(2)+1; i < n; i++ {
		credibility := float64(g.rng.Intn(51)+50) / 100
		side := models.SidePlaintiff
		if i%2 == 1 {
			side = models.SideDefendant
		}
		kind := g.pick(witnessKinds)
		c.Witnesses = append(c.Witnesses, models.Witness{
			Name:        g.personName(),
			Side:        side,
			Background:  kind,
			Testimony:   fmt.Sprintf("As a %s I can speak to the events in dispute.", lowerFirst(kind)),
			Credibility: &credibility,
		})
	}

	c = c.WithDefaults()
	return &c, nil
}

// Juror is one member of a generated jury pool. Bias leans from the
// defendant (-0.5) to the plaintiff (+0.5).
type Juror struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Background string  `json:"background"`
	Bias       float64 `json:"bias"`
}

var jurorBackgrounds = []string{"Business professional", "Teacher", "Engineer", "Healthcare worker", "Retired", "Student"}

// JuryPool draws 20 to 30 prospective jurors from the generator's seed
func (g *Generator) JuryPool() []Juror {
	n := g.rng.Intn(11) + 20
	pool := make([]Juror, n)
	for i := range pool {
		pool[i] = Juror{
			ID:         i + 1,
			Name:       fmt.Sprintf("Juror %d", i+1),
			Background: g.pick(jurorBackgrounds),
			Bias:       g.rng.Float64() - 0.5,
		}
	}
	return pool
}

func validCaseType(t string) bool {
	for _, ct := range CaseTypes {
		if ct == t {
			return true
		}
	}
	return false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
