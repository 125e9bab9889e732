package trial

import (
	"fmt"
	"strings"

	"courtsim/internal/trialevents"
	"courtsim/models"
)

const defaultAuthenticator = "the Court"

// EvidenceReport summarises the exhibits put before the court so far.
// Maps are keyed by evidence id.
type EvidenceReport struct {
	Total         int                         `json:"total"`
	ByType        map[models.EvidenceType]int `json:"byType"`
	Authenticated map[string]bool             `json:"authenticated"`
	Admissible    map[string]bool             `json:"admissible"`
	Custody       map[string]int              `json:"custody"` // chain of custody length
}

// AuthenticationResult is what AuthenticateEvidence found for one exhibit
type AuthenticationResult struct {
	EvidenceID     string                `json:"evidenceId"`
	Status         models.EvidenceStatus `json:"status"`
	Admissible     bool                  `json:"admissible"`
	CriteriaMet    []string              `json:"criteriaMet"`
	CriteriaFailed []string              `json:"criteriaFailed"`
}

// presentation builds the record for a StepPresent turn. Caller holds mu.
func (s *Session) presentation(step Step, seq int) models.PresentedEvidence {
	p := models.PresentedEvidence{
		EvidenceID: step.EvidenceID,
		Side:       step.Side,
		Seq:        seq,
		Status:     models.EvidencePending,
		Custody: []models.CustodyEvent{
			{Action: "presented", Actor: models.CounselFor(step.Side).Label(), At: s.opts.Now()},
		},
	}
	if e, ok := s.c.FindEvidence(step.EvidenceID); ok {
		p.Type = e.Type
	}
	if !models.RuleFor(p.Type).AuthenticationRequired {
		p.Status = models.EvidenceAdmitted
	}
	return p
}

// AuthenticateEvidence checks a presented exhibit against the criteria of its
// type. Criteria not listed in met count as failed. Every presentation of the
// exhibit gets the result and a custody entry naming by.
func (s *Session) AuthenticateEvidence(evidenceID string, met []string, by string) (AuthenticationResult, error) {
	if err := s.claim(); err != nil {
		return AuthenticationResult{}, err
	}
	defer s.release()

	e, ok := s.c.FindEvidence(evidenceID)
	if !ok {
		return AuthenticationResult{}, fmt.Errorf("%w: %s", ErrUnknownEvidence, evidenceID)
	}
	rule := models.RuleFor(e.Type)
	passed, failed, err := matchCriteria(rule.Criteria, met)
	if err != nil {
		return AuthenticationResult{}, err
	}
	if strings.TrimSpace(by) == "" {
		by = defaultAuthenticator
	}
	status := models.EvidenceAuthenticated
	action := "authenticated"
	if len(failed) > 0 {
		status = models.EvidenceFailed
		action = "authentication failed"
	}

	s.mu.Lock()
	var idx []int
	for i, p := range s.st.presented {
		if p.EvidenceID == evidenceID {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		s.mu.Unlock()
		return AuthenticationResult{}, fmt.Errorf("%w: %s", ErrEvidenceNotPresented, evidenceID)
	}
	s.pushUndo()
	for _, i := range idx {
		p := &s.st.presented[i]
		p.Status = status
		p.CriteriaMet = append([]string(nil), passed...)
		p.CriteriaFailed = append([]string(nil), failed...)
		p.Custody = append(p.Custody, models.CustodyEvent{Action: action, Actor: by, At: s.opts.Now()})
	}
	s.mu.Unlock()

	res := AuthenticationResult{
		EvidenceID:     evidenceID,
		Status:         status,
		Admissible:     status == models.EvidenceAuthenticated,
		CriteriaMet:    passed,
		CriteriaFailed: failed,
	}
	s.log.Infow("evidence authenticated", "evidence", evidenceID, "status", status, "failed", failed)
	s.publish(trialevents.TypeEvidence, res)
	return res, nil
}

// matchCriteria splits the rule's criteria into met and failed. Names are
// matched case-insensitively; a name the rule does not list is an error.
func matchCriteria(criteria, met []string) (passed, failed []string, err error) {
	given := make(map[string]bool, len(met))
	for _, m := range met {
		key := strings.ToLower(strings.TrimSpace(m))
		if key == "" {
			continue
		}
		found := false
		for _, c := range criteria {
			if strings.ToLower(c) == key {
				found = true
				break
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("%w: %q is not a criterion for this exhibit (want one of %s)", ErrInvalidOption, m, strings.Join(criteria, ", "))
		}
		given[key] = true
	}
	passed, failed = []string{}, []string{}
	for _, c := range criteria {
		if given[strings.ToLower(c)] {
			passed = append(passed, c)
		} else {
			failed = append(failed, c)
		}
	}
	return passed, failed, nil
}

// evidenceReport summarises presentations in the order they happened
func evidenceReport(presented []models.PresentedEvidence) EvidenceReport {
	r := EvidenceReport{
		ByType:        map[models.EvidenceType]int{},
		Authenticated: map[string]bool{},
		Admissible:    map[string]bool{},
		Custody:       map[string]int{},
	}
	for _, p := range presented {
		if _, seen := r.Custody[p.EvidenceID]; !seen {
			r.Total++
			r.ByType[p.Type]++
		}
		r.Custody[p.EvidenceID] += len(p.Custody)
		r.Authenticated[p.EvidenceID] = p.Status == models.EvidenceAuthenticated
		r.Admissible[p.EvidenceID] = p.Admissible()
	}
	return r
}

// EvidenceReport returns the current summary of presented exhibits
func (s *Session) EvidenceReport() EvidenceReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return evidenceReport(s.st.presented)
}
