package cases

import (
	"context"
	"errors"
	"sync"

	"courtsim/models"
)

// Overlay serves user-authored cases in front of a read-only base store
type Overlay struct {
	base Store

	mu     sync.RWMutex
	custom map[string]models.Case
	order  []string
}

func NewOverlay(base Store) *Overlay {
	return &Overlay{base: base, custom: make(map[string]models.Case)}
}

// Add registers a validated custom case
func (o *Overlay) Add(c models.Case) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.custom[c.ID]; !exists {
		o.order = append(o.order, c.ID)
	}
	o.custom[c.ID] = c.Clone()
}

func (o *Overlay) Load(ctx context.Context, id string) (*models.Case, error) {
	o.mu.RLock()
	c, ok := o.custom[id]
	o.mu.RUnlock()
	if ok {
		c = c.Clone()
		return &c, nil
	}
	if o.base == nil {
		return nil, &NotFoundError{ID: id}
	}
	return o.base.Load(ctx, id)
}

func (o *Overlay) List(ctx context.Context) ([]models.CaseSummary, error) {
	var out []models.CaseSummary
	if o.base != nil {
		base, err := o.base.List(ctx)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		out = append(out, base...)
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, id := range o.order {
		c := o.custom[id]
		out = append(out, models.CaseSummary{ID: c.ID, Title: c.Title, CaseType: c.CaseType})
	}
	return out, nil
}
