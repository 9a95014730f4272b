// Package memory provides in-process repositories used when no database is
// configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"motodealer/internal/core/apperror"
	"motodealer/internal/core/id"
	"motodealer/internal/domain/promotion"
)

var _ promotion.Repository = (*PromotionRepo)(nil)

// PromotionRepo keeps promotions in a map guarded by a RWMutex.
type PromotionRepo struct {
	mu    sync.RWMutex
	items map[id.ID]promotion.Promotion
}

// NewPromotionRepo creates a repository preloaded with promotions.
func NewPromotionRepo(promotions ...promotion.Promotion) *PromotionRepo {
	r := &PromotionRepo{items: make(map[id.ID]promotion.Promotion, len(promotions))}
	for _, p := range promotions {
		r.items[p.ID] = clone(p)
	}
	return r
}

// List returns promotions matching filter ordered by name.
func (r *PromotionRepo) List(_ context.Context, filter promotion.Filter) ([]promotion.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]promotion.Promotion, 0, len(r.items))
	for _, p := range r.items {
		if filter.Matches(p) {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// GetByIDs returns promotions in the order of ids.
func (r *PromotionRepo) GetByIDs(_ context.Context, ids []id.ID) ([]promotion.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]promotion.Promotion, 0, len(ids))
	for _, pid := range ids {
		p, ok := r.items[pid]
		if !ok {
			return nil, apperror.NewNotFound("promotion", pid.String())
		}
		out = append(out, clone(p))
	}
	return out, nil
}

// Create stores p. An existing id is a conflict.
func (r *PromotionRepo) Create(_ context.Context, p *promotion.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[p.ID]; exists {
		return apperror.NewDuplicate("promotion", "id", p.ID.String())
	}
	r.items[p.ID] = clone(*p)
	return nil
}

// clone copies the slices so callers cannot mutate stored promotions.
func clone(p promotion.Promotion) promotion.Promotion {
	p.InstallmentPlans = append([]promotion.InstallmentPlan(nil), p.InstallmentPlans...)
	p.PaymentMethods = append([]promotion.PaymentMethod(nil), p.PaymentMethods...)
	return p
}
