package promotion

import (
	"context"

	"motodealer/internal/core/id"
)

// Filter narrows a catalogue listing.
type Filter struct {
	// PaymentMethod keeps promotions that accept this method; empty keeps all.
	PaymentMethod PaymentMethod
	OnlyEnabled   bool
}

// Matches reports whether p passes the filter.
func (f Filter) Matches(p Promotion) bool {
	if f.OnlyEnabled && !p.IsEnabled {
		return false
	}
	if f.PaymentMethod != "" && !p.AcceptsPaymentMethod(f.PaymentMethod) {
		return false
	}
	return true
}

// Repository defines the interface for promotion persistence.
type Repository interface {
	// List returns the promotions matching filter ordered by name.
	List(ctx context.Context, filter Filter) ([]Promotion, error)

	// GetByIDs returns the promotions in the order of ids.
	// A missing id yields an apperror not-found error.
	GetByIDs(ctx context.Context, ids []id.ID) ([]Promotion, error)

	// Create stores a new promotion together with its installment plans.
	Create(ctx context.Context, p *Promotion) error
}
