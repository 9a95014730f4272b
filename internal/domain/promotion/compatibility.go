package promotion

import (
	"strings"

	"motodealer/internal/core/apperror"
)

// OverlapPolicy decides when the installment-overlap rule is enforced.
type OverlapPolicy string

const (
	// OverlapCardOnly enforces overlap only for card payments.
	OverlapCardOnly OverlapPolicy = "card_only"
	// OverlapAlways enforces overlap for every payment method.
	OverlapAlways OverlapPolicy = "always"
	// OverlapNever disables the overlap rule.
	OverlapNever OverlapPolicy = "never"
)

// ParseOverlapPolicy parses a policy name. Empty selects OverlapCardOnly.
func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch p := OverlapPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return OverlapCardOnly, nil
	case OverlapCardOnly, OverlapAlways, OverlapNever:
		return p, nil
	}
	return "", apperror.NewValidation("unknown promotion overlap policy").
		WithDetail("value", s)
}

// IsCardPayment reports whether method is card-based.
func IsCardPayment(method PaymentMethod) bool {
	return method.IsCard()
}

// ArePromotionsCompatible reports whether candidate may join alreadySelected.
//
// Discounts and surcharges never mix. When the payment is card-based, a
// candidate with enabled installment plans must share at least one
// installment count with every selected promotion that also has plans.
func ArePromotionsCompatible(candidate Promotion, alreadySelected []Promotion, paymentMethodIsCard bool) bool {
	return compatible(candidate, alreadySelected, paymentMethodIsCard)
}

// Composer applies the compatibility rule under a configured OverlapPolicy.
// It holds no per-call state and is safe for concurrent use.
type Composer struct {
	overlap OverlapPolicy
}

// NewComposer creates a composer. An empty policy means OverlapCardOnly.
func NewComposer(policy OverlapPolicy) *Composer {
	if policy == "" {
		policy = OverlapCardOnly
	}
	return &Composer{overlap: policy}
}

// Policy returns the configured overlap policy.
func (c *Composer) Policy() OverlapPolicy {
	return c.overlap
}

// Compatible reports whether candidate may join selected for a sale paid with method.
func (c *Composer) Compatible(candidate Promotion, selected []Promotion, method PaymentMethod) bool {
	return compatible(candidate, selected, c.enforceOverlap(method))
}

// CheckSelection verifies each promotion against the ones before it.
// It returns an INCOMPATIBLE_PROMOTIONS error naming the first offender.
func (c *Composer) CheckSelection(selection []Promotion, method PaymentMethod) error {
	for i := 1; i < len(selection); i++ {
		if !c.Compatible(selection[i], selection[:i], method) {
			return apperror.NewIncompatiblePromotions(selection[i].ID.String(), IDs(selection[:i])).
				WithDetail("paymentMethod", string(method))
		}
	}
	return nil
}

func (c *Composer) enforceOverlap(method PaymentMethod) bool {
	switch c.overlap {
	case OverlapAlways:
		return true
	case OverlapNever:
		return false
	default:
		return method.IsCard()
	}
}

func compatible(candidate Promotion, selected []Promotion, enforceOverlap bool) bool {
	if len(selected) == 0 {
		return true
	}

	var counts map[int]struct{}
	if enforceOverlap && candidate.HasInstallmentPlans() {
		counts = installmentCounts(candidate)
	}

	for _, other := range selected {
		if candidate.HasDiscount() && other.HasSurcharge() {
			return false
		}
		if candidate.HasSurcharge() && other.HasDiscount() {
			return false
		}
		if counts != nil && other.HasInstallmentPlans() && !sharesCount(counts, other) {
			return false
		}
	}
	return true
}

func installmentCounts(p Promotion) map[int]struct{} {
	counts := make(map[int]struct{}, len(p.InstallmentPlans))
	for _, plan := range p.EnabledPlans() {
		counts[plan.Installments] = struct{}{}
	}
	return counts
}

func sharesCount(counts map[int]struct{}, p Promotion) bool {
	for _, plan := range p.EnabledPlans() {
		if _, ok := counts[plan.Installments]; ok {
			return true
		}
	}
	return false
}
