// Package promotion provides the banking promotion catalogue and the rules
// for combining promotions into a sale price.
package promotion

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"motodealer/internal/core/apperror"
	"motodealer/internal/core/id"
)

// PaymentMethod is how the buyer pays.
type PaymentMethod string

const (
	PaymentCash           PaymentMethod = "cash"
	PaymentTransfer       PaymentMethod = "transfer"
	PaymentCreditCard     PaymentMethod = "credit_card"
	PaymentDebitCard      PaymentMethod = "debit_card"
	PaymentCurrentAccount PaymentMethod = "current_account"
)

// ParsePaymentMethod normalizes a payment method token.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case PaymentCash, PaymentTransfer, PaymentCreditCard, PaymentDebitCard, PaymentCurrentAccount:
		return m, nil
	}
	return "", apperror.NewValidation("unknown payment method").
		WithDetail("field", "paymentMethod").
		WithDetail("value", s)
}

// IsCard reports whether the method is card-based.
func (m PaymentMethod) IsCard() bool {
	return m == PaymentCreditCard || m == PaymentDebitCard
}

// InstallmentPlan is an installment count offered by a promotion at a given
// annual interest rate.
type InstallmentPlan struct {
	Installments int             `db:"installments" json:"installments"`
	InterestRate decimal.Decimal `db:"interest_rate" json:"interestRate"`
	IsEnabled    bool            `db:"is_enabled" json:"isEnabled"`
}

// Promotion is a banking promotion: a flat discount or surcharge and/or a
// set of installment plans with special rates.
//
// Promotions are read-only inputs to pricing; nothing in this package
// mutates one after it has been loaded.
type Promotion struct {
	ID          id.ID  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// DiscountRate and SurchargeRate are percentages. A promotion normally
	// carries at most one of them.
	DiscountRate  *decimal.Decimal `json:"discountRate,omitempty"`
	SurchargeRate *decimal.Decimal `json:"surchargeRate,omitempty"`

	InstallmentPlans []InstallmentPlan `json:"installmentPlans,omitempty"`

	// PaymentMethods limits the promotion to these methods; empty means any.
	PaymentMethods []PaymentMethod `json:"paymentMethods,omitempty"`
	Bank           string          `json:"bank,omitempty"`

	// Eligibility is an optional CEL expression, see EligibilityEngine.
	Eligibility string `json:"eligibility,omitempty"`

	IsEnabled  bool       `json:"isEnabled"`
	ValidFrom  *time.Time `json:"validFrom,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
}

// HasDiscount reports whether the promotion carries a positive discount.
func (p Promotion) HasDiscount() bool {
	return p.DiscountRate != nil && p.DiscountRate.IsPositive()
}

// HasSurcharge reports whether the promotion carries a positive surcharge.
func (p Promotion) HasSurcharge() bool {
	return p.SurchargeRate != nil && p.SurchargeRate.IsPositive()
}

// EnabledPlans returns the enabled installment plans in declaration order.
func (p Promotion) EnabledPlans() []InstallmentPlan {
	plans := make([]InstallmentPlan, 0, len(p.InstallmentPlans))
	for _, plan := range p.InstallmentPlans {
		if plan.IsEnabled {
			plans = append(plans, plan)
		}
	}
	return plans
}

// HasInstallmentPlans reports whether any installment plan is enabled.
func (p Promotion) HasInstallmentPlans() bool {
	for _, plan := range p.InstallmentPlans {
		if plan.IsEnabled {
			return true
		}
	}
	return false
}

// ActiveAt reports whether t falls inside the validity window.
func (p Promotion) ActiveAt(t time.Time) bool {
	if p.ValidFrom != nil && t.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && t.After(*p.ValidUntil) {
		return false
	}
	return true
}

// AcceptsPaymentMethod reports whether the promotion applies to m.
func (p Promotion) AcceptsPaymentMethod(m PaymentMethod) bool {
	if len(p.PaymentMethods) == 0 {
		return true
	}
	for _, allowed := range p.PaymentMethods {
		if allowed == m {
			return true
		}
	}
	return false
}

// Validate checks the promotion invariants that do not need storage.
func (p *Promotion) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	if p.DiscountRate != nil && (p.DiscountRate.IsNegative() || p.DiscountRate.GreaterThan(decimal.NewFromInt(100))) {
		return apperror.NewValidation("discount rate must be between 0 and 100").
			WithDetail("field", "discountRate")
	}
	if p.SurchargeRate != nil && p.SurchargeRate.IsNegative() {
		return apperror.NewValidation("surcharge rate must not be negative").
			WithDetail("field", "surchargeRate")
	}
	if p.HasDiscount() && p.HasSurcharge() {
		return apperror.NewValidation("a promotion cannot carry both a discount and a surcharge").
			WithDetail("field", "surchargeRate")
	}

	seen := make(map[int]struct{}, len(p.InstallmentPlans))
	for i, plan := range p.InstallmentPlans {
		if plan.Installments <= 0 {
			return apperror.NewValidation("installment count must be positive").
				WithDetail("field", "installmentPlans").
				WithDetail("index", i)
		}
		if plan.InterestRate.IsNegative() {
			return apperror.NewValidation("installment interest rate must not be negative").
				WithDetail("field", "installmentPlans").
				WithDetail("index", i)
		}
		if _, dup := seen[plan.Installments]; dup {
			return apperror.NewValidation("installment count defined twice").
				WithDetail("field", "installmentPlans").
				WithDetail("installments", plan.Installments)
		}
		seen[plan.Installments] = struct{}{}
	}

	for _, m := range p.PaymentMethods {
		if _, err := ParsePaymentMethod(string(m)); err != nil {
			return err
		}
	}

	if p.ValidFrom != nil && p.ValidUntil != nil && p.ValidUntil.Before(*p.ValidFrom) {
		return apperror.NewValidation("validity window ends before it starts").
			WithDetail("field", "validUntil")
	}

	return nil
}

// IDs returns the ids of the given promotions, in order.
func IDs(promotions []Promotion) []string {
	ids := make([]string, 0, len(promotions))
	for _, p := range promotions {
		ids = append(ids, p.ID.String())
	}
	return ids
}
