package promotion

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"motodealer/internal/core/id"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pct(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func plan(installments int, rate string) InstallmentPlan {
	return InstallmentPlan{Installments: installments, InterestRate: dec(rate), IsEnabled: true}
}

func disabledPlan(installments int, rate string) InstallmentPlan {
	p := plan(installments, rate)
	p.IsEnabled = false
	return p
}

func promo(name string, opts ...func(*Promotion)) Promotion {
	p := Promotion{ID: id.New(), Name: name, IsEnabled: true}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func withDiscount(rate string) func(*Promotion) {
	return func(p *Promotion) { p.DiscountRate = pct(rate) }
}

func withSurcharge(rate string) func(*Promotion) {
	return func(p *Promotion) { p.SurchargeRate = pct(rate) }
}

func withPlans(plans ...InstallmentPlan) func(*Promotion) {
	return func(p *Promotion) { p.InstallmentPlans = plans }
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}
