package promotion_repo

import (
	"time"

	"github.com/shopspring/decimal"

	"motodealer/internal/core/id"
	"motodealer/internal/domain/promotion"
)

const (
	promotionsTable = "cat_bank_promotions"
	plansTable      = "cat_promotion_installment_plans"
)

type promotionRow struct {
	ID             id.ID            `db:"id"`
	Name           string           `db:"name"`
	Description    string           `db:"description"`
	DiscountRate   *decimal.Decimal `db:"discount_rate"`
	SurchargeRate  *decimal.Decimal `db:"surcharge_rate"`
	PaymentMethods []string         `db:"payment_methods"`
	Bank           string           `db:"bank"`
	Eligibility    string           `db:"eligibility"`
	IsEnabled      bool             `db:"is_enabled"`
	ValidFrom      *time.Time       `db:"valid_from"`
	ValidUntil     *time.Time       `db:"valid_until"`
}

type planRow struct {
	PromotionID  id.ID           `db:"promotion_id"`
	Installments int             `db:"installments"`
	InterestRate decimal.Decimal `db:"interest_rate"`
	IsEnabled    bool            `db:"is_enabled"`
}

func toRow(p *promotion.Promotion) promotionRow {
	methods := make([]string, 0, len(p.PaymentMethods))
	for _, m := range p.PaymentMethods {
		methods = append(methods, string(m))
	}
	return promotionRow{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		DiscountRate:   p.DiscountRate,
		SurchargeRate:  p.SurchargeRate,
		PaymentMethods: methods,
		Bank:           p.Bank,
		Eligibility:    p.Eligibility,
		IsEnabled:      p.IsEnabled,
		ValidFrom:      p.ValidFrom,
		ValidUntil:     p.ValidUntil,
	}
}

func (r promotionRow) toDomain(plans []planRow) promotion.Promotion {
	p := promotion.Promotion{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		DiscountRate:  r.DiscountRate,
		SurchargeRate: r.SurchargeRate,
		Bank:          r.Bank,
		Eligibility:   r.Eligibility,
		IsEnabled:     r.IsEnabled,
		ValidFrom:     r.ValidFrom,
		ValidUntil:    r.ValidUntil,
	}
	for _, m := range r.PaymentMethods {
		p.PaymentMethods = append(p.PaymentMethods, promotion.PaymentMethod(m))
	}
	for _, pl := range plans {
		p.InstallmentPlans = append(p.InstallmentPlans, promotion.InstallmentPlan{
			Installments: pl.Installments,
			InterestRate: pl.InterestRate,
			IsEnabled:    pl.IsEnabled,
		})
	}
	return p
}
