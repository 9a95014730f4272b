package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"motodealer/internal/core/id"
	"motodealer/internal/domain/promotion"
)

// InstallmentPlanDTO is one installment plan of a promotion.
type InstallmentPlanDTO struct {
	Installments int             `json:"installments" binding:"required,min=1"`
	InterestRate decimal.Decimal `json:"interestRate"`
	IsEnabled    bool            `json:"isEnabled"`
}

// CreatePromotionRequest is the body of POST /promotions.
type CreatePromotionRequest struct {
	Name             string               `json:"name" binding:"required"`
	Description      string               `json:"description"`
	DiscountRate     *decimal.Decimal     `json:"discountRate"`
	SurchargeRate    *decimal.Decimal     `json:"surchargeRate"`
	InstallmentPlans []InstallmentPlanDTO `json:"installmentPlans" binding:"dive"`
	PaymentMethods   []string             `json:"paymentMethods"`
	Bank             string               `json:"bank"`
	Eligibility      string               `json:"eligibility"`
	IsEnabled        *bool                `json:"isEnabled"`
	ValidFrom        *time.Time           `json:"validFrom"`
	ValidUntil       *time.Time           `json:"validUntil"`
}

// ToEntity converts DTO to domain entity. A promotion is enabled unless the
// request says otherwise.
func (r *CreatePromotionRequest) ToEntity() (*promotion.Promotion, error) {
	p := &promotion.Promotion{
		Name:          r.Name,
		Description:   r.Description,
		DiscountRate:  r.DiscountRate,
		SurchargeRate: r.SurchargeRate,
		Bank:          r.Bank,
		Eligibility:   r.Eligibility,
		IsEnabled:     r.IsEnabled == nil || *r.IsEnabled,
		ValidFrom:     r.ValidFrom,
		ValidUntil:    r.ValidUntil,
	}
	for _, m := range r.PaymentMethods {
		method, err := promotion.ParsePaymentMethod(m)
		if err != nil {
			return nil, err
		}
		p.PaymentMethods = append(p.PaymentMethods, method)
	}
	for _, plan := range r.InstallmentPlans {
		p.InstallmentPlans = append(p.InstallmentPlans, promotion.InstallmentPlan{
			Installments: plan.Installments,
			InterestRate: plan.InterestRate,
			IsEnabled:    plan.IsEnabled,
		})
	}
	return p, nil
}

// PromotionResponse is a promotion as returned by the API.
type PromotionResponse struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	Description      string               `json:"description,omitempty"`
	DiscountRate     *decimal.Decimal     `json:"discountRate,omitempty"`
	SurchargeRate    *decimal.Decimal     `json:"surchargeRate,omitempty"`
	InstallmentPlans []InstallmentPlanDTO `json:"installmentPlans"`
	PaymentMethods   []string             `json:"paymentMethods"`
	Bank             string               `json:"bank,omitempty"`
	Eligibility      string               `json:"eligibility,omitempty"`
	IsEnabled        bool                 `json:"isEnabled"`
	ValidFrom        *time.Time           `json:"validFrom,omitempty"`
	ValidUntil       *time.Time           `json:"validUntil,omitempty"`
}

// FromPromotion converts a domain promotion.
func FromPromotion(p promotion.Promotion) PromotionResponse {
	resp := PromotionResponse{
		ID:               p.ID.String(),
		Name:             p.Name,
		Description:      p.Description,
		DiscountRate:     p.DiscountRate,
		SurchargeRate:    p.SurchargeRate,
		InstallmentPlans: make([]InstallmentPlanDTO, 0, len(p.InstallmentPlans)),
		PaymentMethods:   make([]string, 0, len(p.PaymentMethods)),
		Bank:             p.Bank,
		Eligibility:      p.Eligibility,
		IsEnabled:        p.IsEnabled,
		ValidFrom:        p.ValidFrom,
		ValidUntil:       p.ValidUntil,
	}
	for _, plan := range p.InstallmentPlans {
		resp.InstallmentPlans = append(resp.InstallmentPlans, InstallmentPlanDTO{
			Installments: plan.Installments,
			InterestRate: plan.InterestRate,
			IsEnabled:    plan.IsEnabled,
		})
	}
	for _, m := range p.PaymentMethods {
		resp.PaymentMethods = append(resp.PaymentMethods, string(m))
	}
	return resp
}

// FromPromotions converts a list.
func FromPromotions(promotions []promotion.Promotion) []PromotionResponse {
	out := make([]PromotionResponse, 0, len(promotions))
	for _, p := range promotions {
		out = append(out, FromPromotion(p))
	}
	return out
}

// ListPromotionsQuery is the query of GET /promotions.
type ListPromotionsQuery struct {
	PaymentMethod string `form:"paymentMethod"`
	OnlyEnabled   bool   `form:"onlyEnabled"`
}

// ToFilter converts the query into a repository filter.
func (q *ListPromotionsQuery) ToFilter() (promotion.Filter, error) {
	f := promotion.Filter{OnlyEnabled: q.OnlyEnabled}
	if q.PaymentMethod == "" {
		return f, nil
	}
	m, err := promotion.ParsePaymentMethod(q.PaymentMethod)
	if err != nil {
		return f, err
	}
	f.PaymentMethod = m
	return f, nil
}

// SaleContextRequest is the body of POST /promotions/applicable.
type SaleContextRequest struct {
	PaymentMethod string          `json:"paymentMethod" binding:"required"`
	CardBrand     string          `json:"cardBrand"`
	Bank          string          `json:"bank"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" binding:"required"`
	At            *time.Time      `json:"at"`
}

// ToSaleContext converts the request. A missing At means now.
func (r *SaleContextRequest) ToSaleContext(now time.Time) (promotion.SaleContext, error) {
	method, err := promotion.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return promotion.SaleContext{}, err
	}
	currency, err := parseCurrency("currency", r.Currency)
	if err != nil {
		return promotion.SaleContext{}, err
	}

	sale := promotion.SaleContext{
		PaymentMethod: method,
		CardBrand:     r.CardBrand,
		Bank:          r.Bank,
		Amount:        r.Amount,
		Currency:      currency,
		At:            now,
	}
	if r.At != nil {
		sale.At = *r.At
	}
	return sale, nil
}

// CompatibilityRequest is the body of POST /promotions/compatibility.
type CompatibilityRequest struct {
	CandidateID   string   `json:"candidateId" binding:"required"`
	SelectedIDs   []string `json:"selectedIds"`
	PaymentMethod string   `json:"paymentMethod" binding:"required"`
}

// Parse returns the typed ids and payment method.
func (r *CompatibilityRequest) Parse() (candidate id.ID, selected []id.ID, method promotion.PaymentMethod, err error) {
	ids, err := parseIDs("candidateId", []string{r.CandidateID})
	if err != nil {
		return candidate, nil, "", err
	}
	if selected, err = parseIDs("selectedIds", r.SelectedIDs); err != nil {
		return candidate, nil, "", err
	}
	if method, err = promotion.ParsePaymentMethod(r.PaymentMethod); err != nil {
		return candidate, nil, "", err
	}
	return ids[0], selected, method, nil
}

// CompatibilityResponse reports whether the candidate can join the selection.
type CompatibilityResponse struct {
	Compatible    bool   `json:"compatible"`
	OverlapPolicy string `json:"overlapPolicy"`
}

// PromotionIDsRequest carries an ordered promotion selection.
type PromotionIDsRequest struct {
	PromotionIDs []string `json:"promotionIds"`
}

// IDs parses the selection.
func (r *PromotionIDsRequest) IDs() ([]id.ID, error) {
	return parseIDs("promotionIds", r.PromotionIDs)
}

// InstallmentOptionsResponse lists merged options and the best rate per count.
type InstallmentOptionsResponse struct {
	Options   []promotion.InstallmentOption `json:"options"`
	BestRates map[int]decimal.Decimal       `json:"bestRates"`
}
