package dto

import (
	"github.com/shopspring/decimal"

	"motodealer/internal/domain/promotion"
)

// ManualDiscountDTO is a salesperson discount.
type ManualDiscountDTO struct {
	Type  string          `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// ToDomain parses the discount. A nil receiver means no discount.
func (d *ManualDiscountDTO) ToDomain() (promotion.ManualDiscount, error) {
	if d == nil {
		return promotion.ManualDiscount{Type: promotion.DiscountNone}, nil
	}
	t, err := promotion.ParseDiscountType(d.Type)
	if err != nil {
		return promotion.ManualDiscount{}, err
	}
	return promotion.ManualDiscount{Type: t, Value: d.Value}, nil
}

// FinalPriceRequest is the body of POST /pricing/final-price.
type FinalPriceRequest struct {
	OriginalPrice  decimal.Decimal    `json:"originalPrice"`
	Currency       string             `json:"currency" binding:"required"`
	ManualDiscount *ManualDiscountDTO `json:"manualDiscount"`
	PromotionIDs   []string           `json:"promotionIds"`
}

// FinalPriceResponse is the priced selection.
type FinalPriceResponse struct {
	FinalPrice decimal.Decimal          `json:"finalPrice"`
	Formatted  string                   `json:"formatted"`
	Currency   string                   `json:"currency"`
	Breakdown  promotion.PriceBreakdown `json:"breakdown"`
}
