package handlers

import (
	"github.com/gin-gonic/gin"

	"motodealer/internal/core/apperror"
	"motodealer/internal/core/id"
	"motodealer/internal/core/types"
	"motodealer/internal/domain/promotion"
	"motodealer/internal/infrastructure/http/v1/dto"
)

// PricingHandler prices a promotion selection without building a quote.
type PricingHandler struct {
	*BaseHandler
	promotions *promotion.Service
}

// NewPricingHandler creates a new pricing handler.
func NewPricingHandler(base *BaseHandler, promotions *promotion.Service) *PricingHandler {
	return &PricingHandler{BaseHandler: base, promotions: promotions}
}

// FinalPrice applies a manual discount and the selected promotions in order.
// POST /pricing/final-price
func (h *PricingHandler) FinalPrice(c *gin.Context) {
	var req dto.FinalPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	currency, err := types.ParseCurrencyCode(req.Currency)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid currency code").
			WithDetail("field", "currency").
			WithDetail("value", req.Currency))
		return
	}
	discount, err := req.ManualDiscount.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}
	ids, err := id.ParseAll(req.PromotionIDs)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").
			WithDetail("field", "promotionIds").
			WithCause(err))
		return
	}

	selected, err := h.promotions.GetByIDs(c.Request.Context(), ids)
	if err != nil {
		h.Error(c, err)
		return
	}

	breakdown := promotion.ComposePrice(req.OriginalPrice, discount, selected)
	h.OK(c, dto.FinalPriceResponse{
		FinalPrice: breakdown.Final,
		Formatted:  types.FormatPrice(breakdown.Final, currency),
		Currency:   string(currency),
		Breakdown:  breakdown,
	})
}
