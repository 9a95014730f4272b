package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"motodealer/internal/domain/promotion"
	"motodealer/internal/infrastructure/http/v1/dto"
)

// PromotionHandler handles bank promotion endpoints.
type PromotionHandler struct {
	*BaseHandler
	service *promotion.Service
	now     func() time.Time
}

// NewPromotionHandler creates a new promotion handler.
func NewPromotionHandler(base *BaseHandler, service *promotion.Service) *PromotionHandler {
	return &PromotionHandler{
		BaseHandler: base,
		service:     service,
		now:         time.Now,
	}
}

// List returns the promotion catalogue.
// GET /promotions
func (h *PromotionHandler) List(c *gin.Context) {
	var query dto.ListPromotionsQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items: dto.FromPromotions(items),
		Count: len(items),
	})
}

// Create adds a promotion to the catalogue.
// POST /promotions
func (h *PromotionHandler) Create(c *gin.Context) {
	var req dto.CreatePromotionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID.String())
}

// Applicable returns the promotions that apply to a sale.
// POST /promotions/applicable
func (h *PromotionHandler) Applicable(c *gin.Context) {
	var req dto.SaleContextRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sale, err := req.ToSaleContext(h.now())
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.Applicable(c.Request.Context(), sale)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items: dto.FromPromotions(items),
		Count: len(items),
	})
}

// Compatibility reports whether a promotion can join a selection.
// POST /promotions/compatibility
func (h *PromotionHandler) Compatibility(c *gin.Context) {
	var req dto.CompatibilityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	candidate, selected, method, err := req.Parse()
	if err != nil {
		h.Error(c, err)
		return
	}

	ok, err := h.service.CheckCompatibility(c.Request.Context(), candidate, selected, method)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.CompatibilityResponse{
		Compatible:    ok,
		OverlapPolicy: string(h.service.Composer().Policy()),
	})
}

// InstallmentOptions merges the installment plans of a selection.
// POST /promotions/installment-options
func (h *PromotionHandler) InstallmentOptions(c *gin.Context) {
	var req dto.PromotionIDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ids, err := req.IDs()
	if err != nil {
		h.Error(c, err)
		return
	}

	selected, err := h.service.GetByIDs(c.Request.Context(), ids)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.InstallmentOptionsResponse{
		Options:   promotion.AvailableInstallmentPlans(selected),
		BestRates: promotion.BestRatesByInstallment(selected),
	})
}
