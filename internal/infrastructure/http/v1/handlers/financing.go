package handlers

import (
	"github.com/gin-gonic/gin"

	"motodealer/internal/domain/financing"
	"motodealer/internal/infrastructure/http/v1/dto"
	"motodealer/pkg/logger"
)

// FinancingHandler serves the installment calculator.
type FinancingHandler struct {
	*BaseHandler
}

// NewFinancingHandler creates a new financing handler.
func NewFinancingHandler(base *BaseHandler) *FinancingHandler {
	return &FinancingHandler{BaseHandler: base}
}

// Schedule computes an amortization schedule.
// POST /financing/schedule
func (h *FinancingHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	plan, err := req.ToPlan()
	if err != nil {
		h.Error(c, err)
		return
	}

	res := financing.Calculate(plan)
	if res.Degraded() {
		logger.Warn(c.Request.Context(), "schedule degraded",
			"warning", res.Warning,
			"installments", plan.Installments,
			"annual_rate", plan.AnnualRatePercent.String(),
		)
	}
	h.OK(c, res)
}
