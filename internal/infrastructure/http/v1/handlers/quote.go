package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"motodealer/internal/domain/quote"
	"motodealer/internal/infrastructure/http/v1/dto"
)

// QuoteHandler builds sale quotes.
type QuoteHandler struct {
	*BaseHandler
	service *quote.Service
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(base *BaseHandler, service *quote.Service) *QuoteHandler {
	return &QuoteHandler{BaseHandler: base, service: service}
}

// Create builds a quote and, when asked, archives it.
// Responds 201 for an archived quote and 200 for a preview.
// POST /quotes
func (h *QuoteHandler) Create(c *gin.Context) {
	var req dto.QuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	q, err := h.service.Build(ctx, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	if !req.Save {
		h.OK(c, q)
		return
	}
	if err := h.service.Save(ctx, q); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}
