package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "motodealer/internal/core/context"
)

const (
	HeaderOperatorID = "X-Operator-ID"
	HeaderBranch     = "X-Branch"
)

// Operator copies the salesperson and branch headers into the request
// context. They label logs and archived quotes; nothing is authorized on them.
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID := c.GetHeader(HeaderOperatorID)
		branch := c.GetHeader(HeaderBranch)
		if operatorID != "" || branch != "" {
			ctx := appctx.WithOperator(c.Request.Context(), &appctx.OperatorContext{
				OperatorID: operatorID,
				Branch:     branch,
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
