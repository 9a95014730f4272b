package promotion

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"

	"motodealer/internal/core/apperror"
	"motodealer/internal/core/types"
	"motodealer/pkg/logger"
)

// SaleContext describes the sale a promotion is checked against.
type SaleContext struct {
	PaymentMethod PaymentMethod      `json:"paymentMethod"`
	CardBrand     string             `json:"cardBrand,omitempty"`
	Bank          string             `json:"bank,omitempty"`
	Amount        decimal.Decimal    `json:"amount"`
	Currency      types.CurrencyCode `json:"currency"`
	At            time.Time          `json:"at"`
}

func (s SaleContext) activation() map[string]any {
	return map[string]any{
		"payment_method": string(s.PaymentMethod),
		"card_brand":     strings.ToLower(s.CardBrand),
		"bank":           strings.ToLower(s.Bank),
		"amount":         s.Amount.InexactFloat64(),
		"currency":       string(s.Currency),
		"weekday":        strings.ToLower(s.At.Weekday().String()),
	}
}

// EligibilityEngine evaluates promotion eligibility rules written in CEL,
// e.g. `card_brand == "visa" && weekday in ["tuesday", "wednesday"]`.
//
// Compiled programs are cached by expression; the engine is safe for
// concurrent use.
type EligibilityEngine struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewEligibilityEngine declares the sale variables rules may reference.
func NewEligibilityEngine() (*EligibilityEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("payment_method", cel.StringType),
		cel.Variable("card_brand", cel.StringType),
		cel.Variable("bank", cel.StringType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("currency", cel.StringType),
		cel.Variable("weekday", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	return &EligibilityEngine{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Check compiles expr and reports a validation error if it is malformed.
func (e *EligibilityEngine) Check(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := e.program(expr)
	return err
}

func (e *EligibilityEngine) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := e.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, apperror.NewBusinessRule(apperror.CodeInvalidEligibilityRule, "Eligibility rule does not compile").
			WithDetail("expression", expr).
			WithCause(iss.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, apperror.NewBusinessRule(apperror.CodeInvalidEligibilityRule, "Eligibility rule cannot be planned").
			WithDetail("expression", expr).
			WithCause(err)
	}

	e.mu.Lock()
	e.programs[expr] = prg
	e.mu.Unlock()
	return prg, nil
}

// Evaluate runs expr against sale. An empty expression is always true.
func (e *EligibilityEngine) Evaluate(ctx context.Context, expr string, sale SaleContext) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}

	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.ContextEval(ctx, sale.activation())
	if err != nil {
		return false, fmt.Errorf("evaluate eligibility %q: %w", expr, err)
	}

	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, apperror.NewBusinessRule(apperror.CodeInvalidEligibilityRule, "Eligibility rule must evaluate to a boolean").
			WithDetail("expression", expr).
			WithDetail("type", fmt.Sprintf("%T", out.Value()))
	}
	return ok, nil
}

// Reasons a promotion does not apply to a sale.
const (
	ReasonDisabled         = "disabled"
	ReasonOutsideValidity  = "outside validity window"
	ReasonPaymentMethod    = "payment method not accepted"
	ReasonBank             = "bank not accepted"
	ReasonRuleNotSatisfied = "eligibility rule not satisfied"
)

// Eligible reports whether p applies to sale: enabled, inside its validity
// window, accepting the payment method and bank, and passing its rule.
// A rule that fails to compile or evaluate makes the promotion ineligible.
func (e *EligibilityEngine) Eligible(ctx context.Context, p Promotion, sale SaleContext) bool {
	return e.Ineligibility(ctx, p, sale) == ""
}

// Ineligibility returns why p does not apply to sale, or "" if it does.
func (e *EligibilityEngine) Ineligibility(ctx context.Context, p Promotion, sale SaleContext) string {
	if !p.IsEnabled {
		return ReasonDisabled
	}
	if !sale.At.IsZero() && !p.ActiveAt(sale.At) {
		return ReasonOutsideValidity
	}
	if !p.AcceptsPaymentMethod(sale.PaymentMethod) {
		return ReasonPaymentMethod
	}
	if p.Bank != "" && !strings.EqualFold(p.Bank, sale.Bank) {
		return ReasonBank
	}

	ok, err := e.Evaluate(ctx, p.Eligibility, sale)
	if err != nil {
		logger.Warn(ctx, "promotion eligibility rule failed",
			"promotion_id", p.ID.String(),
			"expression", p.Eligibility,
			"error", err,
		)
		return ReasonRuleNotSatisfied
	}
	if !ok {
		return ReasonRuleNotSatisfied
	}
	return ""
}

// Applicable filters promotions down to those eligible for sale, keeping order.
func (e *EligibilityEngine) Applicable(ctx context.Context, promotions []Promotion, sale SaleContext) []Promotion {
	out := make([]Promotion, 0, len(promotions))
	for _, p := range promotions {
		if e.Eligible(ctx, p, sale) {
			out = append(out, p)
		}
	}
	return out
}
