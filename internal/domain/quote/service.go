package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"motodealer/internal/core/apperror"
	"motodealer/internal/core/id"
	"motodealer/internal/core/numerator"
	"motodealer/internal/core/tx"
	"motodealer/internal/core/types"
	"motodealer/internal/domain/financing"
	"motodealer/internal/domain/promotion"
	"motodealer/pkg/logger"
)

var tracer = otel.Tracer("motodealer/quote")

// Archive persists quotes.
type Archive interface {
	Save(ctx context.Context, q *Quote) error
}

// Numbering assigns sequential numbers to archived quotes.
type Numbering struct {
	Generator numerator.Generator
	Config    numerator.Config
	Options   *numerator.Options
}

// Service builds and archives quotes.
type Service struct {
	promotions promotion.Repository
	engine     *promotion.EligibilityEngine
	composer   *promotion.Composer
	archive    Archive
	numbering  Numbering
	txm        tx.Manager
	now        func() time.Time
}

// NewService creates a quote service. archive may be nil, in which case
// Save reports the archive as unavailable.
func NewService(
	promotions promotion.Repository,
	engine *promotion.EligibilityEngine,
	composer *promotion.Composer,
	archive Archive,
) *Service {
	return &Service{
		promotions: promotions,
		engine:     engine,
		composer:   composer,
		archive:    archive,
		now:        time.Now,
	}
}

// Build computes a quote for req.
func (s *Service) Build(ctx context.Context, req Request) (q *Quote, err error) {
	ctx, span := tracer.Start(ctx, "quote.Build",
		trace.WithAttributes(
			attribute.String("quote.payment_method", string(req.PaymentMethod)),
			attribute.Int("quote.promotions", len(req.PromotionIDs)),
			attribute.Int("quote.installments", req.Installments),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := validate(req); err != nil {
		return nil, err
	}

	selected := []promotion.Promotion{}
	if len(req.PromotionIDs) > 0 {
		selected, err = s.promotions.GetByIDs(ctx, req.PromotionIDs)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	if err := s.checkApplicable(ctx, selected, req, now); err != nil {
		return nil, err
	}
	if err := s.composer.CheckSelection(selected, req.PaymentMethod); err != nil {
		return nil, err
	}

	pricing := promotion.ComposePrice(req.BasePrice.Value, req.ManualDiscount, selected)
	currency := req.BasePrice.Currency

	remaining := promotion.RemainingAmount(ctx, promotion.RemainingInput{
		FinalPrice:   types.NewAmount(pricing.Final, currency),
		Reservation:  req.Reservation,
		DownPayment:  req.DownPayment,
		ExchangeRate: req.ExchangeRate,
	})

	q = &Quote{
		ID:                 id.New(),
		CreatedAt:          now.UTC(),
		Currency:           currency,
		PaymentMethod:      req.PaymentMethod,
		BasePrice:          req.BasePrice.Value,
		Pricing:            pricing,
		FinalPrice:         pricing.Final,
		RemainingAmount:    remaining,
		Promotions:         refs(selected),
		Installments:       req.Installments,
		InstallmentOptions: promotion.AvailableInstallmentPlans(selected),
		BestRates:          promotion.BestRatesByInstallment(selected),
		AnnualRatePercent:  decimal.Zero,
	}

	if req.Installments > 0 {
		rate, err := s.planRate(req, q.BestRates)
		if err != nil {
			return nil, err
		}

		freq := req.Frequency
		if freq == "" {
			freq = financing.Monthly
		}

		result := financing.Calculate(financing.Plan{
			Principal:         remaining,
			Installments:      req.Installments,
			AnnualRatePercent: rate,
			Frequency:         freq,
			FirstDueDate:      req.FirstDueDate,
		})
		if result.Degraded() {
			logger.Warn(ctx, "installment schedule degraded",
				"warning", result.Warning,
				"principal", remaining.String(),
				"rate", rate.String(),
			)
		}

		q.Frequency = freq
		q.AnnualRatePercent = rate
		q.Financing = &result
	}

	q.Display = display(q)

	logger.Info(ctx, "quote built",
		"quote_id", q.ID.String(),
		"final_price", q.FinalPrice.String(),
		"remaining", q.RemainingAmount.String(),
		"financed", q.Financed(),
	)
	return q, nil
}

// WithNumbering numbers quotes on Save. With a non-nil txm the number and
// the archived quote are written in one transaction.
func (s *Service) WithNumbering(n Numbering, txm tx.Manager) *Service {
	s.numbering = n
	s.txm = txm
	return s
}

// Save archives a built quote, numbering it first when numbering is set up.
func (s *Service) Save(ctx context.Context, q *Quote) error {
	if s.archive == nil {
		return apperror.NewUnavailable("quote archive", nil)
	}
	if s.txm == nil {
		return s.save(ctx, q)
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.save(ctx, q)
	})
}

func (s *Service) save(ctx context.Context, q *Quote) error {
	gen := s.numbering.Generator
	if gen == nil || q.Number != "" {
		return s.archive.Save(ctx, q)
	}

	num, err := gen.GetNextNumber(ctx, s.numbering.Config, s.numbering.Options, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("number quote: %w", err)
	}
	q.Number = num
	if err := s.archive.Save(ctx, q); err != nil {
		q.Number = ""
		return err
	}

	logger.Info(ctx, "quote archived", "quote_id", q.ID.String(), "number", num)
	return nil
}

// checkApplicable rejects selected promotions the sale does not qualify for.
func (s *Service) checkApplicable(ctx context.Context, selected []promotion.Promotion, req Request, at time.Time) error {
	sale := promotion.SaleContext{
		PaymentMethod: req.PaymentMethod,
		CardBrand:     req.CardBrand,
		Bank:          req.Bank,
		Amount:        req.BasePrice.Value,
		Currency:      req.BasePrice.Currency,
		At:            at,
	}
	for _, p := range selected {
		if reason := s.engine.Ineligibility(ctx, p, sale); reason != "" {
			return apperror.NewPromotionNotApplicable(p.ID.String(), reason)
		}
	}
	return nil
}

// planRate picks the annual rate for a financed sale.
func (s *Service) planRate(req Request, best map[int]decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case req.PaymentMethod == promotion.PaymentCurrentAccount:
		return req.AnnualRatePercent, nil
	case req.PaymentMethod.IsCard():
		rate, ok := best[req.Installments]
		if !ok {
			return decimal.Zero, apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"Installment count is not offered by the selected promotions").
				WithDetail("installments", req.Installments)
		}
		return rate, nil
	default:
		return decimal.Zero, apperror.NewValidation("installments are only available for card and current-account sales").
			WithDetail("field", "installments").
			WithDetail("paymentMethod", string(req.PaymentMethod))
	}
}

func validate(req Request) error {
	if req.BasePrice.Value.IsNegative() {
		return apperror.NewValidation("base price must not be negative").
			WithDetail("field", "basePrice")
	}
	if req.BasePrice.Currency != types.ARS && req.BasePrice.Currency != types.USD {
		return apperror.NewValidation("sale currency must be ARS or USD").
			WithDetail("field", "currency").
			WithDetail("value", string(req.BasePrice.Currency))
	}
	if _, err := promotion.ParsePaymentMethod(string(req.PaymentMethod)); err != nil {
		return err
	}
	if req.Installments < 0 {
		return apperror.NewValidation("installments must not be negative").
			WithDetail("field", "installments")
	}
	if err := financing.CheckInstallments(req.Installments); err != nil {
		return err
	}
	seen := make(map[id.ID]struct{}, len(req.PromotionIDs))
	for _, pid := range req.PromotionIDs {
		if _, dup := seen[pid]; dup {
			return apperror.NewValidation("promotion selected more than once").
				WithDetail("field", "promotionIds").
				WithDetail("value", pid.String())
		}
		seen[pid] = struct{}{}
	}
	if req.DownPayment.IsNegative() {
		return apperror.NewValidation("down payment must not be negative").
			WithDetail("field", "downPayment")
	}
	if req.Frequency != "" && !req.Frequency.Valid() {
		return apperror.NewValidation("unknown payment frequency").
			WithDetail("field", "frequency").
			WithDetail("value", string(req.Frequency))
	}
	return nil
}

func refs(promotions []promotion.Promotion) []PromotionRef {
	out := make([]PromotionRef, 0, len(promotions))
	for _, p := range promotions {
		out = append(out, PromotionRef{ID: p.ID, Name: p.Name})
	}
	return out
}

func display(q *Quote) Display {
	d := Display{
		BasePrice:       types.FormatPrice(q.BasePrice, q.Currency),
		FinalPrice:      types.FormatPrice(q.FinalPrice, q.Currency),
		RemainingAmount: types.FormatPrice(q.RemainingAmount, q.Currency),
	}
	if q.Financing != nil {
		d.InstallmentAmount = types.FormatPrice(q.Financing.InstallmentAmount, q.Currency)
		d.TotalPayment = types.FormatPrice(q.Financing.TotalPayment, q.Currency)
	}
	return d
}
