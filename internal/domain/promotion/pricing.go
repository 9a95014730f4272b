package promotion

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"motodealer/internal/core/apperror"
	"motodealer/internal/core/types"
	"motodealer/pkg/logger"
)

// DiscountType is the kind of manual discount a salesperson applies.
type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// ParseDiscountType parses a discount type. Empty means DiscountNone.
func ParseDiscountType(s string) (DiscountType, error) {
	switch t := DiscountType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return DiscountNone, nil
	case DiscountNone, DiscountPercentage, DiscountFixed:
		return t, nil
	}
	return "", apperror.NewValidation("unknown discount type").
		WithDetail("field", "discountType").
		WithDetail("value", s)
}

// ManualDiscount is applied before any promotion.
type ManualDiscount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Apply returns price after the manual discount.
func (d ManualDiscount) Apply(price decimal.Decimal) decimal.Decimal {
	switch d.Type {
	case DiscountPercentage:
		return price.Mul(types.DiscountFactor(d.Value))
	case DiscountFixed:
		return price.Sub(d.Value)
	default:
		return price
	}
}

// PriceStep records the running price after one promotion.
type PriceStep struct {
	PromotionID string          `json:"promotionId"`
	Name        string          `json:"name"`
	Factor      decimal.Decimal `json:"factor"`
	PriceAfter  decimal.Decimal `json:"priceAfter"`
}

// PriceBreakdown shows how a final price was reached.
type PriceBreakdown struct {
	Original            decimal.Decimal `json:"original"`
	AfterManualDiscount decimal.Decimal `json:"afterManualDiscount"`
	Steps               []PriceStep     `json:"steps"`
	Final               decimal.Decimal `json:"final"`
}

// FinalPrice applies the manual discount and then each promotion in order.
// The result is never negative.
func FinalPrice(original decimal.Decimal, discount ManualDiscount, promotions []Promotion) decimal.Decimal {
	return ComposePrice(original, discount, promotions).Final
}

// ComposePrice is FinalPrice with the intermediate prices kept.
//
// Promotions compose multiplicatively in the order given, so
// [discount 10, surcharge 10] yields 0.99 of the price, not 1.0.
func ComposePrice(original decimal.Decimal, discount ManualDiscount, promotions []Promotion) PriceBreakdown {
	price := discount.Apply(original)
	b := PriceBreakdown{
		Original:            original,
		AfterManualDiscount: price,
		Steps:               make([]PriceStep, 0, len(promotions)),
	}

	for _, p := range promotions {
		factor := decimal.NewFromInt(1)
		if p.DiscountRate != nil {
			factor = factor.Mul(types.DiscountFactor(*p.DiscountRate))
		}
		if p.SurchargeRate != nil {
			factor = factor.Mul(types.SurchargeFactor(*p.SurchargeRate))
		}
		price = price.Mul(factor)

		b.Steps = append(b.Steps, PriceStep{
			PromotionID: p.ID.String(),
			Name:        p.Name,
			Factor:      factor,
			PriceAfter:  price,
		})
	}

	b.Final = types.NonNegative(price)
	return b
}

// RemainingInput carries what has already been paid against a sale.
type RemainingInput struct {
	FinalPrice  types.Amount
	Reservation *types.Amount
	DownPayment decimal.Decimal

	// ExchangeRate is ARS per USD. It is only needed when the reservation
	// currency differs from the sale currency.
	ExchangeRate *decimal.Decimal
}

// RemainingAmount subtracts the reservation and down payment from the
// final price, converting the reservation into the sale currency.
//
// A cross-currency reservation without a usable exchange rate is not
// converted: the final price is returned as is and a warning is logged.
func RemainingAmount(ctx context.Context, in RemainingInput) decimal.Decimal {
	reservation := decimal.Zero
	if in.Reservation != nil && !in.Reservation.Value.IsZero() {
		converted, ok := ConvertReservation(in.FinalPrice.Currency, *in.Reservation, in.ExchangeRate)
		if !ok {
			logger.Warn(ctx, "reservation not converted, returning final price",
				"sale_currency", string(in.FinalPrice.Currency),
				"reservation_currency", string(in.Reservation.Currency),
				"reservation", in.Reservation.Value.String(),
				"has_exchange_rate", in.ExchangeRate != nil,
			)
			return in.FinalPrice.Value
		}
		reservation = converted
	}

	return in.FinalPrice.Value.Sub(reservation).Sub(in.DownPayment)
}

// ConvertReservation expresses reservation in the sale currency.
// The boolean is false when the pair is unsupported or the rate is missing.
func ConvertReservation(sale types.CurrencyCode, reservation types.Amount, rate *decimal.Decimal) (decimal.Decimal, bool) {
	if reservation.Currency == sale {
		return reservation.Value, true
	}
	if rate == nil || !rate.IsPositive() {
		return decimal.Zero, false
	}

	switch {
	case sale == types.USD && reservation.Currency == types.ARS:
		return reservation.Value.Div(*rate), true
	case sale == types.ARS && reservation.Currency == types.USD:
		return reservation.Value.Mul(*rate), true
	default:
		return decimal.Zero, false
	}
}
