// Package quote assembles a sale quote: promotions, final price, remaining
// balance and, when financed, the installment schedule.
package quote

import (
	"time"

	"github.com/shopspring/decimal"

	"motodealer/internal/core/id"
	"motodealer/internal/core/types"
	"motodealer/internal/domain/financing"
	"motodealer/internal/domain/promotion"
)

// Request is what the salesperson has chosen for a sale.
type Request struct {
	BasePrice      types.Amount
	ManualDiscount promotion.ManualDiscount

	// PromotionIDs in the order they were selected. Order matters for pricing.
	PromotionIDs  []id.ID
	PaymentMethod promotion.PaymentMethod

	// CardBrand and Bank identify the card for bank promotions and
	// eligibility rules.
	CardBrand string
	Bank      string

	Reservation  *types.Amount
	DownPayment  decimal.Decimal
	ExchangeRate *decimal.Decimal

	// Installments is zero for a single payment.
	Installments int
	Frequency    financing.Frequency

	// AnnualRatePercent applies to current-account sales only; card sales
	// take the rate from the selected promotions.
	AnnualRatePercent decimal.Decimal
	FirstDueDate      time.Time
}

// PromotionRef identifies a promotion applied to a quote.
type PromotionRef struct {
	ID   id.ID  `json:"id"`
	Name string `json:"name"`
}

// Display holds the customer-facing strings for a quote.
type Display struct {
	BasePrice         string `json:"basePrice"`
	FinalPrice        string `json:"finalPrice"`
	RemainingAmount   string `json:"remainingAmount"`
	InstallmentAmount string `json:"installmentAmount,omitempty"`
	TotalPayment      string `json:"totalPayment,omitempty"`
}

// Quote is a computed offer. Number is assigned when it is archived.
type Quote struct {
	ID            id.ID                   `json:"id"`
	Number        string                  `json:"number,omitempty"`
	CreatedAt     time.Time               `json:"createdAt"`
	Currency      types.CurrencyCode      `json:"currency"`
	PaymentMethod promotion.PaymentMethod `json:"paymentMethod"`

	BasePrice       decimal.Decimal          `json:"basePrice"`
	Pricing         promotion.PriceBreakdown `json:"pricing"`
	FinalPrice      decimal.Decimal          `json:"finalPrice"`
	RemainingAmount decimal.Decimal          `json:"remainingAmount"`
	Promotions      []PromotionRef           `json:"promotions"`

	Installments       int                           `json:"installments"`
	Frequency          financing.Frequency           `json:"frequency,omitempty"`
	AnnualRatePercent  decimal.Decimal               `json:"annualRatePercent"`
	Financing          *financing.Result             `json:"financing,omitempty"`
	InstallmentOptions []promotion.InstallmentOption `json:"installmentOptions"`
	BestRates          map[int]decimal.Decimal       `json:"bestRates"`

	Display Display `json:"display"`
}

// Financed reports whether the quote carries an installment schedule.
func (q *Quote) Financed() bool {
	return q.Financing != nil
}
