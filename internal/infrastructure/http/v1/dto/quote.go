package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"motodealer/internal/core/types"
	"motodealer/internal/domain/financing"
	"motodealer/internal/domain/promotion"
	"motodealer/internal/domain/quote"
)

// AmountDTO is a money value with its currency.
type AmountDTO struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency" binding:"required"`
}

func (a *AmountDTO) toDomain(field string) (types.Amount, error) {
	currency, err := parseCurrency(field, a.Currency)
	if err != nil {
		return types.Amount{}, err
	}
	return types.NewAmount(a.Value, currency), nil
}

// QuoteRequest is the body of POST /quotes.
type QuoteRequest struct {
	BasePrice      AmountDTO          `json:"basePrice"`
	ManualDiscount *ManualDiscountDTO `json:"manualDiscount"`
	PromotionIDs   []string           `json:"promotionIds"`
	PaymentMethod  string             `json:"paymentMethod" binding:"required"`
	CardBrand      string             `json:"cardBrand"`
	Bank           string             `json:"bank"`

	Reservation  *AmountDTO       `json:"reservation"`
	DownPayment  decimal.Decimal  `json:"downPayment"`
	ExchangeRate *decimal.Decimal `json:"exchangeRate"`

	Installments int             `json:"installments"`
	Frequency    string          `json:"frequency"`
	AnnualRate   decimal.Decimal `json:"annualRate"`
	FirstDueDate *time.Time      `json:"firstDueDate"`

	// Save archives the quote after building it.
	Save bool `json:"save"`
}

// ToRequest converts the body into a quote request.
func (r *QuoteRequest) ToRequest() (quote.Request, error) {
	var req quote.Request

	base, err := r.BasePrice.toDomain("basePrice.currency")
	if err != nil {
		return req, err
	}
	discount, err := r.ManualDiscount.ToDomain()
	if err != nil {
		return req, err
	}
	ids, err := parseIDs("promotionIds", r.PromotionIDs)
	if err != nil {
		return req, err
	}
	method, err := promotion.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return req, err
	}
	freq, err := financing.ParseFrequency(r.Frequency)
	if err != nil {
		return req, err
	}
	if err := financing.CheckInstallments(r.Installments); err != nil {
		return req, err
	}

	req = quote.Request{
		BasePrice:         base,
		ManualDiscount:    discount,
		PromotionIDs:      ids,
		PaymentMethod:     method,
		CardBrand:         r.CardBrand,
		Bank:              r.Bank,
		DownPayment:       r.DownPayment,
		ExchangeRate:      r.ExchangeRate,
		Installments:      r.Installments,
		Frequency:         freq,
		AnnualRatePercent: r.AnnualRate,
	}
	if r.Reservation != nil {
		reservation, err := r.Reservation.toDomain("reservation.currency")
		if err != nil {
			return req, err
		}
		req.Reservation = &reservation
	}
	if r.FirstDueDate != nil {
		req.FirstDueDate = *r.FirstDueDate
	}
	return req, nil
}
