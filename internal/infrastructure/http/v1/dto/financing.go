package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"motodealer/internal/domain/financing"
)

// ScheduleRequest is the body of POST /financing/schedule.
type ScheduleRequest struct {
	Principal    decimal.Decimal `json:"principal"`
	Installments int             `json:"installments"`
	AnnualRate   decimal.Decimal `json:"annualRate"`
	Frequency    string          `json:"frequency"`
	FirstDueDate *time.Time      `json:"firstDueDate"`
}

// ToPlan converts the request into a financing plan.
func (r *ScheduleRequest) ToPlan() (financing.Plan, error) {
	freq, err := financing.ParseFrequency(r.Frequency)
	if err != nil {
		return financing.Plan{}, err
	}
	if err := financing.CheckInstallments(r.Installments); err != nil {
		return financing.Plan{}, err
	}

	plan := financing.Plan{
		Principal:         r.Principal,
		Installments:      r.Installments,
		AnnualRatePercent: r.AnnualRate,
		Frequency:         freq,
	}
	if r.FirstDueDate != nil {
		plan.FirstDueDate = *r.FirstDueDate
	}
	return plan, nil
}
