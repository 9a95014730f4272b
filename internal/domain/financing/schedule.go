// Package financing computes installment schedules for current-account sales.
//
// All amounts are decimal and every finalized amount is rounded up to a whole
// currency unit. The calculator never fails: degenerate inputs fall back to an
// equal split and, where the result is less detailed, carry a Warning.
package financing

import (
	"time"

	"github.com/shopspring/decimal"

	"motodealer/internal/core/types"
)

// Fallback warnings attached to a Result.
const (
	WarningNoInstallments  = "installment count must be positive; nothing was scheduled"
	WarningDegenerateRate  = "interest rate per period is -100% or lower; using an equal split without interest"
	WarningZeroDenominator = "interest rate too small to apply the fixed-installment formula; using an equal split without interest"
)

// powScale bounds the scale of intermediate (1+r)^n products.
const powScale = 28

var capitalEpsilon = decimal.New(1, -2)

// ScheduleEntry is one installment of an amortization schedule.
type ScheduleEntry struct {
	InstallmentNumber           int             `json:"installmentNumber"`
	DueDate                     *time.Time      `json:"dueDate,omitempty"`
	CapitalAtPeriodStart        decimal.Decimal `json:"capitalAtPeriodStart"`
	InterestForPeriod           decimal.Decimal `json:"interestForPeriod"`
	Amortization                decimal.Decimal `json:"amortization"`
	CalculatedInstallmentAmount decimal.Decimal `json:"calculatedInstallmentAmount"`
	CapitalAtPeriodEnd          decimal.Decimal `json:"capitalAtPeriodEnd"`
}

// Result is the outcome of a schedule calculation.
// Warning is empty unless the calculation degraded to a fallback.
type Result struct {
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
	TotalPayment      decimal.Decimal `json:"totalPayment"`
	TotalInterest     decimal.Decimal `json:"totalInterest"`
	Schedule          []ScheduleEntry `json:"schedule"`
	Warning           string          `json:"warning,omitempty"`
}

// Degraded reports whether the result came from a fallback path.
func (r Result) Degraded() bool {
	return r.Warning != ""
}

// Plan holds the parameters of a financed sale.
type Plan struct {
	Principal         decimal.Decimal
	Installments      int
	AnnualRatePercent decimal.Decimal
	Frequency         Frequency

	// FirstDueDate, when set, dates the first installment; the rest follow
	// at the plan frequency.
	FirstDueDate time.Time
}

// RatePerPeriod returns annualRatePercent / 100 / periodsPerYear.
func (p Plan) RatePerPeriod() decimal.Decimal {
	periods := decimal.NewFromInt(p.Frequency.PeriodsPerYear())
	return p.AnnualRatePercent.Div(decimal.NewFromInt(100)).Div(periods)
}

// ComputeSchedule builds the schedule for principal repaid in the given
// number of installments at annualRatePercent.
func ComputeSchedule(
	principal decimal.Decimal,
	installments int,
	annualRatePercent decimal.Decimal,
	frequency Frequency,
) Result {
	return Calculate(Plan{
		Principal:         principal,
		Installments:      installments,
		AnnualRatePercent: annualRatePercent,
		Frequency:         frequency,
	})
}

// Calculate builds the schedule for a plan.
//
// Branches, in order:
//  1. non-positive principal or installments: equal split, no interest
//  2. zero annual rate: equal split with the last installment paying off
//  3. rate per period <= -1: equal split with WarningDegenerateRate
//  4. (1+r)^n - 1 == 0: equal split with WarningZeroDenominator
//  5. fixed installment P*r*(1+r)^n / ((1+r)^n - 1), rounded up, with
//     per-period interest rounded up and the last installment absorbing drift
func Calculate(p Plan) Result {
	var res Result

	switch {
	case !p.Principal.IsPositive() || p.Installments <= 0:
		res = nothingToFinance(p.Principal, p.Installments)
	case p.AnnualRatePercent.IsZero():
		res = evenSplit(p.Principal, p.Installments)
	default:
		res = fixedInstallments(p)
	}

	if !p.FirstDueDate.IsZero() {
		for i := range res.Schedule {
			due := p.Frequency.Advance(p.FirstDueDate, i)
			res.Schedule[i].DueDate = &due
		}
	}

	return res
}

func nothingToFinance(principal decimal.Decimal, installments int) Result {
	if installments <= 0 {
		return Result{
			InstallmentAmount: decimal.Zero,
			TotalPayment:      decimal.Zero,
			TotalInterest:     decimal.Zero,
			Schedule:          []ScheduleEntry{},
			Warning:           WarningNoInstallments,
		}
	}

	amount := equalShare(principal, installments)
	res := evenSplit(principal, installments)
	res.InstallmentAmount = amount
	res.TotalPayment = amount.Mul(decimal.NewFromInt(int64(installments)))
	return res
}

// evenSplit amortizes principal in equal rounded-up shares; the last
// installment, or the first one that finds less capital than a share,
// pays whatever capital remains.
// Installments equal amortization, so the total paid is the principal.
func evenSplit(principal decimal.Decimal, installments int) Result {
	amount := equalShare(principal, installments)
	capital := types.NonNegative(principal)
	schedule := make([]ScheduleEntry, 0, installments)

	for n := 1; n <= installments; n++ {
		amortization := amount
		if n == installments || capital.LessThan(amount) {
			amortization = capital
		}
		end := capital.Sub(amortization)

		schedule = append(schedule, ScheduleEntry{
			InstallmentNumber:           n,
			CapitalAtPeriodStart:        capital,
			InterestForPeriod:           decimal.Zero,
			Amortization:                amortization,
			CalculatedInstallmentAmount: amortization,
			CapitalAtPeriodEnd:          end,
		})
		capital = end
	}

	return summarize(schedule)
}

func fixedInstallments(p Plan) Result {
	rate := p.RatePerPeriod()
	if rate.LessThanOrEqual(decimal.NewFromInt(-1)) {
		return fallback(p, WarningDegenerateRate)
	}

	factor := pow(decimal.NewFromInt(1).Add(rate), p.Installments)
	denominator := factor.Sub(decimal.NewFromInt(1))
	if denominator.IsZero() {
		return fallback(p, WarningZeroDenominator)
	}

	fixed := types.CeilUnits(p.Principal.Mul(rate).Mul(factor).Div(denominator))

	capital := p.Principal
	schedule := make([]ScheduleEntry, 0, p.Installments)

	for n := 1; n <= p.Installments; n++ {
		interest := types.CeilUnits(capital.Mul(rate))
		amortization := fixed.Sub(interest)
		installment := fixed

		if n == p.Installments || amortization.GreaterThan(capital) {
			amortization = capital
			installment = types.CeilUnits(capital.Add(interest))
		}

		end := capital.Sub(amortization)
		if end.LessThan(capitalEpsilon) {
			end = decimal.Zero
		}

		schedule = append(schedule, ScheduleEntry{
			InstallmentNumber:           n,
			CapitalAtPeriodStart:        capital,
			InterestForPeriod:           interest,
			Amortization:                amortization,
			CalculatedInstallmentAmount: installment,
			CapitalAtPeriodEnd:          end,
		})
		capital = end
	}

	return summarize(schedule)
}

// fallback is the degraded path: no detailed schedule, no interest.
func fallback(p Plan, warning string) Result {
	amount := equalShare(p.Principal, p.Installments)
	return Result{
		InstallmentAmount: amount,
		TotalPayment:      amount.Mul(decimal.NewFromInt(int64(p.Installments))),
		TotalInterest:     decimal.Zero,
		Schedule:          []ScheduleEntry{},
		Warning:           warning,
	}
}

func summarize(schedule []ScheduleEntry) Result {
	res := Result{
		InstallmentAmount: decimal.Zero,
		TotalPayment:      decimal.Zero,
		TotalInterest:     decimal.Zero,
		Schedule:          schedule,
	}
	if len(schedule) > 0 {
		res.InstallmentAmount = schedule[0].CalculatedInstallmentAmount
	}
	for _, e := range schedule {
		res.TotalPayment = res.TotalPayment.Add(e.CalculatedInstallmentAmount)
		res.TotalInterest = res.TotalInterest.Add(e.InterestForPeriod)
	}
	return res
}

func equalShare(principal decimal.Decimal, installments int) decimal.Decimal {
	if !principal.IsPositive() || installments <= 0 {
		return decimal.Zero
	}
	return types.CeilUnits(principal.Div(decimal.NewFromInt(int64(installments))))
}

// pow computes base^exp by squaring, rounding intermediate products to
// powScale places so the scale does not grow with exp.
func pow(base decimal.Decimal, exp int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base).Round(powScale)
		}
		base = base.Mul(base).Round(powScale)
		exp >>= 1
	}
	return result
}
