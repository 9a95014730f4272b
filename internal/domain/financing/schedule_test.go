package financing

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), append([]any{"want %s, got %s", want, got}, msgAndArgs...)...)
}

func TestComputeSchedule_ZeroRateEqualSplit(t *testing.T) {
	res := ComputeSchedule(dec("120000"), 12, decimal.Zero, Monthly)

	assertDecimal(t, "10000", res.InstallmentAmount)
	assertDecimal(t, "120000", res.TotalPayment)
	assertDecimal(t, "0", res.TotalInterest)
	assert.Empty(t, res.Warning)
	require.Len(t, res.Schedule, 12)

	for _, e := range res.Schedule {
		assertDecimal(t, "10000", e.Amortization)
		assertDecimal(t, "0", e.InterestForPeriod)
	}
	assertDecimal(t, "0", res.Schedule[11].CapitalAtPeriodEnd)
}

func TestComputeSchedule_ZeroRateUnevenSplit(t *testing.T) {
	res := ComputeSchedule(dec("100"), 3, decimal.Zero, Monthly)

	require.Len(t, res.Schedule, 3)
	assertDecimal(t, "34", res.InstallmentAmount)
	assertDecimal(t, "34", res.Schedule[0].Amortization)
	assertDecimal(t, "34", res.Schedule[1].Amortization)
	assertDecimal(t, "32", res.Schedule[2].Amortization)
	assertDecimal(t, "100", res.TotalPayment)
}

func TestComputeSchedule_ZeroRateMoreInstallmentsThanNeeded(t *testing.T) {
	// ceil(10/4) = 3 -> 3, 3, 3, 1
	res := ComputeSchedule(dec("10"), 4, decimal.Zero, Weekly)
	require.Len(t, res.Schedule, 4)
	assertDecimal(t, "1", res.Schedule[3].Amortization)

	// ceil(5/8) = 1 -> five installments of 1, then nothing left
	res = ComputeSchedule(dec("5"), 8, decimal.Zero, Weekly)
	require.Len(t, res.Schedule, 8)
	for i, e := range res.Schedule {
		if i < 5 {
			assertDecimal(t, "1", e.Amortization)
		} else {
			assertDecimal(t, "0", e.Amortization)
			assertDecimal(t, "0", e.CalculatedInstallmentAmount)
		}
	}
	assertDecimal(t, "5", res.TotalPayment)
}

func TestComputeSchedule_ZeroRateFractionalPrincipal(t *testing.T) {
	res := ComputeSchedule(dec("100.5"), 2, decimal.Zero, Monthly)

	require.Len(t, res.Schedule, 2)
	assertDecimal(t, "51", res.InstallmentAmount)
	assertDecimal(t, "51", res.Schedule[0].CalculatedInstallmentAmount)
	assertDecimal(t, "49.5", res.Schedule[1].Amortization)
	assertDecimal(t, "49.5", res.Schedule[1].CalculatedInstallmentAmount)
	assertDecimal(t, "100.5", res.TotalPayment)
	assertDecimal(t, "0", res.TotalInterest)
}

func TestComputeSchedule_ZeroPrincipal(t *testing.T) {
	res := ComputeSchedule(decimal.Zero, 6, dec("45"), Monthly)

	assertDecimal(t, "0", res.InstallmentAmount)
	assertDecimal(t, "0", res.TotalPayment)
	assertDecimal(t, "0", res.TotalInterest)
	require.Len(t, res.Schedule, 6)
	for _, e := range res.Schedule {
		assertDecimal(t, "0", e.Amortization)
		assertDecimal(t, "0", e.InterestForPeriod)
	}
}

func TestComputeSchedule_NegativePrincipalIsNothingToFinance(t *testing.T) {
	res := ComputeSchedule(dec("-5000"), 3, dec("30"), Monthly)

	assertDecimal(t, "0", res.InstallmentAmount)
	assertDecimal(t, "0", res.TotalPayment)
	require.Len(t, res.Schedule, 3)
	assertDecimal(t, "0", res.Schedule[0].CapitalAtPeriodStart)
}

func TestComputeSchedule_NoInstallments(t *testing.T) {
	for _, n := range []int{0, -3} {
		res := ComputeSchedule(dec("1000"), n, dec("30"), Monthly)

		assert.Equal(t, WarningNoInstallments, res.Warning)
		assert.Empty(t, res.Schedule)
		assertDecimal(t, "0", res.TotalPayment)
	}
}

func TestComputeSchedule_StandardMonthly(t *testing.T) {
	// 12% a year, monthly: r = 0.01, theoretical payment 8884.88 -> 8885.
	res := ComputeSchedule(dec("100000"), 12, dec("12"), Monthly)

	require.Len(t, res.Schedule, 12)
	assert.Empty(t, res.Warning)

	first := res.Schedule[0]
	assert.Equal(t, 1, first.InstallmentNumber)
	assertDecimal(t, "100000", first.CapitalAtPeriodStart)
	assertDecimal(t, "1000", first.InterestForPeriod)
	assertDecimal(t, "7885", first.Amortization)
	assertDecimal(t, "8885", first.CalculatedInstallmentAmount)
	assertDecimal(t, "92115", first.CapitalAtPeriodEnd)

	last := res.Schedule[11]
	assertDecimal(t, "8801", last.CapitalAtPeriodStart)
	assertDecimal(t, "89", last.InterestForPeriod)
	assertDecimal(t, "8801", last.Amortization)
	assertDecimal(t, "8890", last.CalculatedInstallmentAmount)
	assertDecimal(t, "0", last.CapitalAtPeriodEnd)

	assertDecimal(t, "8885", res.InstallmentAmount)
	assertDecimal(t, "6625", res.TotalInterest)
	assertDecimal(t, "106625", res.TotalPayment)
}

func TestComputeSchedule_HighRateShortTerm(t *testing.T) {
	// 60% a year, monthly: r = 0.05, theoretical payment 98508.73 -> 98509.
	res := ComputeSchedule(dec("500000"), 6, dec("60"), Monthly)

	require.Len(t, res.Schedule, 6)
	assertDecimal(t, "98509", res.InstallmentAmount)
	assertDecimal(t, "25000", res.Schedule[0].InterestForPeriod)
	assertDecimal(t, "98510", res.Schedule[5].CalculatedInstallmentAmount)
	assertDecimal(t, "91055", res.TotalInterest)
	assertDecimal(t, "591055", res.TotalPayment)
}

func TestComputeSchedule_DegenerateRate(t *testing.T) {
	// -1200% a year over 12 periods is -100% per period.
	res := ComputeSchedule(dec("1200"), 12, dec("-1200"), Monthly)

	assert.Equal(t, WarningDegenerateRate, res.Warning)
	assert.True(t, res.Degraded())
	assert.Empty(t, res.Schedule)
	assertDecimal(t, "100", res.InstallmentAmount)
	assertDecimal(t, "1200", res.TotalPayment)
	assertDecimal(t, "0", res.TotalInterest)
}

func TestComputeSchedule_ZeroDenominator(t *testing.T) {
	// Non-zero annual rate that vanishes once spread per period.
	res := ComputeSchedule(dec("1000"), 3, dec("0.00000000000000000001"), Monthly)

	assert.Equal(t, WarningZeroDenominator, res.Warning)
	assert.Empty(t, res.Schedule)
	assertDecimal(t, "334", res.InstallmentAmount)
	assertDecimal(t, "1002", res.TotalPayment)
}

func TestComputeSchedule_Invariants(t *testing.T) {
	principals := []string{"1", "999", "120000", "4567891", "12345.67"}
	counts := []int{1, 2, 3, 12, 36, 52}
	rates := []string{"0", "5", "24.5", "120"}
	frequencies := []Frequency{Weekly, Biweekly, Monthly, Quarterly, Annually}

	for _, p := range principals {
		for _, n := range counts {
			for _, r := range rates {
				for _, f := range frequencies {
					name := fmt.Sprintf("P=%s/n=%d/rate=%s/%s", p, n, r, f)
					t.Run(name, func(t *testing.T) {
						checkInvariants(t, Plan{
							Principal:         dec(p),
							Installments:      n,
							AnnualRatePercent: dec(r),
							Frequency:         f,
						})
					})
				}
			}
		}
	}
}

func checkInvariants(t *testing.T, plan Plan) {
	t.Helper()

	res := Calculate(plan)
	require.Empty(t, res.Warning)
	require.Len(t, res.Schedule, plan.Installments)

	rate := plan.RatePerPeriod()
	amortized := decimal.Zero
	totalInterest := decimal.Zero
	totalPayment := decimal.Zero

	for i, e := range res.Schedule {
		assert.Equal(t, i+1, e.InstallmentNumber)
		assert.True(t, e.CapitalAtPeriodEnd.LessThanOrEqual(e.CapitalAtPeriodStart), "capital grew at %d", i+1)
		assert.False(t, e.CapitalAtPeriodEnd.IsNegative())
		if i+1 < len(res.Schedule) {
			assert.True(t, e.CapitalAtPeriodEnd.Equal(res.Schedule[i+1].CapitalAtPeriodStart), "broken chain at %d", i+1)
		}

		// Rounding only ever goes up.
		assert.True(t, e.InterestForPeriod.GreaterThanOrEqual(e.CapitalAtPeriodStart.Mul(rate)))
		assert.True(t, e.CalculatedInstallmentAmount.GreaterThanOrEqual(e.Amortization.Add(e.InterestForPeriod)))

		amortized = amortized.Add(e.Amortization)
		totalInterest = totalInterest.Add(e.InterestForPeriod)
		totalPayment = totalPayment.Add(e.CalculatedInstallmentAmount)
	}

	assert.True(t, amortized.Equal(plan.Principal), "amortized %s of %s", amortized, plan.Principal)
	assert.True(t, res.Schedule[len(res.Schedule)-1].CapitalAtPeriodEnd.IsZero())
	assert.True(t, res.TotalInterest.Equal(totalInterest))
	assert.True(t, res.TotalPayment.Equal(totalPayment))
	assert.True(t, res.InstallmentAmount.Equal(res.Schedule[0].CalculatedInstallmentAmount))

	if plan.AnnualRatePercent.IsZero() {
		assert.True(t, res.TotalInterest.IsZero())
		assert.True(t, res.TotalPayment.Equal(amortized), "paid %s for %s", res.TotalPayment, amortized)
	}
}

func TestComputeSchedule_Idempotent(t *testing.T) {
	a := ComputeSchedule(dec("250000"), 24, dec("38"), Biweekly)
	b := ComputeSchedule(dec("250000"), 24, dec("38"), Biweekly)

	assert.Equal(t, a, b)
}

func TestCalculate_DueDates(t *testing.T) {
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	res := Calculate(Plan{
		Principal:         dec("3000"),
		Installments:      3,
		AnnualRatePercent: dec("10"),
		Frequency:         Quarterly,
		FirstDueDate:      start,
	})

	require.Len(t, res.Schedule, 3)
	assert.Equal(t, start, *res.Schedule[0].DueDate)
	assert.Equal(t, start.AddDate(0, 3, 0), *res.Schedule[1].DueDate)
	assert.Equal(t, start.AddDate(0, 6, 0), *res.Schedule[2].DueDate)

	withoutDates := ComputeSchedule(dec("3000"), 3, dec("10"), Quarterly)
	assert.Nil(t, withoutDates.Schedule[0].DueDate)
}

func TestPow(t *testing.T) {
	assertDecimal(t, "1.126825030131969720661201", pow(dec("1.01"), 12))
	assertDecimal(t, "1", pow(dec("1.5"), 0))
	assertDecimal(t, "2.25", pow(dec("1.5"), 2))
}
