package promotion

import (
	"sort"

	"github.com/shopspring/decimal"
)

// InstallmentOption is the best rate available for an installment count.
type InstallmentOption struct {
	Installments int             `json:"installments"`
	InterestRate decimal.Decimal `json:"interestRate"`
}

// AvailableInstallmentPlans merges the enabled plans of all promotions,
// keeping the lowest rate per installment count, sorted by count.
func AvailableInstallmentPlans(promotions []Promotion) []InstallmentOption {
	best := BestRatesByInstallment(promotions)

	options := make([]InstallmentOption, 0, len(best))
	for n, rate := range best {
		options = append(options, InstallmentOption{Installments: n, InterestRate: rate})
	}
	sort.Slice(options, func(i, j int) bool {
		return options[i].Installments < options[j].Installments
	})
	return options
}

// BestRatesByInstallment maps each enabled installment count to the lowest
// interest rate any of the promotions offers for it.
func BestRatesByInstallment(promotions []Promotion) map[int]decimal.Decimal {
	best := make(map[int]decimal.Decimal)
	for _, p := range promotions {
		for _, plan := range p.EnabledPlans() {
			if current, ok := best[plan.Installments]; !ok || plan.InterestRate.LessThan(current) {
				best[plan.Installments] = plan.InterestRate
			}
		}
	}
	return best
}
