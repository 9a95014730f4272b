package financing

import (
	"strings"
	"time"

	"motodealer/internal/core/apperror"
)

// Frequency is how often installments fall due.
type Frequency string

const (
	Weekly    Frequency = "WEEKLY"
	Biweekly  Frequency = "BIWEEKLY"
	Monthly   Frequency = "MONTHLY"
	Quarterly Frequency = "QUARTERLY"
	Annually  Frequency = "ANNUALLY"
)

var periodsPerYear = map[Frequency]int64{
	Weekly:    52,
	Biweekly:  26,
	Monthly:   12,
	Quarterly: 4,
	Annually:  1,
}

// ParseFrequency accepts the frequency tokens case-insensitively.
// An empty token means MONTHLY.
func ParseFrequency(s string) (Frequency, error) {
	token := strings.ToUpper(strings.TrimSpace(s))
	if token == "" {
		return Monthly, nil
	}
	f := Frequency(token)
	if !f.Valid() {
		return "", apperror.NewValidation("unknown payment frequency").
			WithDetail("field", "frequency").
			WithDetail("value", s)
	}
	return f, nil
}

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	_, ok := periodsPerYear[f]
	return ok
}

// PeriodsPerYear returns the number of payment periods in a year.
// Unknown values are treated as MONTHLY.
func (f Frequency) PeriodsPerYear() int64 {
	if n, ok := periodsPerYear[f]; ok {
		return n
	}
	return periodsPerYear[Monthly]
}

// Advance returns the due date that lies the given number of periods after t.
func (f Frequency) Advance(t time.Time, periods int) time.Time {
	switch f {
	case Weekly:
		return t.AddDate(0, 0, 7*periods)
	case Biweekly:
		return t.AddDate(0, 0, 14*periods)
	case Quarterly:
		return t.AddDate(0, 3*periods, 0)
	case Annually:
		return t.AddDate(periods, 0, 0)
	default:
		return t.AddDate(0, periods, 0)
	}
}

// MaxInstallments bounds the schedule size a caller may request.
const MaxInstallments = 600

// CheckInstallments rejects counts above MaxInstallments. Non-positive
// counts are left to the calculator, which degrades them.
func CheckInstallments(n int) error {
	if n > MaxInstallments {
		return apperror.NewValidation("too many installments").
			WithDetail("field", "installments").
			WithDetail("max", MaxInstallments)
	}
	return nil
}
