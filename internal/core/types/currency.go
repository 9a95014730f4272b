package types

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// CurrencyCode is an ISO 4217 alphabetic code.
type CurrencyCode string

// Currencies the dealership prices in.
const (
	ARS CurrencyCode = "ARS"
	USD CurrencyCode = "USD"
)

// ParseCurrencyCode normalizes and validates a currency code.
func ParseCurrencyCode(s string) (CurrencyCode, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if !currencyCodeRe.MatchString(code) {
		return "", fmt.Errorf("invalid currency code %q: must be exactly 3 letters", s)
	}
	return CurrencyCode(code), nil
}

// Symbol returns the display symbol for the currency.
func (c CurrencyCode) Symbol() string {
	switch c {
	case ARS:
		return "$"
	case USD:
		return "US$"
	default:
		return string(c)
	}
}

// Amount is a money value paired with its currency.
type Amount struct {
	Value    Money        `json:"value"`
	Currency CurrencyCode `json:"currency"`
}

// NewAmount creates an Amount.
func NewAmount(value Money, currency CurrencyCode) Amount {
	return Amount{Value: value, Currency: currency}
}

// String formats the amount for display.
func (a Amount) String() string {
	return FormatPrice(a.Value, a.Currency)
}

var displayLocale = language.MustParse("es-AR")

// FormatPrice renders an amount for display, rounded up to a whole unit and
// grouped with the dealership locale, e.g. "US$ 12.500".
func FormatPrice(value Money, currency CurrencyCode) string {
	whole := CeilUnits(value)
	p := message.NewPrinter(displayLocale)
	return fmt.Sprintf("%s %s", currency.Symbol(), p.Sprintf("%d", whole.IntPart()))
}
