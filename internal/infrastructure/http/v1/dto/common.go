// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"motodealer/internal/core/apperror"
	"motodealer/internal/core/id"
	"motodealer/internal/core/types"
)

// ListResponse wraps list results.
type ListResponse struct {
	Items any `json:"items"`
	Count int `json:"count"`
}

// IDResponse is returned on create.
type IDResponse struct {
	ID string `json:"id"`
}

func parseIDs(field string, values []string) ([]id.ID, error) {
	ids, err := id.ParseAll(values)
	if err != nil {
		return nil, apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithCause(err)
	}
	return ids, nil
}

func parseCurrency(field, value string) (types.CurrencyCode, error) {
	code, err := types.ParseCurrencyCode(value)
	if err != nil {
		return "", apperror.NewValidation("invalid currency code").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return code, nil
}
