package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 31")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrEmptyName         = errors.New("name must not be empty")
	ErrEmailExists       = errors.New("email already registered")
	ErrVersionConflict   = errors.New("optimistic lock conflict")
	ErrProviderFailure   = errors.New("bank provider request failed")
)
