package service

import "github.com/shopspring/decimal"

// formatAmount renders a minor-unit amount as a major-unit decimal string
// for chat messages (1500 -> "15").
func formatAmount(minor int64) string {
	return decimal.NewFromInt(minor).Shift(-2).String()
}
