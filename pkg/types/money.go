package types

import "github.com/shopspring/decimal"

// RupeeString renders integer paise as a fixed two-decimal rupee amount.
// All arithmetic stays in integer paise; this is display-only.
func RupeeString(paise int) string {
	return decimal.NewFromInt(int64(paise)).Div(decimal.NewFromInt(100)).StringFixed(2)
}
