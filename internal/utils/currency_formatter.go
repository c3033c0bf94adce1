package utils

import (
	"fmt"
	"strings"

	"github.com/hance08/keasync/internal/constants"
	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with a fixed number of decimals.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(constants.AmountPlaces)
}

// ParseAmount reads a user-entered amount; "" is zero.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	amountStr = strings.TrimSpace(amountStr)
	if amountStr == "" {
		return decimal.Zero, nil
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount: %s", amountStr)
	}
	return amount, nil
}
