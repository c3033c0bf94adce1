package validation

import (
	"fmt"
	"strings"

	"github.com/hance08/keasync/internal/constants"
	"github.com/shopspring/decimal"
)

// ValidateAccountName validates a basic account name (without checking existence)
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("account name can't be empty")
	}

	if len(name) > constants.MaxNameLen {
		return fmt.Errorf("account name too long (max %d characters)", constants.MaxNameLen)
	}
	return nil
}

// ValidateCurrency validates a currency code format
func ValidateCurrency(currency string) error {
	currency = strings.TrimSpace(strings.ToUpper(currency))

	if len(currency) != constants.CurrencyLen {
		return fmt.Errorf("currency code must be %d characters (e.g. USD)", constants.CurrencyLen)
	}

	for _, c := range currency {
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("currency code must contain only letters")
		}
	}

	return nil
}

// ValidateOpeningBalance accepts an empty string as zero.
func ValidateOpeningBalance(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	amount, err := decimal.NewFromString(input)
	if err != nil {
		return fmt.Errorf("invalid number format")
	}

	if amount.Exponent() < -constants.AmountPlaces {
		return fmt.Errorf("balance can have at most %d decimal places", constants.AmountPlaces)
	}

	return nil
}
