package prompts

import (
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/hance08/keasync/internal/validation"
)

type AccountAnswers struct {
	Name           string
	Currency       string
	OpeningBalance string
	Billing        bool
}

// PromptAccount asks for every account field in one form.
func PromptAccount(defaultCurrency string, allowBilling bool) (*AccountAnswers, error) {
	answers := &AccountAnswers{Currency: defaultCurrency}

	fields := []huh.Field{
		huh.NewInput().
			Title("Account Name:").
			Value(&answers.Name).
			Validate(validation.ValidateAccountName),
		huh.NewInput().
			Title("Currency:").
			Description("ISO 4217 code, e.g. USD").
			Value(&answers.Currency).
			Validate(validation.ValidateCurrency),
		huh.NewInput().
			Title("Opening Balance (press Enter for 0):").
			Value(&answers.OpeningBalance).
			Validate(validation.ValidateOpeningBalance),
	}
	if allowBilling {
		fields = append(fields, huh.NewConfirm().
			Title("Receive transactions from the billing service?").
			Affirmative("Yes").
			Negative("No").
			Value(&answers.Billing))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return nil, err
	}

	answers.Name = strings.TrimSpace(answers.Name)
	answers.Currency = strings.ToUpper(strings.TrimSpace(answers.Currency))
	return answers, nil
}
