package prompts

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/hance08/keasync/internal/config"
	"github.com/hance08/keasync/internal/constants"
)

// PromptBillingSettings walks through the billing service connection. An
// empty API key answer keeps the current key.
func PromptBillingSettings(current config.BillingConfig) (config.BillingConfig, error) {
	baseURL := current.BaseURL
	var apiKey string
	limit := strconv.Itoa(config.ClampLimit(current.Limit))

	keyDescription := "Sent as the X-API-Key header."
	if current.APIKey != "" {
		keyDescription += " Leave empty to keep the current key."
	}

	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Billing feed URL:").
			Placeholder("https://billing.example.com/api/feed").
			Value(&baseURL).
			Validate(func(s string) error {
				u, err := url.ParseRequestURI(strings.TrimSpace(s))
				if err != nil || u.Host == "" {
					return errors.New("enter an absolute http(s) URL")
				}
				return nil
			}),
		huh.NewInput().
			Title("API key:").
			Description(keyDescription).
			EchoMode(huh.EchoModePassword).
			Value(&apiKey).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" && current.APIKey == "" {
					return errors.New("api key is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Page size:").
			Description(fmt.Sprintf("Events per sync, 1 to %d.", constants.MaxBillingLimit)).
			Value(&limit).
			Validate(func(s string) error {
				n, err := strconv.Atoi(strings.TrimSpace(s))
				if err != nil || n < 1 || n > constants.MaxBillingLimit {
					return fmt.Errorf("page size must be between 1 and %d", constants.MaxBillingLimit)
				}
				return nil
			}),
	)).Run()
	if err != nil {
		return current, err
	}

	next := current
	next.BaseURL = strings.TrimSpace(baseURL)
	if key := strings.TrimSpace(apiKey); key != "" {
		next.APIKey = key
	}
	next.Limit, _ = strconv.Atoi(strings.TrimSpace(limit))
	return next, nil
}
