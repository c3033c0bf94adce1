package errhandler

import (
	"errors"
	"os"
	"unicode"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/charmbracelet/huh"
	"github.com/hance08/keasync/internal/billing"
	"github.com/pterm/pterm"
)

// IsCancelled reports whether the user aborted an interactive prompt.
func IsCancelled(err error) bool {
	return errors.Is(err, terminal.InterruptErr) || errors.Is(err, huh.ErrUserAborted)
}

// HandleError prints err with a hint for the failures users can fix and
// exits. Cancelled prompts exit cleanly.
func HandleError(err error) {
	if IsCancelled(err) {
		pterm.Warning.Println("Operation Cancelled")
		os.Exit(0)
	}

	pterm.Error.Println(capitalize(err.Error()))

	var (
		gatewayErr *billing.GatewayError
		ackErr     *billing.AckError
	)
	switch {
	case errors.Is(err, billing.ErrConfig):
		pterm.Info.Println("Run 'kea billing configure' or set KEA_BILLING_BASE_URL and KEA_BILLING_API_KEY.")
	case errors.Is(err, billing.ErrNoBillingAccount):
		pterm.Info.Println("Create one with 'kea account create --billing'.")
	case errors.As(err, &ackErr):
		pterm.Info.Println("Changes were saved locally and will be acknowledged on the next sync.")
	case errors.As(err, &gatewayErr) && gatewayErr.Kind == billing.GatewayForbidden:
		pterm.Info.Println("Check the API key with 'kea billing configure'.")
	}

	os.Exit(1)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
