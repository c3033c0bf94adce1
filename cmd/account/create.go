/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package account

import (
	"github.com/hance08/keasync/internal/service"
	"github.com/hance08/keasync/internal/ui/prompts"
	"github.com/hance08/keasync/internal/ui/views"
	"github.com/spf13/cobra"
)

type createFlags struct {
	Name     string
	Currency string
	Balance  string
	Billing  bool
}

type createRunner struct {
	svc   *service.Service
	flags *createFlags
}

func NewCreateCmd(svc *service.Service) *cobra.Command {
	flags := &createFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new account.",
		Long: `Create a new account. Without --name the account is created interactively.

Mark exactly one account with --billing to receive the transactions of the
billing service.

Example: kea account create -n Billing --currency ARS --billing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &createRunner{
				svc:   svc,
				flags: flags,
			}
			if cmd.Flags().Changed("name") {
				return runner.FlagsMode()
			}
			return runner.InteractiveMode()
		},
	}

	cmd.Flags().StringVarP(&flags.Name, "name", "n", "", "Account name")
	cmd.Flags().StringVar(&flags.Currency, "currency", "", "Currency code (defaults to config default)")
	cmd.Flags().StringVarP(&flags.Balance, "balance", "b", "", "Opening balance, e.g. 1500.50")
	cmd.Flags().BoolVar(&flags.Billing, "billing", false, "Receive transactions from the billing service")

	return cmd
}

func (r *createRunner) FlagsMode() error {
	return r.create(service.CreateAccountInput{
		Name:           r.flags.Name,
		Currency:       r.flags.Currency,
		OpeningBalance: r.flags.Balance,
		Billing:        r.flags.Billing,
	})
}

func (r *createRunner) InteractiveMode() error {
	answers, err := prompts.PromptAccount(r.svc.Account.DefaultCurrency(), true)
	if err != nil {
		return err
	}

	return r.create(service.CreateAccountInput{
		Name:           answers.Name,
		Currency:       answers.Currency,
		OpeningBalance: answers.OpeningBalance,
		Billing:        answers.Billing,
	})
}

func (r *createRunner) create(in service.CreateAccountInput) error {
	acc, err := r.svc.Account.CreateAccount(in)
	if err != nil {
		return err
	}
	return views.RenderAccountSuccess(acc)
}
