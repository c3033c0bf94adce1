/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package account

import (
	"github.com/hance08/keasync/internal/service"
	"github.com/hance08/keasync/internal/ui/views"
	"github.com/spf13/cobra"
)

type listFlags struct {
	ShowInactive bool
}

type ListCommandRunner struct {
	svc   *service.Service
	flags *listFlags
}

func NewListCmd(svc *service.Service) *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all accounts with their balances",
		Long: `List all accounts in the system with their current balances.
The billing account is highlighted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &ListCommandRunner{
				svc:   svc,
				flags: flags,
			}
			return runner.Run()
		},
	}

	cmd.Flags().BoolVar(&flags.ShowInactive, "all", false, "Show inactive accounts")

	return cmd
}

func (r *ListCommandRunner) Run() error {
	balances, err := r.svc.Account.ListAccounts(r.flags.ShowInactive)
	if err != nil {
		return err
	}

	return views.NewAccountListView().Render(balances)
}
