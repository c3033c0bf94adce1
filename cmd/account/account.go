package account

import (
	"github.com/hance08/keasync/internal/service"
	"github.com/spf13/cobra"
)

func NewAccountCmd(svc *service.Service) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Create accounts and show the list of all accounts.",
		Long:  `Create accounts and show the list of all accounts with their balances.`,
	}

	accountCmd.AddCommand(NewCreateCmd(svc))
	accountCmd.AddCommand(NewListCmd(svc))

	return accountCmd
}
