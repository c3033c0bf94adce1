/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package transaction

import (
	"github.com/hance08/keasync/internal/service"
	"github.com/spf13/cobra"
)

func NewTransactionCmd(svc *service.Service) *cobra.Command {
	transactionCmd := &cobra.Command{
		Use:     "transaction",
		Aliases: []string{"tx"},
		Short:   "View transactions",
		Long:    "View transactions recorded manually or imported from the billing service.",
	}

	transactionCmd.AddCommand(NewListCmd(svc))

	return transactionCmd
}
