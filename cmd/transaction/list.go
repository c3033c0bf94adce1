package transaction

import (
	"fmt"

	"github.com/hance08/keasync/internal/constants"
	"github.com/hance08/keasync/internal/service"
	"github.com/hance08/keasync/internal/ui/views"
	"github.com/spf13/cobra"
)

type listFlags struct {
	Account string
	Limit   int
}

type listRunner struct {
	svc   *service.Service
	flags *listFlags
}

func NewListCmd(svc *service.Service) *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "l"},
		Short:   "List recent transactions",
		Long: `List recent transactions of one account, newest first.

Without --account the billing account is shown. Imported rows carry the
billing service's transaction id.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &listRunner{
				svc:   svc,
				flags: flags,
			}
			return runner.Run()
		},
	}

	cmd.Flags().StringVarP(&flags.Account, "account", "a", "", "Account name (default: billing account)")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", constants.DefaultListLimit, "Maximum number of transactions to display")

	return cmd
}

func (r *listRunner) Run() error {
	account, transactions, err := r.svc.Transaction.GetTransactionHistory(r.flags.Account, r.flags.Limit)
	if err != nil {
		return fmt.Errorf("failed to get transactions: %w", err)
	}

	return views.NewTransactionListView().Render(account, transactions, r.flags.Limit)
}
