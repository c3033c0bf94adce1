package billing

import (
	"github.com/hance08/keasync/internal/config"
	"github.com/hance08/keasync/internal/service"
	"github.com/spf13/cobra"
)

func NewBillingCmd(svc *service.Service, cfg *config.Config) *cobra.Command {
	billingCmd := &cobra.Command{
		Use:   "billing",
		Short: "Synchronize the billing account with the billing service",
		Long: `Pull created, updated and deleted transactions from the billing service
into the billing account, and acknowledge what was applied.`,
	}

	billingCmd.AddCommand(NewSyncCmd(svc))
	billingCmd.AddCommand(NewStatusCmd(svc))
	billingCmd.AddCommand(NewConfigureCmd(cfg))
	billingCmd.AddCommand(NewResetCmd(svc))

	return billingCmd
}
