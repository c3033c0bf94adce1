package billing

import (
	"fmt"

	"github.com/hance08/keasync/internal/config"
	"github.com/hance08/keasync/internal/ui/prompts"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type configureRunner struct {
	cfg *config.Config
}

func NewConfigureCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Set the billing service URL, API key and page size",
		Long: `Interactively set the billing service connection and save it to the config file.

KEA_BILLING_BASE_URL and KEA_BILLING_API_KEY still override the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &configureRunner{cfg: cfg}
			return runner.Run()
		},
	}
}

func (r *configureRunner) Run() error {
	next, err := prompts.PromptBillingSettings(r.cfg.Billing)
	if err != nil {
		return err
	}

	viper.Set("billing.base_url", next.BaseURL)
	viper.Set("billing.api_key", next.APIKey)
	viper.Set("billing.limit", next.Limit)

	if err := viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save config to file: %w", err)
	}

	r.cfg.Billing = next
	pterm.Success.Printf("Billing service saved to %s\n", viper.ConfigFileUsed())
	return nil
}
