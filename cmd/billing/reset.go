package billing

import (
	"github.com/AlecAivazis/survey/v2"
	"github.com/hance08/keasync/internal/service"
	"github.com/hance08/keasync/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type resetFlags struct {
	Yes bool
}

type resetRunner struct {
	svc   *service.Service
	flags *resetFlags
}

func NewResetCmd(svc *service.Service) *cobra.Command {
	flags := &resetFlags{}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget billing cursors and refetch the feed from the start",
		Long: `Clear the stored checkpoints and confirmations of the billing account.

The next sync fetches the feed from the beginning. Imported transactions are
kept and events that were already applied are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &resetRunner{
				svc:   svc,
				flags: flags,
			}
			return runner.Run()
		},
	}

	cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func (r *resetRunner) Run() error {
	if !r.flags.Yes {
		pterm.Warning.Println("The next sync will start from the beginning of the billing feed.")

		var confirmation bool
		confirmPrompt := &survey.Confirm{
			Message: "Do you want to reset the billing cursors?",
			Default: false,
		}
		if err := survey.AskOne(confirmPrompt, &confirmation, ui.IconOption()); err != nil {
			return err
		}

		if !confirmation {
			pterm.Info.Println("Reset cancelled")
			return nil
		}
	}

	acc, err := r.svc.Billing.Reset()
	if err != nil {
		return err
	}

	pterm.Success.Printf("Billing cursors of '%s' cleared\n", acc.Name)
	return nil
}
