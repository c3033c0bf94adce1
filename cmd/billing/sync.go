package billing

import (
	"context"

	"github.com/hance08/keasync/internal/service"
	"github.com/hance08/keasync/internal/ui/views"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type syncFlags struct {
	Limit int
}

type syncRunner struct {
	svc   *service.Service
	flags *syncFlags
}

func NewSyncCmd(svc *service.Service) *cobra.Command {
	flags := &syncFlags{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch and apply one page of billing changes",
		Long: `Fetch one page of transaction events and changes, apply them to the billing
account in a single database transaction, then acknowledge the page.

If the acknowledgment fails the changes stay applied and the page is fetched
again next time; replayed events are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &syncRunner{
				svc:   svc,
				flags: flags,
			}
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 0, "Events per stream, 1 to 500 (default from config)")

	return cmd
}

func (r *syncRunner) Run(ctx context.Context) error {
	spinner, _ := pterm.DefaultSpinner.Start("Synchronizing with the billing service...")

	report, err := r.svc.Billing.Sync(ctx, r.flags.Limit)
	if spinner != nil {
		_ = spinner.Stop()
	}

	if report != nil {
		if renderErr := views.RenderSyncReport(report); renderErr != nil {
			return renderErr
		}
	}
	return err
}
