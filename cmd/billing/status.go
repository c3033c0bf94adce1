package billing

import (
	"encoding/json"
	"os"

	"github.com/hance08/keasync/internal/service"
	"github.com/hance08/keasync/internal/ui/views"
	"github.com/spf13/cobra"
)

type statusFlags struct {
	JSON bool
}

type statusRunner struct {
	svc   *service.Service
	flags *statusFlags
}

func NewStatusCmd(svc *service.Service) *cobra.Command {
	flags := &statusFlags{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show billing cursors and sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &statusRunner{
				svc:   svc,
				flags: flags,
			}
			return runner.Run()
		},
	}

	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Print the status as JSON")

	return cmd
}

func (r *statusRunner) Run() error {
	st, err := r.svc.Billing.Status()
	if err != nil {
		return err
	}

	if r.flags.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	return views.RenderBillingStatus(st)
}
