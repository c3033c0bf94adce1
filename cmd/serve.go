package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hance08/keasync/internal/app"
	"github.com/hance08/keasync/internal/server"
	"github.com/spf13/cobra"
)

type serveFlags struct {
	Addr     string
	Interval time.Duration
	Limit    int
}

type serveRunner struct {
	app   *app.App
	flags *serveFlags
}

func NewServeCmd(application *app.App) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the billing sync trigger server",
		Long: `Serve POST /billing/sync, GET /billing/status, /metrics and /healthz.

With --interval the server also syncs on a timer. Timed and HTTP triggered
runs never overlap; a request that arrives during a run gets 409.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &serveRunner{
				app:   application,
				flags: flags,
			}
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&flags.Addr, "addr", application.Config.Server.Addr, "listen address")
	cmd.Flags().DurationVar(&flags.Interval, "interval", application.Config.Server.SyncInterval, "sync every interval (0 disables)")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 0, "events per scheduled sync (default from config)")

	return cmd
}

func (r *serveRunner) Run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(r.app.Service.Billing, r.app.Registry, r.app.Logger)

	go srv.RunScheduler(ctx, r.flags.Interval, r.flags.Limit)

	return srv.ListenAndServe(ctx, r.flags.Addr)
}
