package cmd

import (
	"os"
	"path/filepath"

	"github.com/hance08/keasync/internal/app"
	"github.com/hance08/keasync/internal/config"
	"github.com/hance08/keasync/internal/ui/views"
	"github.com/spf13/cobra"
)

type infoRunner struct {
	cfg *config.Config
}

func NewInfoCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Display application information",
		Long:  `Display current configuration, database path, billing service and system details.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &infoRunner{
				cfg: cfg,
			}

			return runner.Run()
		},
	}
}

func (r *infoRunner) Run() error {
	configPath := r.cfg.ConfigPath
	if configPath == "" {
		configPath = "(None, using defaults)"
	}

	appDir, err := app.GetAppDataDir()
	if err != nil {
		appDir = "Unknown"
	}

	dbPath := r.cfg.Database.Path
	if dbPath == "" {
		dbPath = filepath.Join(appDir, "kea.db")
	}

	dbExists := false
	if _, err := os.Stat(dbPath); err == nil {
		dbExists = true
	}

	items := views.SystemInfoItem{
		ConfigPath:        configPath,
		DBPath:            dbPath,
		DBExists:          dbExists,
		DefaultCurrency:   r.cfg.Defaults.Currency,
		AppDataDir:        appDir,
		BillingURL:        r.cfg.Billing.BaseURL,
		BillingConfigured: r.cfg.Billing.Validate() == nil,
	}

	return views.RenderSystemInfo(items)
}
