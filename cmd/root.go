package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hance08/keasync/cmd/account"
	"github.com/hance08/keasync/cmd/billing"
	"github.com/hance08/keasync/cmd/transaction"
	"github.com/hance08/keasync/internal/app"
	"github.com/hance08/keasync/internal/config"
	"github.com/hance08/keasync/internal/errhandler"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	logJSON bool
	cfg     *config.Config
)

func Execute(migrations fs.FS) {
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " ERROR ",
		Style: pterm.NewStyle(pterm.BgLightRed, pterm.FgBlack),
	}

	// The app is built before cobra parses, so read the global flags first.
	preParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	application, cleanup, err := app.NewApp(cfg, migrations, logJSON)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "kea",
		Short:         "kea is a CLI personal accounting tool fed by your billing service",
		Long:          `kea keeps a local ledger and synchronizes the billing account with a remote billing feed.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "set the config file path")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")

	rootCmd.AddCommand(account.NewAccountCmd(application.Service))
	rootCmd.AddCommand(transaction.NewTransactionCmd(application.Service))
	rootCmd.AddCommand(billing.NewBillingCmd(application.Service, cfg))
	rootCmd.AddCommand(NewInfoCmd(cfg))
	rootCmd.AddCommand(NewServeCmd(application))

	err = rootCmd.Execute()
	cleanup()
	if err != nil {
		errhandler.HandleError(err)
	}
}

func preParseFlags(args []string) {
	flags := pflag.NewFlagSet("kea", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Usage = func() {}
	flags.SetOutput(io.Discard)
	flags.StringVarP(&cfgFile, "config", "c", "", "")
	flags.BoolVar(&logJSON, "log-json", false, "")
	_ = flags.Parse(args)
}

func initConfig() error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		appDir, err := app.GetAppDataDir()
		if err != nil {
			return fmt.Errorf("error getting app dir: %w", err)
		}

		viper.AddConfigPath(appDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if err := createDefaultConfig(appDir); err != nil {
			return fmt.Errorf("failed to ensure config file: %w", err)
		}
	}

	viper.SetEnvPrefix("KEA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // allow using environment variables to override
	// Secrets are never written as defaults, so bind them explicitly.
	_ = viper.BindEnv("billing.base_url")
	_ = viper.BindEnv("billing.api_key")

	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}

		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return fmt.Errorf("config file error: %w", err)
		}
	}

	cfg = config.NewDefault()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode into struct, %v", err)
	}

	path, err := expandPath(cfg.Database.Path)
	if err != nil {
		return err
	}
	cfg.Database.Path = path
	cfg.ConfigPath = viper.ConfigFileUsed()

	return nil
}

func setDefaults() {
	def := config.NewDefault()
	viper.SetDefault("database.path", def.Database.Path)
	viper.SetDefault("defaults.currency", def.Defaults.Currency)
	viper.SetDefault("billing.limit", def.Billing.Limit)
	viper.SetDefault("billing.timeout", def.Billing.Timeout.String())
	viper.SetDefault("server.addr", def.Server.Addr)
	viper.SetDefault("server.sync_interval", "0s")
	viper.SetDefault("log.level", def.Log.Level)
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~\\") {
			return filepath.Join(home, path[2:]), nil
		}
	}
	return path, nil
}

func createDefaultConfig(appDir string) error {
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(appDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
