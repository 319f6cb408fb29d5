package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode"

	"github.com/hance08/dtl/cmd/account"
	"github.com/hance08/dtl/cmd/transaction"
	"github.com/hance08/dtl/internal/app"
	"github.com/hance08/dtl/internal/config"
	"github.com/hance08/dtl/internal/errhandler"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func Execute(migrations fs.FS) {
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " ERROR ",
		Style: pterm.NewStyle(pterm.BgLightRed, pterm.FgBlack),
	}

	loader := app.NewLoader(migrations)
	rootCmd := NewRootCmd(loader)

	err := rootCmd.Execute()
	loader.Close()

	if err != nil {
		if errhandler.IsCancelled(err) {
			errhandler.HandleError(err)
		}

		pterm.Error.Println(capitalize(err.Error()))
		os.Exit(1)
	}
}

func NewRootCmd(loader *app.Loader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dtl",
		Short: "dtl submits token transfers to a ledger and keeps a local balance cache",
		Long: `dtl submits token transfers to a ledger and keeps a local balance cache.

The submitter (dtl serve) accepts transfers over HTTP and records them as
pending. The confirmer (dtl confirm) follows the ledger's Transfer events,
applies each one to the cached balances and marks the transfer confirmed.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := initConfig()
			if err != nil {
				return err
			}
			loader.SetConfig(cfg)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "set the config file path")

	rootCmd.AddCommand(account.NewAccountCmd(loader))
	rootCmd.AddCommand(transaction.NewTransactionCmd(loader))

	rootCmd.AddCommand(NewServeCmd(loader))
	rootCmd.AddCommand(NewConfirmCmd(loader))
	rootCmd.AddCommand(NewRunCmd(loader))
	rootCmd.AddCommand(NewSeedCmd(loader))
	rootCmd.AddCommand(NewTransferCmd(loader))
	rootCmd.AddCommand(NewInfoCmd(loader))
	rootCmd.AddCommand(NewTokenCmd(loader))

	return rootCmd
}

func initConfig() (*config.Config, error) {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		appDir, err := app.GetAppDataDir()
		if err != nil {
			return nil, fmt.Errorf("error getting app dir: %w", err)
		}

		v.AddConfigPath(appDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if err := createDefaultConfig(v, appDir); err != nil {
			return nil, fmt.Errorf("failed to ensure config file: %w", err)
		}
	}

	config.BindEnv(v) // allow using environment variables to override

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	return cfg, nil
}

func createDefaultConfig(v *viper.Viper, appDir string) error {
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(appDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
