package cmd

import (
	"os"

	"github.com/hance08/dtl/internal/app"
	"github.com/hance08/dtl/internal/ledger"
	"github.com/hance08/dtl/internal/ui/views"
	"github.com/spf13/cobra"
)

type infoRunner struct {
	loader *app.Loader
}

func NewInfoCmd(loader *app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Display application information",
		Long:  `Display current configuration, database location, ledger endpoints and allowed senders.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &infoRunner{
				loader: loader,
			}

			return runner.Run()
		},
	}
}

func (r *infoRunner) Run() error {
	cfg := r.loader.Config()

	dbPath, err := app.ResolveDSN(cfg.Database)
	if err != nil {
		return err
	}

	dbExists := false
	if _, err := os.Stat(dbPath); err == nil {
		dbExists = true
	}

	creds, err := ledger.ParseCredentials(cfg.Credentials)
	if err != nil {
		return err
	}

	items := views.SystemInfoItem{
		ConfigPath:   cfg.ConfigPath,
		AppDataDir:   getAppDataDirOrUnknown(),
		DBDriver:     cfg.Database.Driver,
		DBPath:       dbPath,
		DBExists:     dbExists,
		RPCURL:       cfg.Ledger.RPCURL,
		WSURL:        cfg.Ledger.WSURL,
		ChainID:      cfg.Ledger.ChainID,
		Contract:     cfg.Ledger.ContractAddress,
		MetadataAPI:  cfg.Metadata.APIURL,
		Senders:      creds.Addresses(),
		AuthRequired: cfg.Auth.Required,
	}

	return views.RenderSystemInfo(items)
}

func getAppDataDirOrUnknown() string {
	dir, err := app.GetAppDataDir()
	if err != nil {
		return "Unknown"
	}
	return dir
}
