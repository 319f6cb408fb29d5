package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hance08/dtl/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type serveFlags struct {
	Addr string
}

type serveRunner struct {
	loader *app.Loader
	flags  *serveFlags
}

func NewServeCmd(loader *app.Loader) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the transfer submitter HTTP API",
		Long: `Run the transfer submitter HTTP API.

POST /transfer signs the transfer with the sender's configured key, submits it
to the ledger and records it as pending. Balances are not touched here; the
confirmer applies them once the ledger emits the Transfer event.`,
		Example: `  # Listen on the configured address
  dtl serve

  # Listen on another port
  dtl serve --addr :8081`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &serveRunner{
				loader: loader,
				flags:  flags,
			}
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&flags.Addr, "addr", "a", "", "Override server.addr")

	return cmd
}

func (r *serveRunner) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}

	if r.flags.Addr != "" {
		application.Config.Server.Addr = r.flags.Addr
	}

	application.Logger.Info("starting submitter",
		zap.String("rpc_url", application.Config.Ledger.RPCURL),
		zap.String("contract", application.Config.Ledger.ContractAddress),
		zap.Strings("senders", application.Service.Submitter.Senders()),
	)

	return application.NewServer().Run(ctx)
}
