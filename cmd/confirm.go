package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hance08/dtl/internal/app"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type confirmFlags struct {
	StartBlock    uint64
	StartBlockSet bool
	NoHealth      bool
}

type confirmRunner struct {
	loader *app.Loader
	flags  *confirmFlags
}

func NewConfirmCmd(loader *app.Loader) *cobra.Command {
	flags := &confirmFlags{}

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Follow ledger Transfer events and reconcile the cache",
		Long: `Follow ledger Transfer events and reconcile the cache.

Each event moves the amount between the cached balances, marks the transfer
confirmed and advances the checkpoint. After a restart or a lost subscription
the confirmer replays events from the last checkpoint; events that were
already applied are skipped.`,
		Example: `  # Follow events from the stored checkpoint
  dtl confirm

  # First run against an existing chain
  dtl confirm --start-block 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.StartBlockSet = cmd.Flags().Changed("start-block")
			runner := &confirmRunner{
				loader: loader,
				flags:  flags,
			}
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().Uint64Var(&flags.StartBlock, "start-block", 0, "Block to replay from when no checkpoint exists")
	cmd.Flags().BoolVar(&flags.NoHealth, "no-health", false, "Do not start the health and metrics listener")

	return cmd
}

func (r *confirmRunner) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}

	if r.flags.StartBlockSet {
		application.Config.Confirmer.StartBlock = r.flags.StartBlock
	}

	confirmer, closeSource, err := application.NewConfirmer(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return confirmer.Run(gctx)
	})
	if !r.flags.NoHealth && application.Config.Confirmer.HealthAddr != "" {
		g.Go(func() error {
			return application.NewOpsServer().Run(gctx)
		})
	}

	return g.Wait()
}
