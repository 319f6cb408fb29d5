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

type runRunner struct {
	loader *app.Loader
}

func NewRunCmd(loader *app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the submitter and the confirmer in one process",
		Long: `Run the submitter and the confirmer in one process.

Both share the cache database. The confirmer's health endpoints are served by
the submitter's listener, so confirmer.health_addr is not used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &runRunner{
				loader: loader,
			}
			return runner.Run(cmd.Context())
		},
	}
}

func (r *runRunner) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}

	confirmer, closeSource, err := application.NewConfirmer(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return application.NewServer().Run(gctx)
	})
	g.Go(func() error {
		return confirmer.Run(gctx)
	})

	return g.Wait()
}
