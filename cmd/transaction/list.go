package transaction

import (
	"context"
	"fmt"

	"github.com/hance08/dtl/internal/app"
	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/ui/views"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type listFlags struct {
	Account string
	Status  string
	Limit   int
}

type listRunner struct {
	loader *app.Loader
	flags  *listFlags
}

func NewListCmd(loader *app.Loader) *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "l"},
		Short:   "List recent transfers",
		Long: `List recent transfers from the cache.

This command displays a table of transfers with their hash, date, sender,
recipient, amount, status and confirming block.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &listRunner{
				loader: loader,
				flags:  flags,
			}
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&flags.Account, "account", "a", "", "Only transfers sent or received by this address")
	cmd.Flags().StringVarP(&flags.Status, "status", "s", "", "Filter by status (pending, confirmed)")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 20, "Maximum number of transfers to display")

	return cmd
}

func (r *listRunner) Run(ctx context.Context) error {
	application, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}

	transfers, err := application.Service.Transfer.ListTransfers(ctx, model.TransferFilter{
		Account: r.flags.Account,
		Status:  model.TransferStatus(r.flags.Status),
		Limit:   r.flags.Limit,
	})
	if err != nil {
		return fmt.Errorf("failed to get transfers: %w", err)
	}

	if r.flags.Account != "" {
		pterm.Info.Printf("Showing transfers for account: %s\n\n", r.flags.Account)
	}

	return views.NewTransactionListView().Render(transfers, r.flags.Limit)
}
