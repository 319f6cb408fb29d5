package account

import (
	"context"
	"fmt"

	"github.com/hance08/dtl/internal/app"
	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/ui/views"
	"github.com/spf13/cobra"
)

type showRunner struct {
	loader *app.Loader
}

func NewShowCmd(loader *app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "show <address>",
		Short: "Show one account's cached balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &showRunner{loader: loader}
			return runner.Run(cmd.Context(), args[0])
		},
	}
}

func (r *showRunner) Run(ctx context.Context, address string) error {
	application, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}

	acc, err := application.Service.Account.GetAccount(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	return views.NewAccountListView().Render([]*model.Account{acc})
}
