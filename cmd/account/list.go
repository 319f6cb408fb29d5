/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package account

import (
	"context"
	"fmt"

	"github.com/hance08/dtl/internal/app"
	"github.com/hance08/dtl/internal/ui/views"
	"github.com/spf13/cobra"
)

type ListCommandRunner struct {
	loader *app.Loader
}

func NewListCmd(loader *app.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all accounts with their balances",
		Long:    `List every cached account with its display name and current balance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &ListCommandRunner{
				loader: loader,
			}
			return runner.Run(cmd.Context())
		},
	}

	return cmd
}

func (r *ListCommandRunner) Run(ctx context.Context) error {
	application, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}

	accounts, err := application.Service.Account.GetAllAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to get accounts: %w", err)
	}

	return views.NewAccountListView().Render(accounts)
}
