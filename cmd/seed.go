package cmd

import (
	"context"
	"fmt"

	"github.com/hance08/dtl/internal/app"
	"github.com/hance08/dtl/internal/ui"
	"github.com/hance08/dtl/internal/ui/views"
	"github.com/hance08/dtl/internal/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type seedFlags struct {
	Yes bool
}

type seedRunner struct {
	loader *app.Loader
	flags  *seedFlags
}

func NewSeedCmd(loader *app.Loader) *cobra.Command {
	flags := &seedFlags{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the cached accounts with the configured seed set",
		Long: `Replace the cached accounts with the configured seed set.

Every cached account is removed and the accounts listed under 'seed' in the
config file are inserted with their starting balances. Transfer history and
the confirmer checkpoint are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &seedRunner{
				loader: loader,
				flags:  flags,
			}
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func (r *seedRunner) Run(ctx context.Context) error {
	application, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}

	seeds := application.Service.Account.ConfiguredSeeds()

	if !r.flags.Yes {
		ui.PrintL1Title("Seed accounts")
		for _, s := range seeds {
			pterm.Printf("  %s  %-12s %s\n", s.Address, s.Name, utils.FormatAmount(s.Balance))
		}
		pterm.Println()

		ok, err := ui.Confirm(fmt.Sprintf("Replace all cached accounts with these %d?", len(seeds)), false)
		if err != nil {
			return err
		}
		if !ok {
			pterm.Warning.Println("Seed cancelled")
			return nil
		}
	}

	accounts, err := application.Service.Account.Seed(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed accounts: %w", err)
	}

	pterm.Success.Printf("Seeded %d accounts\n", len(accounts))
	return views.NewAccountListView().Render(accounts)
}
