package account

import (
	"github.com/hance08/dtl/internal/app"
	"github.com/spf13/cobra"
)

func NewAccountCmd(loader *app.Loader) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Show cached account balances",
		Long:  `Show cached account balances. Balances change only when the confirmer applies a ledger event.`,
	}

	accountCmd.AddCommand(NewListCmd(loader))
	accountCmd.AddCommand(NewShowCmd(loader))

	return accountCmd
}
