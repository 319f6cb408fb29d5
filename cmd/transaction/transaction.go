/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package transaction

import (
	"github.com/hance08/dtl/internal/app"
	"github.com/spf13/cobra"
)

func NewTransactionCmd(loader *app.Loader) *cobra.Command {
	transactionCmd := &cobra.Command{
		Use:     "transaction",
		Aliases: []string{"tx"},
		Short:   "Inspect recorded transfers",
		Long:    "Inspect recorded transfers: list recent ones or show one with its metadata document.",
	}

	transactionCmd.AddCommand(NewListCmd(loader))
	transactionCmd.AddCommand(NewShowCmd(loader))

	return transactionCmd
}
