package cmd

import (
	"context"
	"fmt"

	"github.com/hance08/dtl/internal/app"
	"github.com/hance08/dtl/internal/service"
	"github.com/hance08/dtl/internal/ui/prompts"
	"github.com/hance08/dtl/internal/utils"
	"github.com/hance08/dtl/internal/validation"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type transferFlags struct {
	From   string
	To     string
	Amount string
	Yes    bool
}

type transferRunner struct {
	loader *app.Loader
	flags  *transferFlags
}

func NewTransferCmd(loader *app.Loader) *cobra.Command {
	flags := &transferFlags{}

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Submit a transfer directly, without the HTTP API",
		Long: `Submit a transfer directly, without the HTTP API.

Runs the same path as POST /transfer: the metadata document is stored, the
transfer is signed with the sender's configured key and the pending record is
written. Missing flags are asked for interactively.`,
		Example: `  # Interactive
  dtl transfer

  # Non-interactive
  dtl transfer --from 0xfe3b557e8fb62b89f4916b721be55ceb828dbd73 \
    --to 0x627306090abab3a6e1400e9345bc60c78a8bef57 --amount 200 --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &transferRunner{
				loader: loader,
				flags:  flags,
			}
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&flags.From, "from", "f", "", "Sender address")
	cmd.Flags().StringVarP(&flags.To, "to", "t", "", "Recipient address")
	cmd.Flags().StringVarP(&flags.Amount, "amount", "a", "", "Whole token units")
	cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Submit without confirmation")

	return cmd
}

func (r *transferRunner) Run(ctx context.Context) error {
	application, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}
	submitter := application.Service.Submitter

	input, err := prompts.PromptTransfer(prompts.TransferInput{
		From:   r.flags.From,
		To:     r.flags.To,
		Amount: r.flags.Amount,
	}, submitter.Senders())
	if err != nil {
		return err
	}

	amount, err := validation.ParseAmount(input.Amount)
	if err != nil {
		return err
	}

	if !r.flags.Yes {
		msg := fmt.Sprintf("Send %s from %s to %s?", utils.FormatAmount(int64(amount)), utils.ShortHash(input.From), utils.ShortHash(input.To))
		ok, err := prompts.PromptConfirm(msg, true)
		if err != nil {
			return err
		}
		if !ok {
			pterm.Warning.Println("Transfer cancelled")
			return nil
		}
	}

	spinner, _ := pterm.DefaultSpinner.Start("Submitting transfer and waiting for the receipt...")
	receipt, err := submitter.SubmitTransfer(ctx, service.TransferRequest{
		From:   input.From,
		To:     input.To,
		Amount: amount,
	})
	if err != nil {
		spinner.Fail("Transfer failed")
		return err
	}
	spinner.Success("Transfer submitted")

	ref := receipt.MetadataReference
	if ref == "" {
		ref = pterm.Yellow("(none, metadata store unavailable)")
	}

	return pterm.DefaultTable.WithData(pterm.TableData{
		{"Status", receipt.Status},
		{"Transfer ID", receipt.TransferID},
		{"Metadata", ref},
	}).Render()
}
