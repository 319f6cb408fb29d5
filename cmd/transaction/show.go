package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/hance08/dtl/internal/app"
	"github.com/hance08/dtl/internal/metadata"
	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/service"
	"github.com/hance08/dtl/internal/ui/prompts"
	"github.com/hance08/dtl/internal/ui/views"
	"github.com/hance08/dtl/internal/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type showFlags struct {
	Metadata bool
}

type showRunner struct {
	loader *app.Loader
	flags  *showFlags
}

func NewShowCmd(loader *app.Loader) *cobra.Command {
	flags := &showFlags{}

	cmd := &cobra.Command{
		Use:   "show [hash]",
		Short: "Show one transfer",
		Long: `Show one transfer by its ledger transaction hash.

Without a hash, pick one of the recent transfers. With --metadata the
annotation document is fetched from the metadata store as well.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &showRunner{
				loader: loader,
				flags:  flags,
			}
			hash := ""
			if len(args) == 1 {
				hash = args[0]
			}
			return runner.Run(cmd.Context(), hash)
		},
	}

	cmd.Flags().BoolVarP(&flags.Metadata, "metadata", "m", false, "Fetch the metadata document")

	return cmd
}

func (r *showRunner) Run(ctx context.Context, hash string) error {
	application, err := r.loader.Load(ctx)
	if err != nil {
		return err
	}
	svc := application.Service.Transfer

	if hash == "" {
		hash, err = r.pick(ctx, svc)
		if err != nil || hash == "" {
			return err
		}
	}

	if !r.flags.Metadata {
		t, err := svc.GetTransfer(ctx, hash)
		if err != nil {
			return fmt.Errorf("failed to get transfer: %w", err)
		}
		return views.RenderTransactionDetail(t, nil)
	}

	t, doc, err := svc.GetTransferMetadata(ctx, hash)
	switch {
	case err == nil:
	case t != nil && errors.Is(err, service.ErrNoMetadata):
		pterm.Warning.Println("Transfer has no metadata reference")
	case t != nil && errors.Is(err, metadata.ErrUnavailable):
		pterm.Warning.Printf("Metadata store unavailable: %v\n", err)
	default:
		return fmt.Errorf("failed to get transfer: %w", err)
	}

	return views.RenderTransactionDetail(t, doc)
}

func (r *showRunner) pick(ctx context.Context, svc *service.TransferService) (string, error) {
	recent, err := svc.ListTransfers(ctx, model.TransferFilter{Limit: 20})
	if err != nil {
		return "", fmt.Errorf("failed to get transfers: %w", err)
	}
	if len(recent) == 0 {
		pterm.Warning.Println("No transfers found")
		return "", nil
	}

	options := make([]string, 0, len(recent))
	byLabel := make(map[string]string, len(recent))
	for _, t := range recent {
		label := fmt.Sprintf("%s  %s -> %s  %s  %s",
			utils.ShortHash(t.ID), utils.ShortHash(t.From), utils.ShortHash(t.To),
			utils.FormatAmount(int64(t.Amount)), t.Status)
		options = append(options, label)
		byLabel[label] = t.ID
	}

	selected, err := prompts.PromptSelect("Select a transfer", options, options[0])
	if err != nil {
		return "", err
	}
	return byLabel[selected], nil
}
