package prompts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/hance08/dtl/internal/validation"
)

// TransferInput holds the answers of the transfer form. Fields already set
// by flags are not asked again.
type TransferInput struct {
	From   string
	To     string
	Amount string
}

// PromptTransfer asks for whatever part of in is still empty. senders is the
// list of addresses the server holds keys for.
func PromptTransfer(in TransferInput, senders []string) (TransferInput, error) {
	if len(senders) == 0 {
		return in, fmt.Errorf("no sender credentials configured")
	}

	var fields []huh.Field

	if in.From == "" {
		in.From = senders[0]
		var opts []huh.Option[string]
		for _, s := range senders {
			opts = append(opts, huh.NewOption(s, s))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("From").
			Description("Sender address (must have a configured key)").
			Options(opts...).
			Value(&in.From))
	}

	if in.To == "" {
		fields = append(fields, huh.NewInput().
			Title("To").
			Description("Recipient address, 0x-prefixed").
			Value(&in.To).
			Validate(func(s string) error {
				return validation.ValidateAddress(strings.TrimSpace(s))
			}))
	}

	if in.Amount == "" {
		fields = append(fields, huh.NewInput().
			Title("Amount").
			Description("Whole token units").
			Value(&in.Amount).
			Validate(validation.ValidateAmountInput))
	}

	if len(fields) == 0 {
		return in, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return in, err
	}

	in.To = strings.TrimSpace(in.To)
	in.Amount = strings.TrimSpace(in.Amount)
	return in, nil
}
