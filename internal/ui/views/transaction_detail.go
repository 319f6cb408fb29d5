package views

import (
	"fmt"

	"github.com/hance08/dtl/internal/metadata"
	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/ui"
	"github.com/hance08/dtl/internal/utils"
	"github.com/pterm/pterm"
)

// RenderTransactionDetail prints one transfer and, when doc is not nil, the
// metadata document its reference points at.
func RenderTransactionDetail(t *model.Transfer, doc *metadata.Document) error {
	block := "-"
	if t.BlockNumber > 0 {
		block = fmt.Sprintf("%d", t.BlockNumber)
	}
	ref := t.MetadataRef
	if ref == "" {
		ref = "-"
	}

	pterm.Println()
	ui.PrintL2Title("Transfer Info")
	infoData := pterm.TableData{
		{"Field", "Value"},
		{"Hash", t.ID},
		{"From", t.From},
		{"To", t.To},
		{"Amount", utils.FormatAmount(int64(t.Amount))},
		{"Status", ui.StatusText(t.Status)},
		{"Block", block},
		{"Metadata", ref},
		{"Created", utils.FormatUnix(t.CreatedAt)},
		{"Updated", utils.FormatUnix(t.UpdatedAt)},
	}
	if err := pterm.DefaultTable.
		WithHasHeader().
		WithHeaderStyle(pterm.NewStyle(pterm.FgGray)).
		WithData(infoData).
		Render(); err != nil {
		return err
	}

	if doc == nil {
		return nil
	}

	pterm.Println()
	ui.PrintL2Title("Metadata Document")
	docData := pterm.TableData{
		{"Field", "Value"},
		{"Type", doc.Type},
		{"From", doc.From},
		{"To", doc.To},
		{"Amount", utils.FormatAmount(int64(doc.Amount))},
		{"Timestamp", doc.Timestamp},
	}

	return pterm.DefaultTable.
		WithHasHeader().
		WithHeaderStyle(pterm.NewStyle(pterm.FgGray)).
		WithData(docData).
		Render()
}
