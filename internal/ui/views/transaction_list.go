package views

import (
	"fmt"

	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/ui"
	"github.com/hance08/dtl/internal/utils"
	"github.com/pterm/pterm"
)

type TransactionListView struct{}

func NewTransactionListView() *TransactionListView {
	return &TransactionListView{}
}

func (v *TransactionListView) Render(transfers []*model.Transfer, limit int) error {
	if len(transfers) == 0 {
		pterm.Warning.Println("No transfers found")
		return nil
	}

	pterm.DefaultSection.Printf("Showing recent transfers (limit: %d)", limit)

	tableData := pterm.TableData{
		{"Hash", "Date", "From", "To", "Amount", "Status", "Block"},
	}

	for _, t := range transfers {
		block := "-"
		if t.BlockNumber > 0 {
			block = fmt.Sprintf("%d", t.BlockNumber)
		}

		tableData = append(tableData, []string{
			utils.ShortHash(t.ID),
			utils.FormatUnix(t.CreatedAt),
			utils.ShortHash(t.From),
			utils.ShortHash(t.To),
			utils.FormatAmount(int64(t.Amount)),
			ui.StatusText(t.Status),
			block,
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Render(); err != nil {
		return err
	}
	pterm.Info.Printf("Total: %d transfers\n", len(transfers))
	return nil
}
