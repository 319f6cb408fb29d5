package views

import (
	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/utils"
	"github.com/pterm/pterm"
)

type AccountListView struct{}

func NewAccountListView() *AccountListView {
	return &AccountListView{}
}

func (v *AccountListView) Render(accounts []*model.Account) error {
	if len(accounts) == 0 {
		pterm.Warning.Println("No accounts found, run 'dtl seed' first")
		return nil
	}

	headers := []string{"Address", "Name", "Balance"}
	tableData := pterm.TableData{headers}

	for _, acc := range accounts {
		name := acc.DisplayName
		if name == "" {
			name = pterm.Gray("-")
		}

		balance := utils.FormatAmount(acc.Balance)
		// a negative balance means an event debited an address that was never seeded
		if acc.Balance < 0 {
			balance = pterm.Red(balance)
		} else {
			balance = pterm.Green(balance)
		}

		tableData = append(tableData, []string{acc.Address, name, balance})
	}

	pterm.DefaultSection.Printf("Account List")
	if err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Render(); err != nil {
		return err
	}

	pterm.Info.Printf("Total: %d accounts\n", len(accounts))

	return nil
}
