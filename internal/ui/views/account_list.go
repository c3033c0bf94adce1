package views

import (
	"fmt"

	"github.com/hance08/keasync/internal/model"
	"github.com/hance08/keasync/internal/utils"
	"github.com/pterm/pterm"
)

type AccountListView struct{}

func NewAccountListView() *AccountListView {
	return &AccountListView{}
}

func (v *AccountListView) Render(balances []*model.AccountBalance) error {
	headers := []string{"ID", "Name", "Source", "Balance"}
	tableData := pterm.TableData{headers}

	for _, b := range balances {
		acc := b.Account
		balance := fmt.Sprintf("%s %s", utils.FormatAmount(b.Balance), acc.Currency)

		source := pterm.Gray("manual")
		name := acc.Name
		if acc.IsBilling {
			source = pterm.Cyan("billing")
			name = pterm.Cyan(acc.Name)
		}
		if !acc.IsActive {
			name = pterm.Gray(acc.Name + " (inactive)")
		}

		switch b.Balance.Sign() {
		case -1:
			balance = pterm.Red(balance)
		case 1:
			balance = pterm.Green(balance)
		}

		tableData = append(tableData, []string{fmt.Sprintf("%d", acc.ID), name, source, balance})
	}

	pterm.DefaultSection.Printf("Account List")
	if err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Render(); err != nil {
		return err
	}

	pterm.Info.Printf("Total: %d accounts\n", len(balances))

	return nil
}
