package views

import (
	"fmt"

	"github.com/hance08/keasync/internal/constants"
	"github.com/hance08/keasync/internal/model"
	"github.com/hance08/keasync/internal/utils"
	"github.com/pterm/pterm"
)

type TransactionListView struct{}

func NewTransactionListView() *TransactionListView {
	return &TransactionListView{}
}

func (v *TransactionListView) Render(account *model.Account, txs []*model.Transaction, limit int) error {
	if len(txs) == 0 {
		pterm.Warning.Printf("No transactions found in '%s'\n", account.Name)
		return nil
	}

	pterm.DefaultSection.Printf("%s: recent transactions (limit: %d)", account.Name, limit)

	tableData := pterm.TableData{
		{"ID", "Date", "Description", "Amount", "Billing ID", "Notes"},
	}

	for _, tx := range txs {
		amount := utils.FormatAmount(tx.Amount)
		if tx.Amount.IsNegative() {
			amount = pterm.Red(amount)
		} else {
			amount = pterm.Green(amount)
		}

		billingID := pterm.Gray("-")
		if tx.IsBillingSourced() {
			billingID = fmt.Sprintf("%d", *tx.BillingTransactionID)
		}

		tableData = append(tableData, []string{
			fmt.Sprintf("%d", tx.ID),
			tx.Date.Format(constants.DateFormat),
			tx.Description,
			amount,
			billingID,
			tx.Notes,
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Render(); err != nil {
		return err
	}
	pterm.Info.Printf("Total: %d transactions\n", len(txs))
	return nil
}
