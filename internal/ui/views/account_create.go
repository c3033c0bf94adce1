package views

import (
	"fmt"

	"github.com/hance08/keasync/internal/model"
	"github.com/hance08/keasync/internal/ui"
	"github.com/hance08/keasync/internal/utils"
	"github.com/pterm/pterm"
)

func RenderAccountSuccess(acc *model.Account) error {
	ui.Separator()

	billing := "No"
	if acc.IsBilling {
		billing = pterm.Cyan("Yes")
	}

	tableData := pterm.TableData{
		{pterm.Blue("Account ID"), fmt.Sprintf("%d", acc.ID)},
		{pterm.Blue("Name"), acc.Name},
		{pterm.Blue("Currency"), acc.Currency},
		{pterm.Blue("Opening Balance"), utils.FormatAmount(acc.OpeningBalance)},
		{pterm.Blue("Billing Feed"), billing},
	}

	if err := pterm.DefaultTable.WithData(tableData).Render(); err != nil {
		return err
	}

	pterm.Success.Print("Account created successfully!\n")

	return nil
}
