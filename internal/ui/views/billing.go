package views

import (
	"fmt"
	"time"

	"github.com/hance08/keasync/internal/billing"
	"github.com/hance08/keasync/internal/service"
	"github.com/hance08/keasync/internal/ui"
	"github.com/pterm/pterm"
)

func RenderSyncReport(report *billing.Report) error {
	ui.PrintL1Title("Billing Sync")

	tableData := pterm.TableData{
		{pterm.Blue("Run ID"), report.RunID},
		{pterm.Blue("Created"), fmt.Sprintf("%d", report.Counts.Created)},
		{pterm.Blue("Updated"), fmt.Sprintf("%d", report.Counts.Updated)},
		{pterm.Blue("Deleted"), fmt.Sprintf("%d", report.Counts.Deleted)},
		{pterm.Blue("Skipped (replayed)"), fmt.Sprintf("%d", report.Counts.Skipped)},
		{pterm.Blue("Transactions cursor"), cursorPair(report.Cursors.TransactionsConfirmed, report.Cursors.TransactionsCheckpoint)},
		{pterm.Blue("Changes cursor"), cursorPair(report.Cursors.ChangesConfirmed, report.Cursors.ChangesCheckpoint)},
		{pterm.Blue("Synced At"), formatTime(report.SyncedAt)},
	}

	if err := pterm.DefaultTable.WithData(tableData).Render(); err != nil {
		return err
	}

	if report.Acknowledged {
		pterm.Success.Println(report.Summary())
	} else {
		pterm.Warning.Println(report.Summary() + " Not acknowledged yet; the next sync will fetch this page again.")
	}
	return nil
}

func RenderBillingStatus(st *service.BillingStatus) error {
	ui.PrintL2Title("Billing Sync Status")

	configured := pterm.Green(st.BaseURL)
	if !st.Configured {
		configured = pterm.Yellow("Not configured")
	}
	running := pterm.Gray("idle")
	if st.Running {
		running = pterm.Cyan("running")
	}

	tableData := pterm.TableData{
		{pterm.Blue("Billing Service"), configured},
		{pterm.Blue("Account"), fmt.Sprintf("%s (ID %d)", st.AccountName, st.AccountID)},
		{pterm.Blue("State"), running},
		{pterm.Blue("Transactions cursor"), cursorPair(st.Cursors.TransactionsConfirmed, st.Cursors.TransactionsCheckpoint)},
		{pterm.Blue("Changes cursor"), cursorPair(st.Cursors.ChangesConfirmed, st.Cursors.ChangesCheckpoint)},
		{pterm.Blue("Last Synced"), formatTime(st.SyncedAt)},
		{pterm.Blue("Available"), fmt.Sprintf("%d", st.Available)},
		{pterm.Blue("Unavailable"), fmt.Sprintf("%d", st.Unavailable)},
	}

	return pterm.DefaultTable.WithData(tableData).Render()
}

// cursorPair renders "confirmed / checkpoint".
func cursorPair(confirmed, checkpoint *int64) string {
	return fmt.Sprintf("%s / %s", cursorText(confirmed), cursorText(checkpoint))
}

func cursorText(c *int64) string {
	if c == nil {
		return pterm.Gray("none")
	}
	return fmt.Sprintf("%d", *c)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return pterm.Gray("never")
	}
	return t.Local().Format(time.DateTime)
}
