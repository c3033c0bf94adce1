package views

import "github.com/pterm/pterm"

type SystemInfoItem struct {
	ConfigPath        string
	DBPath            string
	DBExists          bool // true = Found, false = Not Found
	DefaultCurrency   string
	AppDataDir        string
	BillingURL        string
	BillingConfigured bool
}

func RenderSystemInfo(data SystemInfoItem) error {
	dbStatus := pterm.Green("Found")
	if !data.DBExists {
		dbStatus = pterm.Red("Not Found (Will be created)")
	}

	billing := pterm.Green(data.BillingURL)
	if !data.BillingConfigured {
		billing = pterm.Yellow("Not configured (run 'kea billing configure')")
	}

	tableData := pterm.TableData{
		{"Configuration File", data.ConfigPath},
		{"Database Path", data.DBPath},
		{"Database Status", dbStatus},
		{"Default Currency", data.DefaultCurrency},
		{"AppData Directory", data.AppDataDir},
		{"Billing Service", billing},
	}

	return pterm.DefaultTable.WithData(tableData).Render()
}
