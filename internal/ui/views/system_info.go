package views

import (
	"strings"

	"github.com/pterm/pterm"
)

type SystemInfoItem struct {
	ConfigPath   string
	AppDataDir   string
	DBDriver     string
	DBPath       string
	DBExists     bool // only meaningful for sqlite3
	RPCURL       string
	WSURL        string
	ChainID      int64
	Contract     string
	MetadataAPI  string
	Senders      []string
	AuthRequired bool
}

func RenderSystemInfo(data SystemInfoItem) error {
	dbStatus := pterm.Green("Found")
	if !data.DBExists {
		dbStatus = pterm.Red("Not Found (Will be created)")
	}

	configPath := data.ConfigPath
	if configPath == "" {
		configPath = pterm.Gray("(defaults)")
	}

	senders := strings.Join(data.Senders, "\n")
	if senders == "" {
		senders = pterm.Red("none configured")
	}

	auth := pterm.Gray("disabled")
	if data.AuthRequired {
		auth = pterm.Green("required")
	}

	tableData := pterm.TableData{
		{"Configuration File", configPath},
		{"AppData Directory", data.AppDataDir},
		{"Database Driver", data.DBDriver},
		{"Database", data.DBPath},
	}
	if data.DBDriver == "sqlite3" || data.DBDriver == "sqlite" || data.DBDriver == "" {
		tableData = append(tableData, []string{"Database Status", dbStatus})
	}
	tableData = append(tableData,
		[]string{"Ledger RPC", data.RPCURL},
		[]string{"Ledger WebSocket", data.WSURL},
		[]string{"Chain ID", pterm.Sprint(data.ChainID)},
		[]string{"Token Contract", data.Contract},
		[]string{"Metadata API", data.MetadataAPI},
		[]string{"Allowed Senders", senders},
		[]string{"Bearer Auth", auth},
	)

	return pterm.DefaultTable.WithData(tableData).Render()
}
