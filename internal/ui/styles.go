package ui

import (
	"fmt"

	"github.com/hance08/dtl/internal/model"
	"github.com/pterm/pterm"
)

func PrintL1Title(format string, a ...interface{}) {
	style := pterm.NewStyle(pterm.BgCyan, pterm.FgBlack, pterm.Bold)

	text := fmt.Sprintf(format, a...)

	paddedText := fmt.Sprintf(" %s   ", text)

	style.Println(paddedText)
}

func PrintL2Title(format string, a ...interface{}) {
	style := pterm.NewStyle(pterm.FgCyan, pterm.Bold)

	text := fmt.Sprintf(format, a...)

	paddedText := fmt.Sprintf("# %s   ", text)

	style.Println(paddedText)
}

// StatusText colors a transfer status for table output.
func StatusText(status model.TransferStatus) string {
	switch status {
	case model.StatusConfirmed:
		return pterm.FgGreen.Sprint(string(status))
	case model.StatusPending:
		return pterm.FgYellow.Sprint(string(status))
	default:
		return string(status)
	}
}
