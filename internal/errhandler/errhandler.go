package errhandler

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
)

// IsCancelled reports whether err came from the user aborting a prompt.
func IsCancelled(err error) bool {
	return errors.Is(err, terminal.InterruptErr) || errors.Is(err, huh.ErrUserAborted)
}

func HandleError(err error) {
	if IsCancelled(err) {
		pterm.Warning.Println("Operation Cancelled")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
